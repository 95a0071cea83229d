package server

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	svcErr "github.com/oggyb/fittrack/internal/errors"
)

// Services exchange google.protobuf.Struct messages whose fields mirror the
// JSON tags of the Go request and response types. This keeps the wire format
// plain protobuf without generated stubs.

// ServiceDesc builds a descriptor for a service made of Unary methods.
func ServiceDesc(name string, methods ...grpc.MethodDesc) *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: name,
		HandlerType: (*interface{})(nil),
		Methods:     methods,
		Streams:     []grpc.StreamDesc{},
		Metadata:    name,
	}
}

// Unary adapts a typed handler to a gRPC method. Decoding failures become
// InvalidArgument and handler errors go through svcErr.Map.
func Unary[Req, Resp any](service, method string, fn func(context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			call := func(ctx context.Context, req interface{}) (interface{}, error) {
				r := new(Req)
				if err := FromStruct(req.(*structpb.Struct), r); err != nil {
					return nil, svcErr.InvalidArgument(err.Error())
				}
				resp, err := fn(ctx, r)
				if err != nil {
					return nil, svcErr.Map(err)
				}
				return ToStruct(resp)
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, call)
		},
	}
}

// ToStruct converts v to a Struct through its JSON form.
func ToStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return out, nil
}

// FromStruct decodes s into v through its JSON form.
func FromStruct(s *structpb.Struct, v any) error {
	if s == nil {
		s = &structpb.Struct{}
	}
	raw, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}
