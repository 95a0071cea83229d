// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Domain sentinels. Wrap them with fmt.Errorf("%w: ...") to add context.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUpstream        = errors.New("upstream provider failure")
)

// Invalidf wraps ErrInvalidArgument with a formatted message.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Map converts repo/infra errors into gRPC-friendly status errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var verrs validator.ValidationErrors

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())

	case errors.As(err, &verrs):
		return status.Error(codes.InvalidArgument, verrs.Error())

	case errors.Is(err, ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())

	case errors.Is(err, ErrUpstream):
		return status.Error(codes.Unavailable, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		// fallback → bubble up error message for debugging
		return status.Error(codes.Internal, err.Error())
	}
}

// InvalidArgument creates a gRPC InvalidArgument error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}

// AlreadyExists creates a gRPC AlreadyExists error.
func AlreadyExists(msg string) error {
	return status.Error(codes.AlreadyExists, msg)
}

// Unauthenticated creates a gRPC Unauthenticated error.
func Unauthenticated(msg string) error {
	return status.Error(codes.Unauthenticated, msg)
}
