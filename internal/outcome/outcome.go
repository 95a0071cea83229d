// Package outcome holds the discriminated status every service response carries.
package outcome

import (
	"errors"
	"fmt"

	svcErr "github.com/oggyb/fittrack/internal/errors"
	"gorm.io/gorm"
)

type Status string

const (
	Success  Status = "success"
	Info     Status = "info"
	NotFound Status = "not_found"
	NoData   Status = "no_data"
	Error    Status = "error"
)

// FromError classifies err into a Status. A nil error is Success, a
// state conflict is Info and a missing record is NotFound.
func FromError(err error) Status {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, svcErr.ErrAlreadyExists), errors.Is(err, gorm.ErrDuplicatedKey):
		return Info
	case errors.Is(err, svcErr.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound
	default:
		return Error
	}
}

// Result is embedded in every service response.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

func OK(message string) Result {
	return Result{Status: Success, Message: message}
}

func Infof(format string, args ...any) Result {
	return Result{Status: Info, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) Result {
	return Result{Status: NotFound, Message: fmt.Sprintf(format, args...)}
}

// Of classifies err and carries its text as the message.
func Of(err error) Result {
	if err == nil {
		return OK("")
	}
	return Result{Status: FromError(err), Message: err.Error()}
}
