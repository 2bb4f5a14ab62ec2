package bot

import (
	"errors"
	"fmt"
)

var (
	ErrSyncInProgress   = errors.New("a sync is already running on this process")
	ErrInvalidSignature = errors.New("invalid request signature")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrInvalidTemplate  = errors.New("invalid topic template")
)

// UserError is answered to the invoking user as is. Err, when set, is only logged.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}

func userError(message string) error {
	return &UserError{Message: message}
}

func userErrorf(err error, format string, args ...any) error {
	return &UserError{Message: fmt.Sprintf(format, args...), Err: err}
}
