package storage

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// ErrNotFound is matched by errors.Is when the target object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// errNoSuchKey mirrors the message S3 returns for a missing key. HEAD
// responses carry no body, so the SDK has no message of its own to report.
var errNoSuchKey = errors.New("The specified key does not exist.")

// Error describes a failed storage operation.
type Error struct {
	Op  string // put, list, delete, sign, ping
	Key string
	Err error

	notFound bool
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage.%s %s: %s", e.Op, e.Key, Message(e.Err))
	}
	return fmt.Sprintf("storage.%s: %s", e.Op, Message(e.Err))
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrNotFound) hold for missing-object errors.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.notFound
}

func newError(op, key string, err error) *Error {
	return &Error{Op: op, Key: key, Err: err}
}

func newNotFound(op, key string, err error) *Error {
	return &Error{Op: op, Key: key, Err: err, notFound: true}
}

// Message returns the provider's own message for err, without the operation
// context added by this package. API errors from the AWS SDK are reduced to
// their message (or code when the response had no body).
func Message(err error) string {
	if err == nil {
		return ""
	}

	var se *Error
	if errors.As(err, &se) && se.Err != nil {
		err = se.Err
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.ErrorMessage(); msg != "" {
			return msg
		}
		return apiErr.ErrorCode()
	}
	return err.Error()
}
