package common

import (
	"errors"
	"fmt"

	"user-center/logger"
)

// ErrNotFound marks a lookup for an absent record. Services translate
// gorm.ErrRecordNotFound into this before it crosses the web layer.
var ErrNotFound = errors.New("not found")

// ForbiddenError is a policy rejection carrying the human-readable reason
// the transport layer returns with a 403.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

// FieldError is a validation failure keyed to a single request field,
// returned with a 422.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

// ConflictError surfaces a storage-level uniqueness race lost after the
// policy check passed.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// RequestError is a generic bad-request rejection (malformed payloads,
// wrong current password).
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

func NewErrorf(format string, a ...any) error {
	msg := fmt.Sprintf(format, a...)
	return errors.New(msg)
}

func NewError(a ...any) error {
	msg := fmt.Sprintln(a...)
	return errors.New(msg)
}

func Recover(msg string) any {
	panicErr := recover()
	if panicErr != nil {
		if msg != "" {
			logger.Error(msg, "panic:", panicErr)
		}
	}
	return panicErr
}
