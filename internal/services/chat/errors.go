// File: internal/services/chat/errors.go
package chat

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeUpstream   ErrorType = "UPSTREAM"
	ErrTypeStorage    ErrorType = "STORAGE"
)

type ChatError struct {
	Type      ErrorType
	Operation string
	Message   string
	ThreadID  string
	Cause     error
}

func (e *ChatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Chat %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("Chat %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *ChatError) Unwrap() error { return e.Cause }

func NewValidationError(operation, msg string) *ChatError {
	return &ChatError{Type: ErrTypeValidation, Operation: operation, Message: msg}
}

func NewNotFoundError(threadID string) *ChatError {
	return &ChatError{
		Type:      ErrTypeNotFound,
		Operation: "lookup",
		Message:   "thread not found",
		ThreadID:  threadID,
	}
}

func NewUpstreamError(operation, msg string, cause error, threadID string) *ChatError {
	return &ChatError{Type: ErrTypeUpstream, Operation: operation, Message: msg, Cause: cause, ThreadID: threadID}
}

func NewStorageError(operation, msg string, cause error, threadID string) *ChatError {
	return &ChatError{Type: ErrTypeStorage, Operation: operation, Message: msg, Cause: cause, ThreadID: threadID}
}

// IsType reports whether err is a *ChatError of the given type.
func IsType(err error, t ErrorType) bool {
	var ce *ChatError
	return errors.As(err, &ce) && ce.Type == t
}
