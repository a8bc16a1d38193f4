package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrTransport          = errors.New("transport failure")
	ErrNotFound           = errors.New("not found")
	ErrSubmission         = errors.New("batch submission failed")
	ErrDeletePending      = errors.New("delete already in flight")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionActive      = errors.New("session already authenticated")
	ErrForbidden          = errors.New("operation is not permitted for role")
	ErrUnknownRole        = errors.New("unknown role")
	ErrUnknownKind        = errors.New("unknown resource kind")
	ErrRowIndex           = errors.New("draft row index out of range")
	ErrUnknownField       = errors.New("unknown draft field")
	ErrUnsupported        = errors.New("operation is not supported")
)

// A ValidationError is resolved locally, no request is issued for it.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	if len(e.Reasons) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + strings.Join(e.Reasons, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// A TransportError is a network or server failure of a single request.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	msg := ErrTransport.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func (e *TransportError) Unwrap() error { return e.Err }

// A SubmissionError reports that some create requests of a batch failed.
type SubmissionError struct {
	Submitted int
	Failures  []error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s: %d of %d requests failed: %v",
		ErrSubmission, len(e.Failures), e.Submitted, errors.Join(e.Failures...))
}

func (e *SubmissionError) Is(target error) bool {
	return target == ErrSubmission
}

func (e *SubmissionError) Unwrap() []error { return e.Failures }
