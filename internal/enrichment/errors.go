package enrichment

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrTimeout = errors.New("fetch timed out")
	ErrNetwork = errors.New("network failure")
	ErrBlocked = errors.New("request blocked")
	// ErrNotFound is returned by stores when the record no longer exists.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned by stores when a write collides with a unique
	// value held by another record.
	ErrConflict = errors.New("already exists")
)

// TransportKind classifies a failure to retrieve a resource.
type TransportKind string

const (
	Timeout TransportKind = "timeout"
	Network TransportKind = "network"
	Blocked TransportKind = "blocked"
)

// TransportError means the resource could not be retrieved.
type TransportError struct {
	Kind   TransportKind
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s fetching %s", e.Kind, e.URL)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is lets callers match on ErrTimeout, ErrNetwork and ErrBlocked.
func (e *TransportError) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Kind == Timeout
	case ErrNetwork:
		return e.Kind == Network
	case ErrBlocked:
		return e.Kind == Blocked
	}
	return false
}

// ExtractionError means the content was retrieved but could not be parsed.
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return "extract: " + e.Reason
}

// ValidationError means the stored record cannot be processed as it is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid record: " + e.Reason
}

// StorageError is a read or write failure against the record store. It ends the run.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ErrorClass is the label stored and logged for a failed attempt.
type ErrorClass string

const (
	ClassNone       ErrorClass = ""
	ClassTimeout    ErrorClass = "timeout"
	ClassNetwork    ErrorClass = "network"
	ClassBlocked    ErrorClass = "blocked"
	ClassExtraction ErrorClass = "extraction"
	ClassValidation ErrorClass = "validation"
	ClassStorage    ErrorClass = "storage"
	ClassUnknown    ErrorClass = "unknown"
)

// Classify maps an error onto the pipeline taxonomy.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	var (
		transport  *TransportError
		extraction *ExtractionError
		validation *ValidationError
		storage    *StorageError
	)
	switch {
	case errors.As(err, &transport):
		return ErrorClass(transport.Kind)
	case errors.As(err, &extraction):
		return ClassExtraction
	case errors.As(err, &validation):
		return ClassValidation
	case errors.As(err, &storage):
		return ClassStorage
	case errors.Is(err, context.DeadlineExceeded):
		return ClassTimeout
	}
	return ClassUnknown
}
