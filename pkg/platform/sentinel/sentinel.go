package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrDuplicate: a unique index rejected the write
// - ErrInvalidID: the supplied identifier is not a well-formed object ID
//
// For validation errors (bad input, missing fields), use pkg/domainerrors
// directly.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
	ErrInvalidID = errors.New("invalid id")
)

// NewDuplicate returns an ErrDuplicate that records which unique field was
// violated. Callers distinguish a generated-code collision (retryable) from a
// caller-supplied value collision (a conflict to report).
func NewDuplicate(field string) error {
	return &duplicateError{field: field}
}

type duplicateError struct {
	field string
}

func (e *duplicateError) Error() string {
	return "duplicate value for " + e.field
}

func (e *duplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// DuplicateField extracts the violated field from a duplicate error, or ""
// when the error carries no field information.
func DuplicateField(err error) string {
	var dup *duplicateError
	if errors.As(err, &dup) {
		return dup.field
	}
	return ""
}
