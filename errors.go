package docstore

import (
	"fmt"

	"github.com/docstore/docstore.go/pkg/constants"
)

// Error taxonomy. Store errors that are none of these pass through
// unmodified.
var (
	ErrInvalidReference = constants.ErrInvalidReference
	ErrInvalidData      = constants.ErrInvalidData
	ErrTimeout          = constants.ErrTimeout
	ErrNotFound         = constants.ErrNotFound
	ErrBatchCommitted   = constants.ErrBatchCommitted
)

// InvalidDataError reports that a remote payload could not be decoded into
// the requested record type. It matches ErrInvalidData under errors.Is.
type InvalidDataError struct {
	Path  string
	cause error
}

func (e *InvalidDataError) Error() string {
	return fmt.Sprintf("docstore: invalid data at %s: %v", e.Path, e.cause)
}

func (e *InvalidDataError) Unwrap() error { return e.cause }

func (e *InvalidDataError) Is(target error) bool { return target == constants.ErrInvalidData }
