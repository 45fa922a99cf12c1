package constants

import "errors"

// Errors
var (
	// ErrInvalidReference indicates a handle or canonical path is structurally
	// malformed or could not be resolved to a document location.
	ErrInvalidReference = errors.New("docstore: invalid reference")

	// ErrInvalidData indicates a remote payload could not be decoded into the
	// typed record it was requested as.
	ErrInvalidData = errors.New("docstore: invalid data")

	// ErrTimeout is reserved for the surrounding I/O layer; the core never
	// arms timers of its own.
	ErrTimeout = errors.New("docstore: timeout")

	// ErrNotFound indicates the store holds no document at the given path.
	ErrNotFound = errors.New("docstore: document not found")
)

var (
	ErrBatchCommitted = errors.New("docstore: batch already committed")
	ErrIDInUse        = errors.New("docstore: request id already in use")
	ErrClosed         = errors.New("docstore: connection closed")
	ErrNoDocumentData = errors.New("docstore: update target does not exist")
)
