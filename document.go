package docstore

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/docstore/docstore.go/pkg/codec"
	"github.com/docstore/docstore.go/pkg/remote"
)

// Existence is the tri-state remote status of a handle.
type Existence int

const (
	// ExistenceUnknown means the document has never been fetched.
	ExistenceUnknown Existence = iota
	// ExistencePresent means the store confirmed the document exists.
	ExistencePresent
	// ExistenceAbsent means the store confirmed the document does not
	// exist (deleted or never created).
	ExistenceAbsent
)

func (e Existence) String() string {
	switch e {
	case ExistencePresent:
		return "present"
	case ExistenceAbsent:
		return "absent"
	}
	return "unknown"
}

// Document is the typed handle for one remote document. The id and path are
// fixed at construction; Record is the decoded value and is free to mutate
// by its single logical owner between reads. Handles are not internally
// synchronized.
type Document[T any] struct {
	id   string
	path string
	desc codec.Descriptor[T]

	// Record is the decoded typed value. Constructors always allocate it,
	// so a bare reference carries a zero record until hydrated.
	Record *T

	existence Existence
}

// New returns a fresh handle with a generated id and an empty record, and
// registers it in the identity cache.
func New[T any](d codec.Descriptor[T]) *Document[T] {
	doc, _ := newDocument(d, uuid.NewString(), new(T), ExistenceUnknown)
	return doc
}

// NewWithID returns a bare reference bound to a caller-supplied id.
func NewWithID[T any](d codec.Descriptor[T], id string) (*Document[T], error) {
	return newDocument(d, id, new(T), ExistenceUnknown)
}

// NewWithRecord binds a caller-supplied record to a caller-supplied id.
func NewWithRecord[T any](d codec.Descriptor[T], id string, record *T) (*Document[T], error) {
	if record == nil {
		record = new(T)
	}
	return newDocument(d, id, record, ExistenceUnknown)
}

func newDocument[T any](d codec.Descriptor[T], id string, record *T, existence Existence) (*Document[T], error) {
	if id == "" || strings.Contains(id, "/") {
		return nil, fmt.Errorf("%w: document id %q", ErrInvalidReference, id)
	}
	doc := &Document[T]{
		id:        id,
		path:      d.PathFor(id),
		desc:      d,
		Record:    record,
		existence: existence,
	}
	Register(identity, doc)
	return doc, nil
}

// hydrateDocument decodes a raw field map into a registered handle. A
// malformed payload never reaches the identity cache.
func hydrateDocument[T any](d codec.Descriptor[T], id string, fields codec.FieldMap) (*Document[T], error) {
	record, err := d.Decode(fields)
	if err != nil {
		return nil, &InvalidDataError{Path: d.PathFor(id), cause: err}
	}
	return newDocument(d, id, record, ExistencePresent)
}

// documentFromSnapshot hydrates a handle from a read that may have confirmed
// the document does not exist.
func documentFromSnapshot[T any](d codec.Descriptor[T], id string, fields codec.FieldMap, exists bool) (*Document[T], error) {
	if !exists {
		return newDocument(d, id, new(T), ExistenceAbsent)
	}
	return hydrateDocument(d, id, fields)
}

func (doc *Document[T]) ID() string   { return doc.id }
func (doc *Document[T]) Path() string { return doc.path }

// Exists reports the remote status as of the last fetch that produced this
// handle.
func (doc *Document[T]) Exists() Existence { return doc.existence }

// StoragePath is the deterministic blob-store location for payloads attached
// to this document. It is identical to the canonical path; this layer does
// no blob I/O itself.
func (doc *Document[T]) StoragePath() string { return doc.path }

// Descriptor returns the record type's collection mapping.
func (doc *Document[T]) Descriptor() codec.Descriptor[T] { return doc.desc }

// encodeSave resolves the record into a full-replace operation, with
// createdAt/updatedAt sentinels when the type participates in audit fields.
func (doc *Document[T]) encodeSave() (remote.Operation, error) {
	fields, err := doc.desc.Encode(doc.Record)
	if err != nil {
		return remote.Operation{}, err
	}
	if doc.desc.Timestamps {
		fields[codec.FieldCreatedAt] = codec.ServerTimestamp{}
		fields[codec.FieldUpdatedAt] = codec.ServerTimestamp{}
	}
	return remote.Operation{Kind: remote.OpSave, Path: doc.path, Fields: fields}, nil
}

// encodeUpdate resolves the record into a merge operation; only updatedAt is
// injected so a committed createdAt survives.
func (doc *Document[T]) encodeUpdate() (remote.Operation, error) {
	fields, err := doc.desc.Encode(doc.Record)
	if err != nil {
		return remote.Operation{}, err
	}
	if doc.desc.Timestamps {
		fields[codec.FieldUpdatedAt] = codec.ServerTimestamp{}
	}
	return remote.Operation{Kind: remote.OpUpdate, Path: doc.path, Fields: fields}, nil
}
