// Package remote declares the contract of the remote document store the
// client layer is built against. Implementations carry their own transport;
// the core only depends on this interface.
package remote

import (
	"context"

	"github.com/docstore/docstore.go/pkg/codec"
)

// FieldMap mirrors codec.FieldMap; both are aliases of the same map type.
type FieldMap = codec.FieldMap

// Source selects where a read is answered from.
type Source int

const (
	// SourceCache answers from the store's local cache only and never
	// touches the network.
	SourceCache Source = iota
	// SourceServer answers from the backend only.
	SourceServer
	// SourceCacheThenServer answers from the backend, falling back to the
	// local cache when the backend is unreachable.
	SourceCacheThenServer
)

func (s Source) String() string {
	switch s {
	case SourceCache:
		return "cache"
	case SourceServer:
		return "server"
	case SourceCacheThenServer:
		return "cacheThenServer"
	}
	return "unknown"
}

// OpKind discriminates the operations an atomic commit can carry.
type OpKind int

const (
	OpSave OpKind = iota
	OpUpdate
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpSave:
		return "save"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Operation is one buffered write. Fields is nil for OpDelete. OpSave
// replaces the whole document; OpUpdate merges into it.
type Operation struct {
	Kind   OpKind   `json:"kind"`
	Path   string   `json:"path"`
	Fields FieldMap `json:"fields,omitempty"`
}

// Snapshot is the result of reading one document. Exists is false when the
// store confirmed the document is not there.
type Snapshot struct {
	Path   string   `json:"path"`
	Fields FieldMap `json:"fields,omitempty"`
	Exists bool     `json:"exists"`
}

// CancelFunc tears down a subscription. Safe to call more than once.
type CancelFunc func()

// Store is the remote document database consumed by the core.
//
// GetByID returns constants.ErrNotFound when the document is absent from
// the requested source. CommitAtomic applies every operation or none.
// Subscribe delivers one Event per remote change until cancelled; the event
// channel is closed after cancellation.
type Store interface {
	GetByID(ctx context.Context, path string, source Source) (FieldMap, error)
	Query(ctx context.Context, q QueryDescriptor, source Source) ([]Snapshot, error)
	CommitAtomic(ctx context.Context, ops []Operation) error
	Subscribe(ctx context.Context, path string, includeMetadata bool) (<-chan Event, CancelFunc, error)
	SubscribeQuery(ctx context.Context, q QueryDescriptor) (<-chan Event, CancelFunc, error)
}
