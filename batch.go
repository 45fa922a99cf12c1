package docstore

import (
	"context"
	"fmt"

	"github.com/docstore/docstore.go/pkg/remote"
)

// Writable is the write surface of a Document handle, independent of its
// record type. Only handles produced by this package implement it.
type Writable interface {
	ID() string
	Path() string
	encodeSave() (remote.Operation, error)
	encodeUpdate() (remote.Operation, error)
}

// Batch accumulates save/update/delete operations and commits them to the
// store as one atomic transaction. A batch is single-owner and single-use:
// it must not be populated concurrently and must not be reused after Commit
// returns.
//
// An unencodable record is a programming error, not a runtime condition, so
// the buffering methods panic on encoding failure before any network
// interaction happens.
type Batch struct {
	store     remote.Store
	ops       []remote.Operation
	evictions []string
	committed bool
}

func NewBatch(store remote.Store) *Batch {
	return &Batch{store: store}
}

// Save buffers a full-replace write for each handle, in argument order.
func (b *Batch) Save(docs ...Writable) *Batch {
	for _, doc := range docs {
		b.append(mustEncode(doc.encodeSave()))
	}
	return b
}

// SaveTo buffers a full-replace write under an alternate parent collection,
// keeping the handle's id as the terminal path segment.
func (b *Batch) SaveTo(doc Writable, collection string) *Batch {
	op := mustEncode(doc.encodeSave())
	op.Path = collection + "/" + doc.ID()
	b.append(op)
	return b
}

// Update buffers a partial-field merge for each handle, in argument order.
func (b *Batch) Update(docs ...Writable) *Batch {
	for _, doc := range docs {
		b.append(mustEncode(doc.encodeUpdate()))
	}
	return b
}

// Delete buffers a delete for each handle, in argument order. The identity
// cache is untouched until Commit succeeds: a cache read between here and
// commit still observes the pre-delete state.
func (b *Batch) Delete(docs ...Writable) *Batch {
	for _, doc := range docs {
		b.append(remote.Operation{Kind: remote.OpDelete, Path: doc.Path()})
		b.evictions = append(b.evictions, doc.Path())
	}
	return b
}

func (b *Batch) append(op remote.Operation) {
	if b.committed {
		panic("docstore: batch reused after Commit")
	}
	b.ops = append(b.ops, op)
}

// Len returns the number of buffered operations.
func (b *Batch) Len() int { return len(b.ops) }

// Commit sends the buffered operations to the store as one all-or-nothing
// transaction. On success it evicts deleted paths from the identity cache in
// the order the deletes were buffered, strictly after the commit
// acknowledgement. On failure neither the store nor the cache is mutated.
// The batch is consumed either way.
func (b *Batch) Commit(ctx context.Context) error {
	if b.committed {
		return ErrBatchCommitted
	}
	b.committed = true

	ops := b.ops
	evictions := b.evictions
	b.ops = nil
	b.evictions = nil

	if err := b.store.CommitAtomic(ctx, ops); err != nil {
		commitsTotal.WithLabelValues("error").Inc()
		return err
	}
	for _, path := range evictions {
		identity.Evict(path)
	}
	commitsTotal.WithLabelValues("ok").Inc()
	return nil
}

func mustEncode(op remote.Operation, err error) remote.Operation {
	if err != nil {
		panic(fmt.Sprintf("docstore: unencodable record: %v", err))
	}
	return op
}
