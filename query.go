package docstore

import (
	"context"
	"slices"
	"strings"

	"github.com/docstore/docstore.go/pkg/codec"
	"github.com/docstore/docstore.go/pkg/remote"
)

// Query builds a descriptor against one record type's collection. Every
// chain step returns a new value, leaving the receiver untouched, and
// nothing runs against the store until Fetch or Subscribe.
//
// Accessor arguments are resolved to stored field names through the
// descriptor's field table; an unresolvable accessor is a bug in the calling
// code and panics.
type Query[T any] struct {
	desc  codec.Descriptor[T]
	query remote.QueryDescriptor
}

func NewQuery[T any](d codec.Descriptor[T]) Query[T] {
	return Query[T]{
		desc:  d,
		query: remote.QueryDescriptor{Collection: d.CollectionPath()},
	}
}

func (q Query[T]) Where(accessor string, op remote.FilterOp, value any) Query[T] {
	q.query.Filters = append(slices.Clone(q.query.Filters), remote.Filter{
		Field: q.desc.ResolveField(accessor),
		Op:    op,
		Value: value,
	})
	return q
}

func (q Query[T]) OrderBy(accessor string, descending bool) Query[T] {
	q.query.Orders = append(slices.Clone(q.query.Orders), remote.Order{
		Field:      q.desc.ResolveField(accessor),
		Descending: descending,
	})
	return q
}

func (q Query[T]) Limit(n int) Query[T] {
	q.query.LimitCount = n
	return q
}

// StartAfter resumes after the given value of the first ordering field.
func (q Query[T]) StartAfter(cursor any) Query[T] {
	q.query.Cursor = cursor
	return q
}

// Descriptor returns the resolved wire-level query.
func (q Query[T]) Descriptor() remote.QueryDescriptor { return q.query }

// Fetch executes the query and hydrates one registered handle per row. A
// row that fails to decode aborts the fetch with an InvalidDataError.
func (q Query[T]) Fetch(ctx context.Context, store remote.Store, source remote.Source) ([]*Document[T], error) {
	snaps, err := store.Query(ctx, q.query, source)
	if err != nil {
		return nil, err
	}
	docs := make([]*Document[T], 0, len(snaps))
	for _, snap := range snaps {
		id := snap.Path[strings.LastIndexByte(snap.Path, '/')+1:]
		doc, err := documentFromSnapshot(q.desc, id, snap.Fields, snap.Exists)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Subscribe streams one result per matching remote change until the
// disposer is disposed.
func (q Query[T]) Subscribe(ctx context.Context, store remote.Store) (<-chan Result[T], *Disposer, error) {
	events, cancel, err := store.SubscribeQuery(ctx, q.query)
	if err != nil {
		return nil, nil, err
	}
	disp := newDisposer(cancel)
	return pumpEvents(q.desc, events, disp), disp, nil
}
