package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docstore/docstore.go/pkg/codec"
	"github.com/docstore/docstore.go/pkg/remote"
)

// CachePolicy selects the read strategy for one Get call.
type CachePolicy int

const (
	// PolicyDefault delivers a live cached handle synchronously when one
	// exists, then always refreshes from the store.
	PolicyDefault CachePolicy = iota
	// PolicyCacheOnly never touches the network.
	PolicyCacheOnly
	// PolicyNetworkOnly skips the local delivery and reads the backend.
	PolicyNetworkOnly
)

func (p CachePolicy) String() string {
	switch p {
	case PolicyCacheOnly:
		return "cacheOnly"
	case PolicyNetworkOnly:
		return "networkOnly"
	}
	return "default"
}

// Phase distinguishes the two emissions one Get call can produce.
type Phase int

const (
	// PhaseLocal marks the synchronous delivery from the identity cache.
	PhaseLocal Phase = iota
	// PhaseAuthoritative marks the store-derived delivery.
	PhaseAuthoritative
)

func (p Phase) String() string {
	if p == PhaseLocal {
		return "local"
	}
	return "authoritative"
}

// Result is one emission from Get, Listen or Query.Subscribe. Exactly one of
// Doc and Err is set.
type Result[T any] struct {
	Doc   *Document[T]
	Phase Phase
	Err   error
}

// Get fetches the document with the given id under a cache policy. The
// returned channel carries at most two results and is closed after the last:
// a PhaseLocal result already buffered when Get returns (identity-cache hit
// under PolicyDefault or PolicyCacheOnly), then at most one
// PhaseAuthoritative result. The local result can be stale relative to the
// authoritative one; consumers must treat either as replaceable by the next.
//
// PolicyDefault issues its store read even after a cache hit, and concurrent
// calls for the same id each issue their own read. Redundant refreshes only
// cost bandwidth: the identity cache collapses the resulting handles, so
// deduplicating in-flight reads is deliberately left to callers who need it.
//
// Hydration failure surfaces as an InvalidDataError and never registers a
// handle: a poisoned handle must not become the canonical instance for its
// path.
func Get[T any](ctx context.Context, store remote.Store, d codec.Descriptor[T], id string, policy CachePolicy) <-chan Result[T] {
	ch := make(chan Result[T], 2)
	path := d.PathFor(id)
	fetchesTotal.WithLabelValues(policy.String()).Inc()

	hadLocal := false
	if policy != PolicyNetworkOnly {
		if doc, ok := Lookup(identity, d, id); ok {
			ch <- Result[T]{Doc: doc, Phase: PhaseLocal}
			hadLocal = true
		}
	}

	var source remote.Source
	switch policy {
	case PolicyCacheOnly:
		source = remote.SourceCache
	case PolicyNetworkOnly:
		source = remote.SourceServer
	default:
		source = remote.SourceCacheThenServer
	}

	go func() {
		defer close(ch)
		fields, err := store.GetByID(ctx, path, source)
		switch {
		case errors.Is(err, ErrNotFound):
			if policy == PolicyCacheOnly {
				if !hadLocal {
					ch <- Result[T]{Phase: PhaseAuthoritative, Err: fmt.Errorf("%w: no cached copy of %s", ErrInvalidData, path)}
				}
				return
			}
			doc, derr := documentFromSnapshot(d, id, nil, false)
			if derr != nil {
				ch <- Result[T]{Phase: PhaseAuthoritative, Err: derr}
				return
			}
			ch <- Result[T]{Doc: doc, Phase: PhaseAuthoritative}
		case err != nil:
			ch <- Result[T]{Phase: PhaseAuthoritative, Err: err}
		default:
			doc, derr := hydrateDocument(d, id, fields)
			if derr != nil {
				ch <- Result[T]{Phase: PhaseAuthoritative, Err: derr}
				return
			}
			ch <- Result[T]{Doc: doc, Phase: PhaseAuthoritative}
		}
	}()
	return ch
}

// Listen subscribes to remote changes of one document. Every change
// re-hydrates and re-registers a fresh handle; handles handed out earlier
// are not mutated in place and go stale. The stream has no terminal result:
// it ends only when the disposer is disposed (or the store closes the
// subscription), at which point the channel is closed.
//
// Disposal does not evict the identity cache; a locally held handle remains
// valid stale data.
func Listen[T any](ctx context.Context, store remote.Store, d codec.Descriptor[T], id string) (<-chan Result[T], *Disposer, error) {
	events, cancel, err := store.Subscribe(ctx, d.PathFor(id), true)
	if err != nil {
		return nil, nil, err
	}
	disp := newDisposer(cancel)
	return pumpEvents(d, events, disp), disp, nil
}

// pumpEvents forwards store events as hydrated results until the disposer
// fires or the source closes.
func pumpEvents[T any](d codec.Descriptor[T], events <-chan remote.Event, disp *Disposer) <-chan Result[T] {
	out := make(chan Result[T])
	go func() {
		defer close(out)
		for {
			select {
			case <-disp.stop:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				r := resultFromEvent(d, ev)
				select {
				case out <- r:
				case <-disp.stop:
					return
				}
			}
		}
	}()
	return out
}

func resultFromEvent[T any](d codec.Descriptor[T], ev remote.Event) Result[T] {
	id := ev.Path[strings.LastIndexByte(ev.Path, '/')+1:]
	doc, err := documentFromSnapshot(d, id, ev.Fields, ev.Exists && ev.Action != remote.DeleteAction)
	if err != nil {
		return Result[T]{Phase: PhaseAuthoritative, Err: err}
	}
	return Result[T]{Doc: doc, Phase: PhaseAuthoritative}
}
