// Package memstore is an in-memory remote.Store used by the test suite. It
// honors the atomic-commit contract, resolves server-timestamp sentinels,
// fans out change events to subscribers, and can be told to reject the next
// commit to exercise failure paths.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/docstore/docstore.go/pkg/codec"
	"github.com/docstore/docstore.go/pkg/constants"
	"github.com/docstore/docstore.go/pkg/remote"
)

type subscriber struct {
	path       string
	collection string
	ch         chan remote.Event
}

type Store struct {
	mu      sync.Mutex
	server  map[string]remote.FieldMap
	cached  map[string]remote.FieldMap
	subs    map[int]*subscriber
	nextSub int

	failNext error
	now      func() time.Time
}

var _ remote.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		server: make(map[string]remote.FieldMap),
		cached: make(map[string]remote.FieldMap),
		subs:   make(map[int]*subscriber),
		now:    time.Now,
	}
}

// SetClock overrides the clock used to resolve server-timestamp sentinels.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailNextCommit makes the next CommitAtomic return err without applying
// any operation.
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// Seed places a document directly into both the server and cache tables.
func (s *Store) Seed(path string, fields remote.FieldMap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.server[path] = deepClone(fields)
	s.cached[path] = deepClone(fields)
}

// Uncache drops the cache-source entry for a path, leaving the server copy.
func (s *Store) Uncache(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cached, path)
}

// ServerFields returns a copy of the server-side document, for assertions.
func (s *Store) ServerFields(path string) (remote.FieldMap, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fields, ok := s.server[path]
	if !ok {
		return nil, false
	}
	return deepClone(fields), true
}

func (s *Store) GetByID(_ context.Context, path string, source remote.Source) (remote.FieldMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fields remote.FieldMap
	var ok bool
	switch source {
	case remote.SourceCache:
		fields, ok = s.cached[path]
	case remote.SourceServer:
		fields, ok = s.server[path]
	case remote.SourceCacheThenServer:
		if fields, ok = s.server[path]; !ok {
			fields, ok = s.cached[path]
		}
	}
	if !ok {
		return nil, constants.ErrNotFound
	}
	if source != remote.SourceCache {
		s.cached[path] = deepClone(fields)
	}
	return deepClone(fields), nil
}

func (s *Store) Query(_ context.Context, q remote.QueryDescriptor, source remote.Source) ([]remote.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table := s.server
	if source == remote.SourceCache {
		table = s.cached
	}

	var out []remote.Snapshot
	for path, fields := range table {
		if !inCollection(path, q.Collection) {
			continue
		}
		if !matches(fields, q.Filters) {
			continue
		}
		out = append(out, remote.Snapshot{Path: path, Fields: deepClone(fields), Exists: true})
	}
	sortSnapshots(out, q.Orders)
	if q.Cursor != nil && len(q.Orders) > 0 {
		out = afterCursor(out, q.Orders[0], q.Cursor)
	}
	if q.LimitCount > 0 && len(out) > q.LimitCount {
		out = out[:q.LimitCount]
	}
	return out, nil
}

func (s *Store) CommitAtomic(_ context.Context, ops []remote.Operation) error {
	s.mu.Lock()

	if err := s.failNext; err != nil {
		s.failNext = nil
		s.mu.Unlock()
		return err
	}

	// Validate everything before touching state so a bad operation cannot
	// leave a partial commit behind.
	for _, op := range ops {
		if op.Path == "" {
			s.mu.Unlock()
			return constants.ErrInvalidReference
		}
		if op.Kind == remote.OpUpdate {
			if _, ok := s.server[op.Path]; !ok {
				s.mu.Unlock()
				return constants.ErrNoDocumentData
			}
		}
	}

	now := s.now()
	events := make([]remote.Event, 0, len(ops))
	for _, op := range ops {
		switch op.Kind {
		case remote.OpSave:
			fields := resolveTimestamps(deepClone(op.Fields), now)
			s.server[op.Path] = fields
			s.cached[op.Path] = deepClone(fields)
			events = append(events, remote.Event{Action: remote.CreateAction, Path: op.Path, Fields: deepClone(fields), Exists: true})
		case remote.OpUpdate:
			merged := deepClone(s.server[op.Path])
			for k, v := range resolveTimestamps(deepClone(op.Fields), now) {
				merged[k] = v
			}
			s.server[op.Path] = merged
			s.cached[op.Path] = deepClone(merged)
			events = append(events, remote.Event{Action: remote.UpdateAction, Path: op.Path, Fields: deepClone(merged), Exists: true})
		case remote.OpDelete:
			delete(s.server, op.Path)
			delete(s.cached, op.Path)
			events = append(events, remote.Event{Action: remote.DeleteAction, Path: op.Path, Exists: false})
		}
	}

	// Fan-out stays under s.mu: cancel closes a subscriber channel under the
	// same mutex, so a channel seen here cannot close mid-send. Sends are
	// non-blocking, so holding the lock cannot deadlock on a full buffer.
	for _, ev := range events {
		for _, sub := range s.subs {
			if sub.path != "" && sub.path != ev.Path {
				continue
			}
			if sub.collection != "" && !inCollection(ev.Path, sub.collection) {
				continue
			}
			select {
			case sub.ch <- ev:
			default:
				// Slow subscriber; the real backend drops too.
			}
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) Subscribe(_ context.Context, path string, _ bool) (<-chan remote.Event, remote.CancelFunc, error) {
	return s.subscribe(&subscriber{path: path, ch: make(chan remote.Event, 16)})
}

func (s *Store) SubscribeQuery(_ context.Context, q remote.QueryDescriptor) (<-chan remote.Event, remote.CancelFunc, error) {
	return s.subscribe(&subscriber{collection: q.Collection, ch: make(chan remote.Event, 16)})
}

func (s *Store) subscribe(sub *subscriber) (<-chan remote.Event, remote.CancelFunc, error) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			close(sub.ch)
			s.mu.Unlock()
		})
	}
	return sub.ch, cancel, nil
}

func inCollection(path, collection string) bool {
	rest, ok := strings.CutPrefix(path, collection+"/")
	return ok && !strings.Contains(rest, "/")
}

func matches(fields remote.FieldMap, filters []remote.Filter) bool {
	for _, f := range filters {
		v, ok := fields[f.Field]
		if !ok {
			return false
		}
		c, comparable := compare(v, f.Value)
		if !comparable {
			return false
		}
		switch f.Op {
		case remote.OpEqual:
			if c != 0 {
				return false
			}
		case remote.OpNotEqual:
			if c == 0 {
				return false
			}
		case remote.OpLess:
			if c >= 0 {
				return false
			}
		case remote.OpLessEqual:
			if c > 0 {
				return false
			}
		case remote.OpGreater:
			if c <= 0 {
				return false
			}
		case remote.OpGreaterEqual:
			if c < 0 {
				return false
			}
		}
	}
	return true
}

func sortSnapshots(snaps []remote.Snapshot, orders []remote.Order) {
	if len(orders) == 0 {
		sort.Slice(snaps, func(i, j int) bool { return snaps[i].Path < snaps[j].Path })
		return
	}
	sort.Slice(snaps, func(i, j int) bool {
		for _, o := range orders {
			c, ok := compare(snaps[i].Fields[o.Field], snaps[j].Fields[o.Field])
			if !ok || c == 0 {
				continue
			}
			if o.Descending {
				return c > 0
			}
			return c < 0
		}
		return snaps[i].Path < snaps[j].Path
	})
}

func afterCursor(snaps []remote.Snapshot, order remote.Order, cursor any) []remote.Snapshot {
	for i, snap := range snaps {
		c, ok := compare(snap.Fields[order.Field], cursor)
		if !ok {
			continue
		}
		past := c > 0
		if order.Descending {
			past = c < 0
		}
		if past {
			return snaps[i:]
		}
	}
	return nil
}

// compare returns -1/0/1 for values of compatible kinds. Numeric values are
// compared as float64 since field maps come from JSON round trips.
func compare(a, b any) (int, bool) {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	switch at := a.(type) {
	case string:
		bs, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(at, bs), true
	case bool:
		bb, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case at == bb:
			return 0, true
		case !at:
			return -1, true
		}
		return 1, true
	case time.Time:
		bt, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return at.Compare(bt), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func resolveTimestamps(fields remote.FieldMap, now time.Time) remote.FieldMap {
	for k, v := range fields {
		if codec.IsServerTimestamp(v) {
			fields[k] = now
		}
	}
	return fields
}

func deepClone(fields remote.FieldMap) remote.FieldMap {
	if fields == nil {
		return nil
	}
	out := make(remote.FieldMap, len(fields))
	for k, v := range fields {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case remote.FieldMap:
		return deepClone(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
