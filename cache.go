package docstore

import (
	"sync"
	"weak"

	"github.com/docstore/docstore.go/pkg/codec"
)

// entry is one weak slot in the identity map. live returns the handle as a
// non-nil any while the handle is still reachable, nil once it has been
// collected.
type entry interface {
	live() any
}

type weakEntry[T any] struct {
	ptr weak.Pointer[Document[T]]
}

func (w weakEntry[T]) live() any {
	if doc := w.ptr.Value(); doc != nil {
		return doc
	}
	return nil
}

// Cache is the identity map from canonical path to the single live handle
// for that path. Entries are weak: the cache deduplicates handles while some
// caller holds one, and never extends a handle's lifetime. Stale entries are
// pruned lazily on lookup. All operations are synchronous and safe for
// concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

// identity is the process-wide cache every handle registers into.
var identity = NewCache()

// DefaultCache returns the process-wide identity cache.
func DefaultCache() *Cache { return identity }

// Evict removes the entry for path unconditionally.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
	cacheEvictions.Inc()
}

// lookup returns the live handle registered under path, pruning the slot if
// the handle has been collected. It never creates a handle.
func (c *Cache) lookup(path string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[path]
	if !ok {
		cacheMisses.Inc()
		return nil, false
	}
	v := e.live()
	if v == nil {
		delete(c.entries, path)
		cacheMisses.Inc()
		return nil, false
	}
	cacheHits.Inc()
	return v, true
}

func (c *Cache) register(path string, e entry) {
	c.mu.Lock()
	c.entries[path] = e
	c.mu.Unlock()
}

// Lookup returns the live handle for the document of type T with the given
// id, or false when no caller currently holds one.
func Lookup[T any](c *Cache, d codec.Descriptor[T], id string) (*Document[T], bool) {
	v, ok := c.lookup(d.PathFor(id))
	if !ok {
		return nil, false
	}
	doc, ok := v.(*Document[T])
	return doc, ok
}

// Register inserts or overwrites the weak entry for doc's canonical path.
func Register[T any](c *Cache, doc *Document[T]) {
	c.register(doc.path, weakEntry[T]{ptr: weak.Make(doc)})
}
