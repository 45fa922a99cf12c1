package docstore

import (
	"sync"

	"github.com/docstore/docstore.go/pkg/remote"
)

// Disposer cancels a realtime subscription. Dispose is idempotent: the
// first call unregisters the remote subscription and stops the result
// stream, every later call is a no-op. After the stream stops its channel
// is closed; no result is forwarded once disposal has taken effect.
type Disposer struct {
	once   sync.Once
	stop   chan struct{}
	cancel remote.CancelFunc
}

func newDisposer(cancel remote.CancelFunc) *Disposer {
	return &Disposer{stop: make(chan struct{}), cancel: cancel}
}

func (d *Disposer) Dispose() {
	d.once.Do(func() {
		close(d.stop)
		if d.cancel != nil {
			d.cancel()
		}
	})
}
