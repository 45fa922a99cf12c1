// Package wsstore implements remote.Store over a JSON-RPC websocket
// connection. Responses are correlated to requests by id; push notifications
// are routed to per-subscription channels. Successful reads feed a local
// in-memory cache which answers remote.SourceCache requests without touching
// the network.
package wsstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	gocache "github.com/patrickmn/go-cache"

	"github.com/docstore/docstore.go/internal/rand"
	"github.com/docstore/docstore.go/pkg/constants"
	"github.com/docstore/docstore.go/pkg/logger"
	"github.com/docstore/docstore.go/pkg/remote"
)

const requestIDLength = 16

// defaultDialer is the gorilla default with compression enabled, built as
// our own value so dialing never mutates the package-global dialer.
var defaultDialer = &websocket.Dialer{
	Proxy:             websocket.DefaultDialer.Proxy,
	HandshakeTimeout:  websocket.DefaultDialer.HandshakeTimeout,
	EnableCompression: true,
}

type Option func(*Store)

func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithCacheTTL overrides how long locally cached field maps answer
// SourceCache reads.
func WithCacheTTL(ttl, sweep time.Duration) Option {
	return func(s *Store) { s.local = gocache.New(ttl, sweep) }
}

type Store struct {
	conn   *websocket.Conn
	logger logger.Logger
	local  *gocache.Cache

	writeMu sync.Mutex

	respMu    sync.RWMutex
	responses map[string]chan rpcResponse

	notifMu       sync.RWMutex
	notifications map[string]chan remote.Event

	closed    chan struct{}
	closeOnce sync.Once
}

var _ remote.Store = (*Store)(nil)

// New dials the backend and starts the read pump.
func New(ctx context.Context, rawURL string, opts ...Option) (*Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("wsstore: %w", err)
	}
	if u.Scheme != constants.WebsocketScheme && u.Scheme != constants.WebsocketSecureScheme {
		return nil, fmt.Errorf("%w: unsupported scheme %q", constants.ErrInvalidReference, u.Scheme)
	}

	conn, _, err := defaultDialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("wsstore: dial %s: %w", rawURL, err)
	}

	s := &Store{
		conn:          conn,
		logger:        logger.Noop(),
		local:         gocache.New(gocache.NoExpiration, 10*time.Minute),
		responses:     make(map[string]chan rpcResponse),
		notifications: make(map[string]chan remote.Event),
		closed:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.readPump()
	return s, nil
}

// Close tears the connection down. Pending calls fail with ErrClosed and
// every subscription channel is closed.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		s.writeMu.Lock()
		_ = s.conn.WriteMessage(websocket.CloseMessage, msg)
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}

func (s *Store) readPump() {
	defer s.shutdown()
	for {
		var res rpcResponse
		if err := s.conn.ReadJSON(&res); err != nil {
			s.logger.Error("wsstore: read pump stopped", "err", err)
			return
		}
		if res.Method == methodNotify {
			s.routeNotification(res.Result)
			continue
		}
		s.respMu.RLock()
		ch, ok := s.responses[res.ID]
		s.respMu.RUnlock()
		if !ok {
			s.logger.Warn("wsstore: response for unknown request", "id", res.ID)
			continue
		}
		ch <- res
	}
}

func (s *Store) shutdown() {
	close(s.closed)
	s.notifMu.Lock()
	for id, ch := range s.notifications {
		delete(s.notifications, id)
		close(ch)
	}
	s.notifMu.Unlock()
}

func (s *Store) routeNotification(raw json.RawMessage) {
	var n notification
	if err := json.Unmarshal(raw, &n); err != nil {
		s.logger.Error("wsstore: malformed notification", "err", err)
		return
	}
	// The read lock is held across the send: cancel closes the channel only
	// under the write lock, so a channel found here cannot close mid-send
	// even if the kill RPC has already returned.
	s.notifMu.RLock()
	defer s.notifMu.RUnlock()
	ch, ok := s.notifications[n.Subscription]
	if !ok {
		return
	}
	select {
	case ch <- n.Event:
	default:
		s.logger.Warn("wsstore: dropping event for slow subscriber", "subscription", n.Subscription)
	}
}

// call performs one request/response round trip.
func (s *Store) call(ctx context.Context, method string, result any, params ...any) error {
	id := rand.NewRequestID(requestIDLength)

	ch, err := s.createResponseChannel(id)
	if err != nil {
		return err
	}
	defer s.removeResponseChannel(id)

	s.writeMu.Lock()
	err = s.conn.WriteJSON(rpcRequest{ID: id, Method: method, Params: params})
	s.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("wsstore: send %s: %w", method, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.closed:
		return constants.ErrClosed
	case res := <-ch:
		if res.Error != nil {
			if res.Error.Code == codeNotFound {
				return constants.ErrNotFound
			}
			return res.Error
		}
		if result != nil && len(res.Result) > 0 {
			if err := json.Unmarshal(res.Result, result); err != nil {
				return fmt.Errorf("%w: %s result: %v", constants.ErrInvalidData, method, err)
			}
		}
		return nil
	}
}

func (s *Store) createResponseChannel(id string) (chan rpcResponse, error) {
	s.respMu.Lock()
	defer s.respMu.Unlock()
	if _, ok := s.responses[id]; ok {
		return nil, fmt.Errorf("%w: %v", constants.ErrIDInUse, id)
	}
	ch := make(chan rpcResponse, 1)
	s.responses[id] = ch
	return ch, nil
}

func (s *Store) removeResponseChannel(id string) {
	s.respMu.Lock()
	defer s.respMu.Unlock()
	delete(s.responses, id)
}

func (s *Store) GetByID(ctx context.Context, path string, source remote.Source) (remote.FieldMap, error) {
	if source == remote.SourceCache {
		return s.cachedFields(path)
	}

	var fields remote.FieldMap
	err := s.call(ctx, methodGet, &fields, path)
	switch {
	case err == nil:
		s.local.Set(path, fields, gocache.DefaultExpiration)
		return fields, nil
	case errors.Is(err, constants.ErrNotFound):
		s.local.Delete(path)
		return nil, err
	default:
		// The backend is unreachable; cacheThenServer falls back to the
		// local copy, server-only propagates the failure.
		if source == remote.SourceCacheThenServer {
			if cached, cerr := s.cachedFields(path); cerr == nil {
				return cached, nil
			}
		}
		return nil, err
	}
}

func (s *Store) cachedFields(path string) (remote.FieldMap, error) {
	v, ok := s.local.Get(path)
	if !ok {
		return nil, constants.ErrNotFound
	}
	return v.(remote.FieldMap), nil
}

func (s *Store) Query(ctx context.Context, q remote.QueryDescriptor, source remote.Source) ([]remote.Snapshot, error) {
	if source == remote.SourceCache {
		return nil, fmt.Errorf("%w: cache-source queries are not supported over this transport", constants.ErrInvalidReference)
	}
	var snaps []remote.Snapshot
	if err := s.call(ctx, methodQuery, &snaps, q); err != nil {
		return nil, err
	}
	for _, snap := range snaps {
		if snap.Exists {
			s.local.Set(snap.Path, snap.Fields, gocache.DefaultExpiration)
		}
	}
	return snaps, nil
}

func (s *Store) CommitAtomic(ctx context.Context, ops []remote.Operation) error {
	if err := s.call(ctx, methodCommit, nil, ops); err != nil {
		return err
	}
	// Committed paths are invalidated rather than patched locally: the
	// server resolves timestamp sentinels, so the next read refetches.
	for _, op := range ops {
		s.local.Delete(op.Path)
	}
	return nil
}

func (s *Store) Subscribe(ctx context.Context, path string, includeMetadata bool) (<-chan remote.Event, remote.CancelFunc, error) {
	return s.subscribe(ctx, methodSubscribe, path, includeMetadata)
}

func (s *Store) SubscribeQuery(ctx context.Context, q remote.QueryDescriptor) (<-chan remote.Event, remote.CancelFunc, error) {
	return s.subscribe(ctx, methodSubscribeQuery, q)
}

func (s *Store) subscribe(ctx context.Context, method string, params ...any) (<-chan remote.Event, remote.CancelFunc, error) {
	var subID string
	if err := s.call(ctx, method, &subID, params...); err != nil {
		return nil, nil, err
	}

	ch := make(chan remote.Event, 16)
	s.notifMu.Lock()
	s.notifications[subID] = ch
	s.notifMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			if err := s.call(context.Background(), methodKill, nil, subID); err != nil && !errors.Is(err, constants.ErrClosed) {
				s.logger.Warn("wsstore: kill subscription", "subscription", subID, "err", err)
			}
			s.notifMu.Lock()
			if _, ok := s.notifications[subID]; ok {
				delete(s.notifications, subID)
				close(ch)
			}
			s.notifMu.Unlock()
		})
	}
	return ch, cancel, nil
}
