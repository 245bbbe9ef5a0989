package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/park285/cheese-chess/pkg/chessdto"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	defaultSendBuffer = 32
	writeTimeout      = 5 * time.Second
	pingTimeout       = 3 * time.Second
)

// ClientHeader names the connecting client in relay logs.
const ClientHeader = "X-Relay-Client"

// HubOptions configures the websocket transport.
type HubOptions struct {
	SendBuffer     int
	PingInterval   time.Duration
	OriginPatterns []string
	Logger         *zap.Logger
}

type peer struct {
	id     string
	ws     *websocket.Conn
	out    chan chessdto.Envelope
	done   chan struct{}
	once   sync.Once
	cancel context.CancelFunc
}

func (p *peer) kill() {
	p.once.Do(func() {
		close(p.done)
		if p.cancel != nil {
			p.cancel()
		}
	})
}

// Hub accepts websocket peers and relays their events through a Registry.
// It is the registry's Notifier.
type Hub struct {
	reg          *Registry
	logger       *zap.Logger
	sendBuffer   int
	pingInterval time.Duration
	origins      []string

	mu    sync.RWMutex
	peers map[string]*peer
	wg    sync.WaitGroup

	closing  atomic.Bool
	accepted atomic.Int64
	dropped  atomic.Int64
}

// HubStats counts transport-level activity.
type HubStats struct {
	Peers    int   `json:"peers"`
	Accepted int64 `json:"accepted"`
	Dropped  int64 `json:"dropped"`
}

func NewHub(opts HubOptions) *Hub {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	buf := opts.SendBuffer
	if buf <= 0 {
		buf = defaultSendBuffer
	}
	ping := opts.PingInterval
	if ping <= 0 {
		ping = 30 * time.Second
	}
	return &Hub{
		logger:       logger,
		sendBuffer:   buf,
		pingInterval: ping,
		origins:      opts.OriginPatterns,
		peers:        make(map[string]*peer),
	}
}

// Attach binds the registry events are dispatched to. It must be called
// before the hub serves traffic.
func (h *Hub) Attach(reg *Registry) { h.reg = reg }

// Notify queues env for connID. A peer whose queue is full is dropped.
func (h *Hub) Notify(connID string, env chessdto.Envelope) {
	h.mu.RLock()
	p := h.peers[connID]
	h.mu.RUnlock()
	if p == nil {
		return
	}
	select {
	case <-p.done:
	case p.out <- env:
	default:
		h.dropped.Add(1)
		h.logger.Warn("relay_send_overflow", zap.String("conn", connID), zap.String("event", env.Event))
		p.kill()
	}
}

func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	n := len(h.peers)
	h.mu.RUnlock()
	return HubStats{Peers: n, Accepted: h.accepted.Load(), Dropped: h.dropped.Load()}
}

// Handler serves the websocket endpoint at /ws.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	return mux
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.closing.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  h.origins,
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		h.logger.Warn("relay_accept_failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	p := &peer{
		id:     uuid.NewString(),
		ws:     ws,
		out:    make(chan chessdto.Envelope, h.sendBuffer),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	// registration and the closing check share h.mu with Shutdown's snapshot
	h.mu.Lock()
	if h.closing.Load() {
		h.mu.Unlock()
		cancel()
		_ = ws.Close(websocket.StatusGoingAway, "shutting down")
		return
	}
	h.peers[p.id] = p
	h.wg.Add(1)
	h.mu.Unlock()
	h.accepted.Add(1)
	h.logger.Debug("relay_connect",
		zap.String("conn", p.id),
		zap.String("remote", r.RemoteAddr),
		zap.String("client", r.Header.Get(ClientHeader)),
	)

	go h.writeLoop(ctx, p)
	h.readLoop(ctx, p)

	p.kill()
	h.mu.Lock()
	delete(h.peers, p.id)
	h.mu.Unlock()
	h.reg.Disconnect(context.Background(), p.id)
	_ = ws.Close(websocket.StatusNormalClosure, "")
	h.logger.Debug("relay_disconnect", zap.String("conn", p.id))
	h.wg.Done()
}

func (h *Hub) readLoop(ctx context.Context, p *peer) {
	for {
		var env chessdto.Envelope
		if err := wsjson.Read(ctx, p.ws, &env); err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				h.logger.Debug("relay_read_failed", zap.String("conn", p.id), zap.Error(err))
			}
			return
		}
		h.dispatch(ctx, p, env)
	}
}

func (h *Hub) writeLoop(ctx context.Context, p *peer) {
	t := time.NewTicker(h.pingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case env := <-p.out:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, p.ws, env)
			cancel()
			if err != nil {
				h.logger.Debug("relay_write_failed", zap.String("conn", p.id), zap.Error(err))
				p.kill()
				return
			}
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := p.ws.Ping(pctx)
			cancel()
			if err != nil {
				h.logger.Debug("relay_ping_failed", zap.String("conn", p.id), zap.Error(err))
				p.kill()
				return
			}
		}
	}
}

func (h *Hub) dispatch(ctx context.Context, p *peer, env chessdto.Envelope) {
	switch env.Event {
	case chessdto.EventCreateRoom:
		if _, err := h.reg.CreateRoom(ctx, p.id); err != nil {
			h.roomError(p, env.Event, err)
		}
	case chessdto.EventJoinRoom:
		var req chessdto.JoinRoom
		if err := env.Decode(&req); err != nil {
			h.roomError(p, env.Event, ErrBadRequest)
			return
		}
		if err := h.reg.JoinRoom(ctx, p.id, req.RoomCode); err != nil {
			h.roomError(p, env.Event, err)
		}
	case chessdto.EventMakeMove:
		var req chessdto.MakeMove
		if err := env.Decode(&req); err != nil {
			h.logger.Debug("move_drop", zap.String("conn", p.id), zap.Error(err))
			return
		}
		// failures are dropped without a reply
		_ = h.reg.SubmitMove(ctx, p.id, req)
	default:
		h.logger.Debug("relay_unknown_event", zap.String("conn", p.id), zap.String("event", env.Event))
	}
}

func (h *Hub) roomError(p *peer, event string, err error) {
	if !errors.Is(err, ErrRoomNotFound) && !errors.Is(err, ErrRoomFull) {
		h.logger.Warn("room_error", zap.String("conn", p.id), zap.String("event", event), zap.Error(err))
	}
	env, encErr := chessdto.NewEnvelope(chessdto.EventRoomError, chessdto.RoomError{Message: h.reg.ErrorText(err, p.id, event)})
	if encErr != nil {
		return
	}
	h.Notify(p.id, env)
}

// Shutdown stops accepting peers, closes the open ones and waits for their
// handlers to finish.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closing.Store(true)
	peers := make([]*peer, 0, len(h.peers))
	for _, p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.Unlock()

	for _, p := range peers {
		p.kill()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	var result *multierror.Error
	select {
	case <-done:
	case <-ctx.Done():
		h.mu.RLock()
		for id := range h.peers {
			result = multierror.Append(result, fmt.Errorf("peer %s: %w", id, ctx.Err()))
		}
		h.mu.RUnlock()
		if result == nil {
			result = multierror.Append(result, ctx.Err())
		}
	}
	return result.ErrorOrNil()
}
