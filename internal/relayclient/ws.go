package relayclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/park285/cheese-chess/pkg/chessdto"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// State is the lifecycle of a client socket.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateFailed       State = "failed"
	StateClosed       State = "closed"
)

var ErrClosed = errors.New("relay socket closed")

// RoomError is returned when the relay answers with roomError.
type RoomError struct{ Message string }

func (e *RoomError) Error() string { return "room error: " + e.Message }

type MessageCallback func(env chessdto.Envelope)

type StateCallback func(state State)

type callbackEntry struct {
	id       int
	callback MessageCallback
}

type stateCallbackEntry struct {
	id       int
	callback StateCallback
}

// Socket is one game connection to the relay. The relay binds room
// membership to the connection, so a dropped socket is not redialled.
type Socket struct {
	wsURL string

	conn   *websocket.Conn
	state  State
	stateM sync.RWMutex
	writeM sync.Mutex

	msgCbs   []callbackEntry
	stateCbs []stateCallbackEntry
	nextID   int
	cbM      sync.RWMutex

	inbox        chan chessdto.Envelope
	pingInterval time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc

	headerProvider HeaderProvider
}

func NewSocket(wsURL string) *Socket {
	return &Socket{
		wsURL:        wsURL,
		state:        StateDisconnected,
		inbox:        make(chan chessdto.Envelope, 128),
		pingInterval: 30 * time.Second,
		stopCh:       make(chan struct{}),
	}
}

// SetHeaderProvider allows injecting headers into the WS handshake.
func (s *Socket) SetHeaderProvider(h HeaderProvider) { s.headerProvider = h }

func (s *Socket) SetPingInterval(d time.Duration) {
	if d > 0 {
		s.pingInterval = d
	}
}

func (s *Socket) State() State {
	s.stateM.RLock()
	defer s.stateM.RUnlock()
	return s.state
}

func (s *Socket) Connect(ctx context.Context) error {
	if st := s.State(); st == StateConnected || st == StateConnecting {
		return nil
	}
	s.rootCtx, s.rootCancel = context.WithCancel(context.Background())
	s.setState(StateConnecting)

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, s.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      s.buildHeaders(),
	})
	if err != nil {
		s.setState(StateFailed)
		return fmt.Errorf("dial relay: %w", err)
	}
	s.conn = conn
	s.setState(StateConnected)

	s.wg.Add(2)
	go s.listen()
	go s.pingLoop()
	return nil
}

func (s *Socket) listen() {
	defer s.wg.Done()
	for {
		var env chessdto.Envelope
		if err := wsjson.Read(s.rootCtx, s.conn, &env); err != nil {
			if !s.isStopping() {
				s.setState(StateDisconnected)
			}
			return
		}

		s.cbM.RLock()
		callbacks := make([]callbackEntry, len(s.msgCbs))
		copy(callbacks, s.msgCbs)
		s.cbM.RUnlock()
		for _, entry := range callbacks {
			if entry.callback != nil {
				entry.callback(env)
			}
		}

		// block until Next drains; the relay drops us if we stall too long
		select {
		case s.inbox <- env:
		case <-s.stopCh:
			return
		case <-s.rootCtx.Done():
			return
		}
	}
}

func (s *Socket) pingLoop() {
	defer s.wg.Done()
	t := time.NewTicker(s.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-s.stopCh:
			return
		case <-s.rootCtx.Done():
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(s.rootCtx, 3*time.Second)
			err := s.conn.Ping(ctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 && !s.isStopping() {
				s.setState(StateDisconnected)
				_ = s.conn.Close(websocket.StatusGoingAway, "ping failure")
				return
			}
		}
	}
}

// Send writes one event. Writes are serialized.
func (s *Socket) Send(ctx context.Context, event string, payload any) error {
	if s.State() != StateConnected {
		return ErrClosed
	}
	env, err := chessdto.NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	s.writeM.Lock()
	defer s.writeM.Unlock()
	return wsjson.Write(ctx, s.conn, env)
}

// Next returns the next inbound event.
func (s *Socket) Next(ctx context.Context) (chessdto.Envelope, error) {
	select {
	case env := <-s.inbox:
		return env, nil
	case <-ctx.Done():
		return chessdto.Envelope{}, ctx.Err()
	case <-s.stopCh:
		return chessdto.Envelope{}, ErrClosed
	}
}

// Expect skips inbound events until one named event arrives. A roomError
// received first is returned as *RoomError.
func (s *Socket) Expect(ctx context.Context, event string) (chessdto.Envelope, error) {
	for {
		env, err := s.Next(ctx)
		if err != nil {
			return env, err
		}
		if env.Event == event {
			return env, nil
		}
		if env.Event == chessdto.EventRoomError {
			var re chessdto.RoomError
			_ = env.Decode(&re)
			return env, &RoomError{Message: re.Message}
		}
	}
}

// CreateRoom asks for a new room and waits for its code.
func (s *Socket) CreateRoom(ctx context.Context) (string, error) {
	if err := s.Send(ctx, chessdto.EventCreateRoom, nil); err != nil {
		return "", err
	}
	env, err := s.Expect(ctx, chessdto.EventRoomCreated)
	if err != nil {
		return "", err
	}
	var rc chessdto.RoomCreated
	if err := env.Decode(&rc); err != nil {
		return "", err
	}
	return rc.RoomCode, nil
}

// JoinRoom joins code and waits for the confirmation.
func (s *Socket) JoinRoom(ctx context.Context, code string) (chessdto.RoomJoined, error) {
	var rj chessdto.RoomJoined
	if err := s.Send(ctx, chessdto.EventJoinRoom, code); err != nil {
		return rj, err
	}
	env, err := s.Expect(ctx, chessdto.EventRoomJoined)
	if err != nil {
		return rj, err
	}
	err = env.Decode(&rj)
	return rj, err
}

// MakeMove submits a move. The relay never acknowledges a dropped move.
func (s *Socket) MakeMove(ctx context.Context, code, color string, from, to chessdto.Square) error {
	return s.Send(ctx, chessdto.EventMakeMove, chessdto.MakeMove{
		RoomCode:    code,
		From:        from,
		To:          to,
		PlayerColor: color,
	})
}

func (s *Socket) OnMessage(cb MessageCallback) int {
	s.cbM.Lock()
	defer s.cbM.Unlock()
	s.nextID++
	s.msgCbs = append(s.msgCbs, callbackEntry{id: s.nextID, callback: cb})
	return s.nextID
}

func (s *Socket) RemoveMessageCallback(id int) {
	s.cbM.Lock()
	defer s.cbM.Unlock()
	for i, cb := range s.msgCbs {
		if cb.id == id {
			s.msgCbs = append(s.msgCbs[:i], s.msgCbs[i+1:]...)
			break
		}
	}
}

func (s *Socket) OnStateChange(cb StateCallback) int {
	s.cbM.Lock()
	defer s.cbM.Unlock()
	s.nextID++
	s.stateCbs = append(s.stateCbs, stateCallbackEntry{id: s.nextID, callback: cb})
	return s.nextID
}

func (s *Socket) setState(state State) {
	s.stateM.Lock()
	s.state = state
	s.stateM.Unlock()

	s.cbM.RLock()
	callbacks := make([]stateCallbackEntry, len(s.stateCbs))
	copy(callbacks, s.stateCbs)
	s.cbM.RUnlock()
	for _, entry := range callbacks {
		if entry.callback != nil {
			entry.callback(state)
		}
	}
}

// Close performs the close handshake and waits for the reader to exit.
func (s *Socket) Close(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	if s.conn != nil {
		_ = s.conn.Close(websocket.StatusNormalClosure, "close")
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		if s.rootCancel != nil {
			s.rootCancel()
		}
		s.setState(StateClosed)
		return nil
	}
}

func (s *Socket) isStopping() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

func (s *Socket) buildHeaders() http.Header {
	hdr := http.Header{}
	if s.headerProvider == nil {
		return hdr
	}
	for k, v := range s.headerProvider() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}
