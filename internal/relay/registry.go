package relay

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/park285/cheese-chess/internal/chess"
	"github.com/park285/cheese-chess/internal/msgcat"
	"github.com/park285/cheese-chess/pkg/chessdto"
	"go.uber.org/zap"
)

// MessageKeys are the catalog entries the registry renders.
var MessageKeys = []string{
	"room.not_found",
	"room.full",
	"room.already_member",
	"room.create_failed",
	"room.bad_request",
	"game.over.checkmate",
	"game.over.stalemate",
}

// Options configures a Registry. Codes and Notifier are required.
type Options struct {
	Codes    CodeAllocator
	Notifier Notifier
	// StrictMoves re-runs the full move legality check instead of trusting
	// the submitting client beyond turn ownership.
	StrictMoves    bool
	Messages       *msgcat.Catalog
	Logger         *zap.Logger
	SessionOptions []chess.Option
}

type room struct {
	mu        sync.Mutex
	code      string
	state     RoomState
	members   [2]string // slot 0 plays white, slot 1 black
	session   *chess.Session
	createdAt time.Time
}

func (r *room) slotOf(connID string) int {
	for i, m := range r.members {
		if m != "" && m == connID {
			return i
		}
	}
	return -1
}

func (r *room) count() int {
	n := 0
	for _, m := range r.members {
		if m != "" {
			n++
		}
	}
	return n
}

func slotColor(slot int) chess.Color {
	if slot == 0 {
		return chess.White
	}
	return chess.Black
}

type codeToucher interface {
	Touch(ctx context.Context, code string) error
}

// Registry owns every open room. The index lock only guards the maps; each
// room serializes its own mutations. Lock order is room then index.
type Registry struct {
	codes    CodeAllocator
	notifier Notifier
	strict   bool
	msgs     *msgcat.Catalog
	logger   *zap.Logger
	sessOpts []chess.Option

	mu    sync.RWMutex
	rooms map[string]*room
	conns map[string]string
}

func NewRegistry(opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	codes := opts.Codes
	if codes == nil {
		codes = NewMemoryAllocator(nil)
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NotifierFunc(func(string, chessdto.Envelope) {})
	}
	return &Registry{
		codes:    codes,
		notifier: notifier,
		strict:   opts.StrictMoves,
		msgs:     opts.Messages,
		logger:   logger,
		sessOpts: opts.SessionOptions,
		rooms:    make(map[string]*room),
		conns:    make(map[string]string),
	}
}

// CreateRoom opens a room with connID as its white member and sends
// roomCreated to it.
func (g *Registry) CreateRoom(ctx context.Context, connID string) (string, error) {
	if g.roomOf(connID) != "" {
		return "", ErrAlreadyInRoom
	}
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := g.codes.Reserve(ctx)
		if err != nil {
			return "", fmt.Errorf("create room: %w", err)
		}
		r := &room{
			code:      code,
			state:     StateAwaitingOpponent,
			members:   [2]string{connID, ""},
			session:   chess.NewSession(g.sessOpts...),
			createdAt: time.Now(),
		}
		r.mu.Lock()
		g.mu.Lock()
		if _, busy := g.conns[connID]; busy {
			g.mu.Unlock()
			r.mu.Unlock()
			_ = g.codes.Release(ctx, code)
			return "", ErrAlreadyInRoom
		}
		if _, clash := g.rooms[code]; clash {
			// reservation outlived its room elsewhere; the code still belongs to the open room
			g.mu.Unlock()
			r.mu.Unlock()
			continue
		}
		g.rooms[code] = r
		g.conns[connID] = code
		g.mu.Unlock()

		g.send(connID, chessdto.EventRoomCreated, chessdto.RoomCreated{RoomCode: code})
		r.mu.Unlock()
		g.logger.Info("room_create", zap.String("code", code), zap.String("conn", connID))
		return code, nil
	}
	return "", ErrCodeExhausted
}

// JoinRoom seats connID in the free slot and starts a fresh game for both
// members. A member left alone by a disconnect is moved to the white slot.
func (g *Registry) JoinRoom(ctx context.Context, connID, code string) error {
	code = strings.TrimSpace(code)
	r := g.lookup(code)
	if r == nil {
		return ErrRoomNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.state == StateClosed:
		return ErrRoomNotFound
	case r.count() == 2:
		return ErrRoomFull
	}

	g.mu.Lock()
	if _, busy := g.conns[connID]; busy {
		g.mu.Unlock()
		return ErrAlreadyInRoom
	}
	g.conns[connID] = code
	g.mu.Unlock()

	if r.members[0] == "" {
		r.members[0], r.members[1] = r.members[1], ""
	}
	r.members[1] = connID
	r.state = StateActive
	r.session.Reset()

	black := chess.Black.String()
	g.send(connID, chessdto.EventRoomJoined, chessdto.RoomJoined{RoomCode: code, PlayerColor: black})
	g.send(r.members[0], chessdto.EventPlayerJoined, chessdto.PlayerJoined{PlayerColor: black})
	start := chessdto.GameStart{CurrentPlayer: r.session.Turn().String(), GameState: GameState(r.session)}
	g.broadcast(r, chessdto.EventGameStart, start)
	g.logger.Info("room_join", zap.String("code", code), zap.String("conn", connID))
	return nil
}

// SubmitMove applies a member's move to the room's game and broadcasts the
// result. Any error means nothing was broadcast.
func (g *Registry) SubmitMove(ctx context.Context, connID string, req chessdto.MakeMove) error {
	code := strings.TrimSpace(req.RoomCode)
	r := g.lookup(code)
	if r == nil {
		return ErrRoomNotFound
	}
	r.mu.Lock()
	m, err := g.submitLocked(r, connID, req)
	r.mu.Unlock()
	if err != nil {
		g.logger.Debug("move_drop",
			zap.String("code", code),
			zap.String("conn", connID),
			zap.String("claimed", req.PlayerColor),
			zap.Error(err),
		)
		return err
	}
	g.logger.Debug("move_relay", zap.String("code", code), zap.String("move", m.Notation()))
	if t, ok := g.codes.(codeToucher); ok {
		if err := t.Touch(ctx, code); err != nil {
			g.logger.Warn("room_code_touch_failed", zap.String("code", code), zap.Error(err))
		}
	}
	return nil
}

func (g *Registry) submitLocked(r *room, connID string, req chessdto.MakeMove) (chess.Move, error) {
	slot := r.slotOf(connID)
	if slot < 0 {
		return chess.Move{}, ErrNotMember
	}
	if r.state != StateActive || r.count() < 2 {
		return chess.Move{}, ErrNotActive
	}
	if r.session.Status().Terminal() {
		return chess.Move{}, chess.ErrGameOver
	}
	mine := slotColor(slot)
	claimed, err := chess.ParseColor(req.PlayerColor)
	if err != nil || claimed != mine || mine != r.session.Turn() {
		return chess.Move{}, ErrTurnViolation
	}

	from, to := squareFromDTO(req.From), squareFromDTO(req.To)
	var m chess.Move
	if g.strict {
		m, err = r.session.ApplyMove(from, to)
	} else {
		m, err = r.session.ForceMove(from, to)
	}
	if err != nil {
		return chess.Move{}, err
	}

	gs := GameState(r.session)
	g.broadcast(r, chessdto.EventMoveMade, chessdto.MoveMade{
		From:          req.From,
		To:            req.To,
		GameState:     gs,
		CurrentPlayer: gs.CurrentPlayer,
	})
	if r.session.Status().Terminal() {
		g.broadcast(r, chessdto.EventGameOver, g.gameOver(r.session))
		g.logger.Info("game_over", zap.String("code", r.code), zap.String("status", r.session.Status().String()))
	}
	return m, nil
}

func (g *Registry) gameOver(s *chess.Session) chessdto.GameOver {
	out := chessdto.GameOver{Reason: s.Status().String()}
	if w := s.Winner(); w != chess.NoColor {
		name := w.String()
		out.Winner = &name
		out.Message = g.text("game.over.checkmate", map[string]string{"Winner": strings.ToUpper(name[:1]) + name[1:]})
	} else {
		out.Message = g.text("game.over.stalemate", nil)
	}
	return out
}

// Disconnect removes connID from its room, tells the other member, and
// deletes the room once nobody is left.
func (g *Registry) Disconnect(ctx context.Context, connID string) {
	g.mu.Lock()
	code, ok := g.conns[connID]
	delete(g.conns, connID)
	r := g.rooms[code]
	g.mu.Unlock()
	if !ok || r == nil {
		return
	}

	r.mu.Lock()
	if slot := r.slotOf(connID); slot >= 0 {
		r.members[slot] = ""
	}
	closed := r.count() == 0
	if closed {
		r.state = StateClosed
		g.mu.Lock()
		if g.rooms[code] == r {
			delete(g.rooms, code)
		}
		g.mu.Unlock()
	} else {
		g.broadcast(r, chessdto.EventPlayerLeft, nil)
	}
	r.mu.Unlock()

	g.logger.Info("room_leave", zap.String("code", code), zap.String("conn", connID), zap.Bool("closed", closed))
	if closed {
		if err := g.codes.Release(ctx, code); err != nil {
			g.logger.Warn("room_code_release_failed", zap.String("code", code), zap.Error(err))
		}
	}
}

// RoomOf returns the code of the room connID belongs to, or "".
func (g *Registry) RoomOf(connID string) string { return g.roomOf(connID) }

// Rooms lists open rooms ordered by code.
func (g *Registry) Rooms() []RoomInfo {
	g.mu.RLock()
	rooms := make([]*room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	out := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		r.mu.Lock()
		info := RoomInfo{
			Code:      r.code,
			State:     r.state,
			Members:   r.count(),
			Moves:     len(r.session.History()),
			Turn:      r.session.Turn().String(),
			Status:    r.session.Status().String(),
			CreatedAt: r.createdAt,
		}
		r.mu.Unlock()
		if info.State != StateClosed {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (g *Registry) Stats() Stats {
	var st Stats
	for _, info := range g.Rooms() {
		st.Rooms++
		switch info.State {
		case StateAwaitingOpponent:
			st.Awaiting++
		case StateActive:
			st.Active++
		}
	}
	g.mu.RLock()
	st.Connections = len(g.conns)
	g.mu.RUnlock()
	return st
}

// ErrorText maps a relay error to the client-facing roomError message.
func (g *Registry) ErrorText(err error, connID, event string) string {
	switch {
	case errors.Is(err, ErrBadRequest):
		return g.text("room.bad_request", map[string]string{"Event": event})
	case errors.Is(err, ErrRoomNotFound):
		return g.text("room.not_found", nil)
	case errors.Is(err, ErrRoomFull):
		return g.text("room.full", nil)
	case errors.Is(err, ErrAlreadyInRoom):
		return g.text("room.already_member", map[string]string{"Code": g.roomOf(connID)})
	default:
		return g.text("room.create_failed", nil)
	}
}

func (g *Registry) text(key string, data any) string {
	if g.msgs == nil {
		return key
	}
	return g.msgs.Text(key, data)
}

func (g *Registry) lookup(code string) *room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rooms[code]
}

func (g *Registry) roomOf(connID string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.conns[connID]
}

func (g *Registry) broadcast(r *room, event string, payload any) {
	for _, m := range r.members {
		if m != "" {
			g.send(m, event, payload)
		}
	}
}

func (g *Registry) send(connID string, event string, payload any) {
	env, err := chessdto.NewEnvelope(event, payload)
	if err != nil {
		g.logger.Error("relay_encode_failed", zap.String("event", event), zap.Error(err))
		return
	}
	g.notifier.Notify(connID, env)
}
