package chess

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalMove   = errors.New("illegal move")
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrGameOver is returned for moves attempted after checkmate or stalemate.
	ErrGameOver = fmt.Errorf("%w: game is over", ErrIllegalMove)
)

// Status is the session state after the last transition.
type Status uint8

const (
	InProgress Status = iota
	Check
	Checkmate
	Stalemate
)

func (s Status) String() string {
	switch s {
	case Check:
		return "check"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	default:
		return "in_progress"
	}
}

// Terminal reports checkmate or stalemate.
func (s Status) Terminal() bool { return s == Checkmate || s == Stalemate }

// Move records one applied transition. Piece is the mover as it stood on From,
// so undo can revert a promotion.
type Move struct {
	From     Square
	To       Square
	Piece    Piece
	Captured Piece // zero when nothing was taken
	Promoted bool
}

func (m Move) IsCapture() bool { return !m.Captured.IsZero() }

// Notation renders coordinate notation, e.g. "e2-e4".
func (m Move) Notation() string { return m.From.String() + "-" + m.To.String() }

type Option func(*Session)

// WithSelfCheckFilter removes moves that leave the mover's own king attacked.
func WithSelfCheckFilter() Option {
	return func(s *Session) { s.selfCheckFilter = true }
}

// Session owns one board, its history, the side to move and the derived status.
// It is not safe for concurrent use.
type Session struct {
	board           *Board
	history         []Move
	toMove          Color
	status          Status
	selfCheckFilter bool
}

// NewSession starts a game from the standard position with White to move.
func NewSession(opts ...Option) *Session {
	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

// NewSessionFromBoard starts a game from an arbitrary validated position.
func NewSessionFromBoard(b *Board, toMove Color, opts ...Option) (*Session, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil board", ErrInvalidBoard)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if toMove != White && toMove != Black {
		return nil, fmt.Errorf("%w: side to move must be white or black", ErrInvalidBoard)
	}
	s := &Session{board: b.Clone(), toMove: toMove}
	for _, opt := range opts {
		opt(s)
	}
	s.recompute()
	return s, nil
}

// Reset reinitialises the standard position.
func (s *Session) Reset() {
	s.board = NewStandardBoard()
	s.history = nil
	s.toMove = White
	s.status = InProgress
}

// Clone returns an independent copy, used by search.
func (s *Session) Clone() *Session {
	c := *s
	c.board = s.board.Clone()
	c.history = append([]Move(nil), s.history...)
	return &c
}

// Fork copies the position with toMove to play and an empty history. Options
// such as the self-check filter carry over.
func (s *Session) Fork(toMove Color) *Session {
	c := &Session{board: s.board.Clone(), toMove: toMove, selfCheckFilter: s.selfCheckFilter}
	c.recompute()
	return c
}

func (s *Session) Turn() Color    { return s.toMove }
func (s *Session) Status() Status { return s.status }

// Board returns a copy of the current position.
func (s *Session) Board() *Board { return s.board.Clone() }

// History returns a copy of the applied moves, oldest first.
func (s *Session) History() []Move { return append([]Move(nil), s.history...) }

func (s *Session) LastMove() (Move, bool) {
	if len(s.history) == 0 {
		return Move{}, false
	}
	return s.history[len(s.history)-1], true
}

// Winner is the side that delivered checkmate, NoColor otherwise.
func (s *Session) Winner() Color {
	if s.status == Checkmate {
		return s.toMove.Opponent()
	}
	return NoColor
}

// LegalMoves returns the destinations for the piece on sq regardless of whose
// turn it is. Without the self-check filter this equals PseudoLegalMoves.
func (s *Session) LegalMoves(sq Square) []Square {
	moves := PseudoLegalMoves(s.board, sq)
	if !s.selfCheckFilter || len(moves) == 0 {
		return moves
	}
	p, _ := s.board.Get(sq)
	out := moves[:0:0]
	for _, to := range moves {
		trial := s.board.Clone()
		place(trial, sq, to, p)
		if !KingIsAttacked(trial, p.Color) {
			out = append(out, to)
		}
	}
	return out
}

// AllLegalMoves enumerates color's moves row-major over origins.
func (s *Session) AllLegalMoves(color Color) []CandidateMove {
	var out []CandidateMove
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			from := Square{Row: r, Col: c}
			if p, ok := s.board.Get(from); !ok || p.Color != color {
				continue
			}
			for _, to := range s.LegalMoves(from) {
				out = append(out, CandidateMove{From: from, To: to})
			}
		}
	}
	return out
}

// HasAnyMove reports whether color has at least one legal move.
func (s *Session) HasAnyMove(color Color) bool {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			from := Square{Row: r, Col: c}
			if p, ok := s.board.Get(from); ok && p.Color == color && len(s.LegalMoves(from)) > 0 {
				return true
			}
		}
	}
	return false
}

// ApplyMove moves the side-to-move's piece from one square to another when the
// destination is among LegalMoves(from).
func (s *Session) ApplyMove(from, to Square) (Move, error) {
	p, err := s.checkOwnership(from, to)
	if err != nil {
		return Move{}, err
	}
	for _, dst := range s.LegalMoves(from) {
		if dst == to {
			return s.commit(from, to, p), nil
		}
	}
	return Move{}, fmt.Errorf("%w: %s cannot reach %s", ErrIllegalMove, from, to)
}

// ForceMove applies a move without consulting the generator. Turn ownership,
// board bounds and same-color captures are still enforced. Peers use it to
// replay moves relayed from an authority that already judged them.
func (s *Session) ForceMove(from, to Square) (Move, error) {
	p, err := s.checkOwnership(from, to)
	if err != nil {
		return Move{}, err
	}
	if from == to {
		return Move{}, fmt.Errorf("%w: null move", ErrIllegalMove)
	}
	return s.commit(from, to, p), nil
}

func (s *Session) checkOwnership(from, to Square) (Piece, error) {
	if s.status.Terminal() {
		return Piece{}, ErrGameOver
	}
	if !from.IsOnBoard() || !to.IsOnBoard() {
		return Piece{}, fmt.Errorf("%w: off board", ErrIllegalMove)
	}
	p, ok := s.board.Get(from)
	if !ok {
		return Piece{}, fmt.Errorf("%w: no piece on %s", ErrIllegalMove, from)
	}
	if p.Color != s.toMove {
		return Piece{}, fmt.Errorf("%w: not %s's turn", ErrIllegalMove, p.Color)
	}
	if t, ok := s.board.Get(to); ok && t.Color == p.Color {
		return Piece{}, fmt.Errorf("%w: %s is occupied by own piece", ErrIllegalMove, to)
	}
	return p, nil
}

func (s *Session) commit(from, to Square, p Piece) Move {
	captured, _ := s.board.Get(to)
	m := Move{From: from, To: to, Piece: p, Captured: captured}
	m.Promoted = place(s.board, from, to, p)
	s.history = append(s.history, m)
	s.toMove = s.toMove.Opponent()
	s.recompute()
	return m
}

// place moves p and promotes pawns reaching the far rank to queens.
func place(b *Board, from, to Square, p Piece) (promoted bool) {
	b.Clear(from)
	if p.Kind == Pawn && to.Row == PromotionRow(p.Color) {
		p.Kind = Queen
		promoted = true
	}
	b.Set(to, p)
	return promoted
}

// UndoMove reverts the last move, including captures and promotions.
func (s *Session) UndoMove() (Move, error) {
	n := len(s.history)
	if n == 0 {
		return Move{}, ErrNothingToUndo
	}
	m := s.history[n-1]
	s.history = s.history[:n-1]
	s.board.Set(m.From, m.Piece)
	s.board.Set(m.To, m.Captured)
	s.toMove = m.Piece.Color
	s.recompute()
	return m, nil
}

// recompute derives the status for the side to move. The pre-move position
// of any applied move was non-terminal, so after an undo this yields
// InProgress or Check.
func (s *Session) recompute() {
	if _, ok := s.board.FindKing(s.toMove); !ok {
		s.status = Checkmate
		return
	}
	attacked := KingIsAttacked(s.board, s.toMove)
	hasMove := s.HasAnyMove(s.toMove)
	switch {
	case !hasMove && attacked:
		s.status = Checkmate
	case !hasMove:
		s.status = Stalemate
	case attacked:
		s.status = Check
	default:
		s.status = InProgress
	}
}
