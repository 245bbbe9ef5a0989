// Package fen converts between FEN strings and the rules engine's board.
// Parsing and placement rendering are delegated to corentings/chess; only
// piece placement and side to move are carried over since the engine has
// no castling or en passant state.
package fen

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/cheese-chess/internal/chess"
)

const Start = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w - - 0 1"

var (
	toKind = map[nchess.PieceType]chess.Kind{
		nchess.Pawn:   chess.Pawn,
		nchess.Knight: chess.Knight,
		nchess.Bishop: chess.Bishop,
		nchess.Rook:   chess.Rook,
		nchess.Queen:  chess.Queen,
		nchess.King:   chess.King,
	}
	fromKind = map[chess.Kind]nchess.PieceType{
		chess.Pawn:   nchess.Pawn,
		chess.Knight: nchess.Knight,
		chess.Bishop: nchess.Bishop,
		chess.Rook:   nchess.Rook,
		chess.Queen:  nchess.Queen,
		chess.King:   nchess.King,
	}
)

// Decode parses a FEN string into a validated board and the side to move.
func Decode(s string) (*chess.Board, chess.Color, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "startpos") {
		return chess.NewStandardBoard(), chess.White, nil
	}
	opt, err := nchess.FEN(s)
	if err != nil {
		return nil, chess.NoColor, fmt.Errorf("%w: %v", chess.ErrInvalidBoard, err)
	}
	pos := nchess.NewGame(opt).Position()
	b := &chess.Board{}
	for sq, p := range pos.Board().SquareMap() {
		kind, ok := toKind[p.Type()]
		if !ok {
			continue
		}
		b.Set(toSquare(sq), chess.Piece{Kind: kind, Color: toColor(p.Color())})
	}
	if err := b.Validate(); err != nil {
		return nil, chess.NoColor, err
	}
	return b, toColor(pos.Turn()), nil
}

// Encode renders b with toMove. fullmove below 1 is written as 1.
func Encode(b *chess.Board, toMove chess.Color, fullmove int) string {
	m := make(map[nchess.Square]nchess.Piece)
	cells := b.Cells()
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			p := cells[r][c]
			if p.IsZero() {
				continue
			}
			m[fromSquare(chess.Sq(r, c))] = nchess.NewPiece(fromKind[p.Kind], fromColor(p.Color))
		}
	}
	turn := "w"
	if toMove == chess.Black {
		turn = "b"
	}
	if fullmove < 1 {
		fullmove = 1
	}
	return fmt.Sprintf("%s %s - - 0 %d", nchess.NewBoard(m).String(), turn, fullmove)
}

// NewSession starts a session from a FEN position.
func NewSession(s string, opts ...chess.Option) (*chess.Session, error) {
	b, toMove, err := Decode(s)
	if err != nil {
		return nil, err
	}
	return chess.NewSessionFromBoard(b, toMove, opts...)
}

// FromSession encodes the session's current position. The full-move number
// counts from the session's own history.
func FromSession(s *chess.Session) string {
	return Encode(s.Board(), s.Turn(), len(s.History())/2+1)
}

// rank 1 is row 7.
func toSquare(sq nchess.Square) chess.Square {
	return chess.Sq(7-int(sq.Rank()), int(sq.File()))
}

func fromSquare(sq chess.Square) nchess.Square {
	return nchess.NewSquare(nchess.File(sq.Col), nchess.Rank(7-sq.Row))
}

func toColor(c nchess.Color) chess.Color {
	if c == nchess.Black {
		return chess.Black
	}
	return chess.White
}

func fromColor(c chess.Color) nchess.Color {
	if c == chess.Black {
		return nchess.Black
	}
	return nchess.White
}
