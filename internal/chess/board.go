package chess

import (
	"errors"
	"fmt"
	"strings"
)

// Color identifies a chess side.
type Color uint8

const (
	NoColor Color = iota
	White
	Black
)

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return ""
	}
}

// Opponent returns the other side. NoColor maps to itself.
func (c Color) Opponent() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return NoColor
	}
}

// ParseColor accepts "white"/"w" and "black"/"b" in any case.
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	default:
		return NoColor, fmt.Errorf("unknown color %q", s)
	}
}

// Kind is the piece type. The zero value marks an empty cell.
type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindNames = [...]string{"", "pawn", "knight", "bishop", "rook", "queen", "king"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return ""
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for i, n := range kindNames {
		if i > 0 && n == v {
			return Kind(i), nil
		}
	}
	return NoKind, fmt.Errorf("unknown piece kind %q", s)
}

type Piece struct {
	Kind  Kind
	Color Color
}

func (p Piece) IsZero() bool { return p.Kind == NoKind }

// Square addresses a cell. Row 0 is Black's back rank.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func Sq(row, col int) Square { return Square{Row: row, Col: col} }

func (s Square) IsOnBoard() bool {
	return s.Row >= 0 && s.Row < 8 && s.Col >= 0 && s.Col < 8
}

// String renders algebraic coordinates (row 7 is rank 1).
func (s Square) String() string {
	if !s.IsOnBoard() {
		return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
	}
	return string([]byte{byte('a' + s.Col), byte('8' - s.Row)})
}

// ParseSquare reads algebraic coordinates such as "e2".
func ParseSquare(s string) (Square, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if len(v) != 2 || v[0] < 'a' || v[0] > 'h' || v[1] < '1' || v[1] > '8' {
		return Square{}, fmt.Errorf("invalid square %q", s)
	}
	return Square{Row: int('8' - v[1]), Col: int(v[0] - 'a')}, nil
}

var ErrInvalidBoard = errors.New("invalid board")

// Board is an 8x8 grid of optional pieces. The zero value is an empty board.
// Board has no legality knowledge.
type Board struct {
	cells [8][8]Piece
}

var backRank = [8]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewStandardBoard returns the initial position: Black on rows 0-1, White on rows 6-7.
func NewStandardBoard() *Board {
	b := &Board{}
	for col := 0; col < 8; col++ {
		b.cells[0][col] = Piece{Kind: backRank[col], Color: Black}
		b.cells[1][col] = Piece{Kind: Pawn, Color: Black}
		b.cells[6][col] = Piece{Kind: Pawn, Color: White}
		b.cells[7][col] = Piece{Kind: backRank[col], Color: White}
	}
	return b
}

// Get returns the piece on sq. ok is false for empty or off-board squares.
func (b *Board) Get(sq Square) (Piece, bool) {
	if !sq.IsOnBoard() {
		return Piece{}, false
	}
	p := b.cells[sq.Row][sq.Col]
	return p, !p.IsZero()
}

// Set places p on sq; a zero Piece clears the square. Off-board squares are ignored.
func (b *Board) Set(sq Square, p Piece) {
	if !sq.IsOnBoard() {
		return
	}
	b.cells[sq.Row][sq.Col] = p
}

func (b *Board) Clear(sq Square) { b.Set(sq, Piece{}) }

func (b *Board) Clone() *Board {
	c := *b
	return &c
}

// Equal reports cell-wise equality.
func (b *Board) Equal(o *Board) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.cells == o.cells
}

// Cells exposes a copy of the grid for encoders.
func (b *Board) Cells() [8][8]Piece { return b.cells }

// FindKing returns the square of color's king.
func (b *Board) FindKing(color Color) (Square, bool) {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			p := b.cells[r][c]
			if p.Kind == King && p.Color == color {
				return Square{Row: r, Col: c}, true
			}
		}
	}
	return Square{}, false
}

// Validate rejects malformed boards: unknown kinds/colors, pawns on a back rank,
// or anything other than exactly one king per side.
func (b *Board) Validate() error {
	kings := map[Color]int{}
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			p := b.cells[r][c]
			if p.IsZero() {
				continue
			}
			if p.Kind > King || (p.Color != White && p.Color != Black) {
				return fmt.Errorf("%w: bad piece at %s", ErrInvalidBoard, Sq(r, c))
			}
			if p.Kind == Pawn && (r == 0 || r == 7) {
				return fmt.Errorf("%w: pawn on back rank at %s", ErrInvalidBoard, Sq(r, c))
			}
			if p.Kind == King {
				kings[p.Color]++
			}
		}
	}
	if kings[White] != 1 || kings[Black] != 1 {
		return fmt.Errorf("%w: need exactly one king per side (white=%d black=%d)", ErrInvalidBoard, kings[White], kings[Black])
	}
	return nil
}

// Material sums piece values per side using the given table.
func (b *Board) Material(values map[Kind]int) (white, black int) {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			p := b.cells[r][c]
			switch p.Color {
			case White:
				white += values[p.Kind]
			case Black:
				black += values[p.Kind]
			}
		}
	}
	return white, black
}
