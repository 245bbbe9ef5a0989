package chess

type offset struct{ dr, dc int }

var (
	knightOffsets = []offset{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
	kingOffsets   = []offset{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}

	orthogonal = []offset{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	diagonal   = []offset{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	allRays    = append(append([]offset{}, orthogonal...), diagonal...)
)

// pawnDirection is the row delta of a forward pawn step.
func pawnDirection(c Color) int {
	if c == White {
		return -1
	}
	return 1
}

func pawnStartRow(c Color) int {
	if c == White {
		return 6
	}
	return 1
}

// PromotionRow is the far rank for color.
func PromotionRow(c Color) int {
	if c == White {
		return 0
	}
	return 7
}

// PseudoLegalMoves lists destinations reachable by the piece on sq following its
// movement pattern and board occupancy. Moves that leave the mover's own king
// attacked are not removed. An empty square yields nil.
func PseudoLegalMoves(b *Board, sq Square) []Square {
	p, ok := b.Get(sq)
	if !ok {
		return nil
	}
	switch p.Kind {
	case Pawn:
		return pawnMoves(b, sq, p.Color)
	case Knight:
		return stepMoves(b, sq, p.Color, knightOffsets)
	case King:
		return stepMoves(b, sq, p.Color, kingOffsets)
	case Bishop:
		return rayMoves(b, sq, p.Color, diagonal)
	case Rook:
		return rayMoves(b, sq, p.Color, orthogonal)
	case Queen:
		return rayMoves(b, sq, p.Color, allRays)
	}
	return nil
}

func pawnMoves(b *Board, sq Square, c Color) []Square {
	var out []Square
	dir := pawnDirection(c)
	one := Square{Row: sq.Row + dir, Col: sq.Col}
	if !one.IsOnBoard() {
		return nil
	}
	if _, occupied := b.Get(one); !occupied {
		out = append(out, one)
		two := Square{Row: sq.Row + 2*dir, Col: sq.Col}
		if sq.Row == pawnStartRow(c) {
			if _, occupied := b.Get(two); !occupied && two.IsOnBoard() {
				out = append(out, two)
			}
		}
	}
	for _, dc := range [2]int{-1, 1} {
		diag := Square{Row: one.Row, Col: sq.Col + dc}
		if t, ok := b.Get(diag); ok && t.Color != c {
			out = append(out, diag)
		}
	}
	return out
}

func stepMoves(b *Board, sq Square, c Color, offsets []offset) []Square {
	out := make([]Square, 0, len(offsets))
	for _, o := range offsets {
		to := Square{Row: sq.Row + o.dr, Col: sq.Col + o.dc}
		if !to.IsOnBoard() {
			continue
		}
		if t, ok := b.Get(to); ok && t.Color == c {
			continue
		}
		out = append(out, to)
	}
	return out
}

func rayMoves(b *Board, sq Square, c Color, dirs []offset) []Square {
	var out []Square
	for _, d := range dirs {
		to := Square{Row: sq.Row + d.dr, Col: sq.Col + d.dc}
		for to.IsOnBoard() {
			if t, ok := b.Get(to); ok {
				if t.Color != c {
					out = append(out, to)
				}
				break
			}
			out = append(out, to)
			to = Square{Row: to.Row + d.dr, Col: to.Col + d.dc}
		}
	}
	return out
}

// KingIsAttacked reports whether any opposing piece has color's king among its
// pseudo-legal destinations. A side without a king counts as attacked.
func KingIsAttacked(b *Board, color Color) bool {
	king, ok := b.FindKing(color)
	if !ok {
		return true
	}
	return SquareAttacked(b, king, color.Opponent())
}

// SquareAttacked reports whether a piece of color by can move onto target.
func SquareAttacked(b *Board, target Square, by Color) bool {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			from := Square{Row: r, Col: c}
			p, ok := b.Get(from)
			if !ok || p.Color != by {
				continue
			}
			for _, to := range PseudoLegalMoves(b, from) {
				if to == target {
					return true
				}
			}
		}
	}
	return false
}

// CandidateMove is an origin/destination pair from enumeration.
type CandidateMove struct {
	From Square
	To   Square
}

// AllPseudoLegalMoves enumerates color's moves row-major over origins, then in
// generator order per piece.
func AllPseudoLegalMoves(b *Board, color Color) []CandidateMove {
	var out []CandidateMove
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			from := Square{Row: r, Col: c}
			p, ok := b.Get(from)
			if !ok || p.Color != color {
				continue
			}
			for _, to := range PseudoLegalMoves(b, from) {
				out = append(out, CandidateMove{From: from, To: to})
			}
		}
	}
	return out
}
