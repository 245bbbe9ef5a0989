// Package search picks moves for a machine-controlled side with fixed-depth
// minimax and alpha-beta pruning over the rules engine's move contract.
package search

import (
	"math"

	"github.com/park285/cheese-chess/internal/chess"
)

// PieceValues is the material table used at the leaves.
var PieceValues = map[chess.Kind]int{
	chess.Pawn:   1,
	chess.Knight: 3,
	chess.Bishop: 3,
	chess.Rook:   5,
	chess.Queen:  9,
	chess.King:   1000,
}

// mateScore exceeds any material swing.
const mateScore = 100000

// Evaluate returns the material balance, positive for White.
func Evaluate(b *chess.Board) int {
	w, bl := b.Material(PieceValues)
	return w - bl
}

// Result describes a finished search. Score is White-positive.
type Result struct {
	Move    *chess.Move
	Score   int
	Nodes   int
	Cutoffs int
}

// SelectMove searches depth plies for color and returns the first best move in
// enumeration order with its White-positive score. The move is nil when color
// has no legal move. The caller's session is not modified.
func SelectMove(s *chess.Session, color chess.Color, depth int) (*chess.Move, int) {
	r := Search(s, color, depth)
	return r.Move, r.Score
}

// Search is SelectMove with node statistics.
func Search(s *chess.Session, color chess.Color, depth int) Result {
	if depth < 1 {
		depth = 1
	}
	st := &searcher{color: color, sign: 1}
	if color == chess.Black {
		st.sign = -1
	}
	work := s.Fork(color)
	if work.Status().Terminal() {
		return Result{Score: st.sign * st.terminalScore(work, depth)}
	}

	var (
		best      *chess.Move
		bestScore = math.MinInt
		alpha     = math.MinInt
	)
	for _, c := range work.AllLegalMoves(color) {
		m, err := work.ForceMove(c.From, c.To)
		if err != nil {
			continue
		}
		score := st.minimax(work, depth-1, alpha, math.MaxInt)
		_, _ = work.UndoMove()
		if best == nil || score > bestScore {
			mv := m
			best, bestScore = &mv, score
		}
		if score > alpha {
			alpha = score
		}
	}
	if best == nil {
		return Result{Nodes: st.nodes}
	}
	return Result{Move: best, Score: st.sign * bestScore, Nodes: st.nodes, Cutoffs: st.cutoffs}
}

type searcher struct {
	color   chess.Color
	sign    int // converts White-positive material to color's perspective
	nodes   int
	cutoffs int
}

// minimax scores s from the searching color's perspective.
func (st *searcher) minimax(s *chess.Session, depth, alpha, beta int) int {
	st.nodes++
	if s.Status().Terminal() {
		return st.terminalScore(s, depth)
	}
	if depth == 0 {
		return st.sign * Evaluate(s.Board())
	}

	maximizing := s.Turn() == st.color
	best := math.MaxInt
	if maximizing {
		best = math.MinInt
	}
	for _, c := range s.AllLegalMoves(s.Turn()) {
		if _, err := s.ForceMove(c.From, c.To); err != nil {
			continue
		}
		score := st.minimax(s, depth-1, alpha, beta)
		_, _ = s.UndoMove()
		if maximizing {
			best = max(best, score)
			alpha = max(alpha, score)
		} else {
			best = min(best, score)
			beta = min(beta, score)
		}
		if beta <= alpha {
			st.cutoffs++
			break
		}
	}
	return best
}

// terminalScore prefers faster mates through the remaining depth.
func (st *searcher) terminalScore(s *chess.Session, depth int) int {
	if s.Status() == chess.Stalemate {
		return 0
	}
	if s.Turn() == st.color {
		return -mateScore - depth
	}
	return mateScore + depth
}
