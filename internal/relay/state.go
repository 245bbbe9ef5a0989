package relay

import (
	"github.com/park285/cheese-chess/internal/chess"
	"github.com/park285/cheese-chess/internal/chess/fen"
	"github.com/park285/cheese-chess/pkg/chessdto"
)

func squareDTO(sq chess.Square) chessdto.Square {
	return chessdto.Square{Row: sq.Row, Col: sq.Col}
}

func squareFromDTO(sq chessdto.Square) chess.Square {
	return chess.Sq(sq.Row, sq.Col)
}

// GameState renders a session as the wire snapshot.
func GameState(s *chess.Session) chessdto.GameState {
	var gs chessdto.GameState
	cells := s.Board().Cells()
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			p := cells[r][c]
			if p.IsZero() {
				continue
			}
			gs.Board[r][c] = &chessdto.Cell{Type: p.Kind.String(), Color: p.Color.String()}
		}
	}
	history := s.History()
	gs.MoveHistory = make([]chessdto.HistoryEntry, 0, len(history))
	for _, m := range history {
		e := chessdto.HistoryEntry{
			From:     squareDTO(m.From),
			To:       squareDTO(m.To),
			Piece:    m.Piece.Kind.String(),
			Player:   m.Piece.Color.String(),
			Promoted: m.Promoted,
			Notation: m.Notation(),
		}
		if m.IsCapture() {
			e.Captured = m.Captured.Kind.String()
		}
		gs.MoveHistory = append(gs.MoveHistory, e)
	}
	gs.CurrentPlayer = s.Turn().String()
	gs.Status = s.Status().String()
	gs.IsGameOver = s.Status().Terminal()
	gs.FEN = fen.FromSession(s)
	return gs
}
