// Package textview renders relay game snapshots as plain text for terminals
// and logs.
package textview

import (
	"fmt"
	"strings"

	"github.com/park285/cheese-chess/pkg/chessdto"
)

const (
	materialScoreNeutral = 39
	capturedRecentLimit  = 3
	recentMovesLimit     = 4
)

var materialValues = map[string]int{"pawn": 1, "knight": 3, "bishop": 3, "rook": 5, "queen": 9}

// View is the display state for one render call. It is passed in, never
// stored, so concurrent renders with different views cannot interfere.
type View struct {
	// Flipped draws the board from Black's side.
	Flipped     bool
	Coordinates bool
	// Unicode uses chess glyphs instead of FEN letters.
	Unicode bool
}

// Board draws the 8×8 grid, row 0 at the top unless flipped.
func Board(gs chessdto.GameState, v View) string {
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		r := i
		if v.Flipped {
			r = 7 - i
		}
		if v.Coordinates {
			sb.WriteString(fmt.Sprintf("%d ", 8-r))
		}
		for j := 0; j < 8; j++ {
			c := j
			if v.Flipped {
				c = 7 - j
			}
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(cellSymbol(gs.Board[r][c], v.Unicode))
		}
		sb.WriteByte('\n')
	}
	if v.Coordinates {
		files := "a b c d e f g h"
		if v.Flipped {
			files = "h g f e d c b a"
		}
		sb.WriteString("  " + files + "\n")
	}
	return sb.String()
}

// Summary is the board plus status, material and recent move lines.
func Summary(gs chessdto.GameState, v View) string {
	var sb strings.Builder
	sb.WriteString(Board(gs, v))
	sb.WriteString(fmt.Sprintf("• to move: %s (%s)\n", gs.CurrentPlayer, formatStatus(gs)))
	sb.WriteString("• material " + formatMaterial(gs) + "\n")
	if captured := formatCaptured(gs.MoveHistory); captured != "" {
		sb.WriteString("• captured " + captured + "\n")
	}
	sb.WriteString("• recent " + formatRecentMoves(gs.MoveHistory) + "\n")
	return sb.String()
}

func formatStatus(gs chessdto.GameState) string {
	switch gs.Status {
	case "checkmate":
		return "checkmate"
	case "stalemate":
		return "stalemate, draw"
	case "check":
		return "in check"
	default:
		return "in progress"
	}
}

func cellSymbol(c *chessdto.Cell, unicode bool) string {
	if c == nil {
		return "."
	}
	letter := pieceLetter(c.Type)
	if unicode {
		return glyph(letter, c.Color == chessdto.ColorWhite)
	}
	if c.Color == chessdto.ColorWhite {
		return strings.ToUpper(letter)
	}
	return letter
}

func pieceLetter(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "king":
		return "k"
	case "queen":
		return "q"
	case "rook":
		return "r"
	case "bishop":
		return "b"
	case "knight":
		return "n"
	case "pawn":
		return "p"
	default:
		return "?"
	}
}

func glyph(letter string, white bool) string {
	const whites, blacks = "♔♕♖♗♘♙", "♚♛♜♝♞♟"
	idx := strings.Index("kqrbnp", letter)
	if idx < 0 {
		return "?"
	}
	set := []rune(blacks)
	if white {
		set = []rune(whites)
	}
	return string(set[idx])
}

// formatMaterial reports how much each side has taken off the board.
func formatMaterial(gs chessdto.GameState) string {
	var white, black int
	for _, row := range gs.Board {
		for _, c := range row {
			if c == nil {
				continue
			}
			if c.Color == chessdto.ColorWhite {
				white += materialValues[c.Type]
			} else {
				black += materialValues[c.Type]
			}
		}
	}
	whiteCaptured := materialScoreNeutral - black
	blackCaptured := materialScoreNeutral - white
	if whiteCaptured < 0 {
		whiteCaptured = 0
	}
	if blackCaptured < 0 {
		blackCaptured = 0
	}

	var parts []string
	if whiteCaptured > 0 {
		parts = append(parts, fmt.Sprintf("white +%d", whiteCaptured))
	}
	if blackCaptured > 0 {
		parts = append(parts, fmt.Sprintf("black +%d", blackCaptured))
	}
	if len(parts) == 0 {
		return "even"
	}
	return strings.Join(parts, " / ")
}

func formatCaptured(history []chessdto.HistoryEntry) string {
	var byWhite, byBlack []string
	for _, m := range history {
		if m.Captured == "" {
			continue
		}
		if m.Player == chessdto.ColorWhite {
			byWhite = append(byWhite, m.Captured)
		} else {
			byBlack = append(byBlack, m.Captured)
		}
	}
	white := formatCapturedSequence(recentPieces(byWhite, capturedRecentLimit))
	black := formatCapturedSequence(recentPieces(byBlack, capturedRecentLimit))
	var parts []string
	if white != "" {
		parts = append(parts, "white "+white)
	}
	if black != "" {
		parts = append(parts, "black "+black)
	}
	return strings.Join(parts, " / ")
}

func formatCapturedSequence(order []string) string {
	tokens := make([]string, 0, len(order))
	for _, token := range order {
		tokens = append(tokens, strings.ToUpper(pieceLetter(token)))
	}
	return strings.Join(tokens, " ")
}

// recentPieces returns the last limit entries, newest first.
func recentPieces(order []string, limit int) []string {
	if len(order) == 0 || limit <= 0 {
		return nil
	}
	if len(order) > limit {
		order = order[len(order)-limit:]
	}
	result := make([]string, len(order))
	for i := range order {
		result[i] = order[len(order)-1-i]
	}
	return result
}

func formatRecentMoves(history []chessdto.HistoryEntry) string {
	if len(history) == 0 {
		return "-"
	}
	moves := make([]string, len(history))
	for i, m := range history {
		moves[i] = m.Notation
	}
	if len(moves) <= recentMovesLimit {
		return strings.Join(moves, " ")
	}
	return "… " + strings.Join(moves[len(moves)-recentMovesLimit:], " ")
}
