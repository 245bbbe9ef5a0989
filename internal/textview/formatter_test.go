package textview

import (
	"strings"
	"testing"

	"github.com/park285/cheese-chess/internal/chess"
	"github.com/park285/cheese-chess/internal/relay"
)

func TestBoardOrientation(t *testing.T) {
	gs := relay.GameState(chess.NewSession())

	lines := strings.Split(strings.TrimRight(Board(gs, View{Coordinates: true}), "\n"), "\n")
	if lines[0] != "8 r n b q k b n r" {
		t.Fatalf("top rank = %q", lines[0])
	}
	if lines[8] != "  a b c d e f g h" {
		t.Fatalf("files = %q", lines[8])
	}

	flipped := strings.Split(Board(gs, View{Flipped: true, Coordinates: true}), "\n")
	if flipped[0] != "1 R N B K Q B N R" {
		t.Fatalf("flipped top rank = %q", flipped[0])
	}

	uni := strings.Split(Board(gs, View{Unicode: true}), "\n")
	if uni[7] != "♖ ♘ ♗ ♕ ♔ ♗ ♘ ♖" {
		t.Fatalf("unicode white rank = %q", uni[7])
	}
}

func TestSummaryTracksCaptures(t *testing.T) {
	s := chess.NewSession()
	for _, mv := range [][2]chess.Square{
		{chess.Sq(6, 4), chess.Sq(4, 4)},
		{chess.Sq(1, 3), chess.Sq(3, 3)},
		{chess.Sq(4, 4), chess.Sq(3, 3)},
	} {
		if _, err := s.ApplyMove(mv[0], mv[1]); err != nil {
			t.Fatalf("ApplyMove %v: %v", mv, err)
		}
	}
	out := Summary(relay.GameState(s), View{})
	for _, want := range []string{
		"• to move: black (in progress)",
		"• material white +1",
		"• captured white P",
		"• recent e2-e4 d7-d5 e4-d5",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRecentMovesTruncates(t *testing.T) {
	if got := recentPieces([]string{"pawn", "rook", "queen", "knight"}, 3); strings.Join(got, ",") != "knight,queen,rook" {
		t.Fatalf("recentPieces = %v", got)
	}
	if formatRecentMoves(nil) != "-" {
		t.Fatalf("empty history should render '-'")
	}
}
