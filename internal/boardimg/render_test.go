package boardimg

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/park285/cheese-chess/internal/chess"
	"github.com/park285/cheese-chess/internal/relay"
)

func TestRenderPNGStartPosition(t *testing.T) {
	gs := relay.GameState(chess.NewSession())
	raw, err := RenderPNG(context.Background(), gs, Options{SquareSize: 40})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	size, origin := Geometry(40)
	if b := img.Bounds(); b.Dx() != size || b.Dy() != size {
		t.Fatalf("bounds = %v, want %d", b, size)
	}

	// e4 (row 4, col 4) is empty and light; its centre shows the square colour
	r := squareRect(4, 4, 40, origin, false)
	cx, cy := (r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2
	if got := img.At(cx, cy); !sameRGB(got, lightSquare) {
		t.Fatalf("empty square colour = %v", got)
	}
	// e1 holds the white king; the piece covers the square centre
	r = squareRect(7, 4, 40, origin, false)
	cx, cy = (r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2+4
	if got := img.At(cx, cy); sameRGB(got, squareColor(7, 4)) {
		t.Fatalf("king square shows bare board colour")
	}
}

func TestFlippedAndHighlight(t *testing.T) {
	s := chess.NewSession()
	if _, err := s.ApplyMove(chess.Sq(6, 4), chess.Sq(4, 4)); err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	gs := relay.GameState(s)
	img, err := Render(gs, Options{SquareSize: 32, Flipped: true, HighlightLast: true})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	_, origin := Geometry(32)
	// e2 is empty after the move; flipped it sits at screen row 1, col 3
	r := squareRect(6, 4, 32, origin, true)
	if r.Min.Y != origin.Y+32 || r.Min.X != origin.X+3*32 {
		t.Fatalf("flipped rect = %v", r)
	}
	if got := img.At(r.Min.X+2, r.Min.Y+2); sameRGB(got, squareColor(6, 4)) {
		t.Fatalf("last move origin not highlighted")
	}

	gs.Board[0][0].Type = "dragon"
	if _, err := Render(gs, Options{}); err == nil {
		t.Fatalf("expected error for unknown piece")
	}
}

func sameRGB(a, b interface{ RGBA() (r, g, b, a uint32) }) bool {
	ar, ag, ab, _ := a.RGBA()
	br, bg, bb, _ := b.RGBA()
	return ar == br && ag == bg && ab == bb
}
