// Package boardimg rasterizes game snapshots to PNG.
package boardimg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"

	"github.com/park285/cheese-chess/pkg/chessdto"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const defaultSquareSize = 64

// Options is the per-call render state.
type Options struct {
	SquareSize int
	Flipped    bool
	// HighlightLast tints the origin and destination of the last move.
	HighlightLast bool
}

var (
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	lastMoveHighlight   = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	coordinateTextColor = color.NRGBA{R: 40, G: 40, B: 40, A: 255}
	backgroundColor     = color.RGBA{250, 250, 250, 255}
)

// Geometry returns the image size and board origin for a square size.
func Geometry(squareSize int) (size int, origin image.Point) {
	if squareSize <= 0 {
		squareSize = defaultSquareSize
	}
	margin := squareSize / 2
	return squareSize*8 + margin*2, image.Point{X: margin, Y: margin}
}

// Render draws gs into a new image.
func Render(gs chessdto.GameState, opts Options) (*image.RGBA, error) {
	sq := opts.SquareSize
	if sq <= 0 {
		sq = defaultSquareSize
	}
	size, origin := Geometry(sq)
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			imagedraw.Draw(img, squareRect(r, c, sq, origin, opts.Flipped), image.NewUniform(squareColor(r, c)), image.Point{}, imagedraw.Src)
		}
	}
	if opts.HighlightLast && len(gs.MoveHistory) > 0 {
		last := gs.MoveHistory[len(gs.MoveHistory)-1]
		for _, s := range []chessdto.Square{last.From, last.To} {
			imagedraw.Draw(img, squareRect(s.Row, s.Col, sq, origin, opts.Flipped), image.NewUniform(lastMoveHighlight), image.Point{}, imagedraw.Over)
		}
	}
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			cell := gs.Board[r][c]
			if cell == nil {
				continue
			}
			piece, err := renderPieceImage(cell.Type, cell.Color, sq)
			if err != nil {
				return nil, err
			}
			imagedraw.Draw(img, squareRect(r, c, sq, origin, opts.Flipped), piece, image.Point{}, imagedraw.Over)
		}
	}
	drawCoordinates(img, sq, origin, opts.Flipped)
	return img, nil
}

// RenderPNG renders and encodes gs.
func RenderPNG(ctx context.Context, gs chessdto.GameState, opts Options) ([]byte, error) {
	img, err := Render(gs, opts)
	if err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// squareRect maps a board row/col to pixels; row 0 is drawn on top unless flipped.
func squareRect(row, col, squareSize int, origin image.Point, flipped bool) image.Rectangle {
	if flipped {
		row, col = 7-row, 7-col
	}
	x := origin.X + col*squareSize
	y := origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

// a8 (row 0, col 0) is light.
func squareColor(row, col int) color.Color {
	if (row+col)%2 == 0 {
		return lightSquare
	}
	return darkSquare
}

func drawCoordinates(dst imagedraw.Image, squareSize int, origin image.Point, flipped bool) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Src: image.NewUniform(coordinateTextColor), Face: face}
	ascent := face.Metrics().Ascent.Ceil()
	boardEnd := origin.Y + 8*squareSize

	for i := 0; i < 8; i++ {
		row, col := i, i
		if flipped {
			row, col = 7-i, 7-i
		}
		rank := fmt.Sprintf("%d", 8-row)
		file := string(rune('a' + col))
		center := origin.Y + i*squareSize + squareSize/2
		drawCenteredText(drawer, rank, origin.X/2, center+ascent/2)
		drawCenteredText(drawer, file, origin.X+i*squareSize+squareSize/2, boardEnd+(origin.Y+ascent)/2)
	}
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}
