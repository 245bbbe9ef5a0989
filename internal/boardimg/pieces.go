package boardimg

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Piece outlines on a 45×45 canvas.
var pieceShapes = map[string]string{
	"pawn": `<circle cx="22.5" cy="14" r="5"/>` +
		`<path d="M 17 33 L 19.5 20 L 25.5 20 L 28 33 Z"/>`,
	"rook": `<path d="M 12 14 L 12 9 L 16 9 L 16 11 L 20 11 L 20 9 L 25 9 L 25 11 L 29 11 L 29 9 L 33 9 L 33 14 Z"/>` +
		`<path d="M 14 14 L 31 14 L 29 33 L 16 33 Z"/>`,
	"knight": `<path d="M 14 33 L 16 22 L 11 20 L 13 14 L 20 9 L 27 8 L 32 14 L 31 33 Z"/>`,
	"bishop": `<ellipse cx="22.5" cy="19" rx="6" ry="9"/><circle cx="22.5" cy="8" r="2.5"/>` +
		`<path d="M 17 33 L 19 27 L 26 27 L 28 33 Z"/>`,
	"queen": `<path d="M 9 26 L 11 12 L 16 22 L 22.5 10 L 29 22 L 34 12 L 36 26 Z"/>` +
		`<path d="M 11 26 L 34 26 L 31 33 L 14 33 Z"/>`,
	"king": `<path d="M 21 5 L 24 5 L 24 8 L 27 8 L 27 11 L 24 11 L 24 15 L 21 15 L 21 11 L 18 11 L 18 8 L 21 8 Z"/>` +
		`<circle cx="22.5" cy="19" r="4"/><path d="M 13 22 L 32 22 L 29 33 L 16 33 Z"/>`,
}

const pieceBase = `<path d="M 9 39 L 36 39 L 36 35 L 9 35 Z"/>`

type pieceCacheKey struct {
	kind, color string
	size        int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func pieceSVG(kind, clr string) (string, error) {
	shape, ok := pieceShapes[kind]
	if !ok {
		return "", fmt.Errorf("unknown piece %q", kind)
	}
	fill, stroke := "#f8f8f8", "#202020"
	if clr == "black" {
		fill, stroke = "#202020", "#d0d0d0"
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45" width="45" height="45">`+
		`<g fill="%s" stroke="%s" stroke-width="1.5" stroke-linejoin="round">%s%s</g></svg>`,
		fill, stroke, shape, pieceBase), nil
}

func renderPieceImage(kind, clr string, size int) (image.Image, error) {
	key := pieceCacheKey{kind: kind, color: clr, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	src, err := pieceSVG(kind, clr)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()
	return img, nil
}
