package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/park285/cheese-chess/internal/appbuilder"
	"github.com/park285/cheese-chess/internal/boardimg"
	"github.com/park285/cheese-chess/internal/chess/fen"
	"github.com/park285/cheese-chess/internal/chess/search"
	appcfg "github.com/park285/cheese-chess/internal/config"
	"github.com/park285/cheese-chess/internal/obslog"
	"github.com/park285/cheese-chess/internal/relay"
	"github.com/park285/cheese-chess/internal/textview"
	"go.uber.org/zap"
)

// chess-ai loads a position and lets the engine play a number of plies,
// printing each move and the final position.
func main() {
	position := flag.String("fen", "startpos", "position to search (FEN or startpos)")
	preset := flag.String("preset", "", "difficulty preset, overrides AI_PRESET")
	plies := flag.Int("plies", 1, "number of engine moves to play")
	board := flag.Bool("board", false, "draw the final board")
	unicode := flag.Bool("unicode", false, "draw pieces as chess glyphs")
	pngPath := flag.String("png", "", "write the final board as a PNG to this path")
	flag.Parse()

	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if *preset != "" {
		cfg.AIPreset = *preset
	}
	engine, opts, err := appbuilder.NewEngine(cfg, obslog.Named("ai"))
	if err != nil {
		log.Fatalf("engine error: %v (presets: %v)", err, search.PresetNames())
	}

	s, err := fen.NewSession(*position, opts...)
	if err != nil {
		log.Fatalf("fen error: %v", err)
	}

	for i := 0; i < *plies; i++ {
		color := s.Turn()
		m, ok, err := engine.Play(s)
		if err != nil {
			obslog.L().Error("ai_play_failed", zap.Error(err))
			os.Exit(1)
		}
		if !ok {
			fmt.Printf("%s has no move (%s)\n", color, s.Status())
			break
		}
		fmt.Printf("%d. %s %s  eval=%d  status=%s\n", i+1, color, m.Notation(), search.Evaluate(s.Board()), s.Status())
		if s.Status().Terminal() {
			break
		}
	}
	if *board {
		fmt.Print(textview.Summary(relay.GameState(s), textview.View{Coordinates: true, Unicode: *unicode}))
	}
	if *pngPath != "" {
		raw, err := boardimg.RenderPNG(context.Background(), relay.GameState(s), boardimg.Options{HighlightLast: true})
		if err != nil {
			log.Fatalf("render error: %v", err)
		}
		if err := os.WriteFile(*pngPath, raw, 0o644); err != nil {
			log.Fatalf("write png: %v", err)
		}
	}
	fmt.Println(fen.FromSession(s))
}
