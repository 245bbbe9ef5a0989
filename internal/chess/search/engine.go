package search

import (
	"time"

	"github.com/park285/cheese-chess/internal/chess"
	"go.uber.org/zap"
)

// Engine is the machine opponent: a preset bound to the search.
type Engine struct {
	preset DifficultyPreset
	logger *zap.Logger
}

func NewEngine(presetName string, logger *zap.Logger) (*Engine, error) {
	p, err := GetPreset(presetName)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{preset: p, logger: logger}, nil
}

func (e *Engine) Preset() DifficultyPreset { return e.preset }

type EvaluateResult struct {
	Preset   DifficultyPreset
	Duration time.Duration
	Move     *chess.Move
	Score    int
	Nodes    int
	Cutoffs  int
}

// Evaluate picks a move for the side to move in s. It blocks until the
// fixed-depth search finishes; callers on an interactive path should run it
// in their own goroutine.
func (e *Engine) Evaluate(s *chess.Session) EvaluateResult {
	start := time.Now()
	color := s.Turn()
	r := Search(s, color, e.preset.Depth)
	res := EvaluateResult{
		Preset:   e.preset,
		Duration: time.Since(start),
		Move:     r.Move,
		Score:    r.Score,
		Nodes:    r.Nodes,
		Cutoffs:  r.Cutoffs,
	}
	move := ""
	if r.Move != nil {
		move = r.Move.Notation()
	}
	e.logger.Debug("ai_select_move",
		zap.String("preset", e.preset.Name),
		zap.String("color", color.String()),
		zap.String("move", move),
		zap.Int("score", r.Score),
		zap.Int("nodes", r.Nodes),
		zap.Int("cutoffs", r.Cutoffs),
		zap.Duration("elapsed", res.Duration),
	)
	return res
}

// Play evaluates and applies the chosen move to s. ok is false when the side
// to move had no move.
func (e *Engine) Play(s *chess.Session) (chess.Move, bool, error) {
	res := e.Evaluate(s)
	if res.Move == nil {
		return chess.Move{}, false, nil
	}
	m, err := s.ApplyMove(res.Move.From, res.Move.To)
	if err != nil {
		return chess.Move{}, false, err
	}
	return m, true, nil
}
