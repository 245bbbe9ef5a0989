package search

import (
	"testing"

	"github.com/park285/cheese-chess/internal/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func session(t *testing.T, toMove chess.Color, pieces map[chess.Square]chess.Piece, opts ...chess.Option) *chess.Session {
	t.Helper()
	b := &chess.Board{}
	for sq, p := range pieces {
		b.Set(sq, p)
	}
	s, err := chess.NewSessionFromBoard(b, toMove, opts...)
	require.NoError(t, err)
	return s
}

var (
	wK = chess.Piece{Kind: chess.King, Color: chess.White}
	wQ = chess.Piece{Kind: chess.Queen, Color: chess.White}
	wR = chess.Piece{Kind: chess.Rook, Color: chess.White}
	bK = chess.Piece{Kind: chess.King, Color: chess.Black}
	bQ = chess.Piece{Kind: chess.Queen, Color: chess.Black}
	bP = chess.Piece{Kind: chess.Pawn, Color: chess.Black}
	bN = chess.Piece{Kind: chess.Knight, Color: chess.Black}
)

func TestEvaluateStartIsBalanced(t *testing.T) {
	assert.Equal(t, 0, Evaluate(chess.NewStandardBoard()))
}

func TestSingleLegalMoveIsReturned(t *testing.T) {
	s := session(t, chess.Black, map[chess.Square]chess.Piece{
		chess.Sq(0, 0): bK,
		chess.Sq(1, 7): wR,
		chess.Sq(7, 7): wK,
	}, chess.WithSelfCheckFilter())
	require.Len(t, s.AllLegalMoves(chess.Black), 1)

	m, _ := SelectMove(s, chess.Black, 1)
	require.NotNil(t, m)
	assert.Equal(t, chess.Sq(0, 0), m.From)
	assert.Equal(t, chess.Sq(0, 1), m.To)
}

func TestCapturesHangingQueen(t *testing.T) {
	s := session(t, chess.White, map[chess.Square]chess.Piece{
		chess.Sq(7, 0): wK,
		chess.Sq(4, 0): wR,
		chess.Sq(4, 5): bQ,
		chess.Sq(0, 7): bK,
	})
	m, score := SelectMove(s, chess.White, 1)
	require.NotNil(t, m)
	assert.Equal(t, chess.Sq(4, 5), m.To)
	assert.Equal(t, 5, score)
}

func TestBlackMaximisesItsOwnMaterial(t *testing.T) {
	s := session(t, chess.Black, map[chess.Square]chess.Piece{
		chess.Sq(7, 7): wK,
		chess.Sq(4, 4): wQ,
		chess.Sq(2, 3): bN,
		chess.Sq(0, 0): bK,
	})
	m, score := SelectMove(s, chess.Black, 1)
	require.NotNil(t, m)
	assert.Equal(t, chess.Sq(2, 3), m.From)
	assert.Equal(t, chess.Sq(4, 4), m.To)
	assert.Equal(t, -3, score, "score stays White-positive")
}

func TestDepthTwoSeesRecapture(t *testing.T) {
	s := session(t, chess.White, map[chess.Square]chess.Piece{
		chess.Sq(7, 7): wK,
		chess.Sq(4, 4): wQ,
		chess.Sq(3, 3): bP,
		chess.Sq(2, 2): bP,
		chess.Sq(0, 7): bK,
	})
	greedy, _ := SelectMove(s, chess.White, 1)
	require.NotNil(t, greedy)
	assert.Equal(t, chess.Sq(3, 3), greedy.To)

	m, score := SelectMove(s, chess.White, 2)
	require.NotNil(t, m)
	assert.NotEqual(t, chess.Sq(3, 3), m.To)
	assert.Equal(t, 7, score)
}

func TestNoMoveWhenMated(t *testing.T) {
	s := session(t, chess.Black, map[chess.Square]chess.Piece{
		chess.Sq(0, 0): bK,
		chess.Sq(1, 1): wQ,
		chess.Sq(2, 2): wK,
	}, chess.WithSelfCheckFilter())
	m, _ := SelectMove(s, chess.Black, 3)
	assert.Nil(t, m)
}

func TestSearchIsDeterministicAndPure(t *testing.T) {
	s := chess.NewSession()
	before := s.Board()

	a, sa := SelectMove(s, chess.White, 2)
	b, sb := SelectMove(s, chess.White, 2)
	require.NotNil(t, a)
	assert.Equal(t, *a, *b)
	assert.Equal(t, sa, sb)
	assert.True(t, before.Equal(s.Board()))
	assert.Empty(t, s.History())
	assert.Equal(t, chess.White, s.Turn())
}

func TestDepthBelowOneIsClamped(t *testing.T) {
	s := chess.NewSession()
	a, _ := SelectMove(s, chess.White, 0)
	b, _ := SelectMove(s, chess.White, 1)
	require.NotNil(t, a)
	assert.Equal(t, *b, *a)
}

func TestEnginePlay(t *testing.T) {
	e, err := NewEngine("easy", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, e.Preset().Depth)

	s := chess.NewSession()
	_, ok, err := e.Play(s)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, chess.Black, s.Turn())

	_, err = NewEngine("grandmaster", nil)
	assert.Error(t, err)
}

func TestPresets(t *testing.T) {
	p, err := GetPreset("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPreset, p.Name)
	assert.Equal(t, []string{"easy", "medium", "hard"}, PresetNames())
	assert.Error(t, RegisterPreset(DifficultyPreset{Name: "deep", Depth: 9}))
}
