package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/rotatris/game/engine"
)

func TestCandidateBetter(t *testing.T) {
	tests := []struct {
		name string
		a, b candidate
		want bool
	}{
		{"survival first", candidate{lines: 0, height: 9}, candidate{lines: 3, over: true}, true},
		{"more lines", candidate{lines: 2, height: 8}, candidate{lines: 1, height: 1}, true},
		{"lower stack", candidate{lines: 1, height: 2}, candidate{lines: 1, height: 3}, true},
		{"tie keeps first", candidate{lines: 1, height: 2}, candidate{lines: 1, height: 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.better(tt.b))
		})
	}
}

func TestBestDropClearsLine(t *testing.T) {
	grid := engine.EmptyGrid(engine.GridSize)
	for c := 4; c < engine.GridSize; c++ {
		grid[9][c] = engine.Cell{Filled: true, Color: "#ffffff", PieceID: 1}
	}
	kind, ok := engine.KindByName("I")
	require.True(t, ok)
	state := &engine.GameState{
		Grid:         grid,
		CurrentPiece: &engine.CurrentPiece{Kind: kind, Position: engine.Position{Row: 0, Col: 3}},
		NextPieceID:  2,
	}

	best, ok := bestDrop(state, engine.DefaultRules())
	require.True(t, ok)
	assert.Equal(t, 0, best.rotation)
	assert.Equal(t, 0, best.col)
	assert.Equal(t, 1, best.lines)
	assert.Equal(t, 0, best.height)

	// Evaluation never touches the input
	assert.Equal(t, 3, state.CurrentPiece.Position.Col)
	assert.Equal(t, 6, engine.FilledCount(state.Grid))
}

func TestBestDropNoPiece(t *testing.T) {
	state := &engine.GameState{Grid: engine.EmptyGrid(engine.GridSize), PendingKind: "I"}
	_, ok := bestDrop(state, engine.DefaultRules())
	assert.False(t, ok)
}

func TestPlayGameDeterministic(t *testing.T) {
	a, err := playGame(engine.DefaultRules(), 7, 30)
	require.NoError(t, err)
	b, err := playGame(engine.DefaultRules(), 7, 30)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.LessOrEqual(t, a.Pieces, 30)
	assert.Positive(t, a.Pieces)
	assert.Equal(t, int64(7), a.Seed)
}

func TestPlayGameInvalidRules(t *testing.T) {
	_, err := playGame(nil, 1, 10)
	assert.Error(t, err)
}

func TestSimulate(t *testing.T) {
	report, err := simulate("classic", engine.DefaultRules(), 3, 100, 25)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Games)
	require.Len(t, report.Results, 3)
	for i, g := range report.Results {
		assert.Equal(t, int64(100+i), g.Seed)
		assert.GreaterOrEqual(t, report.BestScore, g.Score)
	}
	assert.GreaterOrEqual(t, report.GameOverRate, 0.0)
	assert.LessOrEqual(t, report.GameOverRate, 1.0)
	assert.LessOrEqual(t, report.MeanPieces, 25.0)
}

func TestSimulateValidation(t *testing.T) {
	_, err := simulate("classic", engine.DefaultRules(), 0, 1, 10)
	assert.ErrorContains(t, err, "games must be at least 1")

	_, err = simulate("classic", engine.DefaultRules(), 1, 1, 0)
	assert.ErrorContains(t, err, "max-pieces must be at least 1")
}

func TestAppJSON(t *testing.T) {
	var buf bytes.Buffer
	err := newApp(&buf).Run(context.Background(), []string{
		"analyze", "--games", "2", "--max-pieces", "15", "--builtin", "--json",
	})
	require.NoError(t, err)

	var report Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "classic", report.Ruleset)
	assert.Equal(t, 2, report.Games)
	assert.Len(t, report.Results, 2)
}

func TestAppText(t *testing.T) {
	var buf bytes.Buffer
	err := newApp(&buf).Run(context.Background(), []string{
		"analyze", "--games", "1", "--max-pieces", "10", "--ruleset-dir", "../../rulesets", "--ruleset", "strict",
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "=== Ruleset strict: 1 games ===")
	assert.Contains(t, out, "Mean score:")
	assert.Contains(t, out, "seed 1")
}

func TestAppUnknownRuleset(t *testing.T) {
	var buf bytes.Buffer
	err := newApp(&buf).Run(context.Background(), []string{
		"analyze", "--builtin", "--ruleset", "missing",
	})
	assert.ErrorContains(t, err, "failed to load ruleset missing")
	assert.Empty(t, buf.String())
}

func TestAppBuiltinIgnoresRulesetDir(t *testing.T) {
	var buf bytes.Buffer
	err := newApp(&buf).Run(context.Background(), []string{
		"analyze", "--ruleset-dir", "/non/existent/path", "--builtin", "--games", "1", "--max-pieces", "5",
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "=== Ruleset classic: 1 games ===")

	buf.Reset()
	err = newApp(&buf).Run(context.Background(), []string{
		"analyze", "--ruleset-dir", "/non/existent/path", "--games", "1",
	})
	assert.ErrorContains(t, err, "ruleset directory does not exist")
}
