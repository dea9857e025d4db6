// Command analyze plays seeded games offline with a greedy bot and prints
// aggregate statistics for a ruleset. It is a quick way to compare scoring
// tables and kick settings without running the server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/rotatris/game/config"
	"github.com/wricardo/rotatris/game/engine"
)

func logger() *zerolog.Logger {
	l := log.With().Str("module", "analyze").Logger()
	return &l
}

// GameStats is the outcome of one simulated game
type GameStats struct {
	Seed           int64 `json:"seed"`
	Score          int   `json:"score"`
	Lines          int   `json:"lines"`
	Pieces         int   `json:"pieces"`
	BoardRotations int   `json:"board_rotations"`
	GameOver       bool  `json:"game_over"`
}

// Report aggregates a batch of games
type Report struct {
	Ruleset      string      `json:"ruleset"`
	Games        int         `json:"games"`
	MeanScore    float64     `json:"mean_score"`
	MeanLines    float64     `json:"mean_lines"`
	MeanPieces   float64     `json:"mean_pieces"`
	GameOverRate float64     `json:"game_over_rate"`
	BestScore    int         `json:"best_score"`
	Results      []GameStats `json:"results,omitempty"`
}

// candidate is one drop the bot considers
type candidate struct {
	rotation int
	col      int
	lines    int
	height   int
	over     bool
}

// better prefers surviving, then more lines, then a lower stack
func (c candidate) better(o candidate) bool {
	if c.over != o.over {
		return !c.over
	}
	if c.lines != o.lines {
		return c.lines > o.lines
	}
	return c.height < o.height
}

// bestDrop evaluates every rotation and column the current piece fits in at
// its row and returns the best one. Evaluation uses a private randomizer so
// the game's own piece sequence is untouched.
func bestDrop(state *engine.GameState, rules *engine.Rules) (candidate, bool) {
	piece := state.CurrentPiece
	if piece == nil {
		return candidate{}, false
	}
	env := engine.Env{Rules: rules, Rand: engine.NewRandomizer(0)}
	n := len(state.Grid)

	var (
		best  candidate
		found bool
	)
	for rot := 0; rot < 4; rot++ {
		_, w := piece.Kind.Shapes[rot].Size()
		for col := 0; col+w <= n; col++ {
			trial := state.Clone()
			trial.CurrentPiece = &engine.CurrentPiece{
				Kind:     piece.Kind,
				Rotation: rot,
				Position: engine.Position{Row: piece.Position.Row, Col: col},
			}
			if !engine.CanPlace(trial.Grid, *trial.CurrentPiece) {
				continue
			}
			res := engine.RunSequence(trial, engine.DropSteps(rules), env)
			if !res.Applied {
				continue
			}
			c := candidate{
				rotation: rot,
				col:      col,
				lines:    res.State.LinesCleared - state.LinesCleared,
				height:   engine.StackHeight(res.State.Grid),
				over:     res.State.IsGameOver,
			}
			if !found || c.better(best) {
				best, found = c, true
			}
		}
	}
	return best, found
}

// steer turns and slides the live piece toward c. Kicks or obstacles may
// leave it short of the target; the bot drops wherever it ends up.
func steer(e *engine.GameEngine, c candidate) {
	for i := 0; i < 4; i++ {
		p := e.GetState().CurrentPiece
		if p == nil || p.Rotation == c.rotation || !e.RotatePiece() {
			break
		}
	}
	for {
		p := e.GetState().CurrentPiece
		if p == nil || p.Position.Col == c.col {
			return
		}
		dir := engine.Right
		if p.Position.Col > c.col {
			dir = engine.Left
		}
		if !e.Move(dir) {
			return
		}
	}
}

// playGame runs one game until it ends or maxPieces pieces have been dropped
func playGame(rules *engine.Rules, seed int64, maxPieces int) (GameStats, error) {
	e, err := engine.NewEngine(rules, engine.NewRandomizer(seed))
	if err != nil {
		return GameStats{}, err
	}
	stats := GameStats{Seed: seed}

	// Every iteration either drops a piece or rotates the board; a board
	// that never yields a piece ends after four fruitless rotations.
	idle := 0
	for stats.Pieces < maxPieces && !e.IsGameOver() && idle < 4 {
		if e.Status() == engine.AwaitingSpawn {
			if e.RotateBoard(engine.Clockwise).Applied {
				stats.BoardRotations++
			}
			idle++
			continue
		}
		idle = 0

		if c, ok := bestDrop(e.GetState(), rules); ok {
			steer(e, c)
		}
		if !e.Drop().Applied {
			break
		}
		stats.Pieces++
	}

	stats.Score = e.GetScore()
	stats.Lines = e.GetLinesCleared()
	stats.GameOver = e.IsGameOver()
	logger().Debug().Int64("seed", seed).Int("score", stats.Score).Int("pieces", stats.Pieces).Bool("game_over", stats.GameOver).Msg("game finished")
	return stats, nil
}

// simulate plays games seeded seed, seed+1, ...
func simulate(name string, rules *engine.Rules, games int, seed int64, maxPieces int) (*Report, error) {
	if games < 1 {
		return nil, fmt.Errorf("games must be at least 1, got %d", games)
	}
	if maxPieces < 1 {
		return nil, fmt.Errorf("max-pieces must be at least 1, got %d", maxPieces)
	}

	report := &Report{Ruleset: name, Games: games}
	var score, lines, pieces, over int
	for i := 0; i < games; i++ {
		stats, err := playGame(rules, seed+int64(i), maxPieces)
		if err != nil {
			return nil, err
		}
		report.Results = append(report.Results, stats)
		score += stats.Score
		lines += stats.Lines
		pieces += stats.Pieces
		if stats.GameOver {
			over++
		}
		if stats.Score > report.BestScore {
			report.BestScore = stats.Score
		}
	}

	n := float64(games)
	report.MeanScore = float64(score) / n
	report.MeanLines = float64(lines) / n
	report.MeanPieces = float64(pieces) / n
	report.GameOverRate = float64(over) / n
	return report, nil
}

func printReport(w io.Writer, r *Report) {
	fmt.Fprintf(w, "\n=== Ruleset %s: %d games ===\n", r.Ruleset, r.Games)
	fmt.Fprintf(w, "Mean score:     %.1f\n", r.MeanScore)
	fmt.Fprintf(w, "Mean lines:     %.1f\n", r.MeanLines)
	fmt.Fprintf(w, "Mean pieces:    %.1f\n", r.MeanPieces)
	fmt.Fprintf(w, "Game over rate: %.0f%%\n", r.GameOverRate*100)
	fmt.Fprintf(w, "Best score:     %d\n", r.BestScore)
	for _, g := range r.Results {
		status := "survived"
		if g.GameOver {
			status = "game over"
		}
		fmt.Fprintf(w, "  seed %-6d score %-6d lines %-4d pieces %-4d rotations %-3d %s\n",
			g.Seed, g.Score, g.Lines, g.Pieces, g.BoardRotations, status)
	}
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Play seeded games with a greedy bot and report statistics",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "games", Value: 10, Usage: "number of games to play"},
			&cli.IntFlag{Name: "seed", Value: 1, Usage: "seed of the first game; later games use seed+1, seed+2, ..."},
			&cli.StringFlag{Name: "ruleset", Value: config.DefaultRulesetName, Usage: "ruleset to play"},
			&cli.StringFlag{Name: "ruleset-dir", Value: "rulesets", Usage: "directory holding ruleset JSON files"},
			&cli.BoolFlag{Name: "builtin", Usage: "ignore --ruleset-dir and play the built-in classic ruleset only"},
			&cli.IntFlag{Name: "max-pieces", Value: 500, Usage: "stop a game after this many pieces"},
			&cli.BoolFlag{Name: "json", Usage: "print the report as JSON"},
			&cli.BoolFlag{Name: "debug", Usage: "log every finished game"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if cmd.Bool("debug") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}

			dir := cmd.String("ruleset-dir")
			if cmd.Bool("builtin") {
				dir = ""
			}
			configs, err := config.NewManager(dir)
			if err != nil {
				return err
			}
			name := cmd.String("ruleset")
			rules, err := configs.LoadRuleset(name)
			if err != nil {
				return fmt.Errorf("failed to load ruleset %s: %w", name, err)
			}

			report, err := simulate(name, rules, int(cmd.Int("games")), int64(cmd.Int("seed")), int(cmd.Int("max-pieces")))
			if err != nil {
				return err
			}

			if cmd.Bool("json") {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(out, report)
			return nil
		},
	}
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("analysis failed")
	}
}
