package mcp

import (
	"fmt"
	"strings"

	"github.com/wricardo/rotatris/game/engine"
	"github.com/wricardo/rotatris/game/service"
)

// Board glyphs. Settled cells use the letter of the kind that left them.
const (
	glyphEmpty   = '.'
	glyphCurrent = '@'
	glyphGhost   = '+'
	glyphUnknown = '#'
)

var kindByColor = func() map[engine.Color]byte {
	m := make(map[engine.Color]byte)
	for _, k := range engine.Catalogue() {
		m[k.Color] = k.Name[0]
	}
	return m
}()

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nRuleset: %s\nCreated: %s\n\n%s",
		session.ID, session.Ruleset,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState, session.Ghost))
}

// renderBoard draws the grid with the current piece and, when given, its
// ghost. Column indices run across the top, row indices down the side.
func renderBoard(state *engine.GameState, ghost *engine.Position) string {
	n := len(state.Grid)
	canvas := make([][]byte, n)
	for r := range canvas {
		canvas[r] = make([]byte, n)
		for c := range canvas[r] {
			cell := state.Grid[r][c]
			switch {
			case !cell.Filled:
				canvas[r][c] = glyphEmpty
			case kindByColor[cell.Color] != 0:
				canvas[r][c] = kindByColor[cell.Color]
			default:
				canvas[r][c] = glyphUnknown
			}
		}
	}

	overlay := func(p engine.CurrentPiece, at engine.Position, glyph byte) {
		for dr, row := range p.Shape() {
			for dc, filled := range row {
				r, c := at.Row+dr, at.Col+dc
				if filled && engine.InBounds(r, c, n) && canvas[r][c] == glyphEmpty {
					canvas[r][c] = glyph
				}
			}
		}
	}
	if p := state.CurrentPiece; p != nil {
		if ghost != nil && *ghost != p.Position {
			overlay(*p, *ghost, glyphGhost)
		}
		overlay(*p, p.Position, glyphCurrent)
	}

	var b strings.Builder
	b.WriteString("   ")
	for c := 0; c < n; c++ {
		fmt.Fprintf(&b, "%d", c%10)
	}
	b.WriteString("\n")
	for r := 0; r < n; r++ {
		fmt.Fprintf(&b, "%2d ", r)
		b.Write(canvas[r])
		b.WriteString("\n")
	}
	return b.String()
}

func formatGameState(state *engine.GameState, ghost *engine.Position) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder

	fmt.Fprintf(&result, "Score: %d | Lines: %d | Status: %s | Board angle: %d\n",
		state.Score, state.LinesCleared, state.Status(), state.RotationAngle)

	if p := state.CurrentPiece; p != nil {
		fmt.Fprintf(&result, "Piece: %s rotation %d at (row %d, col %d)",
			p.Kind.Name, p.Rotation, p.Position.Row, p.Position.Col)
		if ghost != nil {
			fmt.Fprintf(&result, " | drop lands at (row %d, col %d)", ghost.Row, ghost.Col)
		}
		result.WriteString("\n")
	} else if state.PendingKind != "" {
		fmt.Fprintf(&result, "No piece in play: %s is waiting for room (rotate the board)\n", state.PendingKind)
	}

	result.WriteString("\n")
	result.WriteString(renderBoard(state, ghost))
	result.WriteString("\nLegend: . empty | @ current piece | + ghost | letters are settled pieces\n")

	if state.IsGameOver {
		result.WriteString("\n💀 GAME OVER")
	}

	return result.String()
}

func formatActionResult(result *service.ActionResult) string {
	var b strings.Builder
	if result.Success {
		fmt.Fprintf(&b, "✓ %s", result.Action)
	} else {
		fmt.Fprintf(&b, "✗ %s rejected", result.Action)
	}
	if result.Message != "" {
		fmt.Fprintf(&b, ": %s", result.Message)
	}
	b.WriteString("\n")

	if result.LinesCleared > 0 || result.ScoreDelta > 0 {
		fmt.Fprintf(&b, "Lines cleared: %d | Score +%d\n", result.LinesCleared, result.ScoreDelta)
	}
	for _, ev := range result.Events {
		if ev.Type == service.EventActionRejected {
			continue
		}
		fmt.Fprintf(&b, "• %s\n", ev.Message)
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState, result.Ghost))
	return b.String()
}

func formatBulkResult(result *service.BulkActionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Executed %d/%d actions", result.ActionsExecuted, result.RequestedActions)
	if result.Truncated {
		fmt.Fprintf(&b, " (truncated to %d)", result.Limit)
	}
	b.WriteString("\n")

	if result.StopReasonCode != "" {
		fmt.Fprintf(&b, "Stopped at action %d (%s): %s\n",
			result.StoppedOnAction, result.StopReasonCode, result.StoppedReason)
	}
	fmt.Fprintf(&b, "Score +%d | Lines +%d\n", result.ScoreDelta, result.LinesDelta)

	for _, step := range result.Steps {
		status := "✓"
		if !step.Success {
			status = "✗"
		}
		fmt.Fprintf(&b, "%d. %s %s [Score: %d]", step.Idx, step.Action, status, step.ScoreAfter)
		if step.LinesCleared > 0 {
			fmt.Fprintf(&b, " +%d lines", step.LinesCleared)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState, nil))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Action History (Page %d/%d) | Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalActions)

	if len(history.Actions) == 0 {
		b.WriteString("(no actions yet)")
		return b.String()
	}

	for _, entry := range history.Actions {
		status := "✓"
		if !entry.Applied {
			status = "✗"
		}
		fmt.Fprintf(&b, "%d. %s %s [Score: %d, Lines: %d]", entry.Number, entry.Action, status, entry.ScoreAfter, entry.LinesAfter)
		if entry.PieceID != 0 {
			fmt.Fprintf(&b, " piece #%d", entry.PieceID)
		}
		b.WriteString("\n")
	}
	if history.HasNext {
		fmt.Fprintf(&b, "\nMore on page %d", history.Page+1)
	}
	return b.String()
}

func formatPieces(kinds []engine.PieceKind) string {
	var b strings.Builder
	b.WriteString("Piece Catalogue (rotations 0, 90, 180, 270):\n")
	for _, k := range kinds {
		fmt.Fprintf(&b, "\n%s (%s)\n", k.Name, k.Color)
		height := 0
		for _, s := range k.Shapes {
			if len(s) > height {
				height = len(s)
			}
		}
		for r := 0; r < height; r++ {
			for i, s := range k.Shapes {
				if i > 0 {
					b.WriteString("   ")
				}
				width := 0
				for _, row := range s {
					if len(row) > width {
						width = len(row)
					}
				}
				for c := 0; c < width; c++ {
					if r < len(s) && c < len(s[r]) && s[r][c] {
						b.WriteByte('#')
					} else {
						b.WriteByte(' ')
					}
				}
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

const instructions = `🎮 Rotatris - Complete Instructions

GAME OBJECTIVE:
Fill complete rows or columns on a 10x10 board to clear them and score points.
The game ends when no piece can be placed anywhere, even after rotating the board.

HOW PLAY DIFFERS FROM CLASSIC FALLING-BLOCK GAMES:
• The current piece does not fall by itself. Move it freely in all four directions.
• "place" commits the piece exactly where it is, even in mid-air.
• "drop" slides the piece down until it lands, then commits it.
• "rotate_board" turns the whole board 90 degrees. Settled pieces then fall as
  rigid groups until nothing can move, and full lines are cleared.

ACTIONS:
• move (direction: up, down, left, right) - also accepted as "left", "right", ...
• rotate_piece - rotate the current piece clockwise, with wall kicks
• rotate_board (direction: clockwise, counterclockwise) - also "cw"/"ccw"
• place - commit the piece where it is
• drop - hard drop and commit
• restart - start over on an empty board (history is kept)
Step-by-step rulesets (atomic_placement=false) also expose apply_gravity,
clear_lines and spawn so you can drive each phase yourself.

SCORING (classic ruleset):
• 1 line: 10 points
• 2 lines: 20 points
• 3 lines: 50 points
• 4 lines: 100 points
• More: 25 points per line
Rows and columns completed at the same time all count.

BOARD LEGEND (game_state):
• . - empty cell
• @ - the current piece
• + - where the current piece would land on a drop (ghost)
• I O T S Z J L - settled cells, by the kind of piece that left them

SPAWNING:
• New pieces spawn at the top, centred when possible.
• If a new piece fits nowhere, the game is over unless a board rotation could
  make room. Then the kind is held as pending and you must rotate the board.

🤖 STRATEGY NOTES FOR AI AGENTS:
- Read the board row by row with the index ruler; do not guess column positions.
- Check the ghost position before a drop to know exactly where the piece lands.
- Rotating the board moves gravity: a nearly full column becomes a nearly full row.
- Use bulk_act for planned sequences, e.g. ["left", "left", "rotate_piece", "drop"].
- bulk_act stops at the first rejected action; read stopped_on_action to recover.
- Use action_history to review what happened after a surprising result.

Good luck stacking! 🧱`
