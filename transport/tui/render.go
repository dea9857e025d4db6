package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/wricardo/rotatris/game/engine"
)

const (
	// Each board cell is drawn two terminal columns wide
	cellWidth = 2

	boardX = 1
	boardY = 1
	panelX = boardX + engine.GridSize*cellWidth + 4
)

var (
	styleDefault = tcell.StyleDefault
	styleBorder  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleTitle   = tcell.StyleDefault.Bold(true)
	styleBanner  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorMaroon).Bold(true)
	styleHint    = tcell.StyleDefault.Foreground(tcell.ColorGray)

	runeSolid = '█'
	runeGhost = '░'
	runeEmpty = '·'
)

// View is everything one frame shows
type View struct {
	State *engine.GameState
	Ghost *engine.Position

	// Step names the sequence step being animated, empty when idle
	Step    string
	Message string
}

func pieceStyle(c engine.Color) tcell.Style {
	return styleDefault.Foreground(tcell.GetColor(string(c)))
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

func drawCell(s tcell.Screen, row, col int, r rune, style tcell.Style) {
	x := boardX + 1 + col*cellWidth
	y := boardY + 1 + row
	for i := 0; i < cellWidth; i++ {
		s.SetContent(x+i, y, r, nil, style)
	}
}

func drawBorder(s tcell.Screen, n int) {
	w := n*cellWidth + 1
	h := n + 1
	for x := boardX + 1; x < boardX+w; x++ {
		s.SetContent(x, boardY, tcell.RuneHLine, nil, styleBorder)
		s.SetContent(x, boardY+h, tcell.RuneHLine, nil, styleBorder)
	}
	for y := boardY + 1; y < boardY+h; y++ {
		s.SetContent(boardX, y, tcell.RuneVLine, nil, styleBorder)
		s.SetContent(boardX+w, y, tcell.RuneVLine, nil, styleBorder)
	}
	s.SetContent(boardX, boardY, tcell.RuneULCorner, nil, styleBorder)
	s.SetContent(boardX+w, boardY, tcell.RuneURCorner, nil, styleBorder)
	s.SetContent(boardX, boardY+h, tcell.RuneLLCorner, nil, styleBorder)
	s.SetContent(boardX+w, boardY+h, tcell.RuneLRCorner, nil, styleBorder)
}

func overlayPiece(s tcell.Screen, state *engine.GameState, p engine.CurrentPiece, at engine.Position, r rune, style tcell.Style) {
	n := len(state.Grid)
	for dr, row := range p.Shape() {
		for dc, filled := range row {
			gr, gc := at.Row+dr, at.Col+dc
			if filled && engine.InBounds(gr, gc, n) && !state.Grid[gr][gc].Filled {
				drawCell(s, gr, gc, r, style)
			}
		}
	}
}

// Render draws a full frame and shows it
func Render(s tcell.Screen, v View) {
	s.Clear()
	state := v.State
	if state == nil {
		drawText(s, boardX, boardY, styleDefault, "no game state")
		s.Show()
		return
	}

	n := len(state.Grid)
	drawBorder(s, n)

	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			cell := state.Grid[r][c]
			if cell.Filled {
				drawCell(s, r, c, runeSolid, pieceStyle(cell.Color))
			} else {
				drawCell(s, r, c, runeEmpty, styleHint)
			}
		}
	}

	if p := state.CurrentPiece; p != nil {
		style := pieceStyle(p.Kind.Color)
		if v.Ghost != nil && *v.Ghost != p.Position {
			overlayPiece(s, state, *p, *v.Ghost, runeGhost, style)
		}
		overlayPiece(s, state, *p, p.Position, runeSolid, style.Bold(true))
	}

	drawPanel(s, v)

	if state.IsGameOver {
		banner := " GAME OVER  n: restart "
		x := boardX + 1 + (n*cellWidth-len(banner))/2
		drawText(s, x, boardY+1+n/2, styleBanner, banner)
	}

	s.Show()
}

func drawPanel(s tcell.Screen, v View) {
	state := v.State
	y := boardY
	line := func(style tcell.Style, format string, args ...interface{}) {
		drawText(s, panelX, y, style, fmt.Sprintf(format, args...))
		y++
	}

	line(styleTitle, "ROTATRIS")
	y++
	line(styleDefault, "Score: %d", state.Score)
	line(styleDefault, "Lines: %d", state.LinesCleared)
	line(styleDefault, "Angle: %d°", state.RotationAngle)
	y++

	switch {
	case state.CurrentPiece != nil:
		line(pieceStyle(state.CurrentPiece.Kind.Color), "Piece: %s", state.CurrentPiece.Kind.Name)
	case state.PendingKind != "":
		line(styleDefault, "Waiting: %s", state.PendingKind)
		line(styleHint, "rotate the board")
	default:
		line(styleDefault, "Piece: -")
	}
	if state.PendingKind != "" && state.CurrentPiece != nil {
		line(styleDefault, "Next: %s", state.PendingKind)
	} else {
		line(styleHint, "Next: random")
	}
	line(styleDefault, "Status: %s", state.Status())
	y++

	if v.Step != "" {
		line(styleHint, "> %s", v.Step)
	} else if v.Message != "" {
		line(styleHint, "%s", v.Message)
	} else {
		y++
	}
	y++

	for _, h := range HelpText {
		line(styleHint, "%s", h)
	}
}
