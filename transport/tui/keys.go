package tui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/wricardo/rotatris/game/service"
)

// Command is what a key press asks for
type Command int

const (
	CommandNone Command = iota
	CommandMoveLeft
	CommandMoveRight
	CommandMoveUp
	CommandMoveDown
	CommandRotatePiece
	CommandRotateBoardCCW
	CommandRotateBoardCW
	CommandPlace
	CommandDrop
	CommandRestart
	CommandQuit
)

// Keybinding maps a key, rune and modifier combination to a command. Zero
// fields match anything.
type Keybinding struct {
	k tcell.Key
	r rune
	m tcell.ModMask

	c Command
}

var keybindings = []*Keybinding{
	{k: tcell.KeyLeft, c: CommandMoveLeft},
	{k: tcell.KeyRight, c: CommandMoveRight},
	{k: tcell.KeyUp, c: CommandMoveUp},
	{k: tcell.KeyDown, c: CommandMoveDown},
	{r: 'r', c: CommandRotatePiece},
	{r: 'R', c: CommandRotatePiece},
	{r: 'q', c: CommandRotateBoardCCW},
	{r: 'Q', c: CommandRotateBoardCCW},
	{r: 'e', c: CommandRotateBoardCW},
	{r: 'E', c: CommandRotateBoardCW},
	{r: ' ', c: CommandPlace},
	{k: tcell.KeyEnter, c: CommandDrop},
	{r: 'n', c: CommandRestart},
	{r: 'N', c: CommandRestart},
	{k: tcell.KeyEscape, c: CommandQuit},
	{k: tcell.KeyCtrlC, c: CommandQuit},
}

// HelpText lists the bindings for the side panel
var HelpText = []string{
	"arrows  move",
	"r       rotate piece",
	"q / e   rotate board",
	"space   place",
	"enter   drop",
	"n       restart",
	"esc     quit",
}

// lookup returns the command bound to a key event
func lookup(ev *tcell.EventKey) Command {
	k, r, m := ev.Key(), ev.Rune(), ev.Modifiers()
	for _, bind := range keybindings {
		if (bind.k != 0 && bind.k != k) || (bind.r != 0 && (k != tcell.KeyRune || bind.r != r)) || (bind.m != 0 && bind.m != m) {
			continue
		}
		return bind.c
	}
	return CommandNone
}

// Request translates a command into the action wire form. Quit and none
// have no request.
func (c Command) Request() (service.ActionRequest, bool) {
	switch c {
	case CommandMoveLeft:
		return service.ActionRequest{Action: "move", Direction: "left"}, true
	case CommandMoveRight:
		return service.ActionRequest{Action: "move", Direction: "right"}, true
	case CommandMoveUp:
		return service.ActionRequest{Action: "move", Direction: "up"}, true
	case CommandMoveDown:
		return service.ActionRequest{Action: "move", Direction: "down"}, true
	case CommandRotatePiece:
		return service.ActionRequest{Action: "rotate_piece"}, true
	case CommandRotateBoardCCW:
		return service.ActionRequest{Action: "rotate_board", Direction: "counterclockwise"}, true
	case CommandRotateBoardCW:
		return service.ActionRequest{Action: "rotate_board", Direction: "clockwise"}, true
	case CommandPlace:
		return service.ActionRequest{Action: "place"}, true
	case CommandDrop:
		return service.ActionRequest{Action: "drop"}, true
	case CommandRestart:
		return service.ActionRequest{Action: "restart"}, true
	}
	return service.ActionRequest{}, false
}
