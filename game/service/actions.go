package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wricardo/rotatris/game/engine"
)

var (
	ErrUnknownAction    = errors.New("unknown action")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrNoActions        = errors.New("no actions provided")
)

// ActionNames lists the accepted action names, for help texts
var ActionNames = []string{
	"move", "rotate_piece", "rotate_board", "place", "drop",
	"apply_gravity", "clear_lines", "spawn", "restart",
}

// ParseAction maps a wire request onto the engine's action vocabulary.
// Directions may also be given as the action itself ("left", "cw").
func ParseAction(req ActionRequest) (engine.Action, error) {
	name := strings.ToLower(strings.TrimSpace(req.Action))
	dir := strings.ToLower(strings.TrimSpace(req.Direction))

	switch name {
	case "move":
		d, err := parseDirection(dir)
		if err != nil {
			return nil, err
		}
		return engine.MovePiece{Direction: d}, nil
	case "up", "down", "left", "right":
		return engine.MovePiece{Direction: engine.Direction(name)}, nil
	case "rotate_piece", "rotate":
		return engine.RotatePiece{}, nil
	case "rotate_board":
		d, err := parseRotation(dir)
		if err != nil {
			return nil, err
		}
		return engine.RotateBoard{Direction: d}, nil
	case "cw", "clockwise", "ccw", "counterclockwise":
		d, _ := parseRotation(name)
		return engine.RotateBoard{Direction: d}, nil
	case "place":
		return engine.PlacePiece{}, nil
	case "drop", "hard_drop":
		return engine.DropPiece{}, nil
	case "apply_gravity", "gravity":
		return engine.SettleBoard{}, nil
	case "clear_lines":
		return engine.ClearBoardLines{}, nil
	case "spawn":
		return engine.SpawnPiece{}, nil
	case "restart", "reset":
		return engine.Restart{}, nil
	}
	return nil, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownAction, req.Action, strings.Join(ActionNames, ", "))
}

func parseDirection(dir string) (engine.Direction, error) {
	switch d := engine.Direction(dir); d {
	case engine.Up, engine.Down, engine.Left, engine.Right:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q (valid: up, down, left, right)", ErrInvalidDirection, dir)
}

func parseRotation(dir string) (engine.RotationDirection, error) {
	switch dir {
	case "clockwise", "cw":
		return engine.Clockwise, nil
	case "counterclockwise", "counter_clockwise", "ccw":
		return engine.CounterClockwise, nil
	}
	return "", fmt.Errorf("%w: %q (valid: clockwise, counterclockwise)", ErrInvalidDirection, dir)
}
