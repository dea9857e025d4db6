package engine

import (
	"fmt"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	IsGameOver() bool
	GetScore() int
	GetLinesCleared() int
	Status() Status

	// Piece operations
	Move(direction Direction) bool
	CanMove(direction Direction) bool
	GetPossibleMoves() []Direction
	RotatePiece() bool
	Place() SequenceResult
	Drop() SequenceResult
	GetGhostPosition() (Position, bool)

	// Board operations
	RotateBoard(direction RotationDirection) SequenceResult
	ApplyGravity() SequenceResult
	ClearLines() SequenceResult
	Spawn() SequenceResult

	// Generic dispatch
	Dispatch(action Action) SequenceResult

	// Rules
	GetRules() *Rules
	SetRules(rules *Rules) error

	// History
	GetActionHistory() []ActionHistoryEntry
	GetCurrentHistory() []ActionHistoryEntry
	GetLastAction() *ActionHistoryEntry
}

// GameEngine implements the Engine interface. It is single-owner; hosts
// that share one across goroutines must serialize calls.
type GameEngine struct {
	state *GameState
	rules *Rules
	rng   Randomizer

	history []ActionHistoryEntry
	current []ActionHistoryEntry
}

// NewEngine creates a new game engine with the provided rules and randomizer
func NewEngine(rules *Rules, rng Randomizer) (*GameEngine, error) {
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = NewRandomizer(0)
	}

	return &GameEngine{
		rules: rules,
		rng:   rng,
		state: NewGameState(rng),
	}, nil
}

// NewEngineWithDefaults creates a new game engine with the classic rules
func NewEngineWithDefaults() *GameEngine {
	e, _ := NewEngine(DefaultRules(), nil)
	return e
}

func (e *GameEngine) env() Env {
	return Env{Rules: e.rules, Rand: e.rng}
}

// GetState returns the current game state. Callers must treat it as read-only.
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState adopts a snapshot (used for checkpoint restore)
func (e *GameEngine) SetState(state *GameState) error {
	if err := ValidateState(state); err != nil {
		return err
	}
	e.state = normalizeState(state)
	return nil
}

// Reset starts a fresh game. Cumulative history survives; the current
// segment is cleared.
func (e *GameEngine) Reset() *GameState {
	t := Reduce(e.state, Restart{}, e.env())
	e.state = t.State
	e.current = nil
	e.record(Restart{}, SequenceResult{State: t.State, Applied: true, Transitions: []Transition{t}})
	return e.state
}

// IsGameOver returns whether the game is over
func (e *GameEngine) IsGameOver() bool {
	return e.state.IsGameOver
}

// GetScore returns the current score
func (e *GameEngine) GetScore() int {
	return e.state.Score
}

// GetLinesCleared returns the number of rows and columns cleared so far
func (e *GameEngine) GetLinesCleared() int {
	return e.state.LinesCleared
}

// Status returns the state-machine phase
func (e *GameEngine) Status() Status {
	return e.state.Status()
}

// Move attempts to move the current piece one cell
func (e *GameEngine) Move(direction Direction) bool {
	return e.Dispatch(MovePiece{Direction: direction}).Applied
}

// CanMove checks if the current piece can move in the specified direction
func (e *GameEngine) CanMove(direction Direction) bool {
	return Reduce(e.state, MovePiece{Direction: direction}, e.env()).Applied
}

// GetPossibleMoves returns all directions the current piece can move
func (e *GameEngine) GetPossibleMoves() []Direction {
	var possible []Direction
	for _, dir := range []Direction{Up, Down, Left, Right} {
		if e.CanMove(dir) {
			possible = append(possible, dir)
		}
	}
	return possible
}

// RotatePiece rotates the current piece a quarter turn
func (e *GameEngine) RotatePiece() bool {
	return e.Dispatch(RotatePiece{}).Applied
}

// Place commits the current piece where it is
func (e *GameEngine) Place() SequenceResult {
	return e.Dispatch(PlacePiece{})
}

// Drop hard-drops and commits the current piece
func (e *GameEngine) Drop() SequenceResult {
	return e.Dispatch(DropPiece{})
}

// GetGhostPosition returns where the current piece would land if dropped
func (e *GameEngine) GetGhostPosition() (Position, bool) {
	if e.state.CurrentPiece == nil {
		return Position{}, false
	}
	return GhostPosition(e.state.Grid, *e.state.CurrentPiece)
}

// RotateBoard rotates the board and settles it
func (e *GameEngine) RotateBoard(direction RotationDirection) SequenceResult {
	return e.Dispatch(RotateBoard{Direction: direction})
}

// ApplyGravity settles placed pieces
func (e *GameEngine) ApplyGravity() SequenceResult {
	return e.Dispatch(SettleBoard{})
}

// ClearLines clears complete rows and columns
func (e *GameEngine) ClearLines() SequenceResult {
	return e.Dispatch(ClearBoardLines{})
}

// Spawn brings a piece into play when none is
func (e *GameEngine) Spawn() SequenceResult {
	return e.Dispatch(SpawnPiece{})
}

// Steps expands an action into the sequence the engine runs for it
func (e *GameEngine) Steps(action Action) []Action {
	switch a := action.(type) {
	case RotateBoard:
		return BoardRotationSteps(a.Direction)
	case PlacePiece:
		return PlacementSteps(e.rules)
	case DropPiece:
		return DropSteps(e.rules)
	case SettleBoard, ClearBoardLines:
		return []Action{a, SpawnPiece{}}
	default:
		return []Action{a}
	}
}

// Dispatch runs an action and records it in the history
func (e *GameEngine) Dispatch(action Action) SequenceResult {
	if _, ok := action.(Restart); ok {
		e.Reset()
		return SequenceResult{State: e.state, Applied: true}
	}
	res := RunSequence(e.state, e.Steps(action), e.env())
	e.state = res.State
	e.record(action, res)
	return res
}

// GetRules returns the current rules
func (e *GameEngine) GetRules() *Rules {
	return e.rules
}

// SetRules swaps the rules and starts a fresh game
func (e *GameEngine) SetRules(rules *Rules) error {
	if err := ValidateRules(rules); err != nil {
		return err
	}
	e.rules = rules
	e.state = NewGameState(e.rng)
	e.current = nil
	return nil
}

// GetActionHistory returns the complete action history
func (e *GameEngine) GetActionHistory() []ActionHistoryEntry {
	return e.history
}

// GetCurrentHistory returns the actions since the last reset
func (e *GameEngine) GetCurrentHistory() []ActionHistoryEntry {
	return e.current
}

// GetLastAction returns the last action dispatched, or nil if none
func (e *GameEngine) GetLastAction() *ActionHistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	return &e.history[len(e.history)-1]
}

func (e *GameEngine) record(action Action, res SequenceResult) {
	entry := ActionHistoryEntry{
		Number:     len(e.history) + 1,
		Action:     Describe(action),
		Applied:    res.Applied,
		ScoreAfter: e.state.Score,
		LinesAfter: e.state.LinesCleared,
		PieceID:    res.PlacedPieceID(),
		Timestamp:  time.Now().Unix(),
	}
	for _, c := range res.Clears() {
		entry.LinesCleared += c.LinesCleared
	}
	e.history = append(e.history, entry)
	e.current = append(e.current, entry)
}

// String summarizes the engine for logs
func (e *GameEngine) String() string {
	return fmt.Sprintf("rules=%s status=%s score=%d lines=%d", e.rules.Name, e.state.Status(), e.state.Score, e.state.LinesCleared)
}
