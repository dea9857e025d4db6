package engine

import "fmt"

// Action is one entry of the closed action vocabulary. Only types in this
// package implement it.
type Action interface {
	Name() string
	isAction()
}

// MovePiece translates the current piece one cell
type MovePiece struct{ Direction Direction }

// RotatePiece advances the current piece a quarter turn, with kicks
type RotatePiece struct{}

// RotateBoard transforms the placed cells a quarter turn. It neither settles
// nor clears; see BoardRotationSteps.
type RotateBoard struct{ Direction RotationDirection }

// PlacePiece stamps the current piece into the grid where it is
type PlacePiece struct{}

// PlaceAndSpawn places, clears and settles, then spawns the next piece
type PlaceAndSpawn struct{}

// DropPiece hard-drops the current piece and places it
type DropPiece struct{}

// SettleBoard settles placed pieces to a fixpoint
type SettleBoard struct{}

// ClearBoardLines clears complete rows and columns, then settles
type ClearBoardLines struct{}

// SpawnPiece brings a piece into play if none is legally in play
type SpawnPiece struct{}

// Restart discards the game and starts a fresh one
type Restart struct{}

func (MovePiece) Name() string       { return "move" }
func (RotatePiece) Name() string     { return "rotate_piece" }
func (RotateBoard) Name() string     { return "rotate_board" }
func (PlacePiece) Name() string      { return "place" }
func (PlaceAndSpawn) Name() string   { return "place_and_spawn" }
func (DropPiece) Name() string       { return "drop" }
func (SettleBoard) Name() string     { return "apply_gravity" }
func (ClearBoardLines) Name() string { return "clear_lines" }
func (SpawnPiece) Name() string      { return "spawn" }
func (Restart) Name() string         { return "restart" }

func (MovePiece) isAction()       {}
func (RotatePiece) isAction()     {}
func (RotateBoard) isAction()     {}
func (PlacePiece) isAction()      {}
func (PlaceAndSpawn) isAction()   {}
func (DropPiece) isAction()       {}
func (SettleBoard) isAction()     {}
func (ClearBoardLines) isAction() {}
func (SpawnPiece) isAction()      {}
func (Restart) isAction()         {}

// Describe renders an action with its argument, e.g. "move:left"
func Describe(a Action) string {
	switch v := a.(type) {
	case MovePiece:
		return fmt.Sprintf("%s:%s", v.Name(), v.Direction)
	case RotateBoard:
		return fmt.Sprintf("%s:%s", v.Name(), v.Direction)
	default:
		return a.Name()
	}
}

// Env carries what a transition needs besides the state
type Env struct {
	Rules *Rules
	Rand  Randomizer
}

func (e Env) rules() *Rules {
	if e.Rules == nil {
		return DefaultRules()
	}
	return e.Rules
}

func (e Env) rand() Randomizer {
	if e.Rand == nil {
		return NewRandomizer(0)
	}
	return e.Rand
}

// Transition is the result of reducing one action
type Transition struct {
	State   *GameState
	Applied bool

	PlacedPieceID int
	Clear         *LineClearResult
	Spawned       bool
	SpawnBlocked  bool
	BecameOver    bool
	Settled       bool
}

func rejected(s *GameState) Transition {
	return Transition{State: s}
}

// Reduce computes the state that follows action. The input state is never
// modified; illegal actions return it unchanged with Applied false.
func Reduce(state *GameState, action Action, env Env) Transition {
	if state == nil {
		state = NewGameState(env.rand())
	}
	if state.IsGameOver {
		if _, ok := action.(Restart); !ok {
			return rejected(state)
		}
	}

	switch a := action.(type) {
	case MovePiece:
		return reduceMove(state, a)
	case RotatePiece:
		return reduceRotatePiece(state, env)
	case RotateBoard:
		return reduceRotateBoard(state, a)
	case PlacePiece:
		return reducePlace(state)
	case PlaceAndSpawn:
		return reducePlaceAndSpawn(state, env)
	case DropPiece:
		return reduceDrop(state, env)
	case SettleBoard:
		return reduceGravity(state)
	case ClearBoardLines:
		return reduceClear(state, env)
	case SpawnPiece:
		return reduceSpawn(state, env)
	case Restart:
		return Transition{State: NewGameState(env.rand()), Applied: true, Spawned: true}
	}
	return rejected(state)
}

func reduceMove(s *GameState, a MovePiece) Transition {
	if s.CurrentPiece == nil {
		return rejected(s)
	}
	dr, dc, ok := a.Direction.Delta()
	if !ok {
		return rejected(s)
	}
	moved := *s.CurrentPiece
	moved.Position.Row += dr
	moved.Position.Col += dc
	if !CanPlace(s.Grid, moved) {
		return rejected(s)
	}
	next := s.Clone()
	next.CurrentPiece = &moved
	return Transition{State: next, Applied: true}
}

func reduceRotatePiece(s *GameState, env Env) Transition {
	if s.CurrentPiece == nil {
		return rejected(s)
	}
	rotated, ok := RotateWithKicks(s.Grid, *s.CurrentPiece, env.rules().KickOffsets())
	if !ok {
		return rejected(s)
	}
	next := s.Clone()
	next.CurrentPiece = &rotated
	return Transition{State: next, Applied: true}
}

func reduceRotateBoard(s *GameState, a RotateBoard) Transition {
	if !a.Direction.Valid() {
		return rejected(s)
	}
	next := s.Clone()
	next.Grid = RotateGrid(s.Grid, a.Direction)
	next.RotationAngle = NextAngle(s.RotationAngle, a.Direction)
	return Transition{State: next, Applied: true}
}

func reducePlace(s *GameState) Transition {
	if s.CurrentPiece == nil || !CanPlace(s.Grid, *s.CurrentPiece) {
		return rejected(s)
	}
	next := s.Clone()
	id := next.NextPieceID
	if id < 1 {
		id = 1
	}
	stamp(next.Grid, *s.CurrentPiece, id)
	next.NextPieceID = id + 1
	next.CurrentPiece = nil
	next.PendingKind = ""
	return Transition{State: next, Applied: true, PlacedPieceID: id}
}

func reducePlaceAndSpawn(s *GameState, env Env) Transition {
	t := reducePlace(s)
	if !t.Applied {
		return t
	}
	if HasLinesToClear(t.State.Grid) {
		c := reduceClear(t.State, env)
		t.State, t.Clear, t.Settled = c.State, c.Clear, c.Settled
	}
	sp := reduceSpawn(t.State, env)
	t.State = sp.State
	t.Spawned, t.SpawnBlocked, t.BecameOver = sp.Spawned, sp.SpawnBlocked, sp.BecameOver
	return t
}

func reduceDrop(s *GameState, env Env) Transition {
	if s.CurrentPiece == nil {
		return rejected(s)
	}
	row, ok := DropRow(s.Grid, *s.CurrentPiece)
	if !ok {
		return rejected(s)
	}
	dropped := s.Clone()
	dropped.CurrentPiece.Position.Row = row
	if env.rules().AtomicPlacement {
		return reducePlaceAndSpawn(dropped, env)
	}
	return reducePlace(dropped)
}

func reduceGravity(s *GameState) Transition {
	settled := ApplyGravityFully(s.Grid)
	if GridsEqual(settled, s.Grid) {
		return rejected(s)
	}
	next := s.Clone()
	next.Grid = settled
	return Transition{State: next, Applied: true, Settled: true}
}

func reduceClear(s *GameState, env Env) Transition {
	if !HasLinesToClear(s.Grid) {
		return rejected(s)
	}
	res := ClearLines(s.Grid, env.rules().Scoring())
	next := s.Clone()
	next.Grid = ApplyGravityFully(res.Grid)
	next.Score += res.Score
	next.LinesCleared += res.LinesCleared
	res.Grid = next.Grid
	return Transition{State: next, Applied: true, Clear: &res, Settled: true}
}

func reduceSpawn(s *GameState, env Env) Transition {
	var (
		kind  PieceKind
		start int
	)
	switch {
	case s.CurrentPiece != nil:
		if CanPlace(s.Grid, *s.CurrentPiece) {
			return rejected(s)
		}
		kind, start = s.CurrentPiece.Kind, s.CurrentPiece.Rotation
	case s.PendingKind != "":
		k, ok := KindByName(s.PendingKind)
		if !ok {
			k = RandomKind(env.rand())
		}
		kind = k
	default:
		kind = RandomKind(env.rand())
	}

	next := s.Clone()
	for i := 0; i < 4; i++ {
		rot := (start + i) % 4
		if pos, ok := FindValidPosition(s.Grid, kind, rot); ok {
			next.CurrentPiece = &CurrentPiece{Kind: kind, Rotation: rot, Position: pos}
			next.PendingKind = ""
			return Transition{State: next, Applied: true, Spawned: true}
		}
	}

	next.CurrentPiece = nil
	next.PendingKind = kind.Name
	if IsCompoundGameOver(s.Grid, kind) {
		next.IsGameOver = true
		return Transition{State: next, Applied: true, BecameOver: true}
	}
	changed := s.CurrentPiece != nil || s.PendingKind != kind.Name
	return Transition{State: next, Applied: changed, SpawnBlocked: true}
}

// IsCompoundGameOver reports whether kind has no legal placement on the
// grid, nor after a simulated clockwise or counter-clockwise board rotation
// followed by full gravity.
func IsCompoundGameOver(grid Grid, kind PieceKind) bool {
	if HasValidPlacement(grid, kind) {
		return false
	}
	if HasValidPlacement(ApplyGravityFully(RotateGridClockwise(grid)), kind) {
		return false
	}
	return !HasValidPlacement(ApplyGravityFully(RotateGridCounterClockwise(grid)), kind)
}

// NewGameState returns a fresh game with an empty board and a spawned piece
func NewGameState(rng Randomizer) *GameState {
	s := &GameState{
		Grid:        EmptyGrid(GridSize),
		NextPieceID: 1,
	}
	kind := RandomKind(rng)
	if pos, ok := FindValidPosition(s.Grid, kind, 0); ok {
		s.CurrentPiece = &CurrentPiece{Kind: kind, Position: pos}
	}
	return s
}
