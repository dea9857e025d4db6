package engine

// Frame is the state after one step of a sequence. Presenters can pace
// frames; the engine runs them back to back.
type Frame struct {
	Step    string     `json:"step"`
	Applied bool       `json:"applied"`
	State   *GameState `json:"state"`
}

// SequenceResult aggregates a run of steps
type SequenceResult struct {
	State       *GameState
	Applied     bool
	Frames      []Frame
	Transitions []Transition
}

// BoardRotationSteps rotates the board, settles it, clears lines and then
// makes sure a piece is legally in play.
func BoardRotationSteps(dir RotationDirection) []Action {
	return []Action{RotateBoard{Direction: dir}, SettleBoard{}, ClearBoardLines{}, SpawnPiece{}}
}

// PlacementSteps commits the current piece where it is
func PlacementSteps(rules *Rules) []Action {
	if rules == nil || rules.AtomicPlacement {
		return []Action{PlaceAndSpawn{}}
	}
	return []Action{PlacePiece{}, ClearBoardLines{}, SpawnPiece{}}
}

// DropSteps hard-drops the current piece and commits it
func DropSteps(rules *Rules) []Action {
	if rules == nil || rules.AtomicPlacement {
		return []Action{DropPiece{}}
	}
	return []Action{DropPiece{}, ClearBoardLines{}, SpawnPiece{}}
}

// RunSequence reduces steps in order, each against the previous result. A
// rejected first step rejects the whole sequence; later no-op steps are
// recorded and skipped.
func RunSequence(state *GameState, steps []Action, env Env) SequenceResult {
	res := SequenceResult{State: state}
	for i, step := range steps {
		t := Reduce(res.State, step, env)
		if i == 0 && !t.Applied {
			return res
		}
		res.Applied = true
		res.State = t.State
		res.Transitions = append(res.Transitions, t)
		res.Frames = append(res.Frames, Frame{Step: Describe(step), Applied: t.Applied, State: t.State})
	}
	return res
}

// PlacedPieceID returns the id stamped during the sequence, or 0
func (r SequenceResult) PlacedPieceID() int {
	for _, t := range r.Transitions {
		if t.PlacedPieceID != 0 {
			return t.PlacedPieceID
		}
	}
	return 0
}

// Clears returns every line clear that happened during the sequence
func (r SequenceResult) Clears() []LineClearResult {
	var out []LineClearResult
	for _, t := range r.Transitions {
		if t.Clear != nil {
			out = append(out, *t.Clear)
		}
	}
	return out
}

// Spawned reports whether a new piece came into play
func (r SequenceResult) Spawned() bool {
	for _, t := range r.Transitions {
		if t.Spawned {
			return true
		}
	}
	return false
}

// SpawnBlocked reports whether a spawn attempt found no room
func (r SequenceResult) SpawnBlocked() bool {
	for _, t := range r.Transitions {
		if t.SpawnBlocked {
			return true
		}
	}
	return false
}

// BecameOver reports whether the game ended during the sequence
func (r SequenceResult) BecameOver() bool {
	for _, t := range r.Transitions {
		if t.BecameOver {
			return true
		}
	}
	return false
}
