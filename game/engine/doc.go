// Package engine provides the core game logic for Rotatris.
//
// The engine package implements the game mechanics including:
//   - Grid primitives and the seven-piece catalogue
//   - Collision detection and spawn placement search
//   - Board rotation geometry and piece rotation with kicks
//   - Piece-group gravity settled to a fixpoint
//   - Row and column line clearing with scoring
//   - Compound game-over detection across simulated board rotations
//
// Core Types:
//
// GameState is an immutable snapshot. Reduce maps a state and an Action to
// the next state without modifying its input; RunSequence chains actions
// and returns one Frame per step. The Engine interface, implemented by
// GameEngine, owns the current state, the Rules and an action history.
//
// Usage:
//
//	rules, err := engine.LoadRules("rulesets/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(rules, engine.NewRandomizer(42))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine.Move(engine.Left)
//	gameEngine.Drop()
//	res := gameEngine.RotateBoard(engine.Clockwise)
//	for _, frame := range res.Frames {
//		render(frame.State)
//	}
//
// Game Rules:
//
// The player steers a free-floating piece on a 10×10 board and places it
// anywhere it fits. Placed pieces only fall when the board is rotated or
// lines are cleared. Any fully filled row or column is cleared. The game
// ends when the next piece fits nowhere, not even after rotating the
// board either way.
package engine
