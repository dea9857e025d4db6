// Package tui plays a session in the terminal with tcell.
//
// Key presses go through a binding table to the same action vocabulary the
// REST API accepts, and multi-step sequences (a board rotation settles,
// clears and respawns) are shown frame by frame with a configurable Pacing.
package tui
