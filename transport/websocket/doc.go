// Package websocket provides WebSocket transport for Rotatris.
//
// The websocket package implements:
//   - Session-scoped state broadcasting
//   - Game event fan-out
//   - Actions sent by clients over the socket
//
// Architecture:
//
// A central Hub owns every connection. Its Run loop is the only goroutine
// that touches the client map; broadcasts, registrations and direct
// replies all reach it through channels. Each client has a read pump and
// a write pump.
//
// Message Protocol:
//
// Messages are JSON-encoded, one document per frame:
//   - Incoming: {"action": "rotate_board", "direction": "cw"}
//   - Outgoing: {"type": "state_update" | "event" | "action_result" | "error",
//     "session_id": "...", "game_state": {...}, "event": "...", "data": ...}
//
// Session Integration:
//
// Clients pick their session with ?session=<id>. Updates are delivered
// only to clients of the same session.
//
// Usage:
//
//	hub := websocket.NewHub()
//	hub.SetActionHandler(gameService.Act)
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
