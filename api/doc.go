// Package api provides HTTP REST API handlers for Rotatris.
//
// The api package implements:
//   - Session management endpoints
//   - Action, bulk action and restart endpoints
//   - Snapshot export and import
//   - Ruleset and piece catalogue endpoints
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Session Management:
//   - POST   /api/sessions               - Create session {id?, ruleset?, seed?}
//   - GET    /api/sessions               - List sessions (?sort=created|accessed&order=asc|desc&limit=n)
//   - GET    /api/sessions/{id}          - Session details with state and ghost
//   - DELETE /api/sessions/{id}          - Delete session
//
// Game Operations:
//   - GET  /api/sessions/{id}/state        - Export the game state
//   - PUT  /api/sessions/{id}/state        - Import a game state
//   - POST /api/sessions/{id}/actions      - Dispatch {action, direction?}
//   - POST /api/sessions/{id}/bulk-actions - Dispatch {actions: [...]}, at most 50
//   - POST /api/sessions/{id}/restart      - Start a new game
//   - GET  /api/sessions/{id}/history      - Action history (?page&limit&order)
//
// Catalogue:
//   - GET  /api/pieces          - Piece kinds with their four rotations
//   - GET  /api/rulesets        - Available rulesets
//   - POST /api/rulesets        - Store a ruleset
//   - GET  /api/rulesets/{name} - Ruleset details
//   - GET  /api/healthz         - Liveness
//
// WebSocket:
//   - GET /ws?session={id} - Live state updates and events
//
// Error Handling:
//
// Errors are returned as JSON with a status derived from the error chain:
// 404 for unknown sessions and rulesets, 409 for duplicate session IDs,
// 400 for malformed actions, states and rulesets.
//
//	{"error": "session not found: session not found"}
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//	srv := api.NewServer(gameService, hub)
//	http.ListenAndServe(":8080", srv)
package api
