// Package mcp provides the Model Context Protocol server for Rotatris.
//
// The server is a thin client of the REST API: every tool call becomes one
// HTTP request and the JSON response is rendered as text an agent can read,
// including an ASCII board with the current piece and its ghost.
//
// MCP Tools:
//   - create_session: Create a game session (ruleset, seed, id)
//   - list_sessions: List active sessions
//   - game_state: Board, current piece, ghost and score
//   - act: Apply one action
//   - bulk_act: Apply up to 50 actions, stopping at the first rejection
//   - restart_game: Restart a session's game
//   - action_history: Paginated action history
//   - list_rulesets: Available rulesets
//   - list_pieces: The piece catalogue
//   - game_instructions: Rules and strategy notes
//
// Transport Modes:
//
// The same tool set is served two ways:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: mount the Client itself, it implements http.Handler
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	mux.Handle("/mcp", client)
package mcp
