// Package service provides the business logic layer for Rotatris.
//
// The service package implements:
//   - Multi-session game management
//   - Ruleset lookup and storage
//   - Action parsing and dispatch
//   - Bulk action execution with early stop
//   - Paginated action history
//
// Core Interfaces:
//
// GameService is the main service interface used by every transport.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager loads and stores rulesets.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP and
// the terminal client) and the game engine. Every session owns its own
// engine. A single service lock serializes dispatch, so an engine never
// sees two writers.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("rulesets")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, service.CreateSessionOptions{Ruleset: "classic"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Act(ctx, info.ID, service.ActionRequest{Action: "drop"})
package service
