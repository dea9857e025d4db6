// Package session provides session management for Rotatris.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Session ID generation and validation
//   - Expiry of idle sessions
//
// Core Types:
//
// Manager is the in-memory store behind service.SessionManager. Each
// service.Session owns its own engine, seeded so a game can be replayed.
//
// Session Identifiers:
//
// Generated IDs are the first 8 hex characters of a random UUID. Caller
// supplied IDs may use letters, digits, '-' and '_' (at most 64) and are
// matched case-insensitively.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", engine.DefaultRules(), 0)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//
// Cleanup:
//
// Sessions are never written to disk. CleanupExpiredSessions drops the
// ones idle for longer than a given age; the server runs it on a ticker.
package session
