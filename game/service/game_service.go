package service

import (
	"context"
	"sync"
	"time"

	"github.com/wricardo/rotatris/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, opts CreateSessionOptions) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Act(ctx context.Context, sessionID string, req ActionRequest) (*ActionResult, error)
	BulkAct(ctx context.Context, sessionID string, reqs []ActionRequest) (*BulkActionResult, error)
	Restart(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	ImportState(ctx context.Context, sessionID string, state *engine.GameState) (*engine.GameState, error)
	GetActionHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Rulesets and catalogue
	ListRulesets(ctx context.Context) ([]*RulesetInfo, error)
	GetRuleset(ctx context.Context, name string) (*engine.Rules, error)
	SaveRuleset(ctx context.Context, name string, rules *engine.Rules) error
	Pieces(ctx context.Context) []engine.PieceKind
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, rules *engine.Rules, seed int64) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, rules *engine.Rules, seed int64) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles ruleset loading
type ConfigManager interface {
	LoadRuleset(name string) (*engine.Rules, error)
	ListRulesets() ([]*RulesetInfo, error)
	GetDefault() *engine.Rules
	SaveRuleset(name string, rules *engine.Rules) error
}

// Session represents an active game session. Once a session is shared,
// LastAccessedAt is read and written through LastAccess and Touch only.
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Rules          *engine.Rules
	Seed           int64
	CreatedAt      time.Time
	LastAccessedAt time.Time

	accessMu sync.Mutex
}

// Touch records an access now
func (s *Session) Touch() {
	s.accessMu.Lock()
	s.LastAccessedAt = time.Now()
	s.accessMu.Unlock()
}

// LastAccess returns the time of the most recent access
func (s *Session) LastAccess() time.Time {
	s.accessMu.Lock()
	defer s.accessMu.Unlock()
	return s.LastAccessedAt
}
