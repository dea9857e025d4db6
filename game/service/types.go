package service

import (
	"time"

	"github.com/wricardo/rotatris/game/engine"
)

// CreateSessionOptions configures a new session
type CreateSessionOptions struct {
	ID      string `json:"id,omitempty"`
	Ruleset string `json:"ruleset,omitempty"`
	// Seed fixes the piece sequence. Zero draws from the clock.
	Seed int64 `json:"seed,omitempty"`
}

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	Ruleset        string            `json:"ruleset"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	Status         engine.Status     `json:"status"`
	GameState      *engine.GameState `json:"game_state"`
	Rules          *engine.Rules     `json:"rules"`
	Ghost          *engine.Position  `json:"ghost,omitempty"`
}

// ActionRequest is the wire form of one action
type ActionRequest struct {
	Action    string `json:"action"`
	Direction string `json:"direction,omitempty"`
}

// ActionResult contains the result of one action
type ActionResult struct {
	Success      bool              `json:"success"`
	Action       string            `json:"action"`
	GameState    *engine.GameState `json:"game_state"`
	Status       engine.Status     `json:"status"`
	Message      string            `json:"message"`
	Events       []GameEvent       `json:"events,omitempty"`
	Frames       []engine.Frame    `json:"frames,omitempty"`
	Ghost        *engine.Position  `json:"ghost,omitempty"`
	ScoreDelta   int               `json:"score_delta"`
	LinesCleared int               `json:"lines_cleared"`
}

// BulkActionResult contains the result of several actions
type BulkActionResult struct {
	ActionsExecuted  int               `json:"actions_executed"`
	RequestedActions int               `json:"requested_actions"`
	Success          bool              `json:"success"`
	GameState        *engine.GameState `json:"game_state"`
	Status           engine.Status     `json:"status"`
	Events           []GameEvent       `json:"events"`
	StoppedReason    string            `json:"stopped_reason,omitempty"`
	StopReasonCode   string            `json:"stop_reason_code,omitempty"` // invalid_action|rejected|game_over
	StoppedOnAction  int               `json:"stopped_on_action,omitempty"`
	Truncated        bool              `json:"truncated,omitempty"`
	Limit            int               `json:"limit,omitempty"`
	ScoreDelta       int               `json:"score_delta"`
	LinesDelta       int               `json:"lines_delta"`
	Steps            []StepInfo        `json:"steps,omitempty"`
	GameOver         bool              `json:"game_over"`
	Message          string            `json:"message,omitempty"`
}

// StepInfo is a compact record for each executed action in a bulk call
type StepInfo struct {
	Idx          int    `json:"idx"`
	Action       string `json:"action"`
	Success      bool   `json:"success"`
	ScoreAfter   int    `json:"score_after"`
	LinesCleared int    `json:"lines_cleared,omitempty"`
	PieceID      int    `json:"piece_id,omitempty"`
}

// Event types
const (
	EventPiecePlaced    = "piece_placed"
	EventLinesCleared   = "lines_cleared"
	EventPieceSpawned   = "piece_spawned"
	EventSpawnBlocked   = "spawn_blocked"
	EventBoardRotated   = "board_rotated"
	EventGameOver       = "game_over"
	EventActionRejected = "action_rejected"
	EventGameRestarted  = "game_restarted"
)

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	PieceID   int       `json:"piece_id,omitempty"`
	Kind      string    `json:"kind,omitempty"`
	Rows      []int     `json:"rows,omitempty"`
	Cols      []int     `json:"cols,omitempty"`
	Points    int       `json:"points,omitempty"`
}

// HistoryOptions configures action history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated action history
type HistoryResponse struct {
	Actions      []engine.ActionHistoryEntry `json:"actions"`
	TotalActions int                         `json:"total_actions"`
	Page         int                         `json:"page"`
	PageSize     int                         `json:"page_size"`
	TotalPages   int                         `json:"total_pages"`
	HasNext      bool                        `json:"has_next"`
	HasPrevious  bool                        `json:"has_previous"`
}

// RulesetInfo provides information about a ruleset
type RulesetInfo struct {
	Filename        string `json:"filename,omitempty"`
	RulesetID       string `json:"ruleset_id"` // The identifier to use for session creation
	Name            string `json:"name"`
	Description     string `json:"description"`
	AtomicPlacement bool   `json:"atomic_placement"`
	KickCount       int    `json:"kick_count"`
	BuiltIn         bool   `json:"built_in"`
}
