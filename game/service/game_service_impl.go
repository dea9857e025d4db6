package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/rotatris/game/engine"
)

func logger() *zerolog.Logger {
	l := log.With().Str("module", "service").Logger()
	return &l
}

// gameServiceImpl implements the GameService interface. One lock
// serializes every dispatch so each engine has a single writer.
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

func (s *gameServiceImpl) info(sess *Session) *SessionInfo {
	state := sess.Engine.GetState()
	return &SessionInfo{
		ID:             sess.ID,
		Ruleset:        sess.Rules.Name,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccess(),
		Status:         state.Status(),
		GameState:      state,
		Rules:          sess.Rules,
		Ghost:          ghost(sess.Engine),
	}
}

func ghost(e *engine.GameEngine) *engine.Position {
	if pos, ok := e.GetGhostPosition(); ok {
		return &pos
	}
	return nil
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, opts CreateSessionOptions) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules := s.configs.GetDefault()
	if opts.Ruleset != "" {
		var err error
		rules, err = s.configs.LoadRuleset(opts.Ruleset)
		if err != nil {
			available, listErr := s.configs.ListRulesets()
			if listErr == nil && len(available) > 0 {
				ids := make([]string, 0, len(available))
				for _, r := range available {
					ids = append(ids, r.RulesetID)
				}
				return nil, fmt.Errorf("failed to load ruleset '%s' (available: %v): %w", opts.Ruleset, ids, err)
			}
			return nil, fmt.Errorf("failed to load ruleset '%s': %w", opts.Ruleset, err)
		}
	}

	sess, err := s.sessions.Create(opts.ID, rules, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	logger().Info().Str("session", sess.ID).Str("ruleset", rules.Name).Msg("session created")
	return s.info(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	_ = s.sessions.UpdateLastAccessed(sessionID)
	return s.info(sess), nil
}

// ListSessions returns all active sessions, oldest first
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.info(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	logger().Info().Str("session", sessionID).Msg("session deleted")
	return nil
}

// Act executes a single action for a session
func (s *gameServiceImpl) Act(ctx context.Context, sessionID string, req ActionRequest) (*ActionResult, error) {
	action, err := ParseAction(req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)

	return s.dispatch(sess, action), nil
}

// dispatch runs one action; the caller holds the write lock
func (s *gameServiceImpl) dispatch(sess *Session, action engine.Action) *ActionResult {
	before := sess.Engine.GetState()
	res := sess.Engine.Dispatch(action)
	state := sess.Engine.GetState()

	result := &ActionResult{
		Success:    res.Applied,
		Action:     engine.Describe(action),
		GameState:  state,
		Status:     state.Status(),
		Events:     buildEvents(action, res, before, state),
		Ghost:      ghost(sess.Engine),
		ScoreDelta: state.Score - before.Score,
	}
	if _, restart := action.(engine.Restart); restart {
		result.ScoreDelta = 0
	}
	for _, c := range res.Clears() {
		result.LinesCleared += c.LinesCleared
	}
	if len(res.Frames) > 1 {
		result.Frames = res.Frames
	}
	result.Message = describeOutcome(result)

	logger().Debug().
		Str("session", sess.ID).
		Str("action", result.Action).
		Bool("applied", res.Applied).
		Int("score", state.Score).
		Msg("action dispatched")
	return result
}

func buildEvents(action engine.Action, res engine.SequenceResult, before, after *engine.GameState) []GameEvent {
	now := time.Now()
	var events []GameEvent

	if _, ok := action.(engine.Restart); ok {
		return []GameEvent{{Type: EventGameRestarted, Message: "New game started", Timestamp: now}}
	}
	if !res.Applied {
		return []GameEvent{{
			Type:      EventActionRejected,
			Message:   fmt.Sprintf("%s is not possible from the current position", engine.Describe(action)),
			Timestamp: now,
		}}
	}

	if rb, ok := action.(engine.RotateBoard); ok {
		events = append(events, GameEvent{
			Type:      EventBoardRotated,
			Message:   fmt.Sprintf("Board rotated %s to %d°", rb.Direction, after.RotationAngle),
			Timestamp: now,
		})
	}

	for _, t := range res.Transitions {
		if t.PlacedPieceID != 0 {
			kind := ""
			if before.CurrentPiece != nil {
				kind = before.CurrentPiece.Kind.Name
			}
			events = append(events, GameEvent{
				Type:      EventPiecePlaced,
				Message:   fmt.Sprintf("Placed %s piece #%d", kind, t.PlacedPieceID),
				Timestamp: now,
				PieceID:   t.PlacedPieceID,
				Kind:      kind,
			})
		}
		if t.Clear != nil {
			events = append(events, GameEvent{
				Type:      EventLinesCleared,
				Message:   fmt.Sprintf("Cleared %d line(s) for %d points", t.Clear.LinesCleared, t.Clear.Score),
				Timestamp: now,
				Rows:      t.Clear.ClearedRows,
				Cols:      t.Clear.ClearedCols,
				Points:    t.Clear.Score,
			})
		}
		if t.Spawned && t.State.CurrentPiece != nil {
			events = append(events, GameEvent{
				Type:      EventPieceSpawned,
				Message:   fmt.Sprintf("%s piece in play", t.State.CurrentPiece.Kind.Name),
				Timestamp: now,
				Kind:      t.State.CurrentPiece.Kind.Name,
			})
		}
		if t.SpawnBlocked {
			events = append(events, GameEvent{
				Type:      EventSpawnBlocked,
				Message:   fmt.Sprintf("No room for %s piece; rotate the board to make space", t.State.PendingKind),
				Timestamp: now,
				Kind:      t.State.PendingKind,
			})
		}
		if t.BecameOver {
			events = append(events, GameEvent{
				Type:      EventGameOver,
				Message:   fmt.Sprintf("Game over with %d points and %d lines", t.State.Score, t.State.LinesCleared),
				Timestamp: now,
				Kind:      t.State.PendingKind,
			})
		}
	}
	return events
}

func describeOutcome(r *ActionResult) string {
	switch {
	case r.Status == engine.GameOver && r.Success:
		return fmt.Sprintf("Game over. Final score %d", r.GameState.Score)
	case r.Status == engine.GameOver:
		return "Game is over; restart to play again"
	case !r.Success:
		return fmt.Sprintf("%s rejected", r.Action)
	case r.LinesCleared > 0:
		return fmt.Sprintf("%s cleared %d line(s), +%d points", r.Action, r.LinesCleared, r.ScoreDelta)
	case r.Status == engine.AwaitingSpawn:
		return "No room for the next piece; rotate the board"
	default:
		return fmt.Sprintf("%s ok", r.Action)
	}
}

// BulkAct executes several actions in order, stopping early on an invalid
// action, a rejected action or the end of the game
func (s *gameServiceImpl) BulkAct(ctx context.Context, sessionID string, reqs []ActionRequest) (*BulkActionResult, error) {
	if len(reqs) == 0 {
		return nil, ErrNoActions
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)

	start := sess.Engine.GetState()
	result := &BulkActionResult{
		RequestedActions: len(reqs),
		Success:          true,
		Events:           []GameEvent{},
	}
	if len(reqs) > engine.MaxBulkActions {
		reqs = reqs[:engine.MaxBulkActions]
		result.Truncated = true
		result.Limit = engine.MaxBulkActions
	}

	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if sess.Engine.IsGameOver() {
			result.StopReasonCode = "game_over"
			result.StoppedReason = "game over"
			result.StoppedOnAction = i + 1
			break
		}

		action, err := ParseAction(req)
		if err != nil {
			result.Success = false
			result.StopReasonCode = "invalid_action"
			result.StoppedReason = err.Error()
			result.StoppedOnAction = i + 1
			break
		}

		r := s.dispatch(sess, action)
		result.ActionsExecuted++
		result.Events = append(result.Events, r.Events...)
		step := StepInfo{
			Idx:          i + 1,
			Action:       r.Action,
			Success:      r.Success,
			ScoreAfter:   r.GameState.Score,
			LinesCleared: r.LinesCleared,
		}
		if last := sess.Engine.GetLastAction(); last != nil {
			step.PieceID = last.PieceID
		}
		result.Steps = append(result.Steps, step)

		if !r.Success {
			result.Success = false
			result.StopReasonCode = "rejected"
			result.StoppedReason = r.Message
			result.StoppedOnAction = i + 1
			break
		}
	}

	end := sess.Engine.GetState()
	result.GameState = end
	result.Status = end.Status()
	result.GameOver = end.IsGameOver
	result.ScoreDelta = end.Score - start.Score
	result.LinesDelta = end.LinesCleared - start.LinesCleared
	result.Message = fmt.Sprintf("Executed %d of %d action(s); score %d", result.ActionsExecuted, result.RequestedActions, end.Score)
	return result, nil
}

// Restart starts a fresh game in the session
func (s *gameServiceImpl) Restart(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)

	return sess.Engine.Reset(), nil
}

// GetGameState returns the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)

	return sess.Engine.GetState(), nil
}

// ImportState replaces a session's state with a checkpoint
func (s *gameServiceImpl) ImportState(ctx context.Context, sessionID string, state *engine.GameState) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	if err := sess.Engine.SetState(state); err != nil {
		return nil, err
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)

	logger().Info().Str("session", sessionID).Msg("state imported")
	return sess.Engine.GetState(), nil
}

// GetActionHistory returns paginated action history
func (s *gameServiceImpl) GetActionHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Engine.GetActionHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	actions := []engine.ActionHistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				actions = append(actions, history[i])
			}
		} else {
			actions = append(actions, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Actions:      actions,
		TotalActions: total,
		Page:         opts.Page,
		PageSize:     opts.Limit,
		TotalPages:   totalPages,
		HasNext:      opts.Page < totalPages,
		HasPrevious:  opts.Page > 1,
	}, nil
}

// ListRulesets returns available rulesets
func (s *gameServiceImpl) ListRulesets(ctx context.Context) ([]*RulesetInfo, error) {
	return s.configs.ListRulesets()
}

// GetRuleset loads a ruleset by name
func (s *gameServiceImpl) GetRuleset(ctx context.Context, name string) (*engine.Rules, error) {
	return s.configs.LoadRuleset(name)
}

// SaveRuleset stores a ruleset
func (s *gameServiceImpl) SaveRuleset(ctx context.Context, name string, rules *engine.Rules) error {
	return s.configs.SaveRuleset(name, rules)
}

// Pieces returns the piece catalogue
func (s *gameServiceImpl) Pieces(ctx context.Context) []engine.PieceKind {
	return engine.Catalogue()
}
