package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/rotatris/game/config"
	"github.com/wricardo/rotatris/game/engine"
	"github.com/wricardo/rotatris/game/service"
	"github.com/wricardo/rotatris/game/session"
	"github.com/wricardo/rotatris/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Game Operations
	ActFunc     func(ctx context.Context, sessionID string, req service.ActionRequest) (*service.ActionResult, error)
	BulkActFunc func(ctx context.Context, sessionID string, reqs []service.ActionRequest) (*service.BulkActionResult, error)
	RestartFunc func(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameStateFunc     func(ctx context.Context, sessionID string) (*engine.GameState, error)
	ImportStateFunc      func(ctx context.Context, sessionID string, state *engine.GameState) (*engine.GameState, error)
	GetActionHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)

	// Rulesets
	ListRulesetsFunc func(ctx context.Context) ([]*service.RulesetInfo, error)
	GetRulesetFunc   func(ctx context.Context, name string) (*engine.Rules, error)
	SaveRulesetFunc  func(ctx context.Context, name string, rules *engine.Rules) error
}

func emptyState() *engine.GameState {
	return &engine.GameState{Grid: engine.EmptyGrid(engine.GridSize), NextPieceID: 1}
}

// Session Management
func (m *MockGameService) CreateSession(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, opts)
	}
	return &service.SessionInfo{ID: "test-session", Ruleset: opts.Ruleset, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, Ruleset: "classic", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

// Game Operations
func (m *MockGameService) Act(ctx context.Context, sessionID string, req service.ActionRequest) (*service.ActionResult, error) {
	if m.ActFunc != nil {
		return m.ActFunc(ctx, sessionID, req)
	}
	return &service.ActionResult{Success: true, Action: req.Action, GameState: emptyState()}, nil
}

func (m *MockGameService) BulkAct(ctx context.Context, sessionID string, reqs []service.ActionRequest) (*service.BulkActionResult, error) {
	if m.BulkActFunc != nil {
		return m.BulkActFunc(ctx, sessionID, reqs)
	}
	return &service.BulkActionResult{Success: true, ActionsExecuted: len(reqs), GameState: emptyState()}, nil
}

func (m *MockGameService) Restart(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.RestartFunc != nil {
		return m.RestartFunc(ctx, sessionID)
	}
	return emptyState(), nil
}

// Game State
func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return emptyState(), nil
}

func (m *MockGameService) ImportState(ctx context.Context, sessionID string, state *engine.GameState) (*engine.GameState, error) {
	if m.ImportStateFunc != nil {
		return m.ImportStateFunc(ctx, sessionID, state)
	}
	return state, nil
}

func (m *MockGameService) GetActionHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetActionHistoryFunc != nil {
		return m.GetActionHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Actions:    []engine.ActionHistoryEntry{},
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

// Rulesets
func (m *MockGameService) ListRulesets(ctx context.Context) ([]*service.RulesetInfo, error) {
	if m.ListRulesetsFunc != nil {
		return m.ListRulesetsFunc(ctx)
	}
	return []*service.RulesetInfo{}, nil
}

func (m *MockGameService) GetRuleset(ctx context.Context, name string) (*engine.Rules, error) {
	if m.GetRulesetFunc != nil {
		return m.GetRulesetFunc(ctx, name)
	}
	rules := engine.DefaultRules()
	rules.Name = name
	return rules, nil
}

func (m *MockGameService) SaveRuleset(ctx context.Context, name string, rules *engine.Rules) error {
	if m.SaveRulesetFunc != nil {
		return m.SaveRulesetFunc(ctx, name, rules)
	}
	return nil
}

func (m *MockGameService) Pieces(ctx context.Context) []engine.PieceKind {
	return engine.Catalogue()
}

// Test helpers
func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), target), "body: %s", w.Body.String())
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	parseResponse(t, w, &resp)
	return resp["error"]
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:           "Create session with default ruleset",
			requestBody:    nil,
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				assert.Equal(t, "test-session", resp.ID)
			},
		},
		{
			name:        "Create session with ruleset and seed",
			requestBody: map[string]interface{}{"ruleset": "sandbox", "seed": 99, "id": "mine"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error) {
					assert.Equal(t, service.CreateSessionOptions{ID: "mine", Ruleset: "sandbox", Seed: 99}, opts)
					return &service.SessionInfo{ID: opts.ID, Ruleset: opts.Ruleset}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				assert.Equal(t, "sandbox", resp.Ruleset)
			},
		},
		{
			name:        "Unknown ruleset",
			requestBody: map[string]string{"ruleset": "nope"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("failed to load ruleset 'nope': %w", config.ErrRulesetNotFound)
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Duplicate ID",
			requestBody: map[string]string{"id": "taken"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("failed to create session: %w", session.ErrSessionAlreadyExists)
				}
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "Handle service error",
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, "service error", errorMessage(t, w))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			w := serve(NewServer(mockService, nil), makeRequest("POST", "/api/sessions", tt.requestBody))

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestCreateSessionRejectsBadJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/sessions", strings.NewReader("{nope"))
	w := serve(NewServer(&MockGameService{}, nil), req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	mock := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-time.Minute)},
				{ID: "new", CreatedAt: now, LastAccessedAt: now.Add(-time.Hour)},
			}, nil
		},
	}
	server := NewServer(mock, nil)

	tests := []struct {
		query     string
		wantFirst string
		wantCount int
	}{
		{"", "old", 2},
		{"?sort=created", "new", 2},
		{"?sort=created&order=asc", "old", 2},
		{"?sort=created&limit=1", "new", 1},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := serve(server, makeRequest("GET", "/api/sessions"+tt.query, nil))
			require.Equal(t, http.StatusOK, w.Code)

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)
			assert.Equal(t, tt.wantCount, resp.Count)
			assert.Equal(t, 2, resp.Total)
			assert.Equal(t, tt.wantFirst, resp.Sessions[0].ID)
		})
	}
}

func TestGetAndDeleteSession(t *testing.T) {
	mock := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID != "sess-123" {
				return nil, fmt.Errorf("session not found: %w", session.ErrSessionNotFound)
			}
			return &service.SessionInfo{ID: sessionID, Ruleset: "classic"}, nil
		},
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID != "sess-123" {
				return session.ErrSessionNotFound
			}
			return nil
		},
	}
	server := NewServer(mock, nil)

	w := serve(server, makeRequest("GET", "/api/sessions/sess-123", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var info service.SessionInfo
	parseResponse(t, w, &info)
	assert.Equal(t, "sess-123", info.ID)

	w = serve(server, makeRequest("GET", "/api/sessions/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, errorMessage(t, w), "session not found")

	w = serve(server, makeRequest("DELETE", "/api/sessions/sess-123", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(server, makeRequest("DELETE", "/api/sessions/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Game Operation Tests

func TestAction(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		actErr         error
		expectedStatus int
	}{
		{"valid action", map[string]string{"action": "move", "direction": "left"}, nil, http.StatusOK},
		{"unknown action", map[string]string{"action": "fly"}, fmt.Errorf("%w: fly", service.ErrUnknownAction), http.StatusBadRequest},
		{"bad direction", map[string]string{"action": "move", "direction": "in"}, service.ErrInvalidDirection, http.StatusBadRequest},
		{"missing session", map[string]string{"action": "drop"}, fmt.Errorf("session not found: %w", session.ErrSessionNotFound), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got service.ActionRequest
			mock := &MockGameService{
				ActFunc: func(ctx context.Context, sessionID string, req service.ActionRequest) (*service.ActionResult, error) {
					got = req
					if tt.actErr != nil {
						return nil, tt.actErr
					}
					return &service.ActionResult{Success: true, Action: "move:left", GameState: emptyState(), Status: engine.Playing}, nil
				},
			}

			w := serve(NewServer(mock, nil), makeRequest("POST", "/api/sessions/s1/actions", tt.body))
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedStatus == http.StatusOK {
				var result service.ActionResult
				parseResponse(t, w, &result)
				assert.True(t, result.Success)
				assert.Equal(t, service.ActionRequest{Action: "move", Direction: "left"}, got)
			}
		})
	}
}

func TestActionInvalidBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/sessions/s1/actions", strings.NewReader("not json"))
	w := serve(NewServer(&MockGameService{}, nil), req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", errorMessage(t, w))
}

func TestBulkActions(t *testing.T) {
	var got []service.ActionRequest
	mock := &MockGameService{
		BulkActFunc: func(ctx context.Context, sessionID string, reqs []service.ActionRequest) (*service.BulkActionResult, error) {
			got = reqs
			return &service.BulkActionResult{
				ActionsExecuted:  2,
				RequestedActions: len(reqs),
				StopReasonCode:   "rejected",
				StoppedOnAction:  2,
				GameState:        emptyState(),
			}, nil
		},
	}

	body := map[string]interface{}{
		"actions": []map[string]string{
			{"action": "left"},
			{"action": "rotate_board", "direction": "ccw"},
			{"action": "drop"},
		},
	}
	w := serve(NewServer(mock, nil), makeRequest("POST", "/api/sessions/s1/bulk-actions", body))
	require.Equal(t, http.StatusOK, w.Code)

	var result service.BulkActionResult
	parseResponse(t, w, &result)
	assert.Equal(t, "rejected", result.StopReasonCode)
	assert.Equal(t, 2, result.StoppedOnAction)
	require.Len(t, got, 3)
	assert.Equal(t, "ccw", got[1].Direction)

	mock.BulkActFunc = func(ctx context.Context, sessionID string, reqs []service.ActionRequest) (*service.BulkActionResult, error) {
		return nil, service.ErrNoActions
	}
	w = serve(NewServer(mock, nil), makeRequest("POST", "/api/sessions/s1/bulk-actions", map[string]interface{}{"actions": []string{}}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportState(t *testing.T) {
	mock := &MockGameService{
		ImportStateFunc: func(ctx context.Context, sessionID string, state *engine.GameState) (*engine.GameState, error) {
			if len(state.Grid) != engine.GridSize {
				return nil, fmt.Errorf("%w: grid must have %d rows", engine.ErrInvalidState, engine.GridSize)
			}
			return state, nil
		},
	}
	server := NewServer(mock, nil)

	state := emptyState()
	state.Score = 30
	w := serve(server, makeRequest("PUT", "/api/sessions/s1/state", state))
	require.Equal(t, http.StatusOK, w.Code)
	var got engine.GameState
	parseResponse(t, w, &got)
	assert.Equal(t, 30, got.Score)

	w = serve(server, makeRequest("PUT", "/api/sessions/s1/state", map[string]interface{}{"grid": [][]engine.Cell{}}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetGameStateAndRestart(t *testing.T) {
	server := NewServer(&MockGameService{}, nil)

	w := serve(server, makeRequest("GET", "/api/sessions/s1/state", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var state engine.GameState
	parseResponse(t, w, &state)
	assert.Len(t, state.Grid, engine.GridSize)

	w = serve(server, makeRequest("POST", "/api/sessions/s1/restart", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	parseResponse(t, w, &resp)
	assert.Equal(t, "Game restarted", resp["message"])
}

func TestGetHistoryParsesQuery(t *testing.T) {
	var got service.HistoryOptions
	mock := &MockGameService{
		GetActionHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
			got = opts
			return &service.HistoryResponse{Page: opts.Page, PageSize: opts.Limit}, nil
		},
	}
	server := NewServer(mock, nil)

	w := serve(server, makeRequest("GET", "/api/sessions/s1/history?page=3&limit=5&order=asc", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.HistoryOptions{Page: 3, Limit: 5, Order: "asc"}, got)

	serve(server, makeRequest("GET", "/api/sessions/s1/history?page=-1&limit=x&order=sideways", nil))
	assert.Equal(t, service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}, got)
}

// Catalogue and Ruleset Tests

func TestPiecesAndRulesets(t *testing.T) {
	mock := &MockGameService{
		ListRulesetsFunc: func(ctx context.Context) ([]*service.RulesetInfo, error) {
			return []*service.RulesetInfo{{RulesetID: "classic", BuiltIn: true}}, nil
		},
		GetRulesetFunc: func(ctx context.Context, name string) (*engine.Rules, error) {
			if name != "classic" {
				return nil, config.ErrRulesetNotFound
			}
			return engine.DefaultRules(), nil
		},
	}
	server := NewServer(mock, nil)

	w := serve(server, makeRequest("GET", "/api/pieces", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var pieces []engine.PieceKind
	parseResponse(t, w, &pieces)
	assert.Len(t, pieces, len(engine.Catalogue()))

	w = serve(server, makeRequest("GET", "/api/rulesets", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list []service.RulesetInfo
	parseResponse(t, w, &list)
	require.Len(t, list, 1)
	assert.True(t, list[0].BuiltIn)

	w = serve(server, makeRequest("GET", "/api/rulesets/classic.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(server, makeRequest("GET", "/api/rulesets/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateRuleset(t *testing.T) {
	var saved string
	mock := &MockGameService{
		SaveRulesetFunc: func(ctx context.Context, name string, rules *engine.Rules) error {
			if err := engine.ValidateRules(rules); err != nil {
				return fmt.Errorf("%w: %v", config.ErrInvalidRuleset, err)
			}
			saved = name
			return nil
		},
	}
	server := NewServer(mock, nil)

	rules := engine.DefaultRules()
	rules.Name = "speedy"
	w := serve(server, makeRequest("POST", "/api/rulesets", rules))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "speedy", saved)

	w = serve(server, makeRequest("POST", "/api/rulesets", map[string]string{"description": "x"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Ruleset name is required", errorMessage(t, w))

	w = serve(server, makeRequest("POST", "/api/rulesets", map[string]interface{}{"name": "bad", "description": "d", "grid_size": 7}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	w := serve(NewServer(&MockGameService{}, nil), makeRequest("GET", "/api/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestMethodNotAllowed(t *testing.T) {
	server := NewServer(&MockGameService{}, nil)

	tests := []struct {
		method, path string
		expected     int
	}{
		{"PATCH", "/api/sessions/s1/state", http.StatusMethodNotAllowed},
		{"DELETE", "/api/pieces", http.StatusMethodNotAllowed},
		{"PUT", "/api/sessions", http.StatusMethodNotAllowed},
		{"GET", "/api/nothing-here", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(server, makeRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.expected, w.Code)
			if tt.expected == http.StatusMethodNotAllowed {
				assert.Contains(t, errorMessage(t, w), "not allowed")
			}
		})
	}
}

// WebSocket Tests

func TestWebSocketRequiresSession(t *testing.T) {
	hub := websocket.NewHub()
	mock := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			return nil, session.ErrSessionNotFound
		},
	}
	server := NewServer(mock, hub)

	w := serve(server, makeRequest("GET", "/ws", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(server, makeRequest("GET", "/ws?session=ghost", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(NewServer(mock, nil), makeRequest("GET", "/ws?session=ghost", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestActionBroadcastsToWebSocket(t *testing.T) {
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	mock := &MockGameService{
		ActFunc: func(ctx context.Context, sessionID string, req service.ActionRequest) (*service.ActionResult, error) {
			state := emptyState()
			state.Score = 10
			return &service.ActionResult{
				Success:   true,
				Action:    "drop",
				GameState: state,
				Events:    []service.GameEvent{{Type: service.EventLinesCleared, Points: 10}},
			}, nil
		},
	}
	ts := httptest.NewServer(NewServer(mock, hub))
	defer ts.Close()

	conn, _, err := gorillaws.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws?session=s1", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount("s1") == 1 }, time.Second, 10*time.Millisecond)

	resp, err := http.Post(ts.URL+"/api/sessions/s1/actions", "application/json", strings.NewReader(`{"action":"drop"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var message websocket.Message
	require.NoError(t, conn.ReadJSON(&message))
	assert.Equal(t, websocket.TypeState, message.Type)
	require.NotNil(t, message.GameState)
	assert.Equal(t, 10, message.GameState.Score)

	require.NoError(t, conn.ReadJSON(&message))
	assert.Equal(t, service.EventLinesCleared, message.Event)
}

func TestWebSocketSessionIDsAreCaseInsensitive(t *testing.T) {
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	configs, err := config.NewManager("")
	require.NoError(t, err)
	gameService := service.NewGameService(session.NewManager(), configs)
	_, err = gameService.CreateSession(ctx, service.CreateSessionOptions{ID: "Game1", Seed: 9})
	require.NoError(t, err)

	ts := httptest.NewServer(NewServer(gameService, hub))
	defer ts.Close()

	conn, _, err := gorillaws.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws?session=GAME1", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount("game1") == 1 }, time.Second, 10*time.Millisecond)

	resp, err := http.Post(ts.URL+"/api/sessions/game1/actions", "application/json", strings.NewReader(`{"action":"move","direction":"left"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var message websocket.Message
	require.NoError(t, conn.ReadJSON(&message))
	assert.Equal(t, websocket.TypeState, message.Type)
	assert.Equal(t, "game1", message.SessionID)
}
