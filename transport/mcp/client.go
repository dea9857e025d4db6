package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/rotatris/game/engine"
	"github.com/wricardo/rotatris/game/service"
)

func logger() *zerolog.Logger {
	l := log.With().Str("module", "mcp").Logger()
	return &l
}

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Rotatris",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Rotatris - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Score points by completing rows or columns on a 10x10 board. Pieces do not fall on
their own: you move them freely, place them, and rotate the whole board to let
gravity pull everything down.

AVAILABLE TOOLS:
- create_session: Start a new game (optional ruleset, seed, id)
- list_sessions: List all active sessions
- game_state: Board, current piece, ghost, score and status
- act: One action (move, rotate_piece, rotate_board, place, drop, ...)
- bulk_act: Up to 50 actions in one call
- restart_game: Fresh board, history is kept
- action_history: Paginated list of past actions
- list_rulesets: Available rulesets
- list_pieces: The piece catalogue
- game_instructions: Full rules and strategy notes

NOTE: The 'intent' parameter on act/bulk_act serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

var sessionProperty = map[string]interface{}{
	"type":        "string",
	"description": "Session ID returned by create_session",
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional ruleset and seed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"ruleset": map[string]interface{}{
					"type":        "string",
					"description": "Ruleset name (see list_rulesets). Defaults to classic.",
				},
				"seed": map[string]interface{}{
					"type":        "number",
					"description": "Fixes the piece sequence for reproducible games",
				},
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Custom session ID (letters, digits, - and _)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, piece, ghost and score of a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty,
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "act",
		Description: "Apply one action to the game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty,
				"action": map[string]interface{}{
					"type":        "string",
					"description": "One of: " + strings.Join(service.ActionNames, ", "),
					"enum":        service.ActionNames,
				},
				"direction": map[string]interface{}{
					"type":        "string",
					"description": "up/down/left/right for move, clockwise/counterclockwise for rotate_board",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Explain why you are taking this action",
				},
			},
			Required: []string{"session_id", "action"},
		},
	}, c.handleAct)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_act",
		Description: fmt.Sprintf("Apply up to %d actions in sequence. Stops at the first rejected action or game over.", engine.MaxBulkActions),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty,
				"actions": map[string]interface{}{
					"type":        "array",
					"description": "Actions as \"name\" or \"name:direction\", e.g. [\"left\", \"left\", \"rotate_piece\", \"drop\", \"rotate_board:clockwise\"]",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Explain the plan behind this sequence",
				},
			},
			Required: []string{"session_id", "actions"},
		},
	}, c.handleBulkAct)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "restart_game",
		Description: "Restart the game in a session. Action history is kept.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty,
			},
			Required: []string{"session_id"},
		},
	}, c.handleRestartGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "action_history",
		Description: "Get paginated action history, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty,
				"page": map[string]interface{}{
					"type":        "number",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Entries per page (default 20, max 100)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleActionHistory)

	// Catalogue
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_rulesets",
		Description: "List available rulesets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListRulesets)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_pieces",
		Description: "List the piece catalogue with every rotation",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPieces)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules of the game and strategy notes",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// ServeHTTP answers one JSON-RPC message per POST, for the /mcp endpoint
func (c *Client) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}

	response := c.mcpServer.HandleMessage(r.Context(), body)
	if response == nil {
		// Notifications have no response
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger().Error().Err(err).Msg("failed to encode mcp response")
	}
}

// apiCall makes an HTTP request to the REST API
func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}
	return args
}

func sessionPath(args map[string]interface{}, suffix string) (string, error) {
	id, _ := args["session_id"].(string)
	if id == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return "/api/sessions/" + url.PathEscape(id) + suffix, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	opts := service.CreateSessionOptions{}
	if ruleset, ok := args["ruleset"].(string); ok {
		opts.Ruleset = ruleset
	}
	if id, ok := args["id"].(string); ok {
		opts.ID = id
	}
	if seed, ok := args["seed"].(float64); ok {
		opts.Seed = int64(seed)
	}

	var info service.SessionInfo
	if err := c.apiCall("POST", "/api/sessions", opts, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&info)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp struct {
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall("GET", "/api/sessions", nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(resp.Sessions) == 0 {
		return mcp.NewToolResultText("No active sessions"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n", len(resp.Sessions))
	for _, s := range resp.Sessions {
		score := 0
		if s.GameState != nil {
			score = s.GameState.Score
		}
		fmt.Fprintf(&b, "- %s | ruleset: %s | status: %s | score: %d | last active: %s\n",
			s.ID, s.Ruleset, s.Status, score, s.LastAccessedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// The session view carries the ghost, the bare state does not
	var info service.SessionInfo
	if err := c.apiCall("GET", path, nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(info.GameState, info.Ghost)), nil
}

func (c *Client) handleAct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/actions")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := service.ActionRequest{}
	req.Action, _ = args["action"].(string)
	req.Direction, _ = args["direction"].(string)
	if req.Action == "" {
		return mcp.NewToolResultError("action is required"), nil
	}

	if intent, _ := args["intent"].(string); intent != "" {
		logger().Debug().Str("action", req.Action).Str("intent", intent).Msg("act")
	}

	var result service.ActionResult
	if err := c.apiCall("POST", path, req, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleBulkAct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/bulk-actions")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	raw, ok := args["actions"].([]interface{})
	if !ok || len(raw) == 0 {
		return mcp.NewToolResultError("actions must be a non-empty array"), nil
	}

	reqs := make([]service.ActionRequest, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			reqs = append(reqs, parseActionString(v))
		case map[string]interface{}:
			req := service.ActionRequest{}
			req.Action, _ = v["action"].(string)
			req.Direction, _ = v["direction"].(string)
			reqs = append(reqs, req)
		default:
			return mcp.NewToolResultError(fmt.Sprintf("unsupported action entry: %v", item)), nil
		}
	}

	if intent, _ := args["intent"].(string); intent != "" {
		logger().Debug().Int("actions", len(reqs)).Str("intent", intent).Msg("bulk_act")
	}

	body := map[string]interface{}{"actions": reqs}
	var result service.BulkActionResult
	if err := c.apiCall("POST", path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkResult(&result)), nil
}

// parseActionString splits "rotate_board:clockwise" into action and direction
func parseActionString(s string) service.ActionRequest {
	action, direction, _ := strings.Cut(strings.TrimSpace(s), ":")
	return service.ActionRequest{Action: action, Direction: direction}
}

func (c *Client) handleRestartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/restart")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var resp struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall("POST", path, nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(resp.Message + "\n\n" + formatGameState(resp.State, nil)), nil
}

func (c *Client) handleActionHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/history")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := url.Values{}
	if page, ok := args["page"].(float64); ok && page > 0 {
		query.Set("page", fmt.Sprintf("%d", int(page)))
	}
	if limit, ok := args["limit"].(float64); ok && limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", int(limit)))
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall("GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListRulesets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var rulesets []*service.RulesetInfo
	if err := c.apiCall("GET", "/api/rulesets", nil, &rulesets); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Rulesets:\n")
	for _, r := range rulesets {
		placement := "atomic"
		if !r.AtomicPlacement {
			placement = "step-by-step"
		}
		fmt.Fprintf(&b, "- %s: %s (placement: %s, kicks: %d)\n", r.RulesetID, r.Description, placement, r.KickCount)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleListPieces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var kinds []engine.PieceKind
	if err := c.apiCall("GET", "/api/pieces", nil, &kinds); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPieces(kinds)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}
