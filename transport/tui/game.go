package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/rotatris/game/service"
)

func logger() *zerolog.Logger {
	l := log.With().Str("module", "tui").Logger()
	return &l
}

// Pacing is how long each kind of sequence frame stays on screen
type Pacing struct {
	Rotation time.Duration
	Falling  time.Duration
	Clearing time.Duration
}

// DefaultPacing is the pacing of the play command
var DefaultPacing = Pacing{
	Rotation: 300 * time.Millisecond,
	Falling:  200 * time.Millisecond,
	Clearing: 300 * time.Millisecond,
}

func (p Pacing) delay(step string) time.Duration {
	name, _, _ := strings.Cut(step, ":")
	switch name {
	case "rotate_board":
		return p.Rotation
	case "apply_gravity":
		return p.Falling
	case "clear_lines":
		return p.Clearing
	}
	return 0
}

// Game runs one session on a terminal screen
type Game struct {
	screen    tcell.Screen
	service   service.GameService
	sessionID string
	pacing    Pacing

	view View
}

// NewGame creates a terminal game for an existing session. The screen must
// already be initialized; the caller owns Fini.
func NewGame(screen tcell.Screen, gameService service.GameService, sessionID string, pacing Pacing) *Game {
	return &Game{
		screen:    screen,
		service:   gameService,
		sessionID: sessionID,
		pacing:    pacing,
	}
}

// Run draws the game and handles input until the player quits or ctx is done
func (g *Game) Run(ctx context.Context) error {
	info, err := g.service.GetSession(ctx, g.sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	g.view = View{State: info.GameState, Ghost: info.Ghost}
	g.draw()

	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := g.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				g.screen.Sync()
				g.draw()
			case *tcell.EventKey:
				cmd := lookup(ev)
				if cmd == CommandQuit {
					return nil
				}
				req, ok := cmd.Request()
				if !ok {
					continue
				}
				g.apply(ctx, req)
			}
		}
	}
}

// apply runs one action and animates its frames
func (g *Game) apply(ctx context.Context, req service.ActionRequest) {
	result, err := g.service.Act(ctx, g.sessionID, req)
	if err != nil {
		logger().Warn().Err(err).Str("action", req.Action).Msg("action failed")
		g.view.Message = err.Error()
		g.draw()
		return
	}

	for _, frame := range result.Frames {
		if !frame.Applied {
			continue
		}
		g.view = View{State: frame.State, Step: frame.Step}
		g.draw()
		if d := g.pacing.delay(frame.Step); d > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return
			}
		}
	}

	g.view = View{State: result.GameState, Ghost: result.Ghost}
	if !result.Success {
		g.view.Message = result.Message
	}
	g.draw()
}

func (g *Game) draw() {
	Render(g.screen, g.view)
}
