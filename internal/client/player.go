package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/hokm/internal/display"
	"github.com/lox/hokm/internal/game"
	"github.com/lox/hokm/internal/server"
)

// Player occupies one seat over a Client and answers every decision with
// the decision engine. It readies itself between matches and stops when
// the game is over.
type Player struct {
	client   *Client
	logger   *log.Logger
	renderer *display.Renderer
	out      io.Writer

	mu      sync.Mutex
	code    string
	seat    int
	token   string
	last    string
	view    game.SeatView
	players []game.PlayerInfo
	err     error
	joined  chan struct{}
	over    chan struct{}
}

// PlayerOption configures a Player
type PlayerOption func(*Player)

// WithOutput renders events to w as they arrive
func WithOutput(w io.Writer, r *display.Renderer) PlayerOption {
	return func(p *Player) {
		p.out = w
		p.renderer = r
	}
}

// NewPlayer attaches a player to c. Call before sending a create, join or
// reconnect request.
func NewPlayer(c *Client, logger *log.Logger, opts ...PlayerOption) *Player {
	p := &Player{
		client: c,
		logger: logger.WithPrefix("player"),
		seat:   -1,
		joined: make(chan struct{}),
		over:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	c.On(server.MessageTypeRoomJoined, p.handleRoomJoined)
	c.On(server.MessageTypeState, p.handleState)
	c.On(server.MessageTypeEvents, p.handleEvents)
	c.On(server.MessageTypeError, p.handleError)
	return p
}

// Seat returns the room code, seat and reconnection token once joined
func (p *Player) Seat() (code string, seat int, token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.code, p.seat, p.token
}

// WaitJoined blocks until the server confirms a seat
func (p *Player) WaitJoined(ctx context.Context) error {
	select {
	case <-p.joined:
		return nil
	case <-p.over:
		return p.failure()
	case <-p.client.Done():
		return ErrNotConnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until the game is over and returns the final view
func (p *Player) Wait(ctx context.Context) (game.SeatView, error) {
	select {
	case <-p.over:
	case <-p.client.Done():
		return game.SeatView{}, ErrNotConnected
	case <-ctx.Done():
		return game.SeatView{}, ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view, p.err
}

func (p *Player) failure() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Player) handleRoomJoined(msg *server.Message) {
	var d server.RoomJoinedData
	if err := json.Unmarshal(msg.Data, &d); err != nil {
		p.logger.Error("Failed to parse room_joined", "error", err)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case <-p.joined:
		return
	default:
	}
	p.code, p.seat, p.token = d.Code, d.Seat, d.Token
	p.logger.Info("Seated", "code", d.Code, "seat", d.Seat)
	close(p.joined)
}

func (p *Player) handleState(msg *server.Message) {
	var d server.StateData
	if err := json.Unmarshal(msg.Data, &d); err != nil {
		p.logger.Error("Failed to parse state", "error", err)
		return
	}
	v := d.View

	p.mu.Lock()
	p.view = v
	p.players = v.Players
	key := decisionKey(v)
	repeat := key == p.last
	p.last = key
	p.mu.Unlock()

	if repeat {
		return
	}

	switch {
	case v.Phase == game.PhaseGameOver:
		p.finish(nil)
	case v.Phase == game.PhaseWait || v.Phase == game.PhaseFinished:
		if v.Seat >= 0 && v.Seat < len(v.Players) && !v.Players[v.Seat].Ready {
			if err := p.client.Ready(); err != nil {
				p.logger.Warn("Failed to send ready", "error", err)
			}
		}
	default:
		a, ok := game.ViewAction(v)
		if !ok {
			return
		}
		p.logger.Debug("Acting", "phase", v.Phase, "action", a.Kind)
		if err := p.client.Act(a); err != nil {
			p.logger.Warn("Failed to send action", "error", err)
		}
	}
}

// decisionKey identifies the decision point a view represents, so a view
// re-sent for an unrelated change (a connect flag) is not answered twice.
func decisionKey(v game.SeatView) string {
	ready := 0
	for _, pl := range v.Players {
		if pl.Ready {
			ready++
		}
	}
	return fmt.Sprintf("%s/%d/%d/%d/%d/%d/%d/%d/%d",
		v.Phase, len(v.History), v.Turn, len(v.Hand), len(v.Trick), len(v.Proposals), v.Contract, len(v.Players), ready)
}

func (p *Player) handleEvents(msg *server.Message) {
	if p.out == nil {
		return
	}
	var d server.EventsData
	if err := json.Unmarshal(msg.Data, &d); err != nil {
		p.logger.Error("Failed to parse events", "error", err)
		return
	}
	p.mu.Lock()
	players := p.players
	p.mu.Unlock()
	for _, e := range d.Events {
		fmt.Fprintln(p.out, p.renderer.Event(e, players))
	}
}

func (p *Player) handleError(msg *server.Message) {
	var d server.ErrorData
	if err := json.Unmarshal(msg.Data, &d); err != nil {
		p.logger.Error("Failed to parse error", "error", err)
		return
	}
	select {
	case <-p.joined:
		// Stale answers race the server's own progress and are harmless.
		p.logger.Debug("Request rejected", "code", d.Code, "message", d.Message)
	default:
		p.finish(fmt.Errorf("join failed: %s: %s", d.Code, d.Message))
	}
}

func (p *Player) finish(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case <-p.over:
		return
	default:
	}
	p.err = err
	close(p.over)
}
