package game

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// Timer defaults
const (
	DefaultTurnTimeout = 30 * time.Second
	DefaultBotDelay    = time.Second
)

// RoomConfig configures the runtime around a Match. Hooks run on the room
// goroutine and must not call back into the Room.
type RoomConfig struct {
	TurnTimeout time.Duration
	BotDelay    time.Duration
	Clock       quartz.Clock
	Logger      *log.Logger
	// OnChange receives a JSON snapshot after every successful transition.
	// It must not block: hand the snapshot off rather than writing it.
	OnChange func(code string, snapshot []byte)
	// OnFault is called once when an automated decision is rejected.
	OnFault func(code string, err error)
}

func (c RoomConfig) withDefaults() RoomConfig {
	if c.TurnTimeout <= 0 {
		c.TurnTimeout = DefaultTurnTimeout
	}
	if c.BotDelay <= 0 {
		c.BotDelay = DefaultBotDelay
	}
	if c.Clock == nil {
		c.Clock = quartz.NewReal()
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return c
}

// Update is the result of a transition: the public events it produced and
// the redacted view of every seated player afterwards.
type Update struct {
	Events []Event    `json:"events"`
	Views  []SeatView `json:"views"`
}

// TimeoutReport describes a decision the room made on behalf of a seat.
type TimeoutReport struct {
	Seat   int    `json:"seat"`
	Action Action `json:"action"`
	Bot    bool   `json:"bot"`
	Update Update `json:"update"`
}

// RoomInfo is the lobby summary of a room
type RoomInfo struct {
	Code        string `json:"code"`
	Host        string `json:"host"`
	Players     int    `json:"players"`
	Phase       Phase  `json:"phase"`
	HasPassword bool   `json:"hasPassword"`
	Totals      [2]int `json:"totals"`
	ScoreLimit  int    `json:"scoreLimit"`
}

// Room owns one Match and serializes every operation on it through a
// single goroutine. The per-turn timer feeds the same queue, so a fired
// fallback never races a player action.
type Room struct {
	code   string
	cfg    RoomConfig
	logger *log.Logger
	clock  quartz.Clock

	cmds      chan func()
	done      chan struct{}
	closeOnce sync.Once

	// Owned by the room goroutine.
	match      *Match
	enabled    bool
	onTimeout  func(TimeoutReport)
	timer      *quartz.Timer
	armed      bool
	armedPoint uint64
	deadline   time.Time
	fault      error
}

// NewRoom starts the room goroutine for m. The turn timer stays off until
// ArmTimer is called.
func NewRoom(m *Match, cfg RoomConfig) *Room {
	cfg = cfg.withDefaults()
	r := &Room{
		code:   m.Code,
		cfg:    cfg,
		logger: cfg.Logger.WithPrefix("room").With("code", m.Code),
		clock:  cfg.Clock,
		cmds:   make(chan func()),
		done:   make(chan struct{}),
		match:  m,
	}
	go r.run()
	return r
}

// Code returns the room code
func (r *Room) Code() string {
	return r.code
}

// Done is closed when the room shuts down
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Close stops the room goroutine and any pending timer
func (r *Room) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
	})
}

func (r *Room) run() {
	defer r.stopTimer()
	for {
		select {
		case fn := <-r.cmds:
			fn()
		case <-r.done:
			return
		}
	}
}

// call runs fn on the room goroutine and waits for it to finish.
func (r *Room) call(ctx context.Context, fn func()) error {
	select {
	case <-r.done:
		return ErrRoomClosed
	default:
	}
	finished := make(chan struct{})
	select {
	case r.cmds <- func() {
		defer close(finished)
		fn()
	}:
	case <-r.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// mutate applies fn and, when it succeeds, starts a match if everyone is
// ready, reschedules the timer and emits the change hook.
func (r *Room) mutate(fn func() ([]Event, error)) (Update, error) {
	if r.fault != nil {
		return Update{}, ErrRoomHalted
	}
	before := r.match.Point
	events, err := fn()
	if err != nil {
		return Update{}, err
	}
	events = append(events, r.autoStart()...)
	if r.match.Point != before {
		r.schedule()
	}
	r.logEvents(events)
	r.changed()
	return r.update(events), nil
}

func (r *Room) autoStart() []Event {
	m := r.match
	if (m.Phase != PhaseWait && m.Phase != PhaseFinished) || !m.AllReady() {
		return nil
	}
	events, err := m.StartMatch()
	if err != nil {
		return nil
	}
	return events
}

func (r *Room) update(events []Event) Update {
	views := make([]SeatView, len(r.match.Players))
	for s := range views {
		views[s] = r.view(s)
	}
	return Update{Events: events, Views: views}
}

func (r *Room) view(seat int) SeatView {
	v := r.match.ViewForSeat(seat)
	v.RemainingMs = r.remaining().Milliseconds()
	return v
}

func (r *Room) changed() {
	if r.cfg.OnChange == nil {
		return
	}
	data, err := json.Marshal(r.match)
	if err != nil {
		r.logger.Error("Failed to snapshot room", "error", err)
		return
	}
	r.cfg.OnChange(r.code, data)
}

func (r *Room) logEvents(events []Event) {
	for _, e := range events {
		r.logger.Debug("Transition", "event", e.Type, "seat", e.Seat, "phase", r.match.Phase)
	}
}

// schedule arms the timer for the current decision point, replacing any
// earlier one.
func (r *Room) schedule() {
	r.stopTimer()
	m := r.match
	if !r.enabled || r.fault != nil || !m.Phase.Awaiting() {
		return
	}
	d := r.cfg.TurnTimeout
	if m.Turn < len(m.Players) && m.Players[m.Turn].Bot {
		d = r.cfg.BotDelay
	}
	point := m.Point
	r.armed = true
	r.armedPoint = point
	r.deadline = r.clock.Now().Add(d)
	r.timer = r.clock.AfterFunc(d, func() {
		select {
		case r.cmds <- func() { r.fire(point) }:
		case <-r.done:
		}
	}, "room", "turn")
}

func (r *Room) stopTimer() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.armed = false
}

func (r *Room) remaining() time.Duration {
	if !r.armed {
		return 0
	}
	d := r.deadline.Sub(r.clock.Now())
	if d < 0 {
		return 0
	}
	return d
}

// fire applies the automated decision for the seat on turn, unless the
// match has moved past the decision point the timer was armed for.
func (r *Room) fire(point uint64) {
	if !r.armed || r.armedPoint != point || r.match.Point != point || r.fault != nil {
		return
	}
	r.armed = false
	r.timer = nil

	seat, action, ok := AutoAction(r.match)
	if !ok {
		return
	}
	isBot := seat < len(r.match.Players) && r.match.Players[seat].Bot
	events, err := r.match.Apply(seat, action)
	if err != nil {
		r.halt(&InvariantError{Seat: seat, Action: action, Err: err})
		return
	}
	events = append(events, r.autoStart()...)
	r.schedule()
	if isBot {
		r.logger.Debug("Bot acted", "seat", seat, "action", action.Kind)
	} else {
		r.logger.Info("Turn timed out", "seat", seat, "action", action.Kind)
	}
	r.logEvents(events)
	r.changed()
	if r.onTimeout != nil {
		r.onTimeout(TimeoutReport{Seat: seat, Action: action, Bot: isBot, Update: r.update(events)})
	}
}

func (r *Room) halt(err error) {
	r.stopTimer()
	r.fault = err
	r.logger.Error("Room halted", "error", err)
	if r.cfg.OnFault != nil {
		r.cfg.OnFault(r.code, err)
	}
}

// AddPlayer seats a human after checking the room password.
func (r *Room) AddPlayer(ctx context.Context, name, password string) (seat int, token string, u Update, err error) {
	cerr := r.call(ctx, func() {
		if r.match.Password != "" && r.match.Password != password {
			err = ErrBadPassword
			return
		}
		u, err = r.mutate(func() ([]Event, error) {
			var e error
			seat, e = r.match.AddPlayer(name)
			return nil, e
		})
		if err == nil {
			token = r.match.Players[seat].Token
		}
	})
	if cerr != nil {
		return -1, "", Update{}, cerr
	}
	return seat, token, u, err
}

// AddBot fills the next seat with an automated player
func (r *Room) AddBot(ctx context.Context, name string) (seat int, u Update, err error) {
	cerr := r.call(ctx, func() {
		u, err = r.mutate(func() ([]Event, error) {
			var e error
			seat, e = r.match.AddBot(name)
			return nil, e
		})
	})
	if cerr != nil {
		return -1, Update{}, cerr
	}
	return seat, u, err
}

// Reconnect resolves a reconnection token to its seat and marks it connected
func (r *Room) Reconnect(ctx context.Context, token string) (seat int, u Update, err error) {
	cerr := r.call(ctx, func() {
		u, err = r.mutate(func() ([]Event, error) {
			var e error
			seat, e = r.match.ReconnectPlayer(token)
			return nil, e
		})
	})
	if cerr != nil {
		return -1, Update{}, cerr
	}
	return seat, u, err
}

// SetConnected records a transport connect or disconnect
func (r *Room) SetConnected(ctx context.Context, seat int, connected bool) (Update, error) {
	return r.mutateCall(ctx, func() ([]Event, error) {
		return nil, r.match.SetConnected(seat, connected)
	})
}

// SetReady marks a seat ready. The match starts once all four are ready.
func (r *Room) SetReady(ctx context.Context, seat int, ready bool) (Update, error) {
	return r.mutateCall(ctx, func() ([]Event, error) {
		return nil, r.match.SetReady(seat, ready)
	})
}

// StartMatch deals without waiting for ready flags
func (r *Room) StartMatch(ctx context.Context) (Update, error) {
	return r.mutateCall(ctx, func() ([]Event, error) {
		return r.match.StartMatch()
	})
}

// Act applies a seat's decision
func (r *Room) Act(ctx context.Context, seat int, a Action) (Update, error) {
	return r.mutateCall(ctx, func() ([]Event, error) {
		return r.match.Apply(seat, a)
	})
}

// Reset returns the room to wait. Only the host seat may reset.
func (r *Room) Reset(ctx context.Context, seat int) (Update, error) {
	return r.mutateCall(ctx, func() ([]Event, error) {
		return r.match.Reset(seat)
	})
}

func (r *Room) mutateCall(ctx context.Context, fn func() ([]Event, error)) (u Update, err error) {
	if cerr := r.call(ctx, func() { u, err = r.mutate(fn) }); cerr != nil {
		return Update{}, cerr
	}
	return u, err
}

// View returns the redacted view for seat
func (r *Room) View(ctx context.Context, seat int) (v SeatView, err error) {
	err = r.call(ctx, func() { v = r.view(seat) })
	return v, err
}

// Players returns the public seat list
func (r *Room) Players(ctx context.Context) (p []PlayerInfo, err error) {
	err = r.call(ctx, func() { p = r.match.PlayerList() })
	return p, err
}

// Info returns the lobby summary
func (r *Room) Info(ctx context.Context) (info RoomInfo, err error) {
	err = r.call(ctx, func() {
		m := r.match
		info = RoomInfo{
			Code:        m.Code,
			Players:     len(m.Players),
			Phase:       m.Phase,
			HasPassword: m.Password != "",
			Totals:      m.Totals,
			ScoreLimit:  m.ScoreLimit,
		}
		if len(m.Players) > 0 {
			info.Host = m.Players[HostSeat].Name
		}
	})
	return info, err
}

// Snapshot serializes the match state. No timer state is included.
func (r *Room) Snapshot(ctx context.Context) (data []byte, err error) {
	if cerr := r.call(ctx, func() { data, err = json.Marshal(r.match) }); cerr != nil {
		return nil, cerr
	}
	return data, err
}

// ArmTimer enables the per-turn timer and arms it for the current decision
// point. cb receives a report for every decision made on a seat's behalf.
func (r *Room) ArmTimer(ctx context.Context, cb func(TimeoutReport)) error {
	return r.call(ctx, func() {
		r.enabled = true
		r.onTimeout = cb
		r.schedule()
	})
}

// DisarmTimer cancels the pending deadline and stops arming new ones.
// Calling it repeatedly is harmless.
func (r *Room) DisarmTimer(ctx context.Context) error {
	return r.call(ctx, func() {
		r.enabled = false
		r.stopTimer()
	})
}

// RemainingTime returns the time left before the pending deadline, or zero
// when no timer is armed.
func (r *Room) RemainingTime(ctx context.Context) (d time.Duration, err error) {
	err = r.call(ctx, func() { d = r.remaining() })
	return d, err
}

// Fault returns the error that halted the room, if any
func (r *Room) Fault(ctx context.Context) (fault error, err error) {
	err = r.call(ctx, func() { fault = r.fault })
	return fault, err
}

// inspect runs fn against the match on the room goroutine. Test helper
// for white-box assertions.
func (r *Room) inspect(ctx context.Context, fn func(m *Match)) error {
	return r.call(ctx, func() { fn(r.match) })
}
