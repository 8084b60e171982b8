package server

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/hokm/internal/game"
	"github.com/lox/hokm/internal/gameid"
	"github.com/lox/hokm/internal/randutil"
	"github.com/lox/hokm/internal/store"
)

var (
	ErrRoomLimit  = fmt.Errorf("%w: room limit reached", game.ErrIllegalState)
	ErrNotInRoom  = fmt.Errorf("%w: join a room first", game.ErrIllegalState)
	ErrInRoom     = fmt.Errorf("%w: already seated in a room", game.ErrIllegalState)
	errCodeExists = errors.New("room code collision")
)

// Notifier receives room updates for delivery to connections. Calls may
// come from a room goroutine and must not block or call back into the room.
type Notifier interface {
	Notify(code string, u game.Update)
	NotifyTimeout(code string, r game.TimeoutReport)
}

// ServiceConfig configures a RoomService
type ServiceConfig struct {
	ScoreLimit  int
	TurnTimeout time.Duration
	BotDelay    time.Duration
	MaxRooms    int
	Seed        int64
	// IdleTTL is how long a room with no connected humans survives
	// without a transition. It should match the store TTL.
	IdleTTL time.Duration
	// SweepInterval is how often Run looks for abandoned rooms.
	SweepInterval time.Duration
}

// RoomService is the registry of live rooms keyed by room code. It owns
// each room's timer and persistence wiring. Snapshots are written by a
// single writer goroutine so store I/O never runs on a room goroutine.
type RoomService struct {
	cfg      ServiceConfig
	store    store.Store
	clock    quartz.Clock
	logger   *log.Logger
	notifier Notifier

	mu         sync.RWMutex
	rooms      map[string]*game.Room
	reserved   map[string]struct{}
	lastActive map[string]time.Time
	pending    map[string][]byte
	codes      *gameid.Generator
	created    atomic.Int64

	// writeMu is held while snapshots are written or deleted. Take it
	// before mu, never while holding mu.
	writeMu    sync.Mutex
	wake       chan struct{}
	stop       chan struct{}
	stopOnce   sync.Once
	writerDone chan struct{}
}

// NewRoomService creates an empty registry and starts its snapshot writer
func NewRoomService(cfg ServiceConfig, st store.Store, clock quartz.Clock, logger *log.Logger) *RoomService {
	if cfg.MaxRooms <= 0 {
		cfg.MaxRooms = 1000
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = store.DefaultTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	if st == nil {
		st = store.NewMemoryStore(cfg.IdleTTL, clock)
	}
	s := &RoomService{
		cfg:        cfg,
		store:      st,
		clock:      clock,
		logger:     logger.WithPrefix("rooms"),
		rooms:      make(map[string]*game.Room),
		reserved:   make(map[string]struct{}),
		lastActive: make(map[string]time.Time),
		pending:    make(map[string][]byte),
		codes:      gameid.NewGenerator(randutil.New(randutil.Derive(cfg.Seed, -1))),
		wake:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
	go s.writeLoop()
	return s
}

// DefaultSweepInterval is how often abandoned rooms are collected
const DefaultSweepInterval = 5 * time.Minute

// SetNotifier installs the update sink. Call before serving traffic.
func (s *RoomService) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *RoomService) roomConfig() game.RoomConfig {
	return game.RoomConfig{
		TurnTimeout: s.cfg.TurnTimeout,
		BotDelay:    s.cfg.BotDelay,
		Clock:       s.clock,
		Logger:      s.logger,
		OnChange:    s.save,
		OnFault:     s.fault,
	}
}

// save queues the latest snapshot of a registered room for the writer.
// It runs on the room goroutine.
func (s *RoomService) save(code string, snapshot []byte) {
	s.mu.Lock()
	if _, ok := s.rooms[code]; !ok {
		s.mu.Unlock()
		return
	}
	s.pending[code] = snapshot
	s.lastActive[code] = s.clock.Now()
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *RoomService) writeLoop() {
	defer close(s.writerDone)
	for {
		select {
		case <-s.wake:
			s.Flush()
		case <-s.stop:
			s.Flush()
			return
		}
	}
}

// Flush writes every queued snapshot to the store
func (s *RoomService) Flush() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	batch := s.pending
	s.pending = make(map[string][]byte)
	s.mu.Unlock()

	for code, snapshot := range batch {
		if err := s.store.Save(context.Background(), code, snapshot); err != nil {
			s.logger.Error("Failed to save room", "code", code, "error", err)
		}
	}
}

func (s *RoomService) fault(code string, err error) {
	s.logger.Error("Room faulted", "code", code, "error", err)
	// Off the room goroutine: removal touches the store.
	go func() {
		if err := s.RemoveRoom(context.Background(), code); err != nil {
			s.logger.Error("Failed to remove faulted room", "code", code, "error", err)
		}
	}()
}

func (s *RoomService) onTimeout(code string) func(game.TimeoutReport) {
	return func(r game.TimeoutReport) {
		if s.notifier != nil {
			s.notifier.NotifyTimeout(code, r)
		}
	}
}

func (s *RoomService) nextRand() int64 {
	return randutil.Derive(s.cfg.Seed, int(s.created.Add(1)))
}

// reserveCode picks an unused room code and holds a registry slot for it
// until register or releaseCode.
func (s *RoomService) reserveCode() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rooms)+len(s.reserved) >= s.cfg.MaxRooms {
		return "", ErrRoomLimit
	}
	code := s.codes.Generate()
	for s.taken(code) {
		code = s.codes.Generate()
	}
	s.reserved[code] = struct{}{}
	return code, nil
}

func (s *RoomService) releaseCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reserved, code)
}

// taken reports whether code is live or reserved. Callers hold mu.
func (s *RoomService) taken(code string) bool {
	if _, ok := s.rooms[code]; ok {
		return true
	}
	_, ok := s.reserved[code]
	return ok
}

// register starts the timer for room and adds it to the registry. A room
// whose code was reserved takes over its reservation.
func (s *RoomService) register(ctx context.Context, r *game.Room, reserved bool) error {
	armErr := r.ArmTimer(ctx, s.onTimeout(r.Code()))

	s.mu.Lock()
	defer s.mu.Unlock()
	if reserved {
		delete(s.reserved, r.Code())
	}
	if armErr != nil {
		return armErr
	}
	if !reserved {
		if len(s.rooms)+len(s.reserved) >= s.cfg.MaxRooms {
			return ErrRoomLimit
		}
		if s.taken(r.Code()) {
			return errCodeExists
		}
	}
	s.rooms[r.Code()] = r
	s.lastActive[r.Code()] = s.clock.Now()
	return nil
}

// CreateRoom creates a room with the caller as host in seat 0. A zero
// score limit selects the service default.
func (s *RoomService) CreateRoom(ctx context.Context, hostName, password string, scoreLimit int) (*game.Room, string, game.Update, error) {
	if scoreLimit == 0 {
		scoreLimit = s.cfg.ScoreLimit
	}
	if scoreLimit != 0 && !game.ValidScoreLimit(scoreLimit) {
		return nil, "", game.Update{}, fmt.Errorf("%w: got %d", game.ErrInvalidScoreLimit, scoreLimit)
	}

	code, err := s.reserveCode()
	if err != nil {
		return nil, "", game.Update{}, err
	}

	m, err := game.NewMatch(game.MatchConfig{
		Code:       code,
		Password:   password,
		HostName:   hostName,
		ScoreLimit: scoreLimit,
		Rand:       randutil.New(s.nextRand()),
	})
	if err != nil {
		s.releaseCode(code)
		return nil, "", game.Update{}, err
	}
	token := m.Players[game.HostSeat].Token
	room := game.NewRoom(m, s.roomConfig())
	if err := s.register(ctx, room, true); err != nil {
		room.Close()
		return nil, "", game.Update{}, err
	}

	u, err := room.SetConnected(ctx, game.HostSeat, true)
	if err != nil {
		return nil, "", game.Update{}, err
	}
	s.logger.Info("Room created", "code", code, "host", hostName)
	return room, token, u, nil
}

// RemoveRoom stops a room, frees its slot and deletes its snapshot
func (s *RoomService) RemoveRoom(ctx context.Context, code string) error {
	code = gameid.Normalize(code)
	s.mu.Lock()
	r, ok := s.rooms[code]
	delete(s.rooms, code)
	delete(s.pending, code)
	delete(s.lastActive, code)
	s.mu.Unlock()
	if !ok {
		return game.ErrUnknownRoom
	}
	r.Close()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.store.Delete(ctx, code); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", code, err)
	}
	s.logger.Info("Room removed", "code", code)
	return nil
}

// Sweep removes rooms nobody is coming back to: games that are over and
// rooms idle past IdleTTL, in both cases only once no human is connected.
func (s *RoomService) Sweep(ctx context.Context) int {
	s.mu.RLock()
	candidates := make(map[string]*game.Room, len(s.rooms))
	seen := make(map[string]time.Time, len(s.rooms))
	for code, r := range s.rooms {
		candidates[code] = r
		seen[code] = s.lastActive[code]
	}
	s.mu.RUnlock()

	now := s.clock.Now()
	removed := 0
	for code, r := range candidates {
		info, err := r.Info(ctx)
		if err != nil {
			continue
		}
		players, err := r.Players(ctx)
		if err != nil {
			continue
		}
		if connectedHumans(players) > 0 {
			continue
		}
		if info.Phase != game.PhaseGameOver && now.Sub(seen[code]) < s.cfg.IdleTTL {
			continue
		}
		if !s.unchangedSince(code, seen[code]) {
			continue
		}
		if err := s.RemoveRoom(ctx, code); err != nil {
			s.logger.Warn("Failed to remove abandoned room", "code", code, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("Swept abandoned rooms", "count", removed)
	}
	return removed
}

// unchangedSince reports whether the room saw no transition after t
func (s *RoomService) unchangedSince(code string, t time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	last, ok := s.lastActive[code]
	return ok && last.Equal(t)
}

func connectedHumans(players []game.PlayerInfo) int {
	n := 0
	for _, p := range players {
		if p.Connected && !p.Bot {
			n++
		}
	}
	return n
}

// Run sweeps abandoned rooms every SweepInterval until ctx is done
func (s *RoomService) Run(ctx context.Context) error {
	err := s.startSweeper(ctx).Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *RoomService) startSweeper(ctx context.Context) quartz.Waiter {
	return s.clock.TickerFunc(ctx, s.cfg.SweepInterval, func() error {
		s.Sweep(ctx)
		return nil
	}, "rooms", "sweep")
}

// Room looks up a room by a typed code
func (s *RoomService) Room(code string) (*game.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[gameid.Normalize(code)]
	if !ok {
		return nil, game.ErrUnknownRoom
	}
	return r, nil
}

// JoinRoom seats a new player in an existing room
func (s *RoomService) JoinRoom(ctx context.Context, code, name, password string) (*game.Room, int, string, game.Update, error) {
	room, err := s.Room(code)
	if err != nil {
		return nil, -1, "", game.Update{}, err
	}
	seat, token, u, err := room.AddPlayer(ctx, name, password)
	if err != nil {
		return nil, -1, "", game.Update{}, err
	}
	return room, seat, token, u, nil
}

// Reconnect resolves a token issued by CreateRoom or JoinRoom
func (s *RoomService) Reconnect(ctx context.Context, code, token string) (*game.Room, int, game.Update, error) {
	room, err := s.Room(code)
	if err != nil {
		return nil, -1, game.Update{}, err
	}
	seat, u, err := room.Reconnect(ctx, token)
	if err != nil {
		return nil, -1, game.Update{}, err
	}
	return room, seat, u, nil
}

// ListRooms returns lobby summaries ordered by code
func (s *RoomService) ListRooms(ctx context.Context) ([]game.RoomInfo, error) {
	s.mu.RLock()
	rooms := make([]*game.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.mu.RUnlock()

	infos := make([]game.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		info, err := r.Info(ctx)
		if errors.Is(err, game.ErrRoomClosed) {
			continue
		}
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	slices.SortFunc(infos, func(a, b game.RoomInfo) int {
		switch {
		case a.Code < b.Code:
			return -1
		case a.Code > b.Code:
			return 1
		}
		return 0
	})
	return infos, nil
}

// Count returns the number of live rooms
func (s *RoomService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// RestoreRooms rebuilds every unexpired room found in the store. Human
// seats come back disconnected until their players reconnect.
func (s *RoomService) RestoreRooms(ctx context.Context) (int, error) {
	codes, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}
	restored := 0
	for _, code := range codes {
		data, err := s.store.Load(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return restored, err
		}
		m, err := game.Restore(data, randutil.New(s.nextRand()))
		if err != nil {
			s.logger.Warn("Discarding invalid snapshot", "code", code, "error", err)
			_ = s.store.Delete(ctx, code)
			continue
		}
		for seat := range m.Players {
			_ = m.SetConnected(seat, false)
		}
		room := game.NewRoom(m, s.roomConfig())
		if err := s.register(ctx, room, false); err != nil {
			room.Close()
			return restored, err
		}
		restored++
	}
	if restored > 0 {
		s.logger.Info("Restored rooms", "count", restored)
	}
	return restored, nil
}

// Close stops every room and waits for queued snapshots to be written
func (s *RoomService) Close() {
	s.mu.Lock()
	for code, r := range s.rooms {
		r.Close()
		delete(s.rooms, code)
		delete(s.lastActive, code)
	}
	s.mu.Unlock()

	s.stopOnce.Do(func() { close(s.stop) })
	<-s.writerDone
}
