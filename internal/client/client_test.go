package client

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/hokm/internal/display"
	"github.com/lox/hokm/internal/game"
	"github.com/lox/hokm/internal/server"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// syncBuffer is a bytes.Buffer safe for the dispatch goroutine and the test
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestServer(t *testing.T) string {
	t.Helper()
	svc := server.NewRoomService(server.ServiceConfig{
		TurnTimeout: 2 * time.Second,
		BotDelay:    time.Millisecond,
		Seed:        11,
	}, nil, quartz.NewReal(), testLogger())
	srv := server.NewServer(svc, testLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		ts.Close()
		svc.Close()
	})
	return ts.URL
}

func connect(t *testing.T, url string) *Client {
	t.Helper()
	c := NewClient(url, testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestWebsocketURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"http://localhost:8080", "ws://localhost:8080/ws"},
		{"https://hokm.example.com/", "wss://hokm.example.com/ws"},
		{"ws://127.0.0.1:9000/ws", "ws://127.0.0.1:9000/ws"},
	}
	for _, tt := range tests {
		got, err := websocketURL(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	_, err := websocketURL("ftp://localhost")
	assert.Error(t, err)
}

func TestActRejectsUnknownKind(t *testing.T) {
	t.Parallel()
	c := NewClient("http://localhost", testLogger())
	assert.ErrorIs(t, c.Act(game.Action{Kind: "shuffle"}), game.ErrInvalidAction)
}

func TestSendAfterClose(t *testing.T) {
	t.Parallel()
	c := NewClient("http://localhost", testLogger())
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Ready(), ErrNotConnected)
}

func TestPlayerPlaysGameAgainstBots(t *testing.T) {
	t.Parallel()
	url := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	out := &syncBuffer{}
	c := connect(t, url)
	p := NewPlayer(c, testLogger(), WithOutput(out, display.NewRenderer(display.PlainStyles())))
	require.NoError(t, c.CreateRoom("alice", "", 200))
	require.NoError(t, p.WaitJoined(ctx))

	code, seat, token := p.Seat()
	assert.NotEmpty(t, code)
	assert.Equal(t, game.HostSeat, seat)
	assert.NotEmpty(t, token)

	for _, name := range []string{"north", "east", "south"} {
		require.NoError(t, c.AddBot(name))
	}

	final, err := p.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseGameOver, final.Phase)
	assert.Contains(t, []int{0, 1}, final.Winner)
	assert.GreaterOrEqual(t, final.Totals[final.Winner], 200)
	assert.Contains(t, out.String(), "dealt")
}

func TestPlayersShareRoom(t *testing.T) {
	t.Parallel()
	url := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	host := connect(t, url)
	hostPlayer := NewPlayer(host, testLogger())
	require.NoError(t, host.CreateRoom("alice", "pw", 200))
	require.NoError(t, hostPlayer.WaitJoined(ctx))
	code, _, _ := hostPlayer.Seat()

	guest := connect(t, url)
	guestPlayer := NewPlayer(guest, testLogger())
	require.NoError(t, guest.JoinRoom(code, "bob", "pw"))
	require.NoError(t, guestPlayer.WaitJoined(ctx))
	_, seat, _ := guestPlayer.Seat()
	assert.Equal(t, 1, seat)

	require.NoError(t, host.AddBot("north"))
	require.NoError(t, host.AddBot("east"))

	a, err := hostPlayer.Wait(ctx)
	require.NoError(t, err)
	b, err := guestPlayer.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, a.Winner, b.Winner)
	assert.Equal(t, a.Totals, b.Totals)
}

func TestPlayerJoinFailure(t *testing.T) {
	t.Parallel()
	url := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := connect(t, url)
	p := NewPlayer(c, testLogger())
	require.NoError(t, c.JoinRoom("ZZZZZZ", "bob", ""))
	err := p.WaitJoined(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), server.ErrorCodeNotFound)
}
