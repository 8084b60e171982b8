package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/hokm/internal/game"
)

type testServer struct {
	*Server
	url string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	svc := newTestService(t, nil, quartz.NewMock(t), ServiceConfig{})
	srv := NewServer(svc, testLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		ts.Close()
	})
	return &testServer{Server: srv, url: "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"}
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(ts.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, mt MessageType, data any) {
	t.Helper()
	msg, err := NewMessage(mt, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(msg))
}

// expect reads until a message of type mt arrives and decodes its data
func expect[T any](t *testing.T, conn *websocket.Conn, mt MessageType) T {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type != mt {
			continue
		}
		var data T
		require.NoError(t, json.Unmarshal(msg.Data, &data))
		return data
	}
}

// expectState reads views until one satisfies ok
func expectState(t *testing.T, conn *websocket.Conn, ok func(game.SeatView) bool) game.SeatView {
	t.Helper()
	for {
		d := expect[StateData](t, conn, MessageTypeState)
		if ok(d.View) {
			return d.View
		}
	}
}

func TestServerHealth(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, nil, quartz.NewMock(t), ServiceConfig{})
	srv := NewServer(svc, testLogger())

	w := httptest.NewRecorder()
	srv.handleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestServerRoomsEndpoint(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, nil, quartz.NewMock(t), ServiceConfig{})
	srv := NewServer(svc, testLogger())
	room, _, _, err := svc.CreateRoom(testContext(t), "alice", "pw", 0)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	srv.handleRooms(w, httptest.NewRequest(http.MethodGet, "/rooms", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var list RoomListData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, room.Code(), list.Rooms[0].Code)
	assert.True(t, list.Rooms[0].HasPassword)
}

func TestServerCreateJoinAndDisconnect(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	host := ts.dial(t)
	send(t, host, MessageTypeCreateRoom, CreateRoomData{HostName: "alice"})
	joined := expect[RoomJoinedData](t, host, MessageTypeRoomJoined)
	assert.Equal(t, game.HostSeat, joined.Seat)
	assert.NotEmpty(t, joined.Token)
	view := expect[StateData](t, host, MessageTypeState).View
	assert.Equal(t, joined.Code, view.Code)
	assert.Equal(t, game.PhaseWait, view.Phase)

	guest := ts.dial(t)
	send(t, guest, MessageTypeJoinRoom, JoinRoomData{Code: strings.ToLower(joined.Code), Name: "bob"})
	guestJoined := expect[RoomJoinedData](t, guest, MessageTypeRoomJoined)
	assert.Equal(t, 1, guestJoined.Seat)

	view = expectState(t, host, func(v game.SeatView) bool { return len(v.Players) == 2 })
	assert.Equal(t, "bob", view.Players[1].Name)
	assert.Equal(t, 1, view.Players[1].Team)

	require.NoError(t, guest.Close())
	view = expectState(t, host, func(v game.SeatView) bool {
		return len(v.Players) == 2 && !v.Players[1].Connected
	})
	assert.True(t, view.Players[0].Connected)

	again := ts.dial(t)
	send(t, again, MessageTypeReconnect, ReconnectData{Code: joined.Code, Token: guestJoined.Token})
	rejoined := expect[RoomJoinedData](t, again, MessageTypeRoomJoined)
	assert.Equal(t, 1, rejoined.Seat)
	expectState(t, host, func(v game.SeatView) bool { return v.Players[1].Connected })
}

func TestServerStartsMatchWithBots(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	host := ts.dial(t)
	send(t, host, MessageTypeCreateRoom, CreateRoomData{HostName: "alice"})
	expect[RoomJoinedData](t, host, MessageTypeRoomJoined)

	for _, name := range []string{"north", "east", "south"} {
		send(t, host, MessageTypeAddBot, AddBotData{Name: name})
	}
	expectState(t, host, func(v game.SeatView) bool { return len(v.Players) == game.SeatCount })

	send(t, host, MessageTypeReady, nil)
	events := expect[EventsData](t, host, MessageTypeEvents)
	assert.True(t, game.HasEvent(events.Events, game.EventMatchStarted))

	view := expectState(t, host, func(v game.SeatView) bool { return v.Phase == game.PhasePropose })
	assert.Len(t, view.Hand, game.HandSize)
	assert.Empty(t, view.Center, "the center stays hidden during bidding")
	assert.Equal(t, game.CenterSize, view.CenterCount)
	for seat := 1; seat < game.SeatCount; seat++ {
		assert.Equal(t, game.HandSize, view.HandCounts[seat])
	}
}

func TestServerRejectsRequests(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	conn := ts.dial(t)

	send(t, conn, MessageTypePass, nil)
	e := expect[ErrorData](t, conn, MessageTypeError)
	assert.Equal(t, ErrorCodeIllegalState, e.Code, "not seated yet")

	send(t, conn, MessageTypeJoinRoom, JoinRoomData{Code: "ZZZZZZ", Name: "bob"})
	e = expect[ErrorData](t, conn, MessageTypeError)
	assert.Equal(t, ErrorCodeNotFound, e.Code)

	send(t, conn, MessageType("shuffle"), nil)
	e = expect[ErrorData](t, conn, MessageTypeError)
	assert.Equal(t, ErrorCodeInvalidMessage, e.Code)

	require.NoError(t, conn.WriteJSON(&Message{Type: MessageTypePropose, Data: json.RawMessage(`"lots"`)}))
	e = expect[ErrorData](t, conn, MessageTypeError)
	assert.Equal(t, ErrorCodeInvalidMessage, e.Code)

	send(t, conn, MessageTypeCreateRoom, CreateRoomData{HostName: "alice"})
	joined := expect[RoomJoinedData](t, conn, MessageTypeRoomJoined)

	send(t, conn, MessageTypeCreateRoom, CreateRoomData{HostName: "alice"})
	e = expect[ErrorData](t, conn, MessageTypeError)
	assert.Equal(t, ErrorCodeIllegalState, e.Code, "already seated")

	send(t, conn, MessageTypePropose, ProposeData{Value: 120})
	e = expect[ErrorData](t, conn, MessageTypeError)
	assert.Equal(t, ErrorCodeIllegalState, e.Code, "no match in progress")

	guest := ts.dial(t)
	send(t, guest, MessageTypeJoinRoom, JoinRoomData{Code: joined.Code, Name: "ALICE"})
	e = expect[ErrorData](t, guest, MessageTypeError)
	assert.Equal(t, ErrorCodeIllegalContent, e.Code, "names are unique ignoring case")

	send(t, guest, MessageTypeJoinRoom, JoinRoomData{Code: joined.Code, Name: "bob"})
	expect[RoomJoinedData](t, guest, MessageTypeRoomJoined)
	send(t, guest, MessageTypeAddBot, AddBotData{Name: "robot"})
	e = expect[ErrorData](t, guest, MessageTypeError)
	assert.Equal(t, ErrorCodeIllegalState, e.Code, "only the host adds bots")
}

func TestServerListRooms(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	host := ts.dial(t)
	send(t, host, MessageTypeCreateRoom, CreateRoomData{HostName: "alice"})
	joined := expect[RoomJoinedData](t, host, MessageTypeRoomJoined)

	other := ts.dial(t)
	send(t, other, MessageTypeListRooms, nil)
	list := expect[RoomListData](t, other, MessageTypeRoomList)
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, joined.Code, list.Rooms[0].Code)
	assert.Equal(t, "alice", list.Rooms[0].Host)
}

func TestServerServeAndShutdown(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, nil, quartz.NewMock(t), ServiceConfig{})
	srv := NewServer(svc, testLogger())

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(l) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + l.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, srv.Shutdown(testContext(t)))
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}
