// Package server exposes rooms over websockets. A Server owns the
// connections, a RoomService owns the rooms, and every update a room
// produces is fanned out as per-seat views.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/hokm/internal/game"
)

// Server accepts websocket connections and routes them to rooms
type Server struct {
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	rooms       *RoomService
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	httpServer  *http.Server
	runOnce     sync.Once
}

// NewServer creates a server routing to rooms and registers itself as the
// service's notifier.
func NewServer(rooms *RoomService, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		rooms:       rooms,
		ctx:         ctx,
		cancel:      cancel,
	}
	rooms.SetNotifier(s)
	return s
}

// Handler returns the HTTP routes: /ws, /health and /rooms
func (s *Server) Handler() http.Handler {
	s.runOnce.Do(func() { go s.run() })
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/rooms", s.handleRooms)
	return mux
}

// Serve accepts connections on l until Shutdown
func (s *Server) Serve(l net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return l.Close()
	}
	s.httpServer = httpServer
	s.mu.Unlock()

	s.logger.Info("Starting WebSocket server", "addr", l.Addr().String())
	if err := httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and closes every open one
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.cancel()
	httpServer := s.httpServer
	s.mu.Unlock()

	var err error
	if httpServer != nil {
		err = httpServer.Shutdown(ctx)
	}
	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()
	return err
}

func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			delete(s.connections, conn)
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client disconnected", "total", total)
			go s.disconnect(conn)

		case <-s.ctx.Done():
			return
		}
	}
}

// disconnect marks the seat as disconnected unless another connection
// has taken it over.
func (s *Server) disconnect(conn *Connection) {
	room, seat := conn.Seat()
	if room == nil || s.seatTaken(room.Code(), seat) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	u, err := room.SetConnected(ctx, seat, false)
	if err != nil {
		s.logger.Debug("Failed to mark seat disconnected", "code", room.Code(), "seat", seat, "error", err)
		return
	}
	s.Notify(room.Code(), u)
}

func (s *Server) seatTaken(code string, seat int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.connections {
		if room, st := conn.Seat(); room != nil && room.Code() == code && st == seat {
			return true
		}
	}
	return false
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s)
	select {
	case s.register <- client:
	case <-s.ctx.Done():
		_ = conn.Close()
		return
	}
	client.Start()

	go func() {
		<-client.ctx.Done()
		select {
		case s.unregister <- client:
		case <-s.ctx.Done():
		}
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.rooms.ListRooms(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(RoomListData{Rooms: rooms})
}

// Notify sends the events of u to everyone in the room and each seat its
// own view.
func (s *Server) Notify(code string, u game.Update) {
	var events *Message
	if len(u.Events) > 0 {
		var err error
		if events, err = NewMessage(MessageTypeEvents, EventsData{Code: code, Events: u.Events}); err != nil {
			s.logger.Error("Failed to encode events", "error", err)
			return
		}
	}
	views := make([]*Message, len(u.Views))
	for seat, v := range u.Views {
		msg, err := NewMessage(MessageTypeState, StateData{View: v})
		if err != nil {
			s.logger.Error("Failed to encode view", "error", err)
			return
		}
		views[seat] = msg
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.connections {
		room, seat := conn.Seat()
		if room == nil || room.Code() != code {
			continue
		}
		if events != nil {
			_ = conn.SendMessage(events)
		}
		if seat >= 0 && seat < len(views) {
			_ = conn.SendMessage(views[seat])
		}
	}
}

// NotifyTimeout announces a decision taken on a seat's behalf and then
// delivers the resulting update.
func (s *Server) NotifyTimeout(code string, r game.TimeoutReport) {
	if !r.Bot {
		msg, err := NewMessage(MessageTypeTimeout, TimeoutData{Seat: r.Seat, Bot: r.Bot, Action: r.Action})
		if err == nil {
			s.broadcast(code, msg)
		}
	}
	s.Notify(code, r.Update)
}

func (s *Server) broadcast(code string, msg *Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.connections {
		if conn.RoomCode() == code {
			_ = conn.SendMessage(msg)
		}
	}
}

// ConnectionCount returns the number of open connections
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}
