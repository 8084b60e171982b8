// Package client connects to a hokm server over websockets. A Client moves
// messages; a Player seats itself and plays with the decision engine.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/hokm/internal/game"
	"github.com/lox/hokm/internal/server"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 54 * time.Second
)

// ErrNotConnected is returned when sending before Connect or after Close
var ErrNotConnected = errors.New("not connected")

// Handler receives messages of one type. Handlers run on the client's
// dispatch goroutine in arrival order.
type Handler func(*server.Message)

// Client represents a WebSocket client for the hokm server
type Client struct {
	serverURL string
	conn      *websocket.Conn
	send      chan *server.Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu       sync.RWMutex
	handlers map[server.MessageType][]Handler
}

// NewClient creates a client for serverURL. http, https, ws and wss
// schemes are accepted; the /ws path is added when missing.
func NewClient(serverURL string, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		serverURL: serverURL,
		send:      make(chan *server.Message, 256),
		logger:    logger.WithPrefix("client"),
		ctx:       ctx,
		cancel:    cancel,
		handlers:  make(map[server.MessageType][]Handler),
	}
}

func websocketURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid server URL scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u.String(), nil
}

// Connect dials the server and starts the pumps
func (c *Client) Connect(ctx context.Context) error {
	wsURL, err := websocketURL(c.serverURL)
	if err != nil {
		return err
	}
	c.logger.Info("Connecting to server", "url", wsURL)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	c.conn = conn

	go c.readPump()
	go c.writePump()

	c.logger.Debug("Connected to server")
	return nil
}

// Close closes the connection. It is safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if c.conn != nil {
			err = c.conn.Close()
		}
		c.logger.Debug("Disconnected from server")
	})
	return err
}

// Done is closed once the connection ends
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// On registers a handler for a message type
func (c *Client) On(t server.MessageType, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[t] = append(c.handlers[t], h)
}

// Send queues a message for the server
func (c *Client) Send(t server.MessageType, data any) error {
	msg, err := server.NewMessage(t, data)
	if err != nil {
		return err
	}
	select {
	case <-c.ctx.Done():
		return ErrNotConnected
	default:
	}
	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return ErrNotConnected
	default:
		return fmt.Errorf("send buffer full")
	}
}

func (c *Client) readPump() {
	defer func() { _ = c.Close() }()

	for {
		var msg server.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("WebSocket error", "error", err)
			}
			return
		}
		c.logger.Debug("Received message", "type", msg.Type)
		c.dispatch(&msg)
	}
}

func (c *Client) dispatch(msg *server.Message) {
	c.mu.RLock()
	handlers := c.handlers[msg.Type]
	c.mu.RUnlock()

	if len(handlers) == 0 {
		c.logger.Debug("No handler for message type", "type", msg.Type)
		return
	}
	for _, h := range handlers {
		h(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// CreateRoom asks the server for a new room hosted by hostName
func (c *Client) CreateRoom(hostName, password string, scoreLimit int) error {
	return c.Send(server.MessageTypeCreateRoom, server.CreateRoomData{HostName: hostName, Password: password, ScoreLimit: scoreLimit})
}

// JoinRoom takes the next free seat in a room
func (c *Client) JoinRoom(code, name, password string) error {
	return c.Send(server.MessageTypeJoinRoom, server.JoinRoomData{Code: code, Name: name, Password: password})
}

// Reconnect resumes a seat with the token from room_joined
func (c *Client) Reconnect(code, token string) error {
	return c.Send(server.MessageTypeReconnect, server.ReconnectData{Code: code, Token: token})
}

// AddBot fills the next seat with a server-side bot. Host only.
func (c *Client) AddBot(name string) error {
	return c.Send(server.MessageTypeAddBot, server.AddBotData{Name: name})
}

// Ready marks this seat ready for the next match
func (c *Client) Ready() error {
	return c.Send(server.MessageTypeReady, nil)
}

// ListRooms requests the lobby
func (c *Client) ListRooms() error {
	return c.Send(server.MessageTypeListRooms, nil)
}

// Act sends a seat decision
func (c *Client) Act(a game.Action) error {
	switch a.Kind {
	case game.ActionPropose:
		return c.Send(server.MessageTypePropose, server.ProposeData{Value: a.Value})
	case game.ActionPass:
		return c.Send(server.MessageTypePass, nil)
	case game.ActionExchange:
		return c.Send(server.MessageTypeExchange, server.ExchangeData{Indices: a.Indices})
	case game.ActionSelectMode:
		return c.Send(server.MessageTypeSelectMode, server.SelectModeData{Mode: a.Mode, Suit: a.Suit})
	case game.ActionPlayCard:
		return c.Send(server.MessageTypePlayCard, server.PlayCardData{Index: a.Index})
	}
	return game.ErrInvalidAction
}
