package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/hokm/internal/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Upper bound on a single room operation
	requestTimeout = 5 * time.Second
)

var ErrConnectionClosed = errors.New("connection closed")

// Connection is one websocket client. A connection occupies at most one
// seat in one room.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	server    *Server

	mu   sync.RWMutex
	room *game.Room
	seat int
}

// NewConnection wraps an upgraded websocket
func NewConnection(conn *websocket.Conn, logger *log.Logger, server *Server) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:   conn,
		send:   make(chan *Message, 256),
		logger: logger.WithPrefix("conn"),
		ctx:    ctx,
		cancel: cancel,
		server: server,
		seat:   -1,
	}
}

// Start begins the read and write pumps
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues msg for the write pump. A full buffer closes the
// connection rather than blocking the sender.
func (c *Connection) SendMessage(msg *Message) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

func (c *Connection) setSeat(room *game.Room, seat int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = room
	c.seat = seat
}

// Seat returns the room and seat this connection occupies
func (c *Connection) Seat() (*game.Room, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.room, c.seat
}

// RoomCode returns the code of the joined room, or ""
func (c *Connection) RoomCode() string {
	room, _ := c.Seat()
	if room == nil {
		return ""
	}
	return room.Code()
}

func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("WebSocket error", "error", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Debug("Failed to write message", "error", err)
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

func decode[T any](msg *Message) (T, error) {
	var data T
	if len(msg.Data) == 0 {
		return data, nil
	}
	err := json.Unmarshal(msg.Data, &data)
	return data, err
}

func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type)

	ctx, cancel := context.WithTimeout(c.ctx, requestTimeout)
	defer cancel()

	var err error
	switch msg.Type {
	case MessageTypeCreateRoom:
		err = handle(c, msg, func(d CreateRoomData) error { return c.handleCreateRoom(ctx, d) })
	case MessageTypeJoinRoom:
		err = handle(c, msg, func(d JoinRoomData) error { return c.handleJoinRoom(ctx, d) })
	case MessageTypeReconnect:
		err = handle(c, msg, func(d ReconnectData) error { return c.handleReconnect(ctx, d) })
	case MessageTypeListRooms:
		err = c.handleListRooms(ctx)
	case MessageTypeReady:
		err = c.inRoom(func(r *game.Room, seat int) (game.Update, error) {
			return r.SetReady(ctx, seat, true)
		})
	case MessageTypeAddBot:
		err = handle(c, msg, func(d AddBotData) error {
			return c.inRoom(func(r *game.Room, seat int) (game.Update, error) {
				if seat != game.HostSeat {
					return game.Update{}, game.ErrNotHost
				}
				_, u, err := r.AddBot(ctx, d.Name)
				return u, err
			})
		})
	case MessageTypePropose:
		err = handle(c, msg, func(d ProposeData) error {
			return c.act(ctx, game.Action{Kind: game.ActionPropose, Value: d.Value})
		})
	case MessageTypePass:
		err = c.act(ctx, game.Action{Kind: game.ActionPass})
	case MessageTypeExchange:
		err = handle(c, msg, func(d ExchangeData) error {
			return c.act(ctx, game.Action{Kind: game.ActionExchange, Indices: d.Indices})
		})
	case MessageTypeSelectMode:
		err = handle(c, msg, func(d SelectModeData) error {
			return c.act(ctx, game.Action{Kind: game.ActionSelectMode, Mode: d.Mode, Suit: d.Suit})
		})
	case MessageTypePlayCard:
		err = handle(c, msg, func(d PlayCardData) error {
			return c.act(ctx, game.Action{Kind: game.ActionPlayCard, Index: d.Index})
		})
	case MessageTypeReset:
		err = c.inRoom(func(r *game.Room, seat int) (game.Update, error) {
			return r.Reset(ctx, seat)
		})
	default:
		c.sendError(ErrorCodeInvalidMessage, "unknown message type: "+msg.Type.String(), msg.RequestID)
		return
	}

	if err != nil {
		c.logger.Debug("Request rejected", "type", msg.Type, "error", err)
		c.sendError(ErrorCode(err), err.Error(), msg.RequestID)
	}
}

func handle[T any](c *Connection, msg *Message, fn func(T) error) error {
	data, err := decode[T](msg)
	if err != nil {
		c.sendError(ErrorCodeInvalidMessage, "failed to parse "+msg.Type.String()+" data", msg.RequestID)
		return nil
	}
	return fn(data)
}

func (c *Connection) sendError(code, message, requestID string) {
	msg, err := NewMessage(MessageTypeError, ErrorData{Code: code, Message: message})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}
	msg.RequestID = requestID
	_ = c.SendMessage(msg)
}

func (c *Connection) sendJSON(t MessageType, data any) {
	msg, err := NewMessage(t, data)
	if err != nil {
		c.logger.Error("Failed to create message", "type", t, "error", err)
		return
	}
	_ = c.SendMessage(msg)
}

// joined records the seat, confirms it to the client and fans the update
// out to the room.
func (c *Connection) joined(room *game.Room, seat int, token string, u game.Update) {
	c.setSeat(room, seat)
	c.logger.Info("Player seated", "code", room.Code(), "seat", seat)
	c.sendJSON(MessageTypeRoomJoined, RoomJoinedData{Code: room.Code(), Seat: seat, Token: token})
	c.server.Notify(room.Code(), u)
}

func (c *Connection) handleCreateRoom(ctx context.Context, d CreateRoomData) error {
	if room, _ := c.Seat(); room != nil {
		return ErrInRoom
	}
	room, token, u, err := c.server.rooms.CreateRoom(ctx, d.HostName, d.Password, d.ScoreLimit)
	if err != nil {
		return err
	}
	c.joined(room, game.HostSeat, token, u)
	return nil
}

func (c *Connection) handleJoinRoom(ctx context.Context, d JoinRoomData) error {
	if room, _ := c.Seat(); room != nil {
		return ErrInRoom
	}
	room, seat, token, u, err := c.server.rooms.JoinRoom(ctx, d.Code, d.Name, d.Password)
	if err != nil {
		return err
	}
	c.joined(room, seat, token, u)
	return nil
}

func (c *Connection) handleReconnect(ctx context.Context, d ReconnectData) error {
	if room, _ := c.Seat(); room != nil {
		return ErrInRoom
	}
	room, seat, u, err := c.server.rooms.Reconnect(ctx, d.Code, d.Token)
	if err != nil {
		return err
	}
	c.joined(room, seat, d.Token, u)
	return nil
}

func (c *Connection) handleListRooms(ctx context.Context) error {
	rooms, err := c.server.rooms.ListRooms(ctx)
	if err != nil {
		return err
	}
	c.sendJSON(MessageTypeRoomList, RoomListData{Rooms: rooms})
	return nil
}

func (c *Connection) inRoom(fn func(r *game.Room, seat int) (game.Update, error)) error {
	room, seat := c.Seat()
	if room == nil {
		return ErrNotInRoom
	}
	u, err := fn(room, seat)
	if err != nil {
		return err
	}
	c.server.Notify(room.Code(), u)
	return nil
}

func (c *Connection) act(ctx context.Context, a game.Action) error {
	return c.inRoom(func(r *game.Room, seat int) (game.Update, error) {
		return r.Act(ctx, seat, a)
	})
}
