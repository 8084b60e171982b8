package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/lox/hokm/internal/deck"
	"github.com/lox/hokm/internal/game"
)

// Message is the envelope for every websocket frame
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a message stamped with the current time
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server

type CreateRoomData struct {
	HostName   string `json:"hostName"`
	Password   string `json:"password,omitempty"`
	ScoreLimit int    `json:"scoreLimit,omitempty"`
}

type JoinRoomData struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}

type ReconnectData struct {
	Code  string `json:"code"`
	Token string `json:"token"`
}

type AddBotData struct {
	Name string `json:"name"`
}

type ProposeData struct {
	Value int `json:"value"`
}

type ExchangeData struct {
	Indices []int `json:"indices"`
}

type SelectModeData struct {
	Mode deck.Mode  `json:"mode"`
	Suit *deck.Suit `json:"suit,omitempty"`
}

type PlayCardData struct {
	Index int `json:"index"`
}

// Server → Client

type RoomJoinedData struct {
	Code  string `json:"code"`
	Seat  int    `json:"seat"`
	Token string `json:"token"`
}

type StateData struct {
	View game.SeatView `json:"view"`
}

type EventsData struct {
	Code   string       `json:"code"`
	Events []game.Event `json:"events"`
}

type TimeoutData struct {
	Seat   int         `json:"seat"`
	Bot    bool        `json:"bot,omitempty"`
	Action game.Action `json:"action"`
}

type RoomListData struct {
	Rooms []game.RoomInfo `json:"rooms"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrorCodeIllegalState   = "illegal_state"
	ErrorCodeIllegalContent = "illegal_content"
	ErrorCodeNotFound       = "not_found"
	ErrorCodeInvalidMessage = "invalid_message"
	ErrorCodeInternal       = "internal"
)

// ErrorCode maps an engine error onto its wire code
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrIllegalState):
		return ErrorCodeIllegalState
	case errors.Is(err, game.ErrIllegalContent):
		return ErrorCodeIllegalContent
	case errors.Is(err, game.ErrNotFound):
		return ErrorCodeNotFound
	default:
		return ErrorCodeInternal
	}
}
