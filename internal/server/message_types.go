package server

// MessageType names a websocket message
type MessageType string

const (
	// Client to server messages
	MessageTypeCreateRoom MessageType = "create_room"
	MessageTypeJoinRoom   MessageType = "join_room"
	MessageTypeReconnect  MessageType = "reconnect"
	MessageTypeListRooms  MessageType = "list_rooms"
	MessageTypeReady      MessageType = "ready"
	MessageTypeAddBot     MessageType = "add_bot"
	MessageTypePropose    MessageType = "propose"
	MessageTypePass       MessageType = "pass"
	MessageTypeExchange   MessageType = "exchange"
	MessageTypeSelectMode MessageType = "select_mode"
	MessageTypePlayCard   MessageType = "play_card"
	MessageTypeReset      MessageType = "reset"

	// Server to client messages
	MessageTypeRoomJoined MessageType = "room_joined"
	MessageTypeState      MessageType = "state"
	MessageTypeEvents     MessageType = "events"
	MessageTypeTimeout    MessageType = "timeout"
	MessageTypeRoomList   MessageType = "room_list"
	MessageTypeError      MessageType = "error"
)

// String returns the wire name
func (mt MessageType) String() string {
	return string(mt)
}
