package game

import (
	"strings"

	"github.com/google/uuid"
)

// SeatCount is the number of seats at a table
const SeatCount = 4

// HostSeat is the seat created with the room
const HostSeat = 0

// Player occupies one seat. Token identifies the player on reconnection
// and is never included in views.
type Player struct {
	Name      string `json:"name"`
	Token     string `json:"token"`
	Connected bool   `json:"connected"`
	Ready     bool   `json:"ready"`
	Bot       bool   `json:"bot,omitempty"`
}

// PlayerInfo is the public part of a Player
type PlayerInfo struct {
	Seat      int    `json:"seat"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	Ready     bool   `json:"ready"`
	Bot       bool   `json:"bot,omitempty"`
	Team      int    `json:"team"`
}

// TeamOf returns the team index (0 or 1) of a seat
func TeamOf(seat int) int {
	return seat % 2
}

// Partner returns the teammate seat
func Partner(seat int) int {
	return (seat + 2) % SeatCount
}

// maxNameLength bounds display names
const maxNameLength = 32

func (m *Match) seatPlayer(name string, bot bool) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return -1, ErrInvalidName
	}
	if len(m.Players) >= SeatCount {
		return -1, ErrRoomFull
	}
	if m.Phase != PhaseWait {
		return -1, ErrWrongPhase
	}
	for _, p := range m.Players {
		if strings.EqualFold(p.Name, name) {
			return -1, ErrNameTaken
		}
	}
	m.Players = append(m.Players, Player{
		Name:      name,
		Token:     uuid.NewString(),
		Connected: !bot,
		Ready:     bot,
		Bot:       bot,
	})
	return len(m.Players) - 1, nil
}

// AddPlayer seats a human player in the next free seat.
func (m *Match) AddPlayer(name string) (int, error) {
	return m.seatPlayer(name, false)
}

// AddBot seats an automated player. Bots are always ready.
func (m *Match) AddBot(name string) (int, error) {
	seat, err := m.seatPlayer(name, true)
	if err != nil {
		return -1, err
	}
	m.Players[seat].Connected = true
	return seat, nil
}

// ReconnectPlayer marks the player holding token as connected again.
func (m *Match) ReconnectPlayer(token string) (int, error) {
	for i := range m.Players {
		if token != "" && m.Players[i].Token == token {
			m.Players[i].Connected = true
			return i, nil
		}
	}
	return -1, ErrUnknownPlayer
}

// SetConnected records a transport connect or disconnect for seat
func (m *Match) SetConnected(seat int, connected bool) error {
	if seat < 0 || seat >= len(m.Players) {
		return ErrInvalidSeat
	}
	if m.Players[seat].Bot {
		return nil
	}
	m.Players[seat].Connected = connected
	return nil
}

// SetReady marks seat as ready for the next match
func (m *Match) SetReady(seat int, ready bool) error {
	if seat < 0 || seat >= len(m.Players) {
		return ErrInvalidSeat
	}
	if m.Phase != PhaseWait && m.Phase != PhaseFinished {
		return ErrWrongPhase
	}
	m.Players[seat].Ready = ready || m.Players[seat].Bot
	return nil
}

// AllReady reports whether four seats are filled and every one is ready
func (m *Match) AllReady() bool {
	if len(m.Players) < SeatCount {
		return false
	}
	for _, p := range m.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// clearReady resets ready flags; bots stay ready.
func (m *Match) clearReady() {
	for i := range m.Players {
		m.Players[i].Ready = m.Players[i].Bot
	}
}

// PlayerList returns the public seat list
func (m *Match) PlayerList() []PlayerInfo {
	out := make([]PlayerInfo, len(m.Players))
	for i, p := range m.Players {
		out[i] = PlayerInfo{
			Seat:      i,
			Name:      p.Name,
			Connected: p.Connected,
			Ready:     p.Ready,
			Bot:       p.Bot,
			Team:      TeamOf(i),
		}
	}
	return out
}
