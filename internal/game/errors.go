package game

import (
	"errors"
	"fmt"
)

// Error categories. Every rejection wraps exactly one of these so callers
// can map failures with errors.Is.
var (
	// ErrIllegalState marks an action submitted in the wrong phase or out of turn.
	ErrIllegalState = errors.New("illegal state")
	// ErrIllegalContent marks a malformed action (bad bid, index, discard set, suit).
	ErrIllegalContent = errors.New("illegal content")
	// ErrNotFound marks an unknown room or player.
	ErrNotFound = errors.New("not found")
)

var (
	ErrWrongPhase        = fmt.Errorf("%w: action not allowed in this phase", ErrIllegalState)
	ErrNotYourTurn       = fmt.Errorf("%w: not your turn", ErrIllegalState)
	ErrNotLeader         = fmt.Errorf("%w: only the contract leader may do that", ErrIllegalState)
	ErrNotHost           = fmt.Errorf("%w: only the host may do that", ErrIllegalState)
	ErrNotEnoughPlayers  = fmt.Errorf("%w: four seats must be filled", ErrIllegalState)
	ErrRoomFull          = fmt.Errorf("%w: room is full", ErrIllegalState)
	ErrTrickComplete     = fmt.Errorf("%w: trick must be resolved first", ErrIllegalState)
	ErrTrickIncomplete   = fmt.Errorf("%w: trick is not complete", ErrIllegalState)
	ErrRoundNotOver      = fmt.Errorf("%w: cards remain to be played", ErrIllegalState)
	ErrRoomHalted        = fmt.Errorf("%w: room halted after an internal fault", ErrIllegalState)
	ErrRoomClosed        = fmt.Errorf("%w: room is closed", ErrIllegalState)
	ErrInvalidBid        = fmt.Errorf("%w: invalid bid", ErrIllegalContent)
	ErrDiscardCount      = fmt.Errorf("%w: exactly 4 distinct cards must be discarded", ErrIllegalContent)
	ErrCardIndex         = fmt.Errorf("%w: card index out of range", ErrIllegalContent)
	ErrMustFollowSuit    = fmt.Errorf("%w: must follow the lead suit", ErrIllegalContent)
	ErrInvalidMode       = fmt.Errorf("%w: invalid mode", ErrIllegalContent)
	ErrInvalidSuit       = fmt.Errorf("%w: invalid trump suit", ErrIllegalContent)
	ErrInvalidAction     = fmt.Errorf("%w: unknown action", ErrIllegalContent)
	ErrInvalidName       = fmt.Errorf("%w: invalid player name", ErrIllegalContent)
	ErrInvalidScoreLimit = fmt.Errorf("%w: score limit must be a multiple of 5 and at least one deal", ErrIllegalContent)
	ErrNameTaken         = fmt.Errorf("%w: name already taken", ErrIllegalContent)
	ErrBadPassword       = fmt.Errorf("%w: wrong room password", ErrIllegalContent)
	ErrInvalidSeat       = fmt.Errorf("%w: no such seat", ErrNotFound)
	ErrUnknownPlayer     = fmt.Errorf("%w: unknown player", ErrNotFound)
	ErrUnknownRoom       = fmt.Errorf("%w: unknown room", ErrNotFound)
	ErrInvalidSnapshot   = errors.New("invalid snapshot")
)

// InvariantError reports an automated decision that failed the same
// legality checks a human action goes through. It is an engine bug.
type InvariantError struct {
	Seat   int
	Action Action
	Err    error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation: automated %s for seat %d rejected: %v", e.Action.Kind, e.Seat, e.Err)
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}
