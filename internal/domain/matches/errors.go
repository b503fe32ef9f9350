package matches

import (
	"errors"
	"fmt"
)

var ErrMatchNotFound = errors.New("match not found")
var ErrNotParty = errors.New("user is not a party to this match")
var ErrHostOnly = errors.New("only the host may perform this action")
var ErrRequesterOnly = errors.New("only the requester may perform this action")
var ErrSelfMatch = errors.New("host cannot request their own experience")
var ErrBlocked = errors.New("a block exists between the two users")
var ErrDuplicateMatch = errors.New("an open match already exists for this experience")
var ErrAlreadyConfirmed = errors.New("completion already confirmed by this party")
var ErrChatClosed = errors.New("messages are closed for this match")

// InvalidTransitionError is returned when an action is attempted from a
// status that does not permit it.
type InvalidTransitionError struct {
	Action string
	From   Status
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a match in status %q", e.Action, e.From)
}

// CapacityError carries the number of spots still open so the caller
// can offer a reduced participant count.
type CapacityError struct {
	AvailableSpots int
}

func (e CapacityError) Error() string {
	return fmt.Sprintf("capacity exceeded, %d spots available", e.AvailableSpots)
}
