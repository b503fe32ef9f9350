package users

import (
	"errors"

	"github.com/google/uuid"
)

var ErrUserNotFound = errors.New("user not found")

// Profile is the read model the engine needs about a user: enough to
// render ledger descriptions and notifications.
type Profile struct {
	Id          uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Currency    string    `json:"currency"`
}
