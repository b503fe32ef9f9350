package matches

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Terminal reports whether no further transitions are possible, short
// of reactivation through a fresh request.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Match is one traveler's request to join one experience occurrence.
// The host id is denormalized from the experience at creation time.
type Match struct {
	Id                 uuid.UUID        `json:"match_id"`
	ExperienceId       uuid.UUID        `json:"experience_id"`
	RequesterId        uuid.UUID        `json:"requester_id"`
	HostId             uuid.UUID        `json:"host_id"`
	Status             Status           `json:"status"`
	HostConfirmed      bool             `json:"host_confirmed"`
	RequesterConfirmed bool             `json:"requester_confirmed"`
	Participants       int              `json:"participants"`
	ParticipantNames   []string         `json:"participant_names,omitempty"`
	TotalPrice         *decimal.Decimal `json:"total_price,omitempty"`
	StartDate          *time.Time       `json:"start_date,omitempty"`
	EndDate            *time.Time       `json:"end_date,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

func (m *Match) IsParty(userID uuid.UUID) bool {
	return m.RequesterId == userID || m.HostId == userID
}

// Counterpart returns the other party of the match.
func (m *Match) Counterpart(userID uuid.UUID) uuid.UUID {
	if m.RequesterId == userID {
		return m.HostId
	}
	return m.RequesterId
}

// Message is a chat line attached to a match.
type Message struct {
	Id        uuid.UUID `json:"message_id"`
	MatchId   uuid.UUID `json:"match_id"`
	SenderId  uuid.UUID `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Cancellation is the immutable record written when an accepted or
// pending match is cancelled.
type Cancellation struct {
	Id              uuid.UUID       `json:"cancellation_id"`
	MatchId         uuid.UUID       `json:"match_id"`
	CancelledBy     uuid.UUID       `json:"cancelled_by"`
	Policy          string          `json:"policy"`
	OriginalAmount  decimal.Decimal `json:"original_amount"`
	RefundAmount    decimal.Decimal `json:"refund_amount"`
	PenaltyAmount   decimal.Decimal `json:"penalty_amount"`
	HoursUntilStart float64         `json:"hours_until_start"`
	CreatedAt       time.Time       `json:"created_at"`
}
