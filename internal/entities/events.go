package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventHeader struct {
	Id             string    `json:"id"`
	PublishedAt    time.Time `json:"published_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func NewEventHeader() EventHeader {
	return EventHeader{
		Id:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: uuid.NewString(),
	}
}

func NewEventHeaderWithIdempotencyKey(idempotencyKey string) EventHeader {
	return EventHeader{
		Id:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: idempotencyKey,
	}
}

type MatchRequested_v1 struct {
	Header       EventHeader `json:"header"`
	MatchID      uuid.UUID   `json:"match_id"`
	ExperienceID uuid.UUID   `json:"experience_id"`
	RequesterID  uuid.UUID   `json:"requester_id"`
	HostID       uuid.UUID   `json:"host_id"`
	Participants int         `json:"participants"`
	Reactivated  bool        `json:"reactivated"`
}

type MatchAccepted_v1 struct {
	Header       EventHeader `json:"header"`
	MatchID      uuid.UUID   `json:"match_id"`
	ExperienceID uuid.UUID   `json:"experience_id"`
	RequesterID  uuid.UUID   `json:"requester_id"`
	HostID       uuid.UUID   `json:"host_id"`
}

type MatchRejected_v1 struct {
	Header      EventHeader `json:"header"`
	MatchID     uuid.UUID   `json:"match_id"`
	RequesterID uuid.UUID   `json:"requester_id"`
	HostID      uuid.UUID   `json:"host_id"`
}

type MatchCancelled_v1 struct {
	Header      EventHeader `json:"header"`
	MatchID     uuid.UUID   `json:"match_id"`
	CancelledBy uuid.UUID   `json:"cancelled_by"`
	Counterpart uuid.UUID   `json:"counterpart_id"`
}

type MatchCompleted_v1 struct {
	Header      EventHeader `json:"header"`
	MatchID     uuid.UUID   `json:"match_id"`
	RequesterID uuid.UUID   `json:"requester_id"`
	HostID      uuid.UUID   `json:"host_id"`
}

type PlatformFeeCharged_v1 struct {
	Header           EventHeader     `json:"header"`
	MatchID          uuid.UUID       `json:"match_id"`
	UserID           uuid.UUID       `json:"user_id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

type TopUpConfirmed_v1 struct {
	Header            EventHeader     `json:"header"`
	UserID            uuid.UUID       `json:"user_id"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	ProviderReference string          `json:"provider_reference"`
}
