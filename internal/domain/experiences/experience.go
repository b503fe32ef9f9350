package experiences

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrExperienceNotFound = errors.New("experience not found")
var ErrNotPublished = errors.New("experience is not published")

// ValidationError marks a rejected experience or tier configuration.
type ValidationError struct {
	msg string
}

func (e ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...any) error {
	return ValidationError{msg: fmt.Sprintf(format, args...)}
}

type Kind string

const (
	KindMonetary Kind = "monetary"
	KindExchange Kind = "exchange"
)

type Experience struct {
	Id                 uuid.UUID          `json:"experience_id"`
	HostId             uuid.UUID          `json:"host_id"`
	Title              string             `json:"title"`
	Kind               Kind               `json:"kind"`
	Published          bool               `json:"published"`
	Capacity           int                `json:"capacity"`
	MinParticipants    int                `json:"min_participants"`
	MaxParticipants    int                `json:"max_participants"`
	BasePrice          decimal.Decimal    `json:"base_price"`
	Currency           string             `json:"currency"`
	CancellationPolicy CancellationPolicy `json:"cancellation_policy"`
	Tiers              []PricingTier      `json:"pricing_tiers"`
	CreatedAt          time.Time          `json:"created_at"`
}

// ParticipantBoundsError is returned when a request falls outside the
// experience's configured group size.
type ParticipantBoundsError struct {
	Min, Max, Requested int
}

func (e ParticipantBoundsError) Error() string {
	return "participant count out of bounds"
}

func (e *Experience) ValidateParticipants(count int) error {
	if count < e.MinParticipants || count > e.MaxParticipants {
		return ParticipantBoundsError{Min: e.MinParticipants, Max: e.MaxParticipants, Requested: count}
	}
	return nil
}

// Validate checks a new experience's configuration before it is
// persisted.
func (e *Experience) Validate() error {
	if e.Kind != KindMonetary && e.Kind != KindExchange {
		return validationErrorf("unknown experience kind %q", e.Kind)
	}
	if !e.CancellationPolicy.Valid() {
		return validationErrorf("unknown cancellation policy %q", e.CancellationPolicy)
	}
	if e.Capacity < 1 {
		return validationErrorf("capacity must be at least 1")
	}
	if e.MinParticipants < 1 || e.MaxParticipants < e.MinParticipants {
		return validationErrorf("invalid participant bounds [%d, %d]", e.MinParticipants, e.MaxParticipants)
	}
	if e.BasePrice.IsNegative() {
		return validationErrorf("negative base price")
	}
	return ValidateTiers(e.Tiers)
}
