package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"festmatch/internal/domain/experiences"
)

type CreateExperienceRequest struct {
	Title              string                    `json:"title"`
	Kind               string                    `json:"kind"`
	Published          bool                      `json:"published"`
	Capacity           int                       `json:"capacity"`
	MinParticipants    int                       `json:"min_participants"`
	MaxParticipants    int                       `json:"max_participants"`
	BasePrice          decimal.Decimal           `json:"base_price"`
	Currency           string                    `json:"currency"`
	CancellationPolicy string                    `json:"cancellation_policy"`
	Tiers              []experiences.PricingTier `json:"pricing_tiers"`
}

func (s *Server) CreateExperienceHandler(c echo.Context) error {
	ctx := c.Request().Context()

	hostID, err := actorID(c)
	if err != nil {
		return err
	}

	var request CreateExperienceRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	exp, err := s.catalogService.CreateExperience(ctx, experiences.Experience{
		HostId:             hostID,
		Title:              request.Title,
		Kind:               experiences.Kind(request.Kind),
		Published:          request.Published,
		Capacity:           request.Capacity,
		MinParticipants:    request.MinParticipants,
		MaxParticipants:    request.MaxParticipants,
		BasePrice:          request.BasePrice,
		Currency:           request.Currency,
		CancellationPolicy: experiences.CancellationPolicy(request.CancellationPolicy),
		Tiers:              request.Tiers,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, exp)
}
