package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"festmatch/internal/application/usecases/match"
)

type CreateMatchRequest struct {
	ExperienceId     uuid.UUID  `json:"experience_id"`
	Participants     int        `json:"participants"`
	ParticipantNames []string   `json:"participant_names"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
}

func (s *Server) CreateMatchHandler(c echo.Context) error {
	ctx := c.Request().Context()

	requesterID, err := actorID(c)
	if err != nil {
		return err
	}

	var request CreateMatchRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if request.EndDate != nil && request.StartDate == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "end_date requires a start_date")
	}
	if request.StartDate != nil && request.EndDate != nil && request.EndDate.Before(*request.StartDate) {
		return echo.NewHTTPError(http.StatusBadRequest, "end_date is before start_date")
	}

	m, err := s.matchService.CreateMatch(ctx, match.CreateMatchRequest{
		ExperienceID:     request.ExperienceId,
		RequesterID:      requesterID,
		Participants:     request.Participants,
		ParticipantNames: request.ParticipantNames,
		StartDate:        request.StartDate,
		EndDate:          request.EndDate,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, m)
}
