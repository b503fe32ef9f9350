package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"festmatch/internal/domain/matches"
)

// The lifecycle actions share a shape: resolve actor and match id, run
// the transition, return the updated match.
func (s *Server) matchAction(c echo.Context, action func(ctx context.Context, matchID, actorID uuid.UUID) (*matches.Match, error)) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	matchID, err := pathUUID(c, "match_id")
	if err != nil {
		return err
	}

	m, err := action(c.Request().Context(), matchID, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) AcceptMatchHandler(c echo.Context) error {
	return s.matchAction(c, s.matchService.Accept)
}

func (s *Server) RejectMatchHandler(c echo.Context) error {
	return s.matchAction(c, s.matchService.Reject)
}

func (s *Server) CancelMatchHandler(c echo.Context) error {
	return s.matchAction(c, s.matchService.Cancel)
}

func (s *Server) CompleteMatchHandler(c echo.Context) error {
	return s.matchAction(c, s.matchService.Complete)
}

func (s *Server) ConfirmMatchHandler(c echo.Context) error {
	return s.matchAction(c, s.matchService.ConfirmCompletion)
}
