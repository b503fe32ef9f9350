package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) GetMatchHandler(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	matchID, err := pathUUID(c, "match_id")
	if err != nil {
		return err
	}

	m, err := s.matchService.GetMatch(c.Request().Context(), matchID, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, m)
}
