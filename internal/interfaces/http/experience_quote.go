package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

func (s *Server) QuoteHandler(c echo.Context) error {
	experienceID, err := pathUUID(c, "experience_id")
	if err != nil {
		return err
	}

	participants, err := strconv.Atoi(c.QueryParam("participants"))
	if err != nil || participants < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "participants must be a positive integer")
	}

	quote, err := s.catalogService.Quote(c.Request().Context(), experienceID, participants)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, quote)
}
