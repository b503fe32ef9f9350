package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type SendMessageRequest struct {
	Body string `json:"body"`
}

func (s *Server) SendMessageHandler(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	matchID, err := pathUUID(c, "match_id")
	if err != nil {
		return err
	}

	var request SendMessageRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if request.Body == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "body is required")
	}

	msg, err := s.matchService.SendMessage(c.Request().Context(), matchID, userID, request.Body)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, msg)
}

func (s *Server) ListMessagesHandler(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	matchID, err := pathUUID(c, "match_id")
	if err != nil {
		return err
	}

	msgs, err := s.matchService.ListMessages(c.Request().Context(), matchID, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, msgs)
}
