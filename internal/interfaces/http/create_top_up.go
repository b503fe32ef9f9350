package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"festmatch/internal/idempotency"
)

type CreateTopUpRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) CreateTopUpHandler(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := actorID(c)
	if err != nil {
		return err
	}

	var request CreateTopUpRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	// a client-supplied key makes retried requests hit the same
	// provider intent
	if key := c.Request().Header.Get("X-Idempotency-Key"); key != "" {
		ctx = idempotency.WithKey(ctx, key)
	}

	intent, err := s.walletService.CreateTopUpIntent(ctx, userID, request.Amount)
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if intent.Reused {
		status = http.StatusOK
	}
	return c.JSON(status, intent)
}
