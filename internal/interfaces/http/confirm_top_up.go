package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type ConfirmTopUpRequest struct {
	ProviderReference string `json:"provider_reference"`
}

func (s *Server) ConfirmTopUpHandler(c echo.Context) error {
	var request ConfirmTopUpRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if request.ProviderReference == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "provider_reference is required")
	}

	tx, err := s.walletService.ConfirmTopUp(c.Request().Context(), request.ProviderReference)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tx)
}
