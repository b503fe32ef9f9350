package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) GetWalletHandler(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}

	w, err := s.walletService.GetWallet(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, w)
}
