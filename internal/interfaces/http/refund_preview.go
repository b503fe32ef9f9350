package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func (s *Server) RefundPreviewHandler(c echo.Context) error {
	experienceID, err := pathUUID(c, "experience_id")
	if err != nil {
		return err
	}

	amount, err := decimal.NewFromString(c.QueryParam("amount"))
	if err != nil || amount.IsNegative() {
		return echo.NewHTTPError(http.StatusBadRequest, "amount must be a non-negative decimal")
	}

	startDate, err := time.Parse(time.RFC3339, c.QueryParam("start_date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "start_date is not a valid RFC3339 timestamp")
	}

	breakdown, err := s.catalogService.RefundPreview(c.Request().Context(), experienceID, amount, startDate)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, breakdown)
}
