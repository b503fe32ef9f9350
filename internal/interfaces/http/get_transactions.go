package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"festmatch/internal/domain/wallets"
)

type TransactionView struct {
	wallets.Transaction
	CounterpartName *string `json:"counterpart_name,omitempty"`
}

func (s *Server) GetTransactionsHandler(c echo.Context) error {
	userID, err := actorID(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 20
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	var typeFilter *wallets.TransactionType
	if raw := c.QueryParam("type"); raw != "" {
		t := wallets.TransactionType(raw)
		switch t {
		case wallets.TypeTopUp, wallets.TypePlatformFee, wallets.TypeRefund, wallets.TypeReferralCredit:
			typeFilter = &t
		default:
			return echo.NewHTTPError(http.StatusBadRequest, "unknown transaction type")
		}
	}

	entries, err := s.walletService.GetTransactionHistory(
		c.Request().Context(), userID, typeFilter, limit, (page-1)*limit)
	if err != nil {
		return err
	}

	views := make([]TransactionView, 0, len(entries))
	for _, e := range entries {
		views = append(views, TransactionView{
			Transaction:     e.Transaction,
			CounterpartName: e.CounterpartName,
		})
	}

	return c.JSON(http.StatusOK, views)
}
