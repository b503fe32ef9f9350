package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"festmatch/internal/domain/experiences"
	"festmatch/internal/domain/matches"
	"festmatch/internal/domain/users"
	"festmatch/internal/domain/wallets"
)

type errorResponse struct {
	Error          string  `json:"error"`
	AvailableSpots *int    `json:"available_spots,omitempty"`
	Required       *string `json:"required,omitempty"`
	Balance        *string `json:"balance,omitempty"`
	Minimum        *string `json:"minimum,omitempty"`
}

// errorHandler maps domain errors onto HTTP statuses, carrying the
// details the client needs to render a useful message (free spots,
// missing amount).
func errorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := mapError(err)
		if status == http.StatusInternalServerError {
			// fall through to echo's default for HTTPErrors and
			// unmapped failures
			e.DefaultHTTPErrorHandler(err, c)
			return
		}

		if jsonErr := c.JSON(status, body); jsonErr != nil {
			e.Logger.Error(jsonErr)
		}
	}
}

func mapError(err error) (int, errorResponse) {
	var capacityErr matches.CapacityError
	if errors.As(err, &capacityErr) {
		spots := capacityErr.AvailableSpots
		return http.StatusConflict, errorResponse{Error: capacityErr.Error(), AvailableSpots: &spots}
	}

	var balanceErr wallets.InsufficientBalanceError
	if errors.As(err, &balanceErr) {
		required := balanceErr.Required.StringFixed(2)
		balance := balanceErr.Balance.StringFixed(2)
		return http.StatusPaymentRequired, errorResponse{Error: balanceErr.Error(), Required: &required, Balance: &balance}
	}

	var minErr wallets.TopUpBelowMinimumError
	if errors.As(err, &minErr) {
		minimum := minErr.Minimum.StringFixed(2)
		return http.StatusBadRequest, errorResponse{Error: minErr.Error(), Minimum: &minimum}
	}

	var transitionErr matches.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		return http.StatusConflict, errorResponse{Error: transitionErr.Error()}
	}

	var boundsErr experiences.ParticipantBoundsError
	if errors.As(err, &boundsErr) {
		return http.StatusBadRequest, errorResponse{Error: boundsErr.Error()}
	}

	var validationErr experiences.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, errorResponse{Error: validationErr.Error()}
	}

	switch {
	case errors.Is(err, matches.ErrMatchNotFound),
		errors.Is(err, experiences.ErrExperienceNotFound),
		errors.Is(err, wallets.ErrTransactionNotFound),
		errors.Is(err, users.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Error: err.Error()}

	case errors.Is(err, matches.ErrNotParty),
		errors.Is(err, matches.ErrHostOnly),
		errors.Is(err, matches.ErrRequesterOnly),
		errors.Is(err, matches.ErrSelfMatch),
		errors.Is(err, matches.ErrBlocked):
		return http.StatusForbidden, errorResponse{Error: err.Error()}

	case errors.Is(err, matches.ErrDuplicateMatch),
		errors.Is(err, matches.ErrAlreadyConfirmed),
		errors.Is(err, matches.ErrChatClosed),
		errors.Is(err, wallets.ErrPaymentNotSettled):
		return http.StatusConflict, errorResponse{Error: err.Error()}

	case errors.Is(err, experiences.ErrNotPublished):
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error()}

	case errors.Is(err, experiences.ErrTierOverlap):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	}

	return http.StatusInternalServerError, errorResponse{}
}
