package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"festmatch/internal/application/usecases/experience"
	"festmatch/internal/application/usecases/match"
	"festmatch/internal/application/usecases/wallet"
)

type Server struct {
	e    *echo.Echo
	addr string

	catalogService *experience.CatalogUsecase
	matchService   *match.Orchestrator
	walletService  *wallet.LedgerUsecase
}

func NewServer(
	e *echo.Echo,
	addr string,
	catalogService *experience.CatalogUsecase,
	matchService *match.Orchestrator,
	walletService *wallet.LedgerUsecase,
	logger zerolog.Logger,
	routerIsRunning func() bool,
) *Server {
	srv := &Server{
		e:              e,
		addr:           addr,
		catalogService: catalogService,
		matchService:   matchService,
		walletService:  walletService,
	}

	e.HTTPErrorHandler = errorHandler(e)

	e.POST("/experiences", srv.CreateExperienceHandler)
	e.GET("/experiences/:experience_id", srv.GetExperienceHandler)
	e.GET("/experiences/:experience_id/quote", srv.QuoteHandler)
	e.GET("/experiences/:experience_id/refund-preview", srv.RefundPreviewHandler)

	e.POST("/matches", srv.CreateMatchHandler)
	e.GET("/matches/:match_id", srv.GetMatchHandler)
	e.POST("/matches/:match_id/accept", srv.AcceptMatchHandler)
	e.POST("/matches/:match_id/reject", srv.RejectMatchHandler)
	e.POST("/matches/:match_id/cancel", srv.CancelMatchHandler)
	e.POST("/matches/:match_id/complete", srv.CompleteMatchHandler)
	e.POST("/matches/:match_id/confirm", srv.ConfirmMatchHandler)
	e.POST("/matches/:match_id/messages", srv.SendMessageHandler)
	e.GET("/matches/:match_id/messages", srv.ListMessagesHandler)

	e.GET("/wallet", srv.GetWalletHandler)
	e.POST("/wallet/top-ups", srv.CreateTopUpHandler)
	e.POST("/wallet/top-ups/confirm", srv.ConfirmTopUpHandler)
	e.GET("/wallet/transactions", srv.GetTransactionsHandler)

	e.GET("/health", func(c echo.Context) error {
		if !routerIsRunning() {
			return c.String(http.StatusServiceUnavailable, "router is not running")
		}
		return c.String(http.StatusOK, "ok")
	})

	// request logging middleware; also threads the logger into the
	// request context for the layers below
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := logger.WithContext(c.Request().Context())
			c.SetRequest(c.Request().WithContext(ctx))

			logger.Info().
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("handling a request")

			err := next(c)
			if err != nil {
				logger.Error().
					Err(err).
					Str("path", c.Request().URL.Path).
					Msg("request handling error")
			}
			return err
		}
	})

	return srv
}

func (s *Server) Start() error {
	err := s.e.Start(s.addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// actorID reads the acting user from the X-User-ID header. Session
// handling lives upstream; by the time a request lands here the header
// is trusted.
func actorID(c echo.Context) (uuid.UUID, error) {
	raw := c.Request().Header.Get("X-User-ID")
	if raw == "" {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "X-User-ID header is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "X-User-ID is not a valid UUID")
	}
	return id, nil
}

func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, name+" is not a valid UUID")
	}
	return id, nil
}
