package app

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"festmatch/internal/application/usecases/experience"
	"festmatch/internal/application/usecases/match"
	"festmatch/internal/application/usecases/wallet"
	"festmatch/internal/config"
	"festmatch/internal/interfaces/events"
	"festmatch/internal/interfaces/http"
	"festmatch/internal/outbox"
	"festmatch/internal/repository"
)

type App struct {
	watermillLogger watermill.LoggerAdapter
	logger          zerolog.Logger
	router          *message.Router
	forwarder       *outbox.Forwarder
	srv             *http.Server
	db              *sqlx.DB
}

func NewApp(
	cfg config.Config,
	logger zerolog.Logger,
	watermillLogger watermill.LoggerAdapter,
	paymentsClient wallet.PaymentProvider,
	notifierClient events.NotificationSender,
	redisClient *redis.Client,
	db *sqlx.DB,
) (*App, error) {
	trManager := manager.Must(trmsqlx.NewDefaultFactory(db))
	trGetter := trmsqlx.DefaultCtxGetter

	experiencesRepo := repository.NewExperiencesRepo(db, trGetter)
	matchesRepo := repository.NewMatchesRepo(db, trGetter)
	walletsRepo := repository.NewWalletsRepo(db, trGetter)
	usersRepo := repository.NewUsersRepo(db, trGetter)

	ledgerService := wallet.NewLedgerUsecase(
		walletsRepo,
		usersRepo,
		paymentsClient,
		cfg.Settlement,
		trManager,
		trGetter,
		watermillLogger,
	)
	matchService := match.NewOrchestrator(
		matchesRepo,
		experiencesRepo,
		usersRepo,
		ledgerService,
		trManager,
		trGetter,
		watermillLogger,
	)
	catalogService := experience.NewCatalogUsecase(experiencesRepo)

	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(events.CorrelationIDMiddleware)
	router.AddMiddleware(events.LoggingMiddleware)
	router.AddMiddleware(middleware.Retry{
		MaxRetries:      10,
		InitialInterval: time.Millisecond * 100,
		MaxInterval:     time.Second,
		Multiplier:      2,
		Logger:          watermillLogger,
	}.Middleware)

	marshaler := cqrs.JSONMarshaler{
		GenerateName: cqrs.StructName,
	}
	processor, err := events.NewEventProcessor(router, redisClient, marshaler, watermillLogger)
	if err != nil {
		return nil, err
	}
	err = processor.AddHandlers(
		events.MatchRequestedHandler(notifierClient),
		events.MatchAcceptedHandler(notifierClient),
		events.MatchRejectedHandler(notifierClient),
		events.MatchCancelledHandler(notifierClient),
		events.MatchCompletedHandler(notifierClient),
		events.PlatformFeeChargedHandler(notifierClient),
		events.TopUpConfirmedHandler(notifierClient),
	)
	if err != nil {
		return nil, err
	}

	fwd, err := outbox.NewForwarder(db, redisClient, watermillLogger)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := http.NewServer(
		e,
		cfg.HTTPAddr,
		catalogService,
		matchService,
		ledgerService,
		logger,
		router.IsRunning,
	)

	return &App{
		watermillLogger: watermillLogger,
		logger:          logger,
		router:          router,
		forwarder:       fwd,
		srv:             srv,
		db:              db,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	if err := repository.InitializeDBSchema(a.db); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Msg("starting router")
		return a.router.Run(ctx)
	})

	g.Go(func() error {
		<-a.router.Running()
		a.logger.Info().Msg("router is running")

		a.forwarder.Run(ctx)
		a.logger.Info().Msg("outbox forwarder is running")

		a.logger.Info().Msg("starting server")
		return a.srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()

		err := a.srv.Stop(context.Background())
		if err != nil {
			a.logger.Err(err).Msg("error stopping server")
		}
		return err
	})

	return g.Wait()
}
