package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"

	"festmatch/internal/app"
	"festmatch/internal/config"
	"festmatch/internal/infrastructure/clients"
)

func main() {
	logrus.SetLevel(logrus.InfoLevel)
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("loading config")
	}

	db, err := sqlx.Connect("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connecting to postgres")
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer redisClient.Close()

	paymentsClient := clients.NewPaymentsClient(cfg.PaymentProviderURL, cfg.PaymentProviderKey)
	notifierClient := clients.NewNotifierClient(cfg.NotifierURL)

	watermillLogger := watermill.NewStdLogger(false, false)

	a, err := app.NewApp(
		*cfg,
		logger,
		watermillLogger,
		paymentsClient,
		notifierClient,
		redisClient,
		db,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("initializing app")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("app terminated")
	}
}
