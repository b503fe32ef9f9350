package match

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	trmanager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/avito-tech/go-transaction-manager/trm/v2/settings"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"festmatch/internal/application/usecases/wallet"
	"festmatch/internal/domain/experiences"
	"festmatch/internal/domain/matches"
	"festmatch/internal/domain/users"
	"festmatch/internal/domain/wallets"
	"festmatch/internal/interfaces/events"
	"festmatch/internal/outbox"
)

//go:generate mockgen -destination=mocks/mock_matches_repo.go -package=mocks festmatch/internal/application/usecases/match MatchesRepo
type MatchesRepo interface {
	Create(ctx context.Context, m matches.Match) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*matches.Match, error)
	GetByExperienceAndRequester(ctx context.Context, experienceID, requesterID uuid.UUID) (*matches.Match, error)
	Reactivate(ctx context.Context, m matches.Match) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status matches.Status) error
	SetConfirmations(ctx context.Context, id uuid.UUID, hostConfirmed, requesterConfirmed bool, status matches.Status) error
	OverlappingParticipants(ctx context.Context, experienceID uuid.UUID, start time.Time, end *time.Time) (int, error)
	InsertMessage(ctx context.Context, msg matches.Message) (uuid.UUID, error)
	ListMessages(ctx context.Context, matchID uuid.UUID) ([]matches.Message, error)
	InsertCancellation(ctx context.Context, c matches.Cancellation) error
}

//go:generate mockgen -destination=mocks/mock_experiences_repo.go -package=mocks festmatch/internal/application/usecases/match ExperiencesRepo
type ExperiencesRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*experiences.Experience, error)
}

//go:generate mockgen -destination=mocks/mock_users_repo.go -package=mocks festmatch/internal/application/usecases/match UsersRepo
type UsersRepo interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*users.Profile, error)
	IsBlocked(ctx context.Context, a, b uuid.UUID) (bool, error)
}

//go:generate mockgen -destination=mocks/mock_wallet_ledger.go -package=mocks festmatch/internal/application/usecases/match WalletLedger
type WalletLedger interface {
	PlatformFee() decimal.Decimal
	Currency() string
	GetWallet(ctx context.Context, userID uuid.UUID) (*wallets.Wallet, error)
	DeductPlatformFee(ctx context.Context, userID, matchID uuid.UUID, role wallet.Party, counterpartID uuid.UUID, counterpartName string) (decimal.Decimal, error)
	CreditRefund(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string, matchID uuid.UUID) error
}

// Orchestrator drives the match state machine. All mutating operations
// run under Serializable isolation; conflicting writers are retried.
type Orchestrator struct {
	matchesRepo     MatchesRepo
	experiencesRepo ExperiencesRepo
	usersRepo       UsersRepo
	ledger          WalletLedger
	trManager       *trmanager.Manager
	trGetter        *trmsqlx.CtxGetter
	watermillLogger watermill.LoggerAdapter
	now             func() time.Time
}

func NewOrchestrator(
	matchesRepo MatchesRepo,
	experiencesRepo ExperiencesRepo,
	usersRepo UsersRepo,
	ledger WalletLedger,
	trManager *trmanager.Manager,
	trGetter *trmsqlx.CtxGetter,
	watermillLogger watermill.LoggerAdapter,
) *Orchestrator {
	return &Orchestrator{
		matchesRepo:     matchesRepo,
		experiencesRepo: experiencesRepo,
		usersRepo:       usersRepo,
		ledger:          ledger,
		trManager:       trManager,
		trGetter:        trGetter,
		watermillLogger: watermillLogger,
		now:             time.Now,
	}
}

// GetMatch returns the match to one of its parties.
func (o *Orchestrator) GetMatch(ctx context.Context, matchID, actorID uuid.UUID) (*matches.Match, error) {
	m, err := o.matchesRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.IsParty(actorID) {
		return nil, matches.ErrNotParty
	}
	return m, nil
}

// inSerializableTx runs f under Serializable isolation, retrying on
// postgres serialization failures (SQLSTATE 40001).
func (o *Orchestrator) inSerializableTx(ctx context.Context, f func(ctx context.Context) error) error {
	return WithRetry(3, func(ctx context.Context) error {
		return o.trManager.DoWithSettings(
			ctx,
			trmsql.MustSettings(
				settings.Must(settings.WithCancelable(true)),
				trmsql.WithTxOptions(&sql.TxOptions{Isolation: sql.LevelSerializable}),
			),
			f,
		)
	})(ctx)
}

func WithRetry(attempts int, f func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		var lastErr error
		for i := 0; i < attempts; i++ {
			err := f(ctx)
			if err == nil {
				return nil
			}

			pgErr := &pq.Error{}
			if errors.As(err, &pgErr); pgErr.Code == "40001" {
				zerolog.Ctx(ctx).Warn().Int("attempt", i+1).Msg("serialization failure, retrying")
				lastErr = err
				continue
			}

			return err
		}
		return lastErr
	}
}

func (o *Orchestrator) eventBusInTx(ctx context.Context) (eventPublisher, error) {
	tr := o.trGetter.DefaultTrOrDB(ctx, nil)
	if tr == nil {
		return nil, fmt.Errorf("failed to get transaction from context")
	}

	publisher, err := outbox.NewPublisher(tr, o.watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}

	eb, err := events.NewEventBus(publisher, o.watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}
	return eb, nil
}

type eventPublisher interface {
	Publish(ctx context.Context, event any) error
}
