package wallet

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	trmanager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"festmatch/internal/config"
	"festmatch/internal/domain/users"
	"festmatch/internal/domain/wallets"
	"festmatch/internal/infrastructure/clients"
)

//go:generate mockgen -destination=mocks/mock_wallets_repo.go -package=mocks festmatch/internal/application/usecases/wallet WalletsRepo
type WalletsRepo interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID, currency string) (*wallets.Wallet, error)
	Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
	InsertTransaction(ctx context.Context, t wallets.Transaction) (uuid.UUID, error)
	GetTransactionByReference(ctx context.Context, providerReference string) (*wallets.Transaction, error)
	FindReusablePendingTopUp(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, createdAfter time.Time) (*wallets.Transaction, error)
	CancelStalePendingTopUps(ctx context.Context, userID uuid.UUID, createdBefore time.Time) error
	MarkTransactionCompleted(ctx context.Context, id uuid.UUID) error
	ListCompleted(ctx context.Context, userID uuid.UUID, typeFilter *wallets.TransactionType, limit, offset int) ([]wallets.Transaction, error)
}

//go:generate mockgen -destination=mocks/mock_users_repo.go -package=mocks festmatch/internal/application/usecases/wallet UsersRepo
type UsersRepo interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*users.Profile, error)
}

//go:generate mockgen -destination=mocks/mock_payment_provider.go -package=mocks festmatch/internal/application/usecases/wallet PaymentProvider
type PaymentProvider interface {
	CreateIntent(ctx context.Context, customerRef string, amount decimal.Decimal, currency, idempotencyKey string) (*clients.PaymentIntent, error)
	GetIntent(ctx context.Context, reference string) (*clients.PaymentIntent, error)
}

// LedgerUsecase owns per-user balances and the append-only transaction
// history.
type LedgerUsecase struct {
	walletsRepo     WalletsRepo
	usersRepo       UsersRepo
	provider        PaymentProvider
	settlement      config.SettlementConfig
	trManager       *trmanager.Manager
	trGetter        *trmsqlx.CtxGetter
	watermillLogger watermill.LoggerAdapter
	now             func() time.Time
}

func NewLedgerUsecase(
	walletsRepo WalletsRepo,
	usersRepo UsersRepo,
	provider PaymentProvider,
	settlement config.SettlementConfig,
	trManager *trmanager.Manager,
	trGetter *trmsqlx.CtxGetter,
	watermillLogger watermill.LoggerAdapter,
) *LedgerUsecase {
	return &LedgerUsecase{
		walletsRepo:     walletsRepo,
		usersRepo:       usersRepo,
		provider:        provider,
		settlement:      settlement,
		trManager:       trManager,
		trGetter:        trGetter,
		watermillLogger: watermillLogger,
		now:             time.Now,
	}
}

// PlatformFee is the fixed amount debited from each party when a match
// is accepted.
func (u *LedgerUsecase) PlatformFee() decimal.Decimal {
	return u.settlement.PlatformFee
}

// Currency is the single settlement currency all wallets are held in.
func (u *LedgerUsecase) Currency() string {
	return u.settlement.Currency
}

func (u *LedgerUsecase) GetWallet(ctx context.Context, userID uuid.UUID) (*wallets.Wallet, error) {
	return u.walletsRepo.GetOrCreate(ctx, userID, u.settlement.Currency)
}

// HasSufficientBalance checks the fresh balance against the platform
// fee. It is advisory: the authoritative check is the guarded decrement
// inside DeductPlatformFee.
func (u *LedgerUsecase) HasSufficientBalance(ctx context.Context, userID uuid.UUID) (bool, error) {
	balance, err := u.walletsRepo.Balance(ctx, userID)
	if err != nil {
		return false, err
	}
	return balance.GreaterThanOrEqual(u.settlement.PlatformFee), nil
}
