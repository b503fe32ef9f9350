package wallet

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/settings"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"festmatch/internal/domain/wallets"
	"festmatch/internal/entities"
	"festmatch/internal/idempotency"
	"festmatch/internal/infrastructure/clients"
	"festmatch/internal/interfaces/events"
	"festmatch/internal/outbox"
)

type TopUpIntent struct {
	TransactionId     uuid.UUID `json:"transaction_id"`
	ProviderReference string    `json:"provider_reference"`
	ClientToken       string    `json:"client_token"`
	Reused            bool      `json:"reused"`
}

// CreateTopUpIntent opens a payment intent with the external processor
// for the given amount. A pending top-up for the same user and amount
// created within the reuse window is handed back instead of opening a
// second in-flight intent; pending top-ups older than the window are
// cancelled as a side effect.
func (u *LedgerUsecase) CreateTopUpIntent(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*TopUpIntent, error) {
	if amount.LessThan(u.settlement.MinTopUp) {
		return nil, wallets.TopUpBelowMinimumError{Minimum: u.settlement.MinTopUp}
	}

	wallet, err := u.walletsRepo.GetOrCreate(ctx, userID, u.settlement.Currency)
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}

	cutoff := u.now().Add(-time.Duration(u.settlement.TopUpReuseWindowMins) * time.Minute)

	if err := u.walletsRepo.CancelStalePendingTopUps(ctx, userID, cutoff); err != nil {
		return nil, fmt.Errorf("cancel stale top-ups: %w", err)
	}

	reusable, err := u.walletsRepo.FindReusablePendingTopUp(ctx, userID, amount, cutoff)
	if err != nil {
		return nil, fmt.Errorf("find reusable top-up: %w", err)
	}
	if reusable != nil && reusable.ProviderReference != nil {
		intent, err := u.provider.GetIntent(ctx, *reusable.ProviderReference)
		if err == nil && clients.IntentStatusAwaitingPayment(intent.Status) {
			return &TopUpIntent{
				TransactionId:     reusable.Id,
				ProviderReference: intent.Reference,
				ClientToken:       intent.ClientToken,
				Reused:            true,
			}, nil
		}
	}

	intent, err := u.provider.CreateIntent(ctx, userID.String(), amount, wallet.Currency, idempotency.GetKey(ctx))
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	txID, err := u.walletsRepo.InsertTransaction(ctx, wallets.Transaction{
		UserId:            userID,
		Type:              wallets.TypeTopUp,
		Status:            wallets.StatusPending,
		Amount:            amount,
		Currency:          wallet.Currency,
		ProviderReference: &intent.Reference,
		Description:       fmt.Sprintf("Wallet top-up of %s %s", amount.StringFixed(2), wallet.Currency),
	})
	if err != nil {
		return nil, fmt.Errorf("record pending top-up: %w", err)
	}

	return &TopUpIntent{
		TransactionId:     txID,
		ProviderReference: intent.Reference,
		ClientToken:       intent.ClientToken,
	}, nil
}

// ConfirmTopUp settles a pending top-up once the processor reports the
// payment as received. Confirming an already-completed top-up is a
// no-op; the balance is only ever incremented once per reference.
func (u *LedgerUsecase) ConfirmTopUp(ctx context.Context, providerReference string) (*wallets.Transaction, error) {
	tx, err := u.walletsRepo.GetTransactionByReference(ctx, providerReference)
	if err != nil {
		return nil, err
	}

	if tx.Status == wallets.StatusCompleted {
		return tx, nil
	}

	intent, err := u.provider.GetIntent(ctx, providerReference)
	if err != nil {
		return nil, fmt.Errorf("fetch payment intent: %w", err)
	}
	if !clients.IntentStatusSettled(intent.Status) {
		return nil, fmt.Errorf("intent %s in status %q: %w", providerReference, intent.Status, wallets.ErrPaymentNotSettled)
	}

	err = u.trManager.DoWithSettings(
		ctx,
		trmsql.MustSettings(
			settings.Must(settings.WithCancelable(true)),
			trmsql.WithTxOptions(&sql.TxOptions{Isolation: sql.LevelSerializable}),
		),
		func(ctx context.Context) error {
			// re-read inside the transaction: a concurrent confirm may
			// have completed it already
			fresh, err := u.walletsRepo.GetTransactionByReference(ctx, providerReference)
			if err != nil {
				return err
			}
			if fresh.Status == wallets.StatusCompleted {
				tx = fresh
				return nil
			}

			if err := u.walletsRepo.MarkTransactionCompleted(ctx, fresh.Id); err != nil {
				return err
			}
			if err := u.walletsRepo.Credit(ctx, fresh.UserId, fresh.Amount); err != nil {
				return err
			}

			eb, err := u.eventBusInTx(ctx)
			if err != nil {
				return err
			}
			if err := eb.Publish(ctx, entities.TopUpConfirmed_v1{
				Header:            entities.NewEventHeaderWithIdempotencyKey(providerReference),
				UserID:            fresh.UserId,
				Amount:            fresh.Amount,
				Currency:          fresh.Currency,
				ProviderReference: providerReference,
			}); err != nil {
				return fmt.Errorf("publish top-up confirmed event: %w", err)
			}

			fresh.Status = wallets.StatusCompleted
			tx = fresh
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("confirm top-up: %w", err)
	}

	return tx, nil
}

func (u *LedgerUsecase) eventBusInTx(ctx context.Context) (eventPublisher, error) {
	tr := u.trGetter.DefaultTrOrDB(ctx, nil)
	if tr == nil {
		return nil, fmt.Errorf("failed to get transaction from context")
	}

	publisher, err := outbox.NewPublisher(tr, u.watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}

	eb, err := events.NewEventBus(publisher, u.watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}
	return eb, nil
}

type eventPublisher interface {
	Publish(ctx context.Context, event any) error
}
