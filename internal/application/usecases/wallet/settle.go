package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"festmatch/internal/domain/wallets"
)

// Party names the side of a match a fee applies to.
type Party string

const (
	PartyHost      Party = "host"
	PartyRequester Party = "requester"
)

// DeductPlatformFee debits the fixed platform fee and appends the
// completed ledger entry, as one atomic unit. When called inside an
// open transaction it joins it, so the Accept flow's two debits and
// its status flip commit together. The balance check happens inside
// the decrement itself; a stale prior read cannot overdraw the wallet.
func (u *LedgerUsecase) DeductPlatformFee(ctx context.Context, userID, matchID uuid.UUID, role Party, counterpartID uuid.UUID, counterpartName string) (remaining decimal.Decimal, err error) {
	fee := u.settlement.PlatformFee

	err = u.trManager.Do(ctx, func(ctx context.Context) error {
		if _, err := u.walletsRepo.GetOrCreate(ctx, userID, u.settlement.Currency); err != nil {
			return fmt.Errorf("get wallet: %w", err)
		}

		if err := u.walletsRepo.Debit(ctx, userID, fee); err != nil {
			return err
		}

		description := fmt.Sprintf("Platform fee for joining %s's experience", counterpartName)
		if role == PartyHost {
			description = fmt.Sprintf("Platform fee for hosting %s's group", counterpartName)
		}

		_, err := u.walletsRepo.InsertTransaction(ctx, wallets.Transaction{
			UserId:        userID,
			Type:          wallets.TypePlatformFee,
			Status:        wallets.StatusCompleted,
			Amount:        fee.Neg(),
			Currency:      u.settlement.Currency,
			CounterpartId: &counterpartID,
			MatchId:       &matchID,
			Description:   description,
		})
		if err != nil {
			return err
		}

		remaining, err = u.walletsRepo.Balance(ctx, userID)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	return remaining, nil
}

// CreditRefund increments the balance and appends a completed refund
// entry. The amount is trusted as computed by the cancellation
// calculator upstream; it is not re-validated here.
func (u *LedgerUsecase) CreditRefund(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string, matchID uuid.UUID) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	return u.trManager.Do(ctx, func(ctx context.Context) error {
		if _, err := u.walletsRepo.GetOrCreate(ctx, userID, u.settlement.Currency); err != nil {
			return fmt.Errorf("get wallet: %w", err)
		}

		if err := u.walletsRepo.Credit(ctx, userID, amount); err != nil {
			return err
		}

		_, err := u.walletsRepo.InsertTransaction(ctx, wallets.Transaction{
			UserId:      userID,
			Type:        wallets.TypeRefund,
			Status:      wallets.StatusCompleted,
			Amount:      amount,
			Currency:    u.settlement.Currency,
			MatchId:     &matchID,
			Description: description,
		})
		return err
	})
}
