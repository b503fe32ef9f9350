package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"festmatch/internal/domain/users"
	"festmatch/internal/domain/wallets"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// HistoryEntry is a completed ledger entry with the counterpart's
// display name resolved for rendering.
type HistoryEntry struct {
	Transaction     wallets.Transaction
	CounterpartName *string
}

// GetTransactionHistory returns the user's completed transactions,
// newest first. Pending and cancelled entries are internal bookkeeping
// and never surface here.
func (u *LedgerUsecase) GetTransactionHistory(
	ctx context.Context,
	userID uuid.UUID,
	typeFilter *wallets.TransactionType,
	limit, offset int,
) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	txs, err := u.walletsRepo.ListCompleted(ctx, userID, typeFilter, limit, offset)
	if err != nil {
		return nil, err
	}

	names := map[uuid.UUID]*string{}
	entries := make([]HistoryEntry, 0, len(txs))
	for _, t := range txs {
		entry := HistoryEntry{Transaction: t}
		if t.CounterpartId != nil {
			name, ok := names[*t.CounterpartId]
			if !ok {
				name = u.lookupName(ctx, *t.CounterpartId)
				names[*t.CounterpartId] = name
			}
			entry.CounterpartName = name
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// lookupName resolves a display name best-effort; a deleted profile
// must not break the history listing.
func (u *LedgerUsecase) lookupName(ctx context.Context, id uuid.UUID) *string {
	profile, err := u.usersRepo.GetProfile(ctx, id)
	if err != nil {
		if !errors.Is(err, users.ErrUserNotFound) {
			u.watermillLogger.Error("resolve counterpart name", err, nil)
		}
		return nil
	}
	return &profile.DisplayName
}
