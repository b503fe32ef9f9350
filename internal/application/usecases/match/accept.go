package match

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"festmatch/internal/application/usecases/wallet"
	"festmatch/internal/domain/matches"
	"festmatch/internal/entities"
)

// Accept flips a pending match to accepted and collects the platform
// fee from both parties. Both debits and the status change commit in
// one serializable transaction: if either wallet cannot cover the fee
// nothing is charged and the match stays pending.
func (o *Orchestrator) Accept(ctx context.Context, matchID, actorID uuid.UUID) (*matches.Match, error) {
	m, err := o.matchesRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.IsParty(actorID) {
		return nil, matches.ErrNotParty
	}
	if actorID != m.HostId {
		return nil, matches.ErrHostOnly
	}

	hostProfile, err := o.usersRepo.GetProfile(ctx, m.HostId)
	if err != nil {
		return nil, fmt.Errorf("host profile: %w", err)
	}
	requesterProfile, err := o.usersRepo.GetProfile(ctx, m.RequesterId)
	if err != nil {
		return nil, fmt.Errorf("requester profile: %w", err)
	}

	err = o.inSerializableTx(ctx, func(ctx context.Context) error {
		fresh, err := o.matchesRepo.GetByID(ctx, matchID)
		if err != nil {
			return err
		}
		if fresh.Status != matches.StatusPending {
			return matches.InvalidTransitionError{Action: "accept", From: fresh.Status}
		}

		if err := o.matchesRepo.UpdateStatus(ctx, matchID, matches.StatusAccepted); err != nil {
			return err
		}

		hostRemaining, err := o.ledger.DeductPlatformFee(
			ctx, fresh.HostId, matchID, wallet.PartyHost, fresh.RequesterId, requesterProfile.DisplayName)
		if err != nil {
			return err
		}
		requesterRemaining, err := o.ledger.DeductPlatformFee(
			ctx, fresh.RequesterId, matchID, wallet.PartyRequester, fresh.HostId, hostProfile.DisplayName)
		if err != nil {
			return err
		}

		eb, err := o.eventBusInTx(ctx)
		if err != nil {
			return err
		}

		fee := o.ledger.PlatformFee()
		currency := o.ledger.Currency()

		if err := eb.Publish(ctx, entities.MatchAccepted_v1{
			Header:       entities.NewEventHeader(),
			MatchID:      matchID,
			ExperienceID: fresh.ExperienceId,
			RequesterID:  fresh.RequesterId,
			HostID:       fresh.HostId,
		}); err != nil {
			return fmt.Errorf("publish match accepted event: %w", err)
		}
		if err := eb.Publish(ctx, entities.PlatformFeeCharged_v1{
			Header:           entities.NewEventHeader(),
			MatchID:          matchID,
			UserID:           fresh.HostId,
			Amount:           fee,
			Currency:         currency,
			RemainingBalance: hostRemaining,
		}); err != nil {
			return fmt.Errorf("publish fee charged event: %w", err)
		}
		return eb.Publish(ctx, entities.PlatformFeeCharged_v1{
			Header:           entities.NewEventHeader(),
			MatchID:          matchID,
			UserID:           fresh.RequesterId,
			Amount:           fee,
			Currency:         currency,
			RemainingBalance: requesterRemaining,
		})
	})
	if err != nil {
		return nil, err
	}

	return o.matchesRepo.GetByID(ctx, matchID)
}
