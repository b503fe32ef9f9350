package match

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"festmatch/internal/domain/experiences"
	"festmatch/internal/domain/matches"
	"festmatch/internal/entities"
)

// Reject is the host's decline of a pending request. No money has
// moved at this point, so it is a pure status transition.
func (o *Orchestrator) Reject(ctx context.Context, matchID, actorID uuid.UUID) (*matches.Match, error) {
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

	err = o.inSerializableTx(ctx, func(ctx context.Context) error {
		fresh, err := o.matchesRepo.GetByID(ctx, matchID)
		if err != nil {
			return err
		}
		if fresh.Status != matches.StatusPending {
			return matches.InvalidTransitionError{Action: "reject", From: fresh.Status}
		}

		if err := o.matchesRepo.UpdateStatus(ctx, matchID, matches.StatusRejected); err != nil {
			return err
		}

		eb, err := o.eventBusInTx(ctx)
		if err != nil {
			return err
		}
		return eb.Publish(ctx, entities.MatchRejected_v1{
			Header:      entities.NewEventHeader(),
			MatchID:     matchID,
			RequesterID: fresh.RequesterId,
			HostID:      fresh.HostId,
		})
	})
	if err != nil {
		return nil, err
	}

	return o.matchesRepo.GetByID(ctx, matchID)
}

// Cancel withdraws a pending request (requester only) or calls off an
// accepted match (either party). Cancelling an accepted match refunds
// the canceller's platform fee per the experience's policy and the
// counterpart's fee in full, records the split, and commits it all with
// the status change in one transaction.
func (o *Orchestrator) Cancel(ctx context.Context, matchID, actorID uuid.UUID) (*matches.Match, error) {
	m, err := o.matchesRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.IsParty(actorID) {
		return nil, matches.ErrNotParty
	}

	exp, err := o.experiencesRepo.GetByID(ctx, m.ExperienceId)
	if err != nil {
		return nil, err
	}

	err = o.inSerializableTx(ctx, func(ctx context.Context) error {
		fresh, err := o.matchesRepo.GetByID(ctx, matchID)
		if err != nil {
			return err
		}

		switch fresh.Status {
		case matches.StatusPending:
			if actorID != fresh.RequesterId {
				return matches.ErrRequesterOnly
			}
		case matches.StatusAccepted:
			// either party
		default:
			return matches.InvalidTransitionError{Action: "cancel", From: fresh.Status}
		}

		if err := o.matchesRepo.UpdateStatus(ctx, matchID, matches.StatusCancelled); err != nil {
			return err
		}

		if fresh.Status == matches.StatusAccepted {
			if err := o.settleCancellation(ctx, fresh, exp, actorID); err != nil {
				return err
			}
		}

		eb, err := o.eventBusInTx(ctx)
		if err != nil {
			return err
		}
		return eb.Publish(ctx, entities.MatchCancelled_v1{
			Header:      entities.NewEventHeader(),
			MatchID:     matchID,
			CancelledBy: actorID,
			Counterpart: fresh.Counterpart(actorID),
		})
	})
	if err != nil {
		return nil, err
	}

	return o.matchesRepo.GetByID(ctx, matchID)
}

// settleCancellation reverses the fees collected at accept time. The
// policy step function applies to the cancelling party only; the other
// side did not break the agreement and gets their fee back whole. An
// unscheduled match has no start date to count down to, so the
// canceller is refunded in full as well.
func (o *Orchestrator) settleCancellation(ctx context.Context, m *matches.Match, exp *experiences.Experience, cancelledBy uuid.UUID) error {
	fee := o.ledger.PlatformFee()

	breakdown := experiences.RefundBreakdown{
		RefundPercentage: 100,
		RefundAmount:     fee,
		PenaltyAmount:    decimal.Zero,
	}
	if m.StartDate != nil {
		breakdown = experiences.CalculateRefund(exp.CancellationPolicy, fee, *m.StartDate, o.now())
	}

	if err := o.matchesRepo.InsertCancellation(ctx, matches.Cancellation{
		MatchId:         m.Id,
		CancelledBy:     cancelledBy,
		Policy:          string(exp.CancellationPolicy),
		OriginalAmount:  fee,
		RefundAmount:    breakdown.RefundAmount,
		PenaltyAmount:   breakdown.PenaltyAmount,
		HoursUntilStart: breakdown.HoursUntilStart,
	}); err != nil {
		return err
	}

	if err := o.ledger.CreditRefund(
		ctx, cancelledBy, breakdown.RefundAmount,
		fmt.Sprintf("Cancellation refund (%d%%) for %q", breakdown.RefundPercentage, exp.Title),
		m.Id,
	); err != nil {
		return err
	}

	return o.ledger.CreditRefund(
		ctx, m.Counterpart(cancelledBy), fee,
		fmt.Sprintf("Refund for %q, cancelled by the other party", exp.Title),
		m.Id,
	)
}

// Complete is the host's explicit close of an accepted match. The fee
// was collected at accept time; nothing further is charged.
func (o *Orchestrator) Complete(ctx context.Context, matchID, actorID uuid.UUID) (*matches.Match, error) {
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

	err = o.inSerializableTx(ctx, func(ctx context.Context) error {
		fresh, err := o.matchesRepo.GetByID(ctx, matchID)
		if err != nil {
			return err
		}
		if fresh.Status != matches.StatusAccepted {
			return matches.InvalidTransitionError{Action: "complete", From: fresh.Status}
		}

		if err := o.matchesRepo.UpdateStatus(ctx, matchID, matches.StatusCompleted); err != nil {
			return err
		}
		return o.publishCompleted(ctx, fresh)
	})
	if err != nil {
		return nil, err
	}

	return o.matchesRepo.GetByID(ctx, matchID)
}

// ConfirmCompletion sets the acting party's completion flag. Each party
// confirms at most once; the second confirmation completes the match.
func (o *Orchestrator) ConfirmCompletion(ctx context.Context, matchID, actorID uuid.UUID) (*matches.Match, error) {
	m, err := o.matchesRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.IsParty(actorID) {
		return nil, matches.ErrNotParty
	}

	err = o.inSerializableTx(ctx, func(ctx context.Context) error {
		fresh, err := o.matchesRepo.GetByID(ctx, matchID)
		if err != nil {
			return err
		}

		hostConfirmed := fresh.HostConfirmed
		requesterConfirmed := fresh.RequesterConfirmed

		if actorID == fresh.HostId {
			if hostConfirmed {
				return matches.ErrAlreadyConfirmed
			}
			hostConfirmed = true
		} else {
			if requesterConfirmed {
				return matches.ErrAlreadyConfirmed
			}
			requesterConfirmed = true
		}

		if fresh.Status != matches.StatusAccepted {
			return matches.InvalidTransitionError{Action: "confirm", From: fresh.Status}
		}

		status := matches.StatusAccepted
		if hostConfirmed && requesterConfirmed {
			status = matches.StatusCompleted
		}

		if err := o.matchesRepo.SetConfirmations(ctx, matchID, hostConfirmed, requesterConfirmed, status); err != nil {
			return err
		}

		if status == matches.StatusCompleted {
			return o.publishCompleted(ctx, fresh)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return o.matchesRepo.GetByID(ctx, matchID)
}

func (o *Orchestrator) publishCompleted(ctx context.Context, m *matches.Match) error {
	eb, err := o.eventBusInTx(ctx)
	if err != nil {
		return err
	}
	return eb.Publish(ctx, entities.MatchCompleted_v1{
		Header:      entities.NewEventHeader(),
		MatchID:     m.Id,
		RequesterID: m.RequesterId,
		HostID:      m.HostId,
	})
}
