package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"festmatch/internal/domain/experiences"
	"festmatch/internal/domain/matches"
	"festmatch/internal/domain/wallets"
	"festmatch/internal/entities"
)

type CreateMatchRequest struct {
	ExperienceID     uuid.UUID
	RequesterID      uuid.UUID
	Participants     int
	ParticipantNames []string
	StartDate        *time.Time
	EndDate          *time.Time
}

// CreateMatch turns a request-to-join into a pending match. A terminal
// row for the same (experience, requester) pair is reset to pending
// instead of inserting a duplicate; an open row is a conflict. The
// capacity check and the insert share one serializable transaction so
// two concurrent requests cannot both observe free spots.
func (o *Orchestrator) CreateMatch(ctx context.Context, req CreateMatchRequest) (*matches.Match, error) {
	exp, err := o.experiencesRepo.GetByID(ctx, req.ExperienceID)
	if err != nil {
		return nil, err
	}
	if !exp.Published {
		return nil, experiences.ErrNotPublished
	}
	if exp.HostId == req.RequesterID {
		return nil, matches.ErrSelfMatch
	}

	blocked, err := o.usersRepo.IsBlocked(ctx, exp.HostId, req.RequesterID)
	if err != nil {
		return nil, fmt.Errorf("check block: %w", err)
	}
	if blocked {
		return nil, matches.ErrBlocked
	}

	if err := exp.ValidateParticipants(req.Participants); err != nil {
		return nil, err
	}

	if err := o.requireFeeBalance(ctx, req.RequesterID); err != nil {
		return nil, err
	}

	candidate := matches.Match{
		ExperienceId:     req.ExperienceID,
		RequesterId:      req.RequesterID,
		HostId:           exp.HostId,
		Status:           matches.StatusPending,
		Participants:     req.Participants,
		ParticipantNames: req.ParticipantNames,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
	}
	if exp.Kind == experiences.KindMonetary {
		quote := experiences.CalculateGroupPrice(exp.Tiers, exp.BasePrice, req.Participants)
		candidate.TotalPrice = &quote.TotalPrice
	}

	var matchID uuid.UUID
	var reactivated bool

	err = o.inSerializableTx(ctx, func(ctx context.Context) error {
		existing, err := o.matchesRepo.GetByExperienceAndRequester(ctx, req.ExperienceID, req.RequesterID)
		if err != nil && !errors.Is(err, matches.ErrMatchNotFound) {
			return err
		}
		if existing != nil && !existing.Status.Terminal() {
			return matches.ErrDuplicateMatch
		}

		if req.StartDate != nil {
			taken, err := o.matchesRepo.OverlappingParticipants(ctx, req.ExperienceID, *req.StartDate, req.EndDate)
			if err != nil {
				return err
			}
			available := exp.Capacity - taken
			if available < 0 {
				available = 0
			}
			if req.Participants > available {
				return matches.CapacityError{AvailableSpots: available}
			}
		}

		if existing != nil {
			candidate.Id = existing.Id
			if err := o.matchesRepo.Reactivate(ctx, candidate); err != nil {
				return err
			}
			matchID = existing.Id
			reactivated = true
		} else {
			matchID, err = o.matchesRepo.Create(ctx, candidate)
			if err != nil {
				return err
			}
		}

		eb, err := o.eventBusInTx(ctx)
		if err != nil {
			return err
		}
		return eb.Publish(ctx, entities.MatchRequested_v1{
			Header:       entities.NewEventHeader(),
			MatchID:      matchID,
			ExperienceID: req.ExperienceID,
			RequesterID:  req.RequesterID,
			HostID:       exp.HostId,
			Participants: req.Participants,
			Reactivated:  reactivated,
		})
	})
	if err != nil {
		return nil, err
	}

	return o.matchesRepo.GetByID(ctx, matchID)
}

// requireFeeBalance is the advisory gate shared by create and chat: a
// fresh balance read against the platform fee. The authoritative check
// stays inside the accept transaction's guarded decrement.
func (o *Orchestrator) requireFeeBalance(ctx context.Context, userID uuid.UUID) error {
	w, err := o.ledger.GetWallet(ctx, userID)
	if err != nil {
		return fmt.Errorf("get wallet: %w", err)
	}
	fee := o.ledger.PlatformFee()
	if w.Balance.LessThan(fee) {
		return wallets.InsufficientBalanceError{Required: fee, Balance: w.Balance}
	}
	return nil
}
