package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/google/uuid"

	"festmatch/internal/entities"
	"festmatch/internal/infrastructure/clients"
)

//go:generate mockgen -destination=mocks/notification_sender_mock.go -package=mocks . NotificationSender
type NotificationSender interface {
	Send(ctx context.Context, n clients.Notification) error
}

// The handlers below fan events out to the notification gateway. They
// run after commit, off the outbox, so a gateway failure never touches
// the transaction that produced the event; watermill retries the
// delivery instead.

func MatchRequestedHandler(notifier NotificationSender) cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"match_requested_notification",
		func(ctx context.Context, payload *entities.MatchRequested_v1) error {
			title := "New match request"
			if payload.Reactivated {
				title = "A traveler asked to rejoin"
			}
			return notifier.Send(ctx, clients.Notification{
				UserID: payload.HostID,
				Kind:   "match_requested",
				Title:  title,
				Body:   fmt.Sprintf("A group of %d wants to join your experience.", payload.Participants),
				Data: map[string]string{
					"match_id":      payload.MatchID.String(),
					"experience_id": payload.ExperienceID.String(),
				},
				IdempotencyKey: payload.Header.IdempotencyKey,
			})
		},
	)
}

func MatchAcceptedHandler(notifier NotificationSender) cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"match_accepted_notification",
		func(ctx context.Context, payload *entities.MatchAccepted_v1) error {
			return notifier.Send(ctx, clients.Notification{
				UserID:         payload.RequesterID,
				Kind:           "match_accepted",
				Title:          "Request accepted",
				Body:           "The host accepted your request. You're in!",
				Data:           map[string]string{"match_id": payload.MatchID.String()},
				IdempotencyKey: payload.Header.IdempotencyKey,
			})
		},
	)
}

func MatchRejectedHandler(notifier NotificationSender) cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"match_rejected_notification",
		func(ctx context.Context, payload *entities.MatchRejected_v1) error {
			return notifier.Send(ctx, clients.Notification{
				UserID:         payload.RequesterID,
				Kind:           "match_rejected",
				Title:          "Request declined",
				Body:           "The host declined your request this time.",
				Data:           map[string]string{"match_id": payload.MatchID.String()},
				IdempotencyKey: payload.Header.IdempotencyKey,
			})
		},
	)
}

func MatchCancelledHandler(notifier NotificationSender) cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"match_cancelled_notification",
		func(ctx context.Context, payload *entities.MatchCancelled_v1) error {
			return notifier.Send(ctx, clients.Notification{
				UserID:         payload.Counterpart,
				Kind:           "match_cancelled",
				Title:          "Match cancelled",
				Body:           "The other party cancelled your match. Any refund is already in your wallet.",
				Data:           map[string]string{"match_id": payload.MatchID.String()},
				IdempotencyKey: payload.Header.IdempotencyKey,
			})
		},
	)
}

func MatchCompletedHandler(notifier NotificationSender) cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"match_completed_notification",
		func(ctx context.Context, payload *entities.MatchCompleted_v1) error {
			for _, userID := range []uuid.UUID{payload.RequesterID, payload.HostID} {
				err := notifier.Send(ctx, clients.Notification{
					UserID:         userID,
					Kind:           "match_completed",
					Title:          "Experience completed",
					Body:           "Your match is complete. Thanks for being part of it!",
					Data:           map[string]string{"match_id": payload.MatchID.String()},
					IdempotencyKey: payload.Header.IdempotencyKey + "." + userID.String(),
				})
				if err != nil {
					return err
				}
			}
			return nil
		},
	)
}

// PlatformFeeChargedHandler sends the fee receipt and, when the debit
// left the wallet unable to cover another fee, a low-balance warning.
func PlatformFeeChargedHandler(notifier NotificationSender) cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"platform_fee_charged_notification",
		func(ctx context.Context, payload *entities.PlatformFeeCharged_v1) error {
			err := notifier.Send(ctx, clients.Notification{
				UserID: payload.UserID,
				Kind:   "platform_fee_charged",
				Title:  "Platform fee charged",
				Body:   fmt.Sprintf("%s %s was charged for your confirmed match.", payload.Amount.StringFixed(2), payload.Currency),
				Data: map[string]string{
					"match_id": payload.MatchID.String(),
				},
				IdempotencyKey: payload.Header.IdempotencyKey,
			})
			if err != nil {
				return err
			}

			if payload.RemainingBalance.LessThan(payload.Amount) {
				return notifier.Send(ctx, clients.Notification{
					UserID:         payload.UserID,
					Kind:           "low_balance",
					Title:          "Wallet balance is low",
					Body:           fmt.Sprintf("Your balance of %s %s no longer covers the platform fee. Top up to keep booking.", payload.RemainingBalance.StringFixed(2), payload.Currency),
					IdempotencyKey: payload.Header.IdempotencyKey + ".low_balance",
				})
			}
			return nil
		},
	)
}

func TopUpConfirmedHandler(notifier NotificationSender) cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"top_up_confirmed_notification",
		func(ctx context.Context, payload *entities.TopUpConfirmed_v1) error {
			return notifier.Send(ctx, clients.Notification{
				UserID: payload.UserID,
				Kind:   "top_up_confirmed",
				Title:  "Top-up received",
				Body:   fmt.Sprintf("%s %s was added to your wallet.", payload.Amount.StringFixed(2), payload.Currency),
				Data: map[string]string{
					"provider_reference": payload.ProviderReference,
				},
				IdempotencyKey: payload.Header.IdempotencyKey,
			})
		},
	)
}
