package match

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"festmatch/internal/domain/matches"
)

var errEmptyMessage = errors.New("message body is empty")

// SendMessage posts a chat line to a match the actor is party to. The
// chat closes for good once the match is rejected or cancelled, and
// access is gated on the sender holding at least the platform fee.
func (o *Orchestrator) SendMessage(ctx context.Context, matchID, senderID uuid.UUID, body string) (*matches.Message, error) {
	if body == "" {
		return nil, errEmptyMessage
	}

	m, err := o.matchesRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.IsParty(senderID) {
		return nil, matches.ErrNotParty
	}
	if m.Status == matches.StatusRejected || m.Status == matches.StatusCancelled {
		return nil, matches.ErrChatClosed
	}

	if err := o.requireFeeBalance(ctx, senderID); err != nil {
		return nil, err
	}

	msg := matches.Message{
		MatchId:  matchID,
		SenderId: senderID,
		Body:     body,
	}
	id, err := o.matchesRepo.InsertMessage(ctx, msg)
	if err != nil {
		return nil, err
	}
	msg.Id = id
	return &msg, nil
}

// ListMessages returns the match's chat history, oldest first.
func (o *Orchestrator) ListMessages(ctx context.Context, matchID, actorID uuid.UUID) ([]matches.Message, error) {
	m, err := o.matchesRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.IsParty(actorID) {
		return nil, matches.ErrNotParty
	}
	return o.matchesRepo.ListMessages(ctx, matchID)
}
