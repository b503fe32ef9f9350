package match

import (
	"context"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"festmatch/internal/domain/experiences"
	"festmatch/internal/domain/matches"
	"festmatch/internal/domain/users"
	"festmatch/internal/domain/wallets"
)

type fakeMatchesRepo struct {
	MatchesRepo

	byID     map[uuid.UUID]*matches.Match
	messages []matches.Message
}

func (f *fakeMatchesRepo) GetByID(ctx context.Context, id uuid.UUID) (*matches.Match, error) {
	m, ok := f.byID[id]
	if !ok {
		return nil, matches.ErrMatchNotFound
	}
	return m, nil
}

func (f *fakeMatchesRepo) InsertMessage(ctx context.Context, msg matches.Message) (uuid.UUID, error) {
	msg.Id = uuid.New()
	f.messages = append(f.messages, msg)
	return msg.Id, nil
}

func (f *fakeMatchesRepo) ListMessages(ctx context.Context, matchID uuid.UUID) ([]matches.Message, error) {
	return f.messages, nil
}

type fakeExperiencesRepo struct {
	exp *experiences.Experience
}

func (f *fakeExperiencesRepo) GetByID(ctx context.Context, id uuid.UUID) (*experiences.Experience, error) {
	if f.exp == nil {
		return nil, experiences.ErrExperienceNotFound
	}
	return f.exp, nil
}

type fakeUsersRepo struct {
	blocked bool
}

func (f *fakeUsersRepo) GetProfile(ctx context.Context, id uuid.UUID) (*users.Profile, error) {
	return &users.Profile{Id: id, DisplayName: "someone"}, nil
}

func (f *fakeUsersRepo) IsBlocked(ctx context.Context, a, b uuid.UUID) (bool, error) {
	return f.blocked, nil
}

type fakeLedger struct {
	WalletLedger

	balance decimal.Decimal
}

func (f *fakeLedger) PlatformFee() decimal.Decimal {
	return decimal.NewFromInt(5)
}

func (f *fakeLedger) GetWallet(ctx context.Context, userID uuid.UUID) (*wallets.Wallet, error) {
	return &wallets.Wallet{UserId: userID, Balance: f.balance, Currency: "EUR"}, nil
}

func newTestOrchestrator(mr *fakeMatchesRepo, er *fakeExperiencesRepo, ur *fakeUsersRepo, ledger *fakeLedger) *Orchestrator {
	return NewOrchestrator(mr, er, ur, ledger, nil, nil, watermill.NopLogger{})
}

func publishedExperience(hostID uuid.UUID) *experiences.Experience {
	return &experiences.Experience{
		Id:              uuid.New(),
		HostId:          hostID,
		Kind:            experiences.KindExchange,
		Published:       true,
		Capacity:        10,
		MinParticipants: 1,
		MaxParticipants: 6,
	}
}

func TestCreateMatch_Validation(t *testing.T) {
	host := uuid.New()
	requester := uuid.New()

	baseReq := func() CreateMatchRequest {
		return CreateMatchRequest{
			ExperienceID: uuid.New(),
			RequesterID:  requester,
			Participants: 2,
		}
	}

	t.Run("unpublished experience", func(t *testing.T) {
		exp := publishedExperience(host)
		exp.Published = false
		o := newTestOrchestrator(&fakeMatchesRepo{}, &fakeExperiencesRepo{exp: exp}, &fakeUsersRepo{}, &fakeLedger{})

		_, err := o.CreateMatch(context.Background(), baseReq())
		assert.ErrorIs(t, err, experiences.ErrNotPublished)
	})

	t.Run("host requesting own experience", func(t *testing.T) {
		o := newTestOrchestrator(&fakeMatchesRepo{}, &fakeExperiencesRepo{exp: publishedExperience(host)}, &fakeUsersRepo{}, &fakeLedger{})

		req := baseReq()
		req.RequesterID = host
		_, err := o.CreateMatch(context.Background(), req)
		assert.ErrorIs(t, err, matches.ErrSelfMatch)
	})

	t.Run("blocked pair", func(t *testing.T) {
		o := newTestOrchestrator(&fakeMatchesRepo{}, &fakeExperiencesRepo{exp: publishedExperience(host)}, &fakeUsersRepo{blocked: true}, &fakeLedger{})

		_, err := o.CreateMatch(context.Background(), baseReq())
		assert.ErrorIs(t, err, matches.ErrBlocked)
	})

	t.Run("participants out of bounds", func(t *testing.T) {
		o := newTestOrchestrator(&fakeMatchesRepo{}, &fakeExperiencesRepo{exp: publishedExperience(host)}, &fakeUsersRepo{}, &fakeLedger{})

		req := baseReq()
		req.Participants = 7
		_, err := o.CreateMatch(context.Background(), req)

		var bounds experiences.ParticipantBoundsError
		require.ErrorAs(t, err, &bounds)
		assert.Equal(t, 6, bounds.Max)
		assert.Equal(t, 7, bounds.Requested)
	})

	t.Run("balance below platform fee", func(t *testing.T) {
		ledger := &fakeLedger{balance: decimal.NewFromInt(3)}
		o := newTestOrchestrator(&fakeMatchesRepo{}, &fakeExperiencesRepo{exp: publishedExperience(host)}, &fakeUsersRepo{}, ledger)

		_, err := o.CreateMatch(context.Background(), baseReq())

		var insufficient wallets.InsufficientBalanceError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, "5.00", insufficient.Required.StringFixed(2))
		assert.Equal(t, "3.00", insufficient.Balance.StringFixed(2))
	})
}

func TestAccept_RoleChecks(t *testing.T) {
	host := uuid.New()
	requester := uuid.New()
	matchID := uuid.New()

	mr := &fakeMatchesRepo{byID: map[uuid.UUID]*matches.Match{
		matchID: {Id: matchID, HostId: host, RequesterId: requester, Status: matches.StatusPending},
	}}
	o := newTestOrchestrator(mr, &fakeExperiencesRepo{}, &fakeUsersRepo{}, &fakeLedger{})

	_, err := o.Accept(context.Background(), matchID, uuid.New())
	assert.ErrorIs(t, err, matches.ErrNotParty)

	_, err = o.Accept(context.Background(), matchID, requester)
	assert.ErrorIs(t, err, matches.ErrHostOnly)

	_, err = o.Accept(context.Background(), uuid.New(), host)
	assert.ErrorIs(t, err, matches.ErrMatchNotFound)
}

func TestGetMatch_PartyOnly(t *testing.T) {
	host := uuid.New()
	requester := uuid.New()
	matchID := uuid.New()

	mr := &fakeMatchesRepo{byID: map[uuid.UUID]*matches.Match{
		matchID: {Id: matchID, HostId: host, RequesterId: requester, Status: matches.StatusPending},
	}}
	o := newTestOrchestrator(mr, &fakeExperiencesRepo{}, &fakeUsersRepo{}, &fakeLedger{})

	m, err := o.GetMatch(context.Background(), matchID, requester)
	require.NoError(t, err)
	assert.Equal(t, matchID, m.Id)

	_, err = o.GetMatch(context.Background(), matchID, uuid.New())
	assert.ErrorIs(t, err, matches.ErrNotParty)
}

func TestSendMessage(t *testing.T) {
	host := uuid.New()
	requester := uuid.New()
	matchID := uuid.New()

	newRepo := func(status matches.Status) *fakeMatchesRepo {
		return &fakeMatchesRepo{byID: map[uuid.UUID]*matches.Match{
			matchID: {Id: matchID, HostId: host, RequesterId: requester, Status: status},
		}}
	}

	t.Run("posts to an open match", func(t *testing.T) {
		mr := newRepo(matches.StatusAccepted)
		o := newTestOrchestrator(mr, &fakeExperiencesRepo{}, &fakeUsersRepo{}, &fakeLedger{balance: decimal.NewFromInt(10)})

		msg, err := o.SendMessage(context.Background(), matchID, host, "see you at the gate")
		require.NoError(t, err)
		assert.Equal(t, host, msg.SenderId)
		assert.NotEqual(t, uuid.Nil, msg.Id)
		require.Len(t, mr.messages, 1)
	})

	t.Run("empty body", func(t *testing.T) {
		o := newTestOrchestrator(newRepo(matches.StatusAccepted), &fakeExperiencesRepo{}, &fakeUsersRepo{}, &fakeLedger{})

		_, err := o.SendMessage(context.Background(), matchID, host, "")
		assert.Error(t, err)
	})

	t.Run("stranger cannot post", func(t *testing.T) {
		o := newTestOrchestrator(newRepo(matches.StatusAccepted), &fakeExperiencesRepo{}, &fakeUsersRepo{}, &fakeLedger{})

		_, err := o.SendMessage(context.Background(), matchID, uuid.New(), "hi")
		assert.ErrorIs(t, err, matches.ErrNotParty)
	})

	t.Run("chat is closed after rejection and cancellation", func(t *testing.T) {
		for _, status := range []matches.Status{matches.StatusRejected, matches.StatusCancelled} {
			o := newTestOrchestrator(newRepo(status), &fakeExperiencesRepo{}, &fakeUsersRepo{}, &fakeLedger{balance: decimal.NewFromInt(10)})

			_, err := o.SendMessage(context.Background(), matchID, requester, "hello?")
			assert.ErrorIs(t, err, matches.ErrChatClosed, "status %s", status)
		}
	})

	t.Run("sender below fee balance is gated", func(t *testing.T) {
		o := newTestOrchestrator(newRepo(matches.StatusPending), &fakeExperiencesRepo{}, &fakeUsersRepo{}, &fakeLedger{balance: decimal.NewFromInt(2)})

		_, err := o.SendMessage(context.Background(), matchID, requester, "hello")

		var insufficient wallets.InsufficientBalanceError
		assert.ErrorAs(t, err, &insufficient)
	})
}

func TestWithRetry(t *testing.T) {
	t.Run("ordinary errors are not retried", func(t *testing.T) {
		attempts := 0
		err := WithRetry(3, func(ctx context.Context) error {
			attempts++
			return assert.AnError
		})(context.Background())
		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, 1, attempts)
	})

	t.Run("serialization failures retry until they clear", func(t *testing.T) {
		attempts := 0
		err := WithRetry(3, func(ctx context.Context) error {
			attempts++
			if attempts < 3 {
				return &pq.Error{Code: "40001"}
			}
			return nil
		})(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("serialization failures exhaust attempts", func(t *testing.T) {
		attempts := 0
		err := WithRetry(3, func(ctx context.Context) error {
			attempts++
			return &pq.Error{Code: "40001"}
		})(context.Background())
		require.Error(t, err)
		assert.Equal(t, 3, attempts)
	})
}
