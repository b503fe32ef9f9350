package tests

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type experienceResponse struct {
	ExperienceID uuid.UUID `json:"experience_id"`
	HostID       uuid.UUID `json:"host_id"`
	Published    bool      `json:"published"`
}

type matchResponse struct {
	MatchID            uuid.UUID  `json:"match_id"`
	ExperienceID       uuid.UUID  `json:"experience_id"`
	RequesterID        uuid.UUID  `json:"requester_id"`
	HostID             uuid.UUID  `json:"host_id"`
	Status             string     `json:"status"`
	HostConfirmed      bool       `json:"host_confirmed"`
	RequesterConfirmed bool       `json:"requester_confirmed"`
	Participants       int        `json:"participants"`
	TotalPrice         *string    `json:"total_price"`
	StartDate          *time.Time `json:"start_date"`
}

type createExperienceRequest struct {
	Title              string `json:"title"`
	Kind               string `json:"kind"`
	Published          bool   `json:"published"`
	Capacity           int    `json:"capacity"`
	MinParticipants    int    `json:"min_participants"`
	MaxParticipants    int    `json:"max_participants"`
	BasePrice          string `json:"base_price"`
	Currency           string `json:"currency"`
	CancellationPolicy string `json:"cancellation_policy"`
}

type createMatchRequest struct {
	ExperienceID uuid.UUID  `json:"experience_id"`
	Participants int        `json:"participants"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
}

func (suite *ComponentTestSuite) createExperience(hostID uuid.UUID, req createExperienceRequest) experienceResponse {
	suite.T().Helper()

	var exp experienceResponse
	resp := suite.doJSON(http.MethodPost, "/experiences", hostID, req, &exp)
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	require.NotEqual(suite.T(), uuid.Nil, exp.ExperienceID)
	return exp
}

func defaultExperience() createExperienceRequest {
	return createExperienceRequest{
		Title:              "Sunrise drum circle",
		Kind:               "exchange",
		Published:          true,
		Capacity:           10,
		MinParticipants:    1,
		MaxParticipants:    6,
		BasePrice:          "0",
		Currency:           "EUR",
		CancellationPolicy: "flexible",
	}
}

func (suite *ComponentTestSuite) TestMatchLifecycle() {
	host := suite.seedUser("Noa", decimal.NewFromInt(50))
	requester := suite.seedUser("Ilya", decimal.NewFromInt(50))
	bystander := suite.seedUser("Petra", decimal.NewFromInt(50))

	exp := suite.createExperience(host, defaultExperience())

	start := time.Now().Add(30 * 24 * time.Hour).UTC().Truncate(time.Second)
	var m matchResponse
	resp := suite.doJSON(http.MethodPost, "/matches", requester, createMatchRequest{
		ExperienceID: exp.ExperienceID,
		Participants: 2,
		StartDate:    &start,
	}, &m)
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	require.Equal(suite.T(), "pending", m.Status)
	require.Equal(suite.T(), host, m.HostID)

	// pending costs nothing
	assert.True(suite.T(), suite.walletBalance(host).Equal(decimal.NewFromInt(50)))
	assert.True(suite.T(), suite.walletBalance(requester).Equal(decimal.NewFromInt(50)))

	resp = suite.doJSON(http.MethodPost, "/matches/"+m.MatchID.String()+"/accept", host, nil, &m)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	require.Equal(suite.T(), "accepted", m.Status)

	// both parties paid the fee, nobody else did
	assert.True(suite.T(), suite.walletBalance(host).Equal(decimal.NewFromInt(45)))
	assert.True(suite.T(), suite.walletBalance(requester).Equal(decimal.NewFromInt(45)))
	assert.True(suite.T(), suite.walletBalance(bystander).Equal(decimal.NewFromInt(50)))

	var feeRows int
	require.NoError(suite.T(), suite.db.GetContext(suite.ctx, &feeRows,
		`SELECT COUNT(*) FROM wallet_transactions WHERE match_id = $1 AND type = 'platform_fee' AND status = 'completed'`,
		m.MatchID))
	assert.Equal(suite.T(), 2, feeRows)

	// the outbox fans the lifecycle out to the notification gateway
	require.Eventually(suite.T(), func() bool {
		return suite.notifier.received("match_requested", host) &&
			suite.notifier.received("match_accepted", requester) &&
			suite.notifier.received("platform_fee_charged", host) &&
			suite.notifier.received("platform_fee_charged", requester)
	}, 15*time.Second, 100*time.Millisecond, "notifications should flow through the outbox")

	// second accept is a conflict, money moves once
	resp = suite.doJSON(http.MethodPost, "/matches/"+m.MatchID.String()+"/accept", host, nil, nil)
	require.Equal(suite.T(), http.StatusConflict, resp.StatusCode)
	assert.True(suite.T(), suite.walletBalance(host).Equal(decimal.NewFromInt(45)))
}

func (suite *ComponentTestSuite) TestAcceptInsufficientBalanceChargesNobody() {
	host := suite.seedUser("Broke Host", decimal.NewFromInt(2))
	requester := suite.seedUser("Funded Requester", decimal.NewFromInt(50))

	exp := suite.createExperience(host, defaultExperience())

	var m matchResponse
	resp := suite.doJSON(http.MethodPost, "/matches", requester, createMatchRequest{
		ExperienceID: exp.ExperienceID,
		Participants: 1,
	}, &m)
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)

	var errBody struct {
		Required string `json:"required"`
		Balance  string `json:"balance"`
	}
	resp = suite.doJSON(http.MethodPost, "/matches/"+m.MatchID.String()+"/accept", host, nil, &errBody)
	require.Equal(suite.T(), http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(suite.T(), "5.00", errBody.Required)
	assert.Equal(suite.T(), "2.00", errBody.Balance)

	// the requester's wallet was rolled back along with the host's
	assert.True(suite.T(), suite.walletBalance(requester).Equal(decimal.NewFromInt(50)))
	assert.True(suite.T(), suite.walletBalance(host).Equal(decimal.NewFromInt(2)))

	resp = suite.doJSON(http.MethodGet, "/matches/"+m.MatchID.String(), host, nil, &m)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.Equal(suite.T(), "pending", m.Status)
}

func (suite *ComponentTestSuite) TestCapacitySharedAcrossOverlappingRequests() {
	host := suite.seedUser("Capacity Host", decimal.NewFromInt(50))
	first := suite.seedUser("First Group", decimal.NewFromInt(50))
	second := suite.seedUser("Late Arrival", decimal.NewFromInt(50))

	req := defaultExperience()
	req.Capacity = 4
	req.MaxParticipants = 4
	exp := suite.createExperience(host, req)

	start := time.Now().Add(14 * 24 * time.Hour).UTC().Truncate(time.Second)

	resp := suite.doJSON(http.MethodPost, "/matches", first, createMatchRequest{
		ExperienceID: exp.ExperienceID,
		Participants: 4,
		StartDate:    &start,
	}, nil)
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)

	var errBody struct {
		AvailableSpots *int `json:"available_spots"`
	}
	resp = suite.doJSON(http.MethodPost, "/matches", second, createMatchRequest{
		ExperienceID: exp.ExperienceID,
		Participants: 1,
		StartDate:    &start,
	}, &errBody)
	require.Equal(suite.T(), http.StatusConflict, resp.StatusCode)
	require.NotNil(suite.T(), errBody.AvailableSpots)
	assert.Equal(suite.T(), 0, *errBody.AvailableSpots)

	// a different date does not compete for the same spots
	otherStart := start.Add(7 * 24 * time.Hour)
	resp = suite.doJSON(http.MethodPost, "/matches", second, createMatchRequest{
		ExperienceID: exp.ExperienceID,
		Participants: 1,
		StartDate:    &otherStart,
	}, nil)
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
}

func (suite *ComponentTestSuite) TestRejectedMatchIsReactivated() {
	host := suite.seedUser("Picky Host", decimal.NewFromInt(50))
	requester := suite.seedUser("Persistent", decimal.NewFromInt(50))

	exp := suite.createExperience(host, defaultExperience())

	var m matchResponse
	resp := suite.doJSON(http.MethodPost, "/matches", requester, createMatchRequest{
		ExperienceID: exp.ExperienceID,
		Participants: 1,
	}, &m)
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	firstID := m.MatchID

	// open request blocks a duplicate
	resp = suite.doJSON(http.MethodPost, "/matches", requester, createMatchRequest{
		ExperienceID: exp.ExperienceID,
		Participants: 1,
	}, nil)
	require.Equal(suite.T(), http.StatusConflict, resp.StatusCode)

	resp = suite.doJSON(http.MethodPost, "/matches/"+firstID.String()+"/reject", host, nil, &m)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	require.Equal(suite.T(), "rejected", m.Status)

	// a fresh request resets the same row to pending
	resp = suite.doJSON(http.MethodPost, "/matches", requester, createMatchRequest{
		ExperienceID: exp.ExperienceID,
		Participants: 3,
	}, &m)
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	assert.Equal(suite.T(), firstID, m.MatchID)
	assert.Equal(suite.T(), "pending", m.Status)
	assert.Equal(suite.T(), 3, m.Participants)

	var rows int
	require.NoError(suite.T(), suite.db.GetContext(suite.ctx, &rows,
		`SELECT COUNT(*) FROM matches WHERE experience_id = $1 AND requester_id = $2`,
		exp.ExperienceID, requester))
	assert.Equal(suite.T(), 1, rows)
}

func (suite *ComponentTestSuite) TestCancelAcceptedMatchRefunds() {
	host := suite.seedUser("Refunding Host", decimal.NewFromInt(50))
	requester := suite.seedUser("Cancelling Guest", decimal.NewFromInt(50))

	exp := suite.createExperience(host, defaultExperience())

	start := time.Now().Add(10 * 24 * time.Hour).UTC().Truncate(time.Second)
	var m matchResponse
	resp := suite.doJSON(http.MethodPost, "/matches", requester, createMatchRequest{
		ExperienceID: exp.ExperienceID,
		Participants: 2,
		StartDate:    &start,
	}, &m)
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)

	resp = suite.doJSON(http.MethodPost, "/matches/"+m.MatchID.String()+"/accept", host, nil, &m)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	// a flexible policy this far out refunds the canceller in full,
	// the counterpart always gets their fee back
	resp = suite.doJSON(http.MethodPost, "/matches/"+m.MatchID.String()+"/cancel", requester, nil, &m)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	require.Equal(suite.T(), "cancelled", m.Status)

	assert.True(suite.T(), suite.walletBalance(requester).Equal(decimal.NewFromInt(50)))
	assert.True(suite.T(), suite.walletBalance(host).Equal(decimal.NewFromInt(50)))

	var cancellation struct {
		Policy       string `db:"policy"`
		RefundAmount string `db:"refund_amount"`
	}
	require.NoError(suite.T(), suite.db.GetContext(suite.ctx, &cancellation,
		`SELECT policy, refund_amount FROM cancellations WHERE match_id = $1`, m.MatchID))
	assert.Equal(suite.T(), "flexible", cancellation.Policy)

	refund, err := decimal.NewFromString(cancellation.RefundAmount)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), refund.Equal(decimal.NewFromInt(5)))

	// the chat is closed for good
	resp = suite.doJSON(http.MethodPost, "/matches/"+m.MatchID.String()+"/messages", requester,
		map[string]string{"body": "sorry!"}, nil)
	require.Equal(suite.T(), http.StatusConflict, resp.StatusCode)
}

func (suite *ComponentTestSuite) TestBothConfirmationsCompleteTheMatch() {
	host := suite.seedUser("Confirming Host", decimal.NewFromInt(50))
	requester := suite.seedUser("Confirming Guest", decimal.NewFromInt(50))

	exp := suite.createExperience(host, defaultExperience())

	var m matchResponse
	resp := suite.doJSON(http.MethodPost, "/matches", requester, createMatchRequest{
		ExperienceID: exp.ExperienceID,
		Participants: 1,
	}, &m)
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)

	resp = suite.doJSON(http.MethodPost, "/matches/"+m.MatchID.String()+"/accept", host, nil, &m)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	resp = suite.doJSON(http.MethodPost, "/matches/"+m.MatchID.String()+"/confirm", host, nil, &m)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.Equal(suite.T(), "accepted", m.Status)
	assert.True(suite.T(), m.HostConfirmed)
	assert.False(suite.T(), m.RequesterConfirmed)

	// confirming twice is a conflict
	resp = suite.doJSON(http.MethodPost, "/matches/"+m.MatchID.String()+"/confirm", host, nil, nil)
	require.Equal(suite.T(), http.StatusConflict, resp.StatusCode)

	resp = suite.doJSON(http.MethodPost, "/matches/"+m.MatchID.String()+"/confirm", requester, nil, &m)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.Equal(suite.T(), "completed", m.Status)

	require.Eventually(suite.T(), func() bool {
		return suite.notifier.received("match_completed", host) &&
			suite.notifier.received("match_completed", requester)
	}, 15*time.Second, 100*time.Millisecond)
}
