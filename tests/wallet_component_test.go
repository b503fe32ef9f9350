package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type topUpIntentResponse struct {
	TransactionID     uuid.UUID `json:"transaction_id"`
	ProviderReference string    `json:"provider_reference"`
	ClientToken       string    `json:"client_token"`
	Reused            bool      `json:"reused"`
}

func (suite *ComponentTestSuite) createTopUp(userID uuid.UUID, amount string, idempotencyKey string) (*http.Response, topUpIntentResponse) {
	suite.T().Helper()

	payload, err := json.Marshal(map[string]string{"amount": amount})
	require.NoError(suite.T(), err)

	req, err := http.NewRequest(http.MethodPost, baseURL+"/wallet/top-ups", bytes.NewBuffer(payload))
	require.NoError(suite.T(), err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", userID.String())
	if idempotencyKey != "" {
		req.Header.Set("X-Idempotency-Key", idempotencyKey)
	}

	resp, err := suite.httpClient.Do(req)
	require.NoError(suite.T(), err)
	defer resp.Body.Close()

	var intent topUpIntentResponse
	if resp.StatusCode < 300 {
		require.NoError(suite.T(), json.NewDecoder(resp.Body).Decode(&intent))
	}
	return resp, intent
}

func (suite *ComponentTestSuite) TestTopUpFlow() {
	user := suite.seedUser("Topper", decimal.Zero)

	resp, intent := suite.createTopUp(user, "50.00", uuid.NewString())
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	require.NotEmpty(suite.T(), intent.ProviderReference)
	require.NotEmpty(suite.T(), intent.ClientToken)
	require.False(suite.T(), intent.Reused)

	// the same user asking again gets the same in-flight intent back
	resp, reused := suite.createTopUp(user, "50.00", uuid.NewString())
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.True(suite.T(), reused.Reused)
	assert.Equal(suite.T(), intent.ProviderReference, reused.ProviderReference)

	// confirming before the processor settles is a conflict
	resp = suite.doJSON(http.MethodPost, "/wallet/top-ups/confirm", user,
		map[string]string{"provider_reference": intent.ProviderReference}, nil)
	require.Equal(suite.T(), http.StatusConflict, resp.StatusCode)
	assert.True(suite.T(), suite.walletBalance(user).Equal(decimal.Zero))

	suite.payments.settle(intent.ProviderReference)

	var confirmed struct {
		Status string `json:"status"`
	}
	resp = suite.doJSON(http.MethodPost, "/wallet/top-ups/confirm", user,
		map[string]string{"provider_reference": intent.ProviderReference}, &confirmed)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.Equal(suite.T(), "completed", confirmed.Status)
	assert.True(suite.T(), suite.walletBalance(user).Equal(decimal.NewFromInt(50)))

	// confirming twice credits once
	resp = suite.doJSON(http.MethodPost, "/wallet/top-ups/confirm", user,
		map[string]string{"provider_reference": intent.ProviderReference}, nil)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.True(suite.T(), suite.walletBalance(user).Equal(decimal.NewFromInt(50)))

	require.Eventually(suite.T(), func() bool {
		return suite.notifier.received("top_up_confirmed", user)
	}, 15*time.Second, 100*time.Millisecond)
}

func (suite *ComponentTestSuite) TestTopUpBelowMinimum() {
	user := suite.seedUser("Cheapskate", decimal.Zero)

	payload, err := json.Marshal(map[string]string{"amount": "10.00"})
	require.NoError(suite.T(), err)

	req, err := http.NewRequest(http.MethodPost, baseURL+"/wallet/top-ups", bytes.NewBuffer(payload))
	require.NoError(suite.T(), err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", user.String())

	resp, err := suite.httpClient.Do(req)
	require.NoError(suite.T(), err)
	defer resp.Body.Close()

	require.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)

	var errBody struct {
		Minimum string `json:"minimum"`
	}
	require.NoError(suite.T(), json.NewDecoder(resp.Body).Decode(&errBody))
	assert.Equal(suite.T(), "20.00", errBody.Minimum)
}

func (suite *ComponentTestSuite) TestTransactionHistory() {
	user := suite.seedUser("Historian", decimal.Zero)

	resp, intent := suite.createTopUp(user, "75.00", uuid.NewString())
	require.Equal(suite.T(), http.StatusCreated, resp.StatusCode)
	suite.payments.settle(intent.ProviderReference)

	resp = suite.doJSON(http.MethodPost, "/wallet/top-ups/confirm", user,
		map[string]string{"provider_reference": intent.ProviderReference}, nil)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	var history []struct {
		Type   string `json:"type"`
		Status string `json:"status"`
		Amount string `json:"amount"`
	}
	resp = suite.doJSON(http.MethodGet, "/wallet/transactions", user, nil, &history)
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	// the pending leg never shows, only the completed credit
	require.Len(suite.T(), history, 1)
	assert.Equal(suite.T(), "top_up", history[0].Type)
	assert.Equal(suite.T(), "completed", history[0].Status)

	amount, err := decimal.NewFromString(history[0].Amount)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), amount.Equal(decimal.NewFromInt(75)))

	// an unauthenticated request is rejected at the door
	resp = suite.doJSON(http.MethodGet, "/wallet", uuid.Nil, nil, nil)
	require.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)
}
