package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/shopspring/decimal"
)

// Payment intent statuses reported by the processor. Only the first
// three count as proof of funds received.
const (
	IntentStatusSucceeded             = "succeeded"
	IntentStatusProcessing            = "processing"
	IntentStatusRequiresCapture       = "requires_capture"
	IntentStatusRequiresPaymentMethod = "requires_payment_method"
	IntentStatusRequiresConfirmation  = "requires_confirmation"
)

func IntentStatusSettled(status string) bool {
	switch status {
	case IntentStatusSucceeded, IntentStatusProcessing, IntentStatusRequiresCapture:
		return true
	}
	return false
}

func IntentStatusAwaitingPayment(status string) bool {
	switch status {
	case IntentStatusRequiresPaymentMethod, IntentStatusRequiresConfirmation:
		return true
	}
	return false
}

type PaymentIntent struct {
	Reference   string `json:"reference"`
	ClientToken string `json:"client_token"`
	Status      string `json:"status"`
}

type PaymentsClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewPaymentsClient(baseURL, apiKey string) PaymentsClient {
	return PaymentsClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type createIntentRequest struct {
	Amount          string  `json:"amount"`
	Currency        string  `json:"currency"`
	CustomerRef     string  `json:"customer_ref"`
	DeduplicationId *string `json:"deduplication_id,omitempty"`
}

func (c PaymentsClient) CreateIntent(ctx context.Context, customerRef string, amount decimal.Decimal, currency, idempotencyKey string) (*PaymentIntent, error) {
	body, err := json.Marshal(createIntentRequest{
		Amount:          amount.StringFixed(2),
		Currency:        currency,
		CustomerRef:     customerRef,
		DeduplicationId: pointer.To(idempotencyKey),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal intent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payment-intents", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error creating payment intent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("error creating payment intent: %s", resp.Status)
	}

	var intent PaymentIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	return &intent, nil
}

func (c PaymentsClient) GetIntent(ctx context.Context, reference string) (*PaymentIntent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/payment-intents/"+reference, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching payment intent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error fetching payment intent: %s", resp.Status)
	}

	var intent PaymentIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	return &intent, nil
}
