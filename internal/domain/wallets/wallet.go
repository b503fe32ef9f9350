package wallets

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds one user's balance. Wallets are created lazily on first
// access, never provisioned eagerly.
type Wallet struct {
	UserId    uuid.UUID       `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type TransactionType string

const (
	TypeTopUp          TransactionType = "top_up"
	TypePlatformFee    TransactionType = "platform_fee"
	TypeRefund         TransactionType = "refund"
	TypeReferralCredit TransactionType = "referral_credit"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusCancelled TransactionStatus = "cancelled"
)

// Transaction is an append-only ledger entry. Amount is signed:
// positive for credits, negative for debits.
type Transaction struct {
	Id                uuid.UUID         `json:"transaction_id"`
	UserId            uuid.UUID         `json:"user_id"`
	Type              TransactionType   `json:"type"`
	Status            TransactionStatus `json:"status"`
	Amount            decimal.Decimal   `json:"amount"`
	Currency          string            `json:"currency"`
	CounterpartId     *uuid.UUID        `json:"counterpart_id,omitempty"`
	MatchId           *uuid.UUID        `json:"match_id,omitempty"`
	ProviderReference *string           `json:"provider_reference,omitempty"`
	Description       string            `json:"description"`
	CreatedAt         time.Time         `json:"created_at"`
}
