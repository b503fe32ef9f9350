package wallets

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrTransactionNotFound = errors.New("transaction not found")
var ErrPaymentNotSettled = errors.New("payment provider has not settled this payment yet")

// InsufficientBalanceError carries the amount the caller would need so
// the rejection can name it.
type InsufficientBalanceError struct {
	Required decimal.Decimal
	Balance  decimal.Decimal
}

func (e InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: need %s, have %s", e.Required, e.Balance)
}

// TopUpBelowMinimumError rejects top-up intents under the configured
// floor.
type TopUpBelowMinimumError struct {
	Minimum decimal.Decimal
}

func (e TopUpBelowMinimumError) Error() string {
	return fmt.Sprintf("top-up amount below minimum of %s", e.Minimum)
}
