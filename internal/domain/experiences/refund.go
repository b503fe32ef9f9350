package experiences

import (
	"time"

	"github.com/shopspring/decimal"
)

type CancellationPolicy string

const (
	PolicyFlexible      CancellationPolicy = "flexible"
	PolicyModerate      CancellationPolicy = "moderate"
	PolicyStrict        CancellationPolicy = "strict"
	PolicyNonRefundable CancellationPolicy = "non_refundable"
)

func (p CancellationPolicy) Valid() bool {
	switch p {
	case PolicyFlexible, PolicyModerate, PolicyStrict, PolicyNonRefundable:
		return true
	}
	return false
}

type RefundBreakdown struct {
	RefundPercentage int             `json:"refund_percentage"`
	RefundAmount     decimal.Decimal `json:"refund_amount"`
	PenaltyAmount    decimal.Decimal `json:"penalty_amount"`
	HoursUntilStart  float64         `json:"hours_until_start"`
}

// CalculateRefund applies the policy's step function to the time left
// before startDate. The penalty is derived from the rounded refund so
// the two always sum to originalAmount.
func CalculateRefund(policy CancellationPolicy, originalAmount decimal.Decimal, startDate, cancelDate time.Time) RefundBreakdown {
	hours := startDate.Sub(cancelDate).Hours()

	pct := refundPercentage(policy, hours)

	refund := originalAmount.
		Mul(decimal.NewFromInt(int64(pct))).
		Div(decimal.NewFromInt(100)).
		Round(2)

	if hours < 0 {
		hours = 0
	}

	return RefundBreakdown{
		RefundPercentage: pct,
		RefundAmount:     refund,
		PenaltyAmount:    originalAmount.Sub(refund),
		HoursUntilStart:  hours,
	}
}

func refundPercentage(policy CancellationPolicy, hoursUntilStart float64) int {
	switch policy {
	case PolicyFlexible:
		if hoursUntilStart >= 24 {
			return 100
		}
	case PolicyModerate:
		switch {
		case hoursUntilStart >= 72:
			return 100
		case hoursUntilStart >= 24:
			return 50
		}
	case PolicyStrict:
		switch {
		case hoursUntilStart >= 168:
			return 100
		case hoursUntilStart >= 72:
			return 50
		}
	}
	return 0
}
