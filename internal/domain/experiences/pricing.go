package experiences

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// PricingTier maps a group size range to a price per person. MaxPeople
// is nil for an unbounded top tier.
type PricingTier struct {
	MinPeople      int             `json:"min_people"`
	MaxPeople      *int            `json:"max_people,omitempty"`
	PricePerPerson decimal.Decimal `json:"price_per_person"`
}

func (t PricingTier) contains(count int) bool {
	if count < t.MinPeople {
		return false
	}
	return t.MaxPeople == nil || count <= *t.MaxPeople
}

const (
	TierIndividual = "individual"
	TierSmallGroup = "small_group"
	TierLargeGroup = "large_group"
)

type Quote struct {
	PricePerPerson decimal.Decimal `json:"price_per_person"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Savings        decimal.Decimal `json:"savings"`
	Tier           string          `json:"tier"`
}

// CalculateGroupPrice selects the first tier (ascending min_people)
// whose range contains participantCount, falling back to basePrice when
// no tier matches. Amounts are rounded to currency precision.
func CalculateGroupPrice(tiers []PricingTier, basePrice decimal.Decimal, participantCount int) Quote {
	perPerson := basePrice
	matchedMin := 1

	for _, tier := range tiers {
		if tier.contains(participantCount) {
			perPerson = tier.PricePerPerson
			matchedMin = tier.MinPeople
			break
		}
	}

	count := decimal.NewFromInt(int64(participantCount))
	total := perPerson.Mul(count).Round(2)
	atBase := basePrice.Mul(count).Round(2)

	return Quote{
		PricePerPerson: perPerson.Round(2),
		TotalPrice:     total,
		Savings:        atBase.Sub(total),
		Tier:           tierLabel(matchedMin),
	}
}

// tierLabel buckets the matched range's lower bound for display only.
func tierLabel(minPeople int) string {
	switch {
	case minPeople <= 1:
		return TierIndividual
	case minPeople <= 5:
		return TierSmallGroup
	default:
		return TierLargeGroup
	}
}

var ErrTierOverlap = errors.New("pricing tier ranges overlap")

// ValidateTiers checks a tier table on write: ranges sorted by
// min_people, non-overlapping, min_people >= 1, non-negative price and
// max >= min where max is bounded.
func ValidateTiers(tiers []PricingTier) error {
	for i, tier := range tiers {
		if tier.MinPeople < 1 {
			return validationErrorf("tier %d: min_people must be at least 1", i)
		}
		if tier.MaxPeople != nil && *tier.MaxPeople < tier.MinPeople {
			return validationErrorf("tier %d: max_people below min_people", i)
		}
		if tier.PricePerPerson.IsNegative() {
			return validationErrorf("tier %d: negative price", i)
		}
		if i == 0 {
			continue
		}

		prev := tiers[i-1]
		if tier.MinPeople < prev.MinPeople {
			return validationErrorf("tier %d: tiers must be sorted by min_people", i)
		}
		// an unbounded tier swallows everything after it
		if prev.MaxPeople == nil || *prev.MaxPeople >= tier.MinPeople {
			return fmt.Errorf("tier %d: %w", i, ErrTierOverlap)
		}
	}
	return nil
}
