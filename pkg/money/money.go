package money

import (
	"fmt"

	pkgerrors "github.com/colmena-app/colmena-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// minorUnitPlaces is the scale of the smallest currency unit (cents).
const minorUnitPlaces = 2

// Round rounds to the minor currency unit, half up on the scaled
// representation. Every amount written to an order must pass through
// here so binary-float drift never reaches the books.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(minorUnitPlaces)
}

// Share is one order's claim on a distributable total, keyed by order so
// weights and amounts can never drift out of positional alignment.
type Share struct {
	OrderID uuid.UUID
	Weight  decimal.Decimal
}

// Allocation is the amount assigned to one order by Distribute. The
// slice returned by Distribute preserves the input share order.
type Allocation struct {
	OrderID uuid.UUID
	Amount  decimal.Decimal
}

// Distribute splits total across shares in proportion to their weights.
//
// The sum of the returned amounts equals Round(total) exactly: every
// share except the last is rounded independently, and the last share
// absorbs whatever residual the earlier roundings left. The last share
// can therefore sit a few cents away from its ideal proportional cut;
// that is the price of an exact sum.
//
// A zero weight sum returns zero amounts for every share: the total is
// deliberately not charged when no share carries weight.
func Distribute(total decimal.Decimal, shares []Share) ([]Allocation, error) {
	if total.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total must not be negative")
	}

	weightSum := decimal.Zero
	for _, share := range shares {
		if share.Weight.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("negative weight for order %s", share.OrderID))
		}
		weightSum = weightSum.Add(share.Weight)
	}

	if len(shares) == 0 {
		return []Allocation{}, nil
	}
	if weightSum.IsZero() {
		return zeroAllocations(shares), nil
	}

	allocations := make([]Allocation, 0, len(shares))
	distributed := decimal.Zero
	for i, share := range shares {
		var amount decimal.Decimal
		if i == len(shares)-1 {
			amount = Round(total.Sub(distributed))
		} else {
			amount = Round(total.Mul(share.Weight).Div(weightSum))
			distributed = distributed.Add(amount)
		}
		allocations = append(allocations, Allocation{OrderID: share.OrderID, Amount: amount})
	}
	return allocations, nil
}

// zeroAllocations is the explicit nobody-has-weight branch: the total is
// dropped rather than split evenly.
func zeroAllocations(shares []Share) []Allocation {
	allocations := make([]Allocation, 0, len(shares))
	for _, share := range shares {
		allocations = append(allocations, Allocation{OrderID: share.OrderID, Amount: decimal.Zero})
	}
	return allocations
}

// Sum adds up allocation amounts; used by audits and tests.
func Sum(allocations []Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, allocation := range allocations {
		total = total.Add(allocation.Amount)
	}
	return total
}
