package shipping

import (
	"fmt"

	"github.com/colmena-app/colmena-backend/pkg/db/models"
	pkgerrors "github.com/colmena-app/colmena-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// OrderWeight returns the chargeable shipping weight of an order:
// the sum of item quantity times the referenced product's unit weight.
// An order with no items weighs zero.
func OrderWeight(order models.Order) (decimal.Decimal, error) {
	weight := decimal.Zero
	for _, item := range order.Items {
		if item.Product == nil {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("order item %s has no resolved product", item.ID))
		}
		if item.Product.Weight.IsNegative() {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %s has negative weight", item.ProductID))
		}
		if item.Quantity <= 0 {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("order item %s has non-positive quantity", item.ID))
		}
		weight = weight.Add(item.Product.Weight.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return weight, nil
}
