package shipping

import (
	"testing"

	"github.com/colmena-app/colmena-backend/pkg/db/models"
	pkgerrors "github.com/colmena-app/colmena-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func product(weight string) *models.Product {
	w, _ := decimal.NewFromString(weight)
	return &models.Product{ID: uuid.New(), Weight: w}
}

func TestOrderWeightSumsItems(t *testing.T) {
	order := models.Order{
		Items: []models.OrderItem{
			{ID: uuid.New(), Quantity: 2, Product: product("0.5")},
			{ID: uuid.New(), Quantity: 3, Product: product("1.25")},
		},
	}
	weight, err := OrderWeight(order)
	if err != nil {
		t.Fatalf("OrderWeight returned error: %v", err)
	}
	want, _ := decimal.NewFromString("4.75")
	if !weight.Equal(want) {
		t.Fatalf("OrderWeight = %s, want %s", weight, want)
	}
}

func TestOrderWeightEmptyOrder(t *testing.T) {
	weight, err := OrderWeight(models.Order{})
	if err != nil {
		t.Fatalf("OrderWeight returned error: %v", err)
	}
	if !weight.IsZero() {
		t.Fatalf("empty order should weigh zero, got %s", weight)
	}
}

func TestOrderWeightRejectsBadInputs(t *testing.T) {
	missingProduct := models.Order{Items: []models.OrderItem{{ID: uuid.New(), Quantity: 1}}}
	if _, err := OrderWeight(missingProduct); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("missing product should be a validation error, got %v", err)
	}

	negative := models.Order{Items: []models.OrderItem{{ID: uuid.New(), Quantity: 1, Product: product("-1")}}}
	if _, err := OrderWeight(negative); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("negative weight should be a validation error, got %v", err)
	}

	zeroQty := models.Order{Items: []models.OrderItem{{ID: uuid.New(), Quantity: 0, Product: product("1")}}}
	if _, err := OrderWeight(zeroQty); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("zero quantity should be a validation error, got %v", err)
	}
}
