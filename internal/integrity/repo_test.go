package integrity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/colmena-app/colmena-backend/pkg/db/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	stmts := []string{
		`CREATE TABLE campaigns (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			shipping_cost NUMERIC NOT NULL DEFAULT 0,
			is_closed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE orders (
			id TEXT PRIMARY KEY,
			campaign_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			subtotal NUMERIC NOT NULL DEFAULT 0,
			shipping_fee NUMERIC NOT NULL DEFAULT 0,
			total NUMERIC NOT NULL DEFAULT 0,
			is_paid BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME,
			updated_at DATETIME
		)`,
	}
	for _, stmt := range stmts {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("failed to create test schema: %v", err)
		}
	}
	return conn
}

func TestFindCampaignWithOrders(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	campaign := models.Campaign{
		ID:           uuid.New(),
		Name:         "winter batch",
		ShippingCost: decimal.RequireFromString("40.00"),
	}
	if err := conn.Create(&campaign).Error; err != nil {
		t.Fatalf("seed campaign: %v", err)
	}

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	late := models.Order{
		ID:         uuid.New(),
		CampaignID: campaign.ID,
		UserID:     uuid.New(),
		Subtotal:   decimal.RequireFromString("25.00"),
		CreatedAt:  base.Add(time.Hour),
	}
	early := models.Order{
		ID:         uuid.New(),
		CampaignID: campaign.ID,
		UserID:     uuid.New(),
		Subtotal:   decimal.RequireFromString("10.00"),
		CreatedAt:  base,
	}
	if err := conn.Create(&late).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	if err := conn.Create(&early).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	found, err := repo.FindCampaignWithOrders(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("find campaign: %v", err)
	}
	if len(found.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(found.Orders))
	}
	if found.Orders[0].ID != early.ID {
		t.Errorf("expected orders sorted by created_at, got %s first", found.Orders[0].ID)
	}
	if !found.ShippingCost.Equal(decimal.RequireFromString("40.00")) {
		t.Errorf("unexpected shipping cost %s", found.ShippingCost)
	}
}

func TestFindCampaignWithOrdersMissing(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)

	_, err := repo.FindCampaignWithOrders(context.Background(), uuid.New())
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}
