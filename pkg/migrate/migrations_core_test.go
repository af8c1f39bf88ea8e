package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/colmena-app/colmena-backend/pkg/migrate"
)

func TestCoreMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_core_tables.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no core tables migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS campaigns",
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS order_items",
		"CREATE TABLE IF NOT EXISTS products",
		"FOREIGN KEY (campaign_id) REFERENCES campaigns(id) ON DELETE CASCADE",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE",
		"CHECK (quantity > 0)",
		"CHECK (shipping_cost >= 0)",
		"DROP TABLE IF EXISTS order_items",
		"DROP TABLE IF EXISTS campaigns",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
