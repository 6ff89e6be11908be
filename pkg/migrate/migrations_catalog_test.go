package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCatalogMigrationContainsSchemas(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_menu_catalog.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no catalog migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS menu_categories",
		"CREATE TABLE IF NOT EXISTS menu_items",
		"CREATE TABLE IF NOT EXISTS customization_groups",
		"CREATE TABLE IF NOT EXISTS customization_options",
		"CREATE TABLE IF NOT EXISTS package_components",
		"base_price numeric(12,2) NOT NULL CHECK (base_price >= 0)",
		"FOREIGN KEY (item_id) REFERENCES menu_items(id) ON DELETE CASCADE",
		"FOREIGN KEY (group_id) REFERENCES customization_groups(id) ON DELETE CASCADE",
		"CHECK (max_selections IS NULL OR max_selections > 0)",
		"DROP TABLE IF EXISTS menu_items",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestEnumsMigrationContainsTypes(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_enums.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no enums migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TYPE item_kind AS ENUM",
		"CREATE TYPE item_availability AS ENUM",
		"CREATE TYPE selection_kind AS ENUM",
		"CREATE TYPE cart_status AS ENUM",
		"CREATE TYPE order_status AS ENUM",
		"CREATE TYPE payment_status AS ENUM",
		"CREATE TYPE delivery_type AS ENUM",
		"CREATE TYPE aggregate_type_enum AS ENUM",
		"CREATE TYPE event_type_enum AS ENUM",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
