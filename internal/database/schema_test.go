package database

import (
	"io/fs"
	"strings"
	"testing"

	"storefront/migrations"
)

func readMigration(t *testing.T, name string) string {
	t.Helper()
	content, err := fs.ReadFile(migrations.FS, name)
	if err != nil {
		t.Fatalf("Failed to read migration %s: %v", name, err)
	}
	return string(content)
}

func TestMigrationFilesExist(t *testing.T) {
	expectedMigrations := []string{
		"00001_create_users_table.sql",
		"00002_create_refresh_tokens_table.sql",
		"00003_create_addresses_table.sql",
		"00004_create_promotions_table.sql",
		"00005_create_orders_table.sql",
		"00006_create_order_items_table.sql",
		"00007_create_cart_items_table.sql",
		"00008_create_updated_at_trigger.sql",
	}

	for _, migration := range expectedMigrations {
		if _, err := fs.Stat(migrations.FS, migration); err != nil {
			t.Errorf("Migration file %s does not exist", migration)
		}
	}
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	files, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		t.Fatalf("Failed to read migrations: %v", err)
	}

	sqlFileCount := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		sqlFileCount++
		contentStr := readMigration(t, file.Name())

		for _, directive := range []string{
			"-- +goose Up",
			"-- +goose Down",
			"-- +goose StatementBegin",
			"-- +goose StatementEnd",
		} {
			if !strings.Contains(contentStr, directive) {
				t.Errorf("Migration file %s missing '%s' directive", file.Name(), directive)
			}
		}
	}

	if sqlFileCount == 0 {
		t.Error("No SQL migration files found")
	}
}

func TestMigrationFilesCreateExpectedTables(t *testing.T) {
	expectedTables := map[string]string{
		"users":          "00001_create_users_table.sql",
		"refresh_tokens": "00002_create_refresh_tokens_table.sql",
		"addresses":      "00003_create_addresses_table.sql",
		"promotions":     "00004_create_promotions_table.sql",
		"orders":         "00005_create_orders_table.sql",
		"order_items":    "00006_create_order_items_table.sql",
		"cart_items":     "00007_create_cart_items_table.sql",
	}

	for tableName, migrationFile := range expectedTables {
		contentStr := readMigration(t, migrationFile)

		if !strings.Contains(contentStr, "CREATE TABLE IF NOT EXISTS "+tableName) {
			t.Errorf("Migration file %s does not create table %s", migrationFile, tableName)
		}
		if !strings.Contains(contentStr, "DROP TABLE IF EXISTS "+tableName) {
			t.Errorf("Migration file %s does not drop table %s in down section", migrationFile, tableName)
		}
	}
}

func TestOrdersTableHasStatusConstraint(t *testing.T) {
	contentStr := readMigration(t, "00005_create_orders_table.sql")

	for _, status := range []string{"Order Placed", "Arrived", "Delivered", "Cancelled"} {
		if !strings.Contains(contentStr, "'"+status+"'") {
			t.Errorf("Orders table status constraint missing value: %s", status)
		}
	}
}

func TestPromotionsTableEnforcesCounters(t *testing.T) {
	contentStr := readMigration(t, "00004_create_promotions_table.sql")

	for _, fragment := range []string{
		"code VARCHAR(64) NOT NULL UNIQUE",
		"usage_limit IS NULL OR usage_limit >= 0",
		"used_count >= 0",
		"start_date < end_date",
	} {
		if !strings.Contains(contentStr, fragment) {
			t.Errorf("Promotions table missing constraint: %s", fragment)
		}
	}
}

func TestCartItemsTableHasUniqueConstraint(t *testing.T) {
	contentStr := readMigration(t, "00007_create_cart_items_table.sql")

	if !strings.Contains(contentStr, "UNIQUE (user_id, product_id)") {
		t.Error("Cart items table missing unique constraint on (user_id, product_id)")
	}
}
