package migrations_test

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricebook/internal/infrastructure/storage/postgres/migrations"
)

func TestMigrationsHaveUpAndDown(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		data, err := fs.ReadFile(migrations.FS, name)
		require.NoError(t, err)
		content := string(data)
		assert.Contains(t, content, "-- +goose Up", name)
		assert.Contains(t, content, "-- +goose Down", name)
	}
}

func TestPriceSchedulesMigration(t *testing.T) {
	data, err := fs.ReadFile(migrations.FS, "00001_create_price_schedules.sql")
	require.NoError(t, err)
	content := strings.Join(strings.Fields(string(data)), " ")

	for _, want := range []string{
		"CREATE TABLE IF NOT EXISTS price_schedules",
		"ON price_schedules (item_id, COALESCE(customer_id, ''), effective_date) WHERE status <> 'CANCELLED'",
		"CHECK (status IN ('PENDING', 'CANCELLED'))",
	} {
		assert.Contains(t, content, want)
	}
}

func TestAuditMigration(t *testing.T) {
	data, err := fs.ReadFile(migrations.FS, "00003_create_audit.sql")
	require.NoError(t, err)
	content := strings.Join(strings.Fields(string(data)), " ")

	assert.Contains(t, content, "CREATE TABLE IF NOT EXISTS sys_audit")
	assert.Contains(t, content, "ON sys_audit (entity_type, entity_id, created_at DESC)")
}

func TestItemGenerationsMigration(t *testing.T) {
	data, err := fs.ReadFile(migrations.FS, "00004_create_item_generations.sql")
	require.NoError(t, err)
	content := strings.Join(strings.Fields(string(data)), " ")

	assert.Contains(t, content, "CREATE TABLE IF NOT EXISTS price_item_generations")
	assert.Contains(t, content, "AFTER INSERT OR UPDATE OR DELETE ON price_schedules")
	// Deletes and moves must advance the item the row leaves.
	assert.Contains(t, content, "IF TG_OP <> 'INSERT' THEN INSERT INTO price_item_generations (item_id, generation) VALUES (OLD.item_id, 1)")
	assert.Contains(t, content, "NEW.item_id <> OLD.item_id")

	begin := strings.Index(content, "-- +goose StatementBegin")
	end := strings.Index(content, "-- +goose StatementEnd")
	require.True(t, begin >= 0 && end > begin, "plpgsql body must be a single goose statement")
	assert.Contains(t, content[begin:end], "LANGUAGE plpgsql")
}
