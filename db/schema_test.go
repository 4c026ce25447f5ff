// ABOUTME: Tests for database schema creation
// ABOUTME: Checks tables, indexes and that init can run twice
package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSchema(t *testing.T) {
	database := setupTestDB(t)

	tables := []string{"users", "organizations", "contacts", "campaigns", "activities", "sync_state", "sync_log"}
	for _, table := range tables {
		var name string
		err := database.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s not found", table)
	}

	indexes := []string{"idx_contacts_owner_id", "idx_activities_pending", "idx_sync_log_entity"}
	for _, idx := range indexes {
		var name string
		err := database.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&name)
		assert.NoError(t, err, "index %s not found", idx)
	}
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	database := setupTestDB(t)
	require.NoError(t, InitSchema(database))
}
