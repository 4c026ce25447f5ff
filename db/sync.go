// ABOUTME: Database operations for sync_state and sync_log tables
// ABOUTME: Tracks remote CRM sync status and one linkage row per remote record
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/harperreed/leadsync/models"
)

// ServiceCRM is the sync_state/sync_log key for the remote CRM.
const ServiceCRM = "crm"

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// GetSyncState retrieves the sync state for a service.
func GetSyncState(ctx context.Context, db *sql.DB, service string) (*models.SyncState, error) {
	var state models.SyncState
	var lastSyncTime sql.NullTime
	var status sql.NullString
	var errorMessage sql.NullString

	err := db.QueryRowContext(ctx, `
		SELECT service, last_sync_time, status, error_message, created_at, updated_at
		FROM sync_state
		WHERE service = ?
	`, service).Scan(
		&state.Service,
		&lastSyncTime,
		&status,
		&errorMessage,
		&state.CreatedAt,
		&state.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	if lastSyncTime.Valid {
		state.LastSyncTime = &lastSyncTime.Time
	}
	state.Status = status.String
	state.ErrorMessage = errorMessage.String

	return &state, nil
}

// UpdateSyncStatus upserts the status for a service. Moving to idle stamps
// last_sync_time and clears the error message.
func UpdateSyncStatus(ctx context.Context, db *sql.DB, service, status string, errorMsg *string) error {
	var errorMsgVal sql.NullString
	if errorMsg != nil {
		errorMsgVal = sql.NullString{String: *errorMsg, Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO sync_state (service, last_sync_time, status, error_message, created_at, updated_at)
		VALUES (?, CASE WHEN ? = 'idle' THEN CURRENT_TIMESTAMP END, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			last_sync_time = CASE WHEN excluded.status = 'idle' THEN CURRENT_TIMESTAMP ELSE sync_state.last_sync_time END,
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, service, status, status, errorMsgVal)

	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}

	return nil
}

// recordSyncLog writes a linkage row. A remote record already linked keeps
// its first row.
func recordSyncLog(ctx context.Context, ex execer, entityType string, entityID uuid.UUID, remoteID int64) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO sync_log (id, source_service, source_id, entity_type, entity_id, imported_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(source_service, entity_type, source_id) DO NOTHING
	`, ulid.Make().String(), ServiceCRM, strconv.FormatInt(remoteID, 10), entityType, entityID.String())

	if err != nil {
		return fmt.Errorf("failed to create sync log: %w", err)
	}

	return nil
}

// ListSyncLog returns linkage rows for an entity type, newest first.
func ListSyncLog(ctx context.Context, db *sql.DB, entityType string, limit int) ([]models.SyncLog, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, source_service, source_id, entity_type, entity_id, imported_at
		FROM sync_log
		WHERE entity_type = ?
		ORDER BY id DESC
		LIMIT ?
	`, entityType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var logs []models.SyncLog
	for rows.Next() {
		var l models.SyncLog
		if err := rows.Scan(&l.ID, &l.SourceService, &l.SourceID, &l.EntityType, &l.EntityID, &l.ImportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync log: %w", err)
		}
		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync log: %w", err)
	}

	return logs, nil
}

// CountSyncLog returns the number of linkage rows per entity type.
func CountSyncLog(ctx context.Context, db *sql.DB) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT entity_type, COUNT(*) FROM sync_log
		WHERE source_service = ?
		GROUP BY entity_type
	`, ServiceCRM)
	if err != nil {
		return nil, fmt.Errorf("failed to count sync log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var entityType string
		var n int
		if err := rows.Scan(&entityType, &n); err != nil {
			return nil, fmt.Errorf("failed to scan sync log count: %w", err)
		}
		counts[entityType] = n
	}

	return counts, rows.Err()
}
