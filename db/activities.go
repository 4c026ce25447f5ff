// ABOUTME: Activity database operations
// ABOUTME: Logs interactions and records every remote replication attempt
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/leadsync/models"
)

var ErrInvalidActivityType = errors.New("invalid activity type")

const activityColumns = `id, contact_id, owner_id, campaign_id, type, subject, notes, occurred_at,
	remote_activity_id, sync_attempts, last_sync_attempt_at, replicated, created_at`

// LogActivity inserts an activity and moves the contact's last_contacted_at
// forward when the activity is newer.
func LogActivity(ctx context.Context, db *sql.DB, activity *models.Activity) error {
	if !models.ValidActivityType(activity.Type) {
		return fmt.Errorf("%w: %q", ErrInvalidActivityType, activity.Type)
	}

	activity.ID = uuid.New()
	activity.CreatedAt = time.Now()
	if activity.OccurredAt.IsZero() {
		activity.OccurredAt = activity.CreatedAt
	}
	activity.SyncAttempts = 0
	activity.Replicated = false
	activity.RemoteActivityID = nil
	activity.LastSyncAttemptAt = nil

	var campaignID *string
	if activity.CampaignID != nil {
		s := activity.CampaignID.String()
		campaignID = &s
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO activities (id, contact_id, owner_id, campaign_id, type, subject, notes, occurred_at,
			sync_attempts, replicated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?)
	`, activity.ID.String(), activity.ContactID.String(), activity.OwnerID.String(), campaignID,
		activity.Type, activity.Subject, activity.Notes, activity.OccurredAt, activity.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}

	var last sql.NullTime
	err = tx.QueryRowContext(ctx, `SELECT last_contacted_at FROM contacts WHERE id = ?`,
		activity.ContactID.String()).Scan(&last)
	if err == sql.ErrNoRows {
		return fmt.Errorf("contact %s: %w", activity.ContactID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read contact: %w", err)
	}

	if !last.Valid || activity.OccurredAt.After(last.Time) {
		_, err = tx.ExecContext(ctx, `
			UPDATE contacts SET last_contacted_at = ?, updated_at = ? WHERE id = ?
		`, activity.OccurredAt, time.Now(), activity.ContactID.String())
		if err != nil {
			return fmt.Errorf("failed to update last contacted: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit activity: %w", err)
	}
	return nil
}

func scanActivity(row interface{ Scan(...any) error }) (*models.Activity, error) {
	var a models.Activity
	var campaignID, notes sql.NullString
	var remoteActivityID sql.NullInt64
	var lastSyncAttemptAt sql.NullTime

	err := row.Scan(
		&a.ID,
		&a.ContactID,
		&a.OwnerID,
		&campaignID,
		&a.Type,
		&a.Subject,
		&notes,
		&a.OccurredAt,
		&remoteActivityID,
		&a.SyncAttempts,
		&lastSyncAttemptAt,
		&a.Replicated,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if campaignID.Valid {
		if cid, err := uuid.Parse(campaignID.String); err == nil {
			a.CampaignID = &cid
		}
	}
	a.Notes = notes.String
	a.RemoteActivityID = int64Ptr(remoteActivityID)
	a.LastSyncAttemptAt = timePtr(lastSyncAttemptAt)

	return &a, nil
}

func GetActivity(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.Activity, error) {
	a, err := scanActivity(db.QueryRowContext(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE id = ?`, id.String()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

// RecordActivitySyncAttempt bumps the attempt counter. A non-nil remoteID
// marks the activity replicated; an existing remote id is never replaced.
func RecordActivitySyncAttempt(ctx context.Context, db *sql.DB, activityID uuid.UUID, at time.Time, remoteID *int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	remote := nullInt64(remoteID)
	result, err := tx.ExecContext(ctx, `
		UPDATE activities SET
			sync_attempts = sync_attempts + 1,
			last_sync_attempt_at = ?,
			remote_activity_id = COALESCE(remote_activity_id, ?),
			replicated = CASE WHEN ? THEN 1 ELSE replicated END
		WHERE id = ?
	`, at, remote, remote.Valid, activityID.String())
	if err != nil {
		return fmt.Errorf("failed to record sync attempt: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("activity %s: %w", activityID, ErrNotFound)
	}

	if remoteID != nil {
		if err := recordSyncLog(ctx, tx, models.EntityActivity, activityID, *remoteID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sync attempt: %w", err)
	}
	return nil
}

// ListUnreplicatedActivities returns pending activities of linked contacts
// that have been tried fewer than maxAttempts times, oldest first.
func ListUnreplicatedActivities(ctx context.Context, db *sql.DB, maxAttempts, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.QueryContext(ctx, `
		SELECT a.id, a.contact_id, a.owner_id, a.campaign_id, a.type, a.subject, a.notes, a.occurred_at,
			a.remote_activity_id, a.sync_attempts, a.last_sync_attempt_at, a.replicated, a.created_at
		FROM activities a
		JOIN contacts c ON c.id = a.contact_id
		WHERE a.replicated = 0
			AND a.sync_attempts < ?
			AND c.remote_person_id IS NOT NULL
		ORDER BY a.occurred_at, a.rowid
		LIMIT ?
	`, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending activities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var activities []models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	return activities, nil
}

// CountUnreplicatedActivities counts what ListUnreplicatedActivities would
// return without a limit.
func CountUnreplicatedActivities(ctx context.Context, db *sql.DB, maxAttempts int) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM activities a
		JOIN contacts c ON c.id = a.contact_id
		WHERE a.replicated = 0
			AND a.sync_attempts < ?
			AND c.remote_person_id IS NOT NULL
	`, maxAttempts).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending activities: %w", err)
	}
	return n, nil
}

// ListContactActivities returns a contact's activities, newest first.
func ListContactActivities(ctx context.Context, db *sql.DB, contactID uuid.UUID, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.QueryContext(ctx, `
		SELECT `+activityColumns+`
		FROM activities
		WHERE contact_id = ?
		ORDER BY occurred_at DESC, rowid DESC
		LIMIT ?
	`, contactID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var activities []models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, *a)
	}

	return activities, rows.Err()
}
