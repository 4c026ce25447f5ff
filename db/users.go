// ABOUTME: User (owner) database operations
// ABOUTME: Creates consultants and persists their lazily resolved remote owner id
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/leadsync/models"
)

const userColumns = `id, name, email, remote_owner_id, created_at, updated_at`

func CreateUser(ctx context.Context, db *sql.DB, user *models.User) error {
	user.ID = uuid.New()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Email = strings.TrimSpace(user.Email)

	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, remote_owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, user.ID.String(), user.Name, user.Email, nullInt64(user.RemoteOwnerID), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var user models.User
	var email sql.NullString
	var remoteOwnerID sql.NullInt64

	if err := row.Scan(&user.ID, &user.Name, &email, &remoteOwnerID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}

	user.Email = email.String
	user.RemoteOwnerID = int64Ptr(remoteOwnerID)
	return &user, nil
}

func GetUser(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.User, error) {
	user, err := scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id.String()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// FindUserByEmail matches case-insensitively.
func FindUserByEmail(ctx context.Context, db *sql.DB, email string) (*models.User, error) {
	user, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER(?) LIMIT 1`,
		strings.TrimSpace(email)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func ListUsers(ctx context.Context, db *sql.DB) ([]models.User, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}

// SetUserRemoteOwnerID stores the resolved remote owner id and logs the linkage.
func SetUserRemoteOwnerID(ctx context.Context, db *sql.DB, userID uuid.UUID, remoteID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE users SET remote_owner_id = ?, updated_at = ? WHERE id = ?
	`, remoteID, time.Now(), userID.String())
	if err != nil {
		return fmt.Errorf("failed to set remote owner id: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	if err := recordSyncLog(ctx, tx, models.EntityUser, userID, remoteID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit remote owner id: %w", err)
	}
	return nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}
