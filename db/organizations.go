// ABOUTME: Organization database operations
// ABOUTME: Creates organizations and sets their remote id at most once
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

const organizationColumns = `id, name, industry, country, remote_org_id, created_at, updated_at`

func CreateOrganization(ctx context.Context, db *sql.DB, org *models.Organization) error {
	org.ID = uuid.New()
	now := time.Now()
	org.CreatedAt = now
	org.UpdatedAt = now

	_, err := db.ExecContext(ctx, `
		INSERT INTO organizations (id, name, industry, country, remote_org_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, org.ID.String(), org.Name, org.Industry, org.Country, nullInt64(org.RemoteOrgID), org.CreatedAt, org.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}

	return nil
}

func scanOrganization(row interface{ Scan(...any) error }) (*models.Organization, error) {
	var org models.Organization
	var industry, country sql.NullString
	var remoteOrgID sql.NullInt64

	if err := row.Scan(&org.ID, &org.Name, &industry, &country, &remoteOrgID, &org.CreatedAt, &org.UpdatedAt); err != nil {
		return nil, err
	}

	org.Industry = industry.String
	org.Country = country.String
	org.RemoteOrgID = int64Ptr(remoteOrgID)
	return &org, nil
}

func GetOrganization(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.Organization, error) {
	org, err := scanOrganization(db.QueryRowContext(ctx,
		`SELECT `+organizationColumns+` FROM organizations WHERE id = ?`, id.String()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

// FindOrganizationByName matches case-insensitively.
func FindOrganizationByName(ctx context.Context, db *sql.DB, name string) (*models.Organization, error) {
	org, err := scanOrganization(db.QueryRowContext(ctx,
		`SELECT `+organizationColumns+` FROM organizations WHERE LOWER(name) = LOWER(?) LIMIT 1`,
		strings.TrimSpace(name)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return org, nil
}

// SetOrganizationRemoteID stores remoteID only when none is set yet. It
// reports false when another writer got there first.
func SetOrganizationRemoteID(ctx context.Context, db *sql.DB, orgID uuid.UUID, remoteID int64) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE organizations SET remote_org_id = ?, updated_at = ?
		WHERE id = ? AND remote_org_id IS NULL
	`, remoteID, time.Now(), orgID.String())
	if err != nil {
		return false, fmt.Errorf("failed to set remote org id: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if err := recordSyncLog(ctx, tx, models.EntityOrganization, orgID, remoteID); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit remote org id: %w", err)
	}
	return true, nil
}
