// ABOUTME: Contact database operations
// ABOUTME: Handles lead CRUD, scoring, outreach flags and the one-time remote person link
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/leadsync/models"
	"github.com/harperreed/leadsync/sync"
)

const contactColumns = `id, name, email, phone, organization_id, owner_id, warmness_score,
	last_contacted_at, in_active_outreach, remote_person_id, remote_org_id, remote_updated_at,
	created_at, updated_at`

func CreateContact(ctx context.Context, db *sql.DB, contact *models.Contact) error {
	contact.ID = uuid.New()
	now := time.Now()
	contact.CreatedAt = now
	contact.UpdatedAt = now
	contact.Email = strings.TrimSpace(contact.Email)

	var organizationID *string
	if contact.OrganizationID != nil {
		s := contact.OrganizationID.String()
		organizationID = &s
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO contacts (id, name, email, phone, organization_id, owner_id, warmness_score,
			last_contacted_at, in_active_outreach, remote_person_id, remote_org_id, remote_updated_at,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, contact.ID.String(), contact.Name, contact.Email, contact.Phone, organizationID,
		contact.OwnerID.String(), contact.WarmnessScore, nullTime(contact.LastContactedAt),
		contact.InActiveOutreach, nullInt64(contact.RemotePersonID), nullInt64(contact.RemoteOrgID),
		nullTime(contact.RemoteUpdatedAt), contact.CreatedAt, contact.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	return nil
}

func scanContact(row interface{ Scan(...any) error }) (*models.Contact, error) {
	var c models.Contact
	var email, phone, organizationID sql.NullString
	var lastContactedAt, remoteUpdatedAt sql.NullTime
	var remotePersonID, remoteOrgID sql.NullInt64

	err := row.Scan(
		&c.ID,
		&c.Name,
		&email,
		&phone,
		&organizationID,
		&c.OwnerID,
		&c.WarmnessScore,
		&lastContactedAt,
		&c.InActiveOutreach,
		&remotePersonID,
		&remoteOrgID,
		&remoteUpdatedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Email = email.String
	c.Phone = phone.String
	if organizationID.Valid {
		if oid, err := uuid.Parse(organizationID.String); err == nil {
			c.OrganizationID = &oid
		}
	}
	c.LastContactedAt = timePtr(lastContactedAt)
	c.RemotePersonID = int64Ptr(remotePersonID)
	c.RemoteOrgID = int64Ptr(remoteOrgID)
	c.RemoteUpdatedAt = timePtr(remoteUpdatedAt)

	return &c, nil
}

func GetContact(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.Contact, error) {
	contact, err := scanContact(db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id.String()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return contact, nil
}

// ListContacts returns contacts in insertion order, optionally for one owner.
func ListContacts(ctx context.Context, db *sql.DB, ownerID *uuid.UUID) ([]models.Contact, error) {
	var rows *sql.Rows
	var err error

	if ownerID != nil {
		rows, err = db.QueryContext(ctx, `
			SELECT `+contactColumns+` FROM contacts
			WHERE owner_id = ?
			ORDER BY created_at, rowid
		`, ownerID.String())
	} else {
		rows, err = db.QueryContext(ctx, `
			SELECT `+contactColumns+` FROM contacts
			ORDER BY created_at, rowid
		`)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var contacts []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}

	return contacts, nil
}

func UpdateContactScore(ctx context.Context, db *sql.DB, id uuid.UUID, score int) error {
	return updateContact(ctx, db, id, `warmness_score = ?`, score)
}

func SetContactOutreach(ctx context.Context, db *sql.DB, id uuid.UUID, active bool) error {
	return updateContact(ctx, db, id, `in_active_outreach = ?`, active)
}

func updateContact(ctx context.Context, db *sql.DB, id uuid.UUID, set string, value any) error {
	result, err := db.ExecContext(ctx,
		`UPDATE contacts SET `+set+`, updated_at = ? WHERE id = ?`,
		value, time.Now(), id.String())
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("contact %s: %w", id, ErrNotFound)
	}
	return nil
}

// LinkContactRemotePerson records the remote person (and org, when known) in
// one conditional update. It reports false without touching the row when the
// contact is already linked, and sync.ErrRemotePersonTaken when another
// contact holds the person.
func LinkContactRemotePerson(ctx context.Context, db *sql.DB, contactID uuid.UUID, personID int64, orgID *int64, at time.Time) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE contacts SET
			remote_person_id = ?,
			remote_org_id = COALESCE(?, remote_org_id),
			remote_updated_at = ?,
			updated_at = ?
		WHERE id = ? AND remote_person_id IS NULL
	`, personID, nullInt64(orgID), at, at, contactID.String())
	if isUniqueViolation(err) {
		return false, fmt.Errorf("contact %s, person %d: %w", contactID, personID, sync.ErrRemotePersonTaken)
	}
	if err != nil {
		return false, fmt.Errorf("failed to link contact: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if err := recordSyncLog(ctx, tx, models.EntityContact, contactID, personID); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit contact link: %w", err)
	}
	return true, nil
}
