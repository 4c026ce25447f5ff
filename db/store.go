// ABOUTME: Store adapts the package-level database functions to the sync engine
// ABOUTME: One value carrying the *sql.DB so callers can depend on an interface
package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/leadsync/models"
	"github.com/harperreed/leadsync/sync"
)

type Store struct {
	db *sql.DB
}

var _ sync.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetContact(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	return GetContact(ctx, s.db, id)
}

func (s *Store) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	return GetOrganization(ctx, s.db, id)
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return GetUser(ctx, s.db, id)
}

func (s *Store) GetActivity(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	return GetActivity(ctx, s.db, id)
}

func (s *Store) GetCampaign(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return GetCampaign(ctx, s.db, id)
}

func (s *Store) SetOrganizationRemoteID(ctx context.Context, orgID uuid.UUID, remoteID int64) (bool, error) {
	return SetOrganizationRemoteID(ctx, s.db, orgID, remoteID)
}

func (s *Store) SetUserRemoteOwnerID(ctx context.Context, userID uuid.UUID, remoteID int64) error {
	return SetUserRemoteOwnerID(ctx, s.db, userID, remoteID)
}

func (s *Store) LinkContactRemotePerson(ctx context.Context, contactID uuid.UUID, personID int64, orgID *int64, at time.Time) (bool, error) {
	return LinkContactRemotePerson(ctx, s.db, contactID, personID, orgID, at)
}

func (s *Store) RecordActivitySyncAttempt(ctx context.Context, activityID uuid.UUID, at time.Time, remoteID *int64) error {
	return RecordActivitySyncAttempt(ctx, s.db, activityID, at, remoteID)
}

func (s *Store) ListUnreplicatedActivities(ctx context.Context, maxAttempts, limit int) ([]models.Activity, error) {
	return ListUnreplicatedActivities(ctx, s.db, maxAttempts, limit)
}

func (s *Store) UpdateSyncStatus(ctx context.Context, status string, errorMsg *string) error {
	return UpdateSyncStatus(ctx, s.db, ServiceCRM, status, errorMsg)
}

// ShortcodeExists lets the store serve as a shortcode.Lookup.
func (s *Store) ShortcodeExists(ctx context.Context, code string) (bool, error) {
	return ShortcodeExists(ctx, s.db, code)
}
