// ABOUTME: Persistence contract the sync engine needs
// ABOUTME: Reads return nil, nil when a record does not exist
package sync

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/leadsync/models"
)

// Store is implemented by db.Store.
type Store interface {
	GetContact(ctx context.Context, id uuid.UUID) (*models.Contact, error)
	GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetActivity(ctx context.Context, id uuid.UUID) (*models.Activity, error)
	GetCampaign(ctx context.Context, id uuid.UUID) (*models.Campaign, error)

	// SetOrganizationRemoteID sets the id only when none is stored and
	// reports whether it did.
	SetOrganizationRemoteID(ctx context.Context, orgID uuid.UUID, remoteID int64) (bool, error)
	SetUserRemoteOwnerID(ctx context.Context, userID uuid.UUID, remoteID int64) error
	// LinkContactRemotePerson sets the person id only when the contact is
	// unlinked and reports whether it did.
	LinkContactRemotePerson(ctx context.Context, contactID uuid.UUID, personID int64, orgID *int64, at time.Time) (bool, error)

	RecordActivitySyncAttempt(ctx context.Context, activityID uuid.UUID, at time.Time, remoteID *int64) error
	ListUnreplicatedActivities(ctx context.Context, maxAttempts, limit int) ([]models.Activity, error)

	UpdateSyncStatus(ctx context.Context, status string, errorMsg *string) error
}
