// ABOUTME: Ensures a local organization has a remote CRM counterpart
// ABOUTME: Creates it at most once, guarded by a conditional store update
package sync

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/harperreed/leadsync/crm"
	"github.com/harperreed/leadsync/models"
)

type OrganizationResolver struct {
	store  Store
	client crm.Client
	logger *log.Logger
}

func NewOrganizationResolver(store Store, client crm.Client, logger *log.Logger) *OrganizationResolver {
	if logger == nil {
		logger = log.Default()
	}
	return &OrganizationResolver{store: store, client: client, logger: logger}
}

// Resolve returns the organization's remote id, creating the remote record
// when it has none. Remote and store failures are returned to the caller.
func (r *OrganizationResolver) Resolve(ctx context.Context, org *models.Organization) (int64, error) {
	if org.RemoteOrgID != nil {
		return *org.RemoteOrgID, nil
	}

	remoteID, err := r.client.CreateOrganization(ctx, crm.OrganizationFields{
		Name:     org.Name,
		Industry: org.Industry,
		Country:  org.Country,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create remote organization: %w", err)
	}

	set, err := r.store.SetOrganizationRemoteID(ctx, org.ID, remoteID)
	if err != nil {
		return 0, fmt.Errorf("failed to store remote organization id: %w", err)
	}
	if set {
		org.RemoteOrgID = &remoteID
		return remoteID, nil
	}

	// Another writer linked the organization first; its id wins.
	stored, err := r.store.GetOrganization(ctx, org.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to reload organization: %w", err)
	}
	if stored == nil || stored.RemoteOrgID == nil {
		return 0, fmt.Errorf("organization %s lost its remote id", org.ID)
	}

	r.logger.Warn("organization already linked, discarding duplicate remote record",
		"org", org.ID, "kept", *stored.RemoteOrgID, "discarded", remoteID)
	org.RemoteOrgID = stored.RemoteOrgID
	return *stored.RemoteOrgID, nil
}
