// ABOUTME: Mirrors a local activity to the remote CRM person timeline
// ABOUTME: Bounded immediate retries, every attempt recorded on the activity
package sync

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/harperreed/leadsync/crm"
	"github.com/harperreed/leadsync/models"
)

// MaxReplicationAttempts is the number of immediate tries per invocation.
const MaxReplicationAttempts = 2

// Replication outcome reasons.
const (
	ReasonActivityNotFound = "activity not found"
	ReasonContactUnlinked  = "contact has no remote person"
	ReasonActivityCreate   = "activity create failed"
	ReasonMismatch         = "activity does not belong to contact"
)

type ReplicationResult struct {
	Replicated       bool   `json:"replicated"`
	Attempts         int    `json:"attempts"`
	RemoteActivityID int64  `json:"remote_activity_id,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

type Replicator struct {
	store  Store
	client crm.Client
	now    func() time.Time
	logger *log.Logger
}

// Replicate sends the activity to the remote CRM. It never returns an error.
func (r *Replicator) Replicate(ctx context.Context, activityID, contactID, ownerID uuid.UUID) ReplicationResult {
	logger := r.logger.With("activity", activityID)

	activity, err := r.store.GetActivity(ctx, activityID)
	if err != nil {
		logger.Error("failed to load activity", "err", err)
		return ReplicationResult{Reason: ReasonStoreError}
	}
	if activity == nil {
		return ReplicationResult{Reason: ReasonActivityNotFound}
	}
	if activity.RemoteActivityID != nil {
		return ReplicationResult{Replicated: true, RemoteActivityID: *activity.RemoteActivityID, Reason: ReasonAlreadyLinked}
	}
	if activity.ContactID != contactID {
		logger.Warn("activity belongs to another contact", "contact", contactID, "actual", activity.ContactID)
		return ReplicationResult{Reason: ReasonMismatch}
	}

	contact, err := r.store.GetContact(ctx, contactID)
	if err != nil {
		logger.Error("failed to load contact", "contact", contactID, "err", err)
		return ReplicationResult{Reason: ReasonStoreError}
	}
	if contact == nil {
		return ReplicationResult{Reason: ReasonContactNotFound}
	}
	if contact.RemotePersonID == nil {
		return ReplicationResult{Reason: ReasonContactUnlinked}
	}

	owner, err := r.store.GetUser(ctx, ownerID)
	if err != nil {
		logger.Error("failed to load owner", "owner", ownerID, "err", err)
		return ReplicationResult{Reason: ReasonStoreError}
	}
	if owner == nil {
		return ReplicationResult{Reason: ReasonOwnerNotFound}
	}

	var campaign *models.Campaign
	if activity.CampaignID != nil {
		campaign, err = r.store.GetCampaign(ctx, *activity.CampaignID)
		if err != nil {
			logger.Warn("failed to load campaign, replicating without it", "campaign", *activity.CampaignID, "err", err)
			campaign = nil
		}
	}

	var orgID *int64
	if contact.OrganizationID != nil {
		org, err := r.store.GetOrganization(ctx, *contact.OrganizationID)
		if err != nil {
			logger.Warn("failed to load organization, replicating without it", "org", *contact.OrganizationID, "err", err)
		} else if org != nil {
			orgID = org.RemoteOrgID
		}
	}

	payload := buildActivityPayload(activity, contact, owner, campaign, orgID, r.now())

	result := ReplicationResult{}
	for attempt := 1; attempt <= MaxReplicationAttempts; attempt++ {
		result.Attempts = attempt

		remoteID, err := r.client.CreateActivity(ctx, payload)
		if err != nil {
			logger.Warn("activity create failed", "attempt", attempt, "err", err)
			if recErr := r.store.RecordActivitySyncAttempt(ctx, activityID, r.now(), nil); recErr != nil {
				logger.Error("failed to record sync attempt", "err", recErr)
			}
			continue
		}

		if err := r.store.RecordActivitySyncAttempt(ctx, activityID, r.now(), &remoteID); err != nil {
			logger.Error("remote activity created but not stored", "remote", remoteID, "err", err)
			result.Reason = ReasonStoreError
			return result
		}

		logger.Info("activity replicated", "remote", remoteID, "attempt", attempt)
		result.Replicated = true
		result.RemoteActivityID = remoteID
		return result
	}

	result.Reason = ReasonActivityCreate
	return result
}

// buildActivityPayload marks the activity done unless it is scheduled in the future.
func buildActivityPayload(a *models.Activity, c *models.Contact, owner *models.User, campaign *models.Campaign, orgID *int64, now time.Time) crm.ActivityPayload {
	payload := crm.ActivityPayload{
		Subject: a.Subject,
		Type:    a.Type,
		DueDate: a.OccurredAt.Format("2006-01-02"),
		Done:    !a.OccurredAt.After(now),
		Note:    a.Notes,
		Contact: crm.ActivityContact{
			PersonID: *c.RemotePersonID,
			Name:     c.Name,
			Email:    c.Email,
			OrgID:    orgID,
		},
		User: crm.ActivityUser{
			Name:  owner.Name,
			Email: owner.Email,
		},
	}
	if campaign != nil {
		payload.Campaign = &crm.ActivityCampaign{
			Name:      campaign.Name,
			Shortcode: campaign.Shortcode,
		}
	}
	return payload
}
