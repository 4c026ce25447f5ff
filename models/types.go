// ABOUTME: Data models for lead management entities
// ABOUTME: Defines Contact, Organization, Activity, User, Campaign and sync bookkeeping structs
package models

import (
	"time"

	"github.com/google/uuid"
)

// Contact is a local lead. RemotePersonID links it to the remote CRM person
// and is never cleared once set.
type Contact struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	OrganizationID   *uuid.UUID `json:"organization_id,omitempty"`
	OwnerID          uuid.UUID  `json:"owner_id"`
	WarmnessScore    int        `json:"warmness_score"`
	LastContactedAt  *time.Time `json:"last_contacted_at,omitempty"`
	InActiveOutreach bool       `json:"in_active_outreach"`
	RemotePersonID   *int64     `json:"remote_person_id,omitempty"`
	RemoteOrgID      *int64     `json:"remote_org_id,omitempty"`
	RemoteUpdatedAt  *time.Time `json:"remote_updated_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsLinked reports whether the contact already has a remote person.
func (c *Contact) IsLinked() bool {
	return c.RemotePersonID != nil
}

type Organization struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Industry    string    `json:"industry,omitempty"`
	Country     string    `json:"country,omitempty"`
	RemoteOrgID *int64    `json:"remote_org_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// User is a local owner (sales consultant). RemoteOwnerID is resolved lazily.
type User struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	RemoteOwnerID *int64    `json:"remote_owner_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Campaign struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Shortcode string    `json:"shortcode"`
	CreatedAt time.Time `json:"created_at"`
}

type Activity struct {
	ID                uuid.UUID  `json:"id"`
	ContactID         uuid.UUID  `json:"contact_id"`
	OwnerID           uuid.UUID  `json:"owner_id"`
	CampaignID        *uuid.UUID `json:"campaign_id,omitempty"`
	Type              string     `json:"type"`
	Subject           string     `json:"subject"`
	Notes             string     `json:"notes,omitempty"`
	OccurredAt        time.Time  `json:"occurred_at"`
	RemoteActivityID  *int64     `json:"remote_activity_id,omitempty"`
	SyncAttempts      int        `json:"sync_attempts"`
	LastSyncAttemptAt *time.Time `json:"last_sync_attempt_at,omitempty"`
	Replicated        bool       `json:"replicated"`
	CreatedAt         time.Time  `json:"created_at"`
}

// ActivityType constants.
const (
	ActivityMeeting = "meeting"
	ActivityCall    = "call"
	ActivityEmail   = "email"
	ActivityMessage = "message"
	ActivityEvent   = "event"
)

// ValidActivityType reports whether t is one of the known activity types.
func ValidActivityType(t string) bool {
	switch t {
	case ActivityMeeting, ActivityCall, ActivityEmail, ActivityMessage, ActivityEvent:
		return true
	}
	return false
}

// Sync status constants.
const (
	SyncStatusIdle    = "idle"
	SyncStatusSyncing = "syncing"
	SyncStatusError   = "error"
)

// Sync log entity types.
const (
	EntityContact      = "contact"
	EntityOrganization = "organization"
	EntityActivity     = "activity"
	EntityUser         = "user"
)

type SyncState struct {
	Service      string     `json:"service"`
	LastSyncTime *time.Time `json:"last_sync_time,omitempty"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type SyncLog struct {
	ID            string    `json:"id"`
	SourceService string    `json:"source_service"`
	SourceID      string    `json:"source_id"`
	EntityType    string    `json:"entity_type"`
	EntityID      uuid.UUID `json:"entity_id"`
	ImportedAt    time.Time `json:"imported_at"`
}
