// ABOUTME: Sync MCP tool handlers
// ABOUTME: Implements promote_contact and replicate_activity against the remote CRM
package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/leadsync/db"
	"github.com/harperreed/leadsync/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ErrSyncDisabled is returned by sync tools when no remote CRM is configured.
var ErrSyncDisabled = errors.New("remote CRM is not configured; run 'leadsync sync login'")

type SyncHandlers struct {
	db     *sql.DB
	engine *sync.Engine
}

// NewSyncHandlers wires the tools to engine. A nil engine disables them.
func NewSyncHandlers(database *sql.DB, engine *sync.Engine) *SyncHandlers {
	return &SyncHandlers{db: database, engine: engine}
}

type PromoteContactInput struct {
	ContactID string `json:"contact_id" jsonschema:"Contact ID (required)"`
	Score     *int   `json:"score,omitempty" jsonschema:"New warmness score to store before promoting; the stored score is used when omitted"`
}

type PromoteContactOutput struct {
	ContactID     string `json:"contact_id"`
	Promoted      bool   `json:"promoted"`
	AlreadyLinked bool   `json:"already_linked,omitempty"`
	PersonID      int64  `json:"person_id,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

func (h *SyncHandlers) PromoteContact(ctx context.Context, request *mcp.CallToolRequest, input PromoteContactInput) (*mcp.CallToolResult, PromoteContactOutput, error) {
	if h.engine == nil {
		return nil, PromoteContactOutput{}, ErrSyncDisabled
	}
	if input.ContactID == "" {
		return nil, PromoteContactOutput{}, fmt.Errorf("contact_id is required")
	}

	contactID, err := uuid.Parse(input.ContactID)
	if err != nil {
		return nil, PromoteContactOutput{}, fmt.Errorf("invalid contact_id: %w", err)
	}

	contact, err := db.GetContact(ctx, h.db, contactID)
	if err != nil {
		return nil, PromoteContactOutput{}, fmt.Errorf("failed to get contact: %w", err)
	}
	if contact == nil {
		return nil, PromoteContactOutput{}, fmt.Errorf("contact not found: %s", contactID)
	}

	score := contact.WarmnessScore
	if input.Score != nil {
		score = *input.Score
		if err := db.UpdateContactScore(ctx, h.db, contactID, score); err != nil {
			return nil, PromoteContactOutput{}, fmt.Errorf("failed to update score: %w", err)
		}
	}

	result := h.engine.Promoter.Promote(ctx, contactID, score)
	return nil, PromoteContactOutput{
		ContactID:     contactID.String(),
		Promoted:      result.Promoted,
		AlreadyLinked: result.AlreadyLinked,
		PersonID:      result.PersonID,
		Reason:        result.Reason,
	}, nil
}

type ReplicateActivityInput struct {
	ActivityID string `json:"activity_id" jsonschema:"Activity ID (required)"`
}

type ReplicateActivityOutput struct {
	ActivityID       string `json:"activity_id"`
	Replicated       bool   `json:"replicated"`
	Attempts         int    `json:"attempts"`
	RemoteActivityID int64  `json:"remote_activity_id,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

func (h *SyncHandlers) ReplicateActivity(ctx context.Context, request *mcp.CallToolRequest, input ReplicateActivityInput) (*mcp.CallToolResult, ReplicateActivityOutput, error) {
	if h.engine == nil {
		return nil, ReplicateActivityOutput{}, ErrSyncDisabled
	}
	if input.ActivityID == "" {
		return nil, ReplicateActivityOutput{}, fmt.Errorf("activity_id is required")
	}

	activityID, err := uuid.Parse(input.ActivityID)
	if err != nil {
		return nil, ReplicateActivityOutput{}, fmt.Errorf("invalid activity_id: %w", err)
	}

	activity, err := db.GetActivity(ctx, h.db, activityID)
	if err != nil {
		return nil, ReplicateActivityOutput{}, fmt.Errorf("failed to get activity: %w", err)
	}
	if activity == nil {
		return nil, ReplicateActivityOutput{}, fmt.Errorf("activity not found: %s", activityID)
	}

	result := h.engine.Replicator.Replicate(ctx, activity.ID, activity.ContactID, activity.OwnerID)
	return nil, ReplicateActivityOutput{
		ActivityID:       activityID.String(),
		Replicated:       result.Replicated,
		Attempts:         result.Attempts,
		RemoteActivityID: result.RemoteActivityID,
		Reason:           result.Reason,
	}, nil
}
