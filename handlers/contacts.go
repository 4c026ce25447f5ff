// ABOUTME: Contact MCP tool handlers
// ABOUTME: Implements rank_contacts over the stored contacts of one owner
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/leadsync/db"
	"github.com/harperreed/leadsync/models"
	"github.com/harperreed/leadsync/ranking"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ContactHandlers struct {
	db *sql.DB
}

func NewContactHandlers(database *sql.DB) *ContactHandlers {
	return &ContactHandlers{db: database}
}

type RankContactsInput struct {
	OwnerID string `json:"owner_id,omitempty" jsonschema:"Only rank contacts owned by this user ID"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum number of contacts (default 500)"`
}

type ContactOutput struct {
	Rank             int     `json:"rank"`
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Email            string  `json:"email,omitempty"`
	OwnerID          string  `json:"owner_id"`
	WarmnessScore    int     `json:"warmness_score"`
	InActiveOutreach bool    `json:"in_active_outreach"`
	LastContactedAt  *string `json:"last_contacted_at,omitempty"`
	RemotePersonID   *int64  `json:"remote_person_id,omitempty"`
}

type RankContactsOutput struct {
	Contacts []ContactOutput `json:"contacts"`
}

func (h *ContactHandlers) RankContacts(ctx context.Context, request *mcp.CallToolRequest, input RankContactsInput) (*mcp.CallToolResult, RankContactsOutput, error) {
	var ownerID *uuid.UUID
	if input.OwnerID != "" {
		oid, err := uuid.Parse(input.OwnerID)
		if err != nil {
			return nil, RankContactsOutput{}, fmt.Errorf("invalid owner_id: %w", err)
		}
		ownerID = &oid
	}

	contacts, err := db.ListContacts(ctx, h.db, ownerID)
	if err != nil {
		return nil, RankContactsOutput{}, fmt.Errorf("failed to list contacts: %w", err)
	}

	ranked := ranking.MyList(contacts, input.Limit)
	result := make([]ContactOutput, len(ranked))
	for i := range ranked {
		result[i] = contactToOutput(&ranked[i], i+1)
	}

	return nil, RankContactsOutput{Contacts: result}, nil
}

func contactToOutput(contact *models.Contact, rank int) ContactOutput {
	output := ContactOutput{
		Rank:             rank,
		ID:               contact.ID.String(),
		Name:             contact.Name,
		Email:            contact.Email,
		OwnerID:          contact.OwnerID.String(),
		WarmnessScore:    contact.WarmnessScore,
		InActiveOutreach: contact.InActiveOutreach,
		RemotePersonID:   contact.RemotePersonID,
	}

	if contact.LastContactedAt != nil {
		lastContacted := contact.LastContactedAt.Format(time.RFC3339)
		output.LastContactedAt = &lastContacted
	}

	return output
}
