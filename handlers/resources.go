// ABOUTME: MCP resource handlers for exposing leadsync data
// ABOUTME: Read-only access to the ranked list, single contacts, campaigns and sync state
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/leadsync/db"
	"github.com/harperreed/leadsync/models"
	"github.com/harperreed/leadsync/ranking"
	"github.com/harperreed/leadsync/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	resourceScheme  = "leadsync://"
	recentLinkLimit = 10
)

type ResourceHandlers struct {
	db *sql.DB
}

func NewResourceHandlers(database *sql.DB) *ResourceHandlers {
	return &ResourceHandlers{db: database}
}

// Resources lists the fixed resources served by ReadResource.
func (h *ResourceHandlers) Resources() []*mcp.Resource {
	return []*mcp.Resource{
		{
			Name:        "contacts",
			Title:       "Ranked contacts",
			Description: "All contacts in outreach order",
			MIMEType:    "application/json",
			URI:         resourceScheme + "contacts",
		},
		{
			Name:        "campaigns",
			Title:       "Campaigns",
			Description: "Campaigns with their shortcodes",
			MIMEType:    "application/json",
			URI:         resourceScheme + "campaigns",
		},
		{
			Name:        "sync",
			Title:       "Sync status",
			Description: "Remote CRM sync state and linked record counts",
			MIMEType:    "application/json",
			URI:         resourceScheme + "sync",
		},
	}
}

// ContactTemplate describes per-contact resources.
func (h *ResourceHandlers) ContactTemplate() *mcp.ResourceTemplate {
	return &mcp.ResourceTemplate{
		Name:        "contact",
		Title:       "Contact",
		Description: "One contact with its recent activities. URI format: leadsync://contacts/{contact_id}",
		MIMEType:    "application/json",
		URITemplate: resourceScheme + "contacts/{contact_id}",
	}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")

	switch parts[0] {
	case "contacts":
		if len(parts) == 1 {
			return h.readRankedContacts(ctx, uri)
		}
		return h.readContact(ctx, uri, parts[1])

	case "campaigns":
		campaigns, err := db.ListCampaigns(ctx, h.db)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch campaigns: %w", err)
		}
		return jsonResource(uri, campaigns)

	case "sync":
		return h.readSyncStatus(ctx, uri)

	default:
		return nil, mcp.ResourceNotFoundError(uri)
	}
}

func (h *ResourceHandlers) readRankedContacts(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	contacts, err := db.ListContacts(ctx, h.db, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacts: %w", err)
	}

	ranked := ranking.Rank(contacts)
	out := make([]ContactOutput, len(ranked))
	for i := range ranked {
		out[i] = contactToOutput(&ranked[i], i+1)
	}
	return jsonResource(uri, out)
}

func (h *ResourceHandlers) readContact(ctx context.Context, uri, idStr string) (*mcp.ReadResourceResult, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid contact ID: %w", err)
	}

	contact, err := db.GetContact(ctx, h.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contact: %w", err)
	}
	if contact == nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	activities, err := db.ListContactActivities(ctx, h.db, id, 20)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}

	return jsonResource(uri, map[string]any{
		"contact":    contact,
		"activities": activities,
	})
}

func (h *ResourceHandlers) readSyncStatus(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	state, err := db.GetSyncState(ctx, h.db, db.ServiceCRM)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sync state: %w", err)
	}

	counts, err := db.CountSyncLog(ctx, h.db)
	if err != nil {
		return nil, fmt.Errorf("failed to count linked records: %w", err)
	}

	pending, err := db.CountUnreplicatedActivities(ctx, h.db, sync.MaxSweepAttempts)
	if err != nil {
		return nil, err
	}

	recent := make(map[string][]models.SyncLog)
	for _, entity := range []string{models.EntityContact, models.EntityActivity} {
		logs, err := db.ListSyncLog(ctx, h.db, entity, recentLinkLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to list recent links: %w", err)
		}
		recent[entity] = logs
	}

	return jsonResource(uri, map[string]any{
		"state":   state,
		"linked":  counts,
		"pending": pending,
		"recent":  recent,
	})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
