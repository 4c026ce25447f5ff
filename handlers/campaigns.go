// ABOUTME: Campaign MCP tool handlers
// ABOUTME: Implements create_campaign with generated or explicit shortcodes
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/leadsync/db"
	"github.com/harperreed/leadsync/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type CampaignHandlers struct {
	db *sql.DB
}

func NewCampaignHandlers(database *sql.DB) *CampaignHandlers {
	return &CampaignHandlers{db: database}
}

type CreateCampaignInput struct {
	Name      string `json:"name" jsonschema:"Campaign name (required)"`
	Shortcode string `json:"shortcode,omitempty" jsonschema:"Explicit shortcode (A-Z and 0-9, up to 6 characters); generated from the name when omitted"`
}

type CampaignOutput struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Shortcode string `json:"shortcode"`
	CreatedAt string `json:"created_at"`
}

func (h *CampaignHandlers) CreateCampaign(ctx context.Context, request *mcp.CallToolRequest, input CreateCampaignInput) (*mcp.CallToolResult, CampaignOutput, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, CampaignOutput{}, fmt.Errorf("name is required")
	}

	campaign := &models.Campaign{
		Name:      input.Name,
		Shortcode: strings.ToUpper(strings.TrimSpace(input.Shortcode)),
	}

	if err := db.CreateCampaign(ctx, h.db, campaign); err != nil {
		return nil, CampaignOutput{}, fmt.Errorf("failed to create campaign: %w", err)
	}

	return nil, CampaignOutput{
		ID:        campaign.ID.String(),
		Name:      campaign.Name,
		Shortcode: campaign.Shortcode,
		CreatedAt: campaign.CreatedAt.Format(time.RFC3339),
	}, nil
}
