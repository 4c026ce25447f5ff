// ABOUTME: MCP prompt handlers for outreach workflow templates
// ABOUTME: Builds prompts from the ranked list and a contact's activity history
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/leadsync/db"
	"github.com/harperreed/leadsync/ranking"
	"github.com/harperreed/leadsync/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultPlanSize = 20

type PromptHandlers struct {
	db *sql.DB
}

func NewPromptHandlers(database *sql.DB) *PromptHandlers {
	return &PromptHandlers{db: database}
}

// Prompts lists the prompts served by GetPrompt.
func (h *PromptHandlers) Prompts() []*mcp.Prompt {
	return []*mcp.Prompt{
		{
			Name:        "outreach-plan",
			Description: "Plan today's outreach from the top of the ranked list",
			Arguments: []*mcp.PromptArgument{
				{Name: "owner_id", Description: "Only this user's contacts"},
				{Name: "limit", Description: "How many contacts to plan for (default 20)"},
			},
		},
		{
			Name:        "contact-summary",
			Description: "Summarise a contact and their recent activities",
			Arguments: []*mcp.PromptArgument{
				{Name: "contact_id", Description: "Contact ID", Required: true},
			},
		},
	}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "outreach-plan":
		return h.getOutreachPlanPrompt(ctx, request.Params.Arguments)
	case "contact-summary":
		return h.getContactSummaryPrompt(ctx, request.Params.Arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) getOutreachPlanPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	var ownerID *uuid.UUID
	if s := args["owner_id"]; s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid owner_id: %w", err)
		}
		ownerID = &id
	}

	limit := defaultPlanSize
	if s := args["limit"]; s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid limit: %q", s)
		}
		limit = n
	}

	contacts, err := db.ListContacts(ctx, h.db, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacts: %w", err)
	}
	ranked := ranking.MyList(contacts, limit)

	var promptText strings.Builder
	promptText.WriteString("Here are the contacts at the top of my outreach list, in priority order:\n\n")
	if len(ranked) == 0 {
		promptText.WriteString("(no contacts yet)\n")
	}
	for i, c := range ranked {
		last := "never contacted"
		if c.LastContactedAt != nil {
			last = "last contacted " + c.LastContactedAt.Format("2006-01-02")
		}
		fmt.Fprintf(&promptText, "%d. %s (score %d, %s", i+1, c.Name, c.WarmnessScore, last)
		if c.InActiveOutreach {
			promptText.WriteString(", in active outreach")
		}
		promptText.WriteString(")\n")
	}

	fmt.Fprintf(&promptText, "\nScores of %d or more promote a contact to the remote CRM.", sync.PromotionThreshold)
	promptText.WriteString("\nPlease suggest:")
	promptText.WriteString("\n1. Who to reach out to first and why")
	promptText.WriteString("\n2. A channel (call, email, message, meeting) for each")
	promptText.WriteString("\n3. Which contacts look close to warming up")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Outreach plan for %d contact(s)", len(ranked)),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText.String()},
			},
		},
	}, nil
}

func (h *PromptHandlers) getContactSummaryPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	contactIDStr, ok := args["contact_id"]
	if !ok {
		return nil, fmt.Errorf("contact_id is required")
	}

	contactID, err := uuid.Parse(contactIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid contact_id: %w", err)
	}

	contact, err := db.GetContact(ctx, h.db, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contact: %w", err)
	}
	if contact == nil {
		return nil, fmt.Errorf("contact not found: %s", contactID)
	}

	var orgName string
	if contact.OrganizationID != nil {
		org, err := db.GetOrganization(ctx, h.db, *contact.OrganizationID)
		if err == nil && org != nil {
			orgName = org.Name
		}
	}

	activities, err := db.ListContactActivities(ctx, h.db, contactID, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}

	var promptText strings.Builder
	promptText.WriteString("Please provide a summary of this contact:\n\n")
	fmt.Fprintf(&promptText, "Name: %s\n", contact.Name)
	if contact.Email != "" {
		fmt.Fprintf(&promptText, "Email: %s\n", contact.Email)
	}
	if orgName != "" {
		fmt.Fprintf(&promptText, "Organization: %s\n", orgName)
	}
	fmt.Fprintf(&promptText, "Warmness score: %d\n", contact.WarmnessScore)
	if contact.IsLinked() {
		promptText.WriteString("In remote CRM: yes\n")
	}

	if len(activities) > 0 {
		promptText.WriteString("\nRecent activities:\n")
		for _, a := range activities {
			fmt.Fprintf(&promptText, "- %s %s: %s\n", a.OccurredAt.Format("2006-01-02"), a.Type, a.Subject)
		}
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. A brief summary of the relationship so far")
	promptText.WriteString("\n2. A suggested next step")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Summary for contact: %s", contact.Name),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText.String()},
			},
		},
	}, nil
}
