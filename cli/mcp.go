// ABOUTME: MCP server subcommand
// ABOUTME: Serves ranking, campaign and sync tools plus resources and prompts over stdio
package cli

import (
	"context"
	"database/sql"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/leadsync/handlers"
	"github.com/harperreed/leadsync/sync"
)

// MCPCommand starts the MCP server on stdio
func MCPCommand(db *sql.DB, version string) error {
	log.Info("Starting leadsync MCP server")

	var engine *sync.Engine
	e, cleanup, err := openEngine(db)
	switch {
	case err == nil:
		engine = e
		defer cleanup()
	case errors.Is(err, errNotConfigured):
		log.Warn("remote CRM not configured; promote_contact and replicate_activity are disabled")
	default:
		return err
	}

	server := newMCPServer(db, engine, version)

	// Run server on stdio transport
	return server.Run(context.Background(), &mcp.StdioTransport{})
}

func newMCPServer(db *sql.DB, engine *sync.Engine, version string) *mcp.Server {
	contactHandlers := handlers.NewContactHandlers(db)
	campaignHandlers := handlers.NewCampaignHandlers(db)
	syncHandlers := handlers.NewSyncHandlers(db, engine)
	resourceHandlers := handlers.NewResourceHandlers(db)
	promptHandlers := handlers.NewPromptHandlers(db)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "leadsync",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rank_contacts",
		Description: "List contacts in outreach order: active outreach first, then coldest score, then longest since last contact",
	}, contactHandlers.RankContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_campaign",
		Description: "Create a campaign; the shortcode is generated from the name unless one is given",
	}, campaignHandlers.CreateCampaign)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "promote_contact",
		Description: "Promote a warm contact (score 4 or more) to a person in the remote CRM, optionally setting a new score first",
	}, syncHandlers.PromoteContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "replicate_activity",
		Description: "Replicate a logged activity to the remote CRM for a contact that is already linked",
	}, syncHandlers.ReplicateActivity)

	for _, resource := range resourceHandlers.Resources() {
		server.AddResource(resource, resourceHandlers.ReadResource)
	}
	server.AddResourceTemplate(resourceHandlers.ContactTemplate(), resourceHandlers.ReadResource)

	for _, prompt := range promptHandlers.Prompts() {
		server.AddPrompt(prompt, promptHandlers.GetPrompt)
	}

	return server
}
