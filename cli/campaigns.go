// ABOUTME: Campaign CLI commands
// ABOUTME: Creates campaigns with generated or explicit shortcodes
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/harperreed/leadsync/db"
	"github.com/harperreed/leadsync/models"
)

// AddCampaignCommand creates a campaign.
func AddCampaignCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("add-campaign", flag.ExitOnError)
	name := fs.String("name", "", "Campaign name (required)")
	code := fs.String("shortcode", "", "Shortcode (generated from the name when omitted)")
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	campaign := &models.Campaign{Name: *name, Shortcode: *code}
	if err := db.CreateCampaign(context.Background(), database, campaign); err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	fmt.Printf("✓ Campaign created: %s [%s]\n", campaign.Name, campaign.Shortcode)
	return nil
}
