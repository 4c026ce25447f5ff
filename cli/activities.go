// ABOUTME: Activity CLI commands
// ABOUTME: Logs an activity and replicates it when the contact is already in the remote CRM
package cli

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/leadsync/db"
	"github.com/harperreed/leadsync/models"
	"github.com/harperreed/leadsync/sync"
)

// LogActivityCommand records an activity against a contact.
func LogActivityCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("log-activity", flag.ExitOnError)
	id := fs.String("contact", "", "Contact ID (required)")
	kind := fs.String("type", models.ActivityCall, "Activity type: meeting, call, email, message, event")
	subject := fs.String("subject", "", "Subject (required)")
	notes := fs.String("notes", "", "Notes")
	owner := fs.String("owner", "", "Logging user email or ID (default: contact owner)")
	campaign := fs.String("campaign", "", "Campaign shortcode")
	at := fs.String("at", "", "When it happened (YYYY-MM-DD or RFC3339, default now)")
	_ = fs.Parse(args)

	contactID, err := parseContactID(*id)
	if err != nil {
		return fmt.Errorf("--contact: %w", err)
	}
	if *subject == "" {
		return fmt.Errorf("--subject is required")
	}

	ctx := context.Background()

	contact, err := db.GetContact(ctx, database, contactID)
	if err != nil {
		return fmt.Errorf("failed to get contact: %w", err)
	}
	if contact == nil {
		return fmt.Errorf("contact not found: %s", contactID)
	}

	activity := &models.Activity{
		ContactID: contact.ID,
		OwnerID:   contact.OwnerID,
		Type:      strings.ToLower(*kind),
		Subject:   *subject,
		Notes:     *notes,
	}

	if *owner != "" {
		user, err := resolveUser(ctx, database, *owner)
		if err != nil {
			return err
		}
		activity.OwnerID = user.ID
	}

	if *campaign != "" {
		c, err := db.FindCampaignByShortcode(ctx, database, *campaign)
		if err != nil {
			return fmt.Errorf("failed to lookup campaign: %w", err)
		}
		if c == nil {
			return fmt.Errorf("campaign not found: %s", *campaign)
		}
		activity.CampaignID = &c.ID
	}

	if *at != "" {
		when, err := parseWhen(*at)
		if err != nil {
			return err
		}
		activity.OccurredAt = when
	}

	if err := db.LogActivity(ctx, database, activity); err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}
	fmt.Printf("✓ Activity logged: %s (ID: %s)\n", activity.Subject, activity.ID)

	if !contact.IsLinked() {
		fmt.Println("  Contact is not in the remote CRM yet; the activity stays local")
		return nil
	}

	engine, cleanup, err := openEngine(database)
	if errors.Is(err, errNotConfigured) {
		fmt.Println("  Remote CRM not configured; skipping replication")
		return nil
	}
	if err != nil {
		return err
	}
	defer cleanup()

	printReplication(engine.Replicator.Replicate(ctx, activity.ID, contact.ID, activity.OwnerID))
	return nil
}

func parseWhen(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: use YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}

func printReplication(result sync.ReplicationResult) {
	if result.Replicated {
		fmt.Printf("✓ Replicated as remote activity %d\n", result.RemoteActivityID)
		return
	}
	fmt.Printf("✗ Not replicated after %d attempt(s): %s\n", result.Attempts, result.Reason)
}
