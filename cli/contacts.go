// ABOUTME: Contact CLI commands
// ABOUTME: Add contacts, print the ranked outreach list, score and enroll contacts
package cli

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/harperreed/leadsync/db"
	"github.com/harperreed/leadsync/models"
	"github.com/harperreed/leadsync/ranking"
	"github.com/harperreed/leadsync/sync"
)

// AddContactCommand adds a new contact.
func AddContactCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("add-contact", flag.ExitOnError)
	name := fs.String("name", "", "Contact name (required)")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	owner := fs.String("owner", "", "Owning user email or ID (required)")
	org := fs.String("org", "", "Organization name (looked up or created)")
	industry := fs.String("industry", "", "Industry for a new organization")
	country := fs.String("country", "", "Country for a new organization")
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}
	if *owner == "" {
		return fmt.Errorf("--owner is required")
	}

	ctx := context.Background()

	user, err := resolveUser(ctx, database, *owner)
	if err != nil {
		return err
	}

	contact := &models.Contact{
		Name:    *name,
		Email:   *email,
		Phone:   *phone,
		OwnerID: user.ID,
	}

	// Handle organization association
	if *org != "" {
		existing, err := db.FindOrganizationByName(ctx, database, *org)
		if err != nil {
			return fmt.Errorf("failed to lookup organization: %w", err)
		}

		if existing == nil {
			existing = &models.Organization{Name: *org, Industry: *industry, Country: *country}
			if err := db.CreateOrganization(ctx, database, existing); err != nil {
				return fmt.Errorf("failed to create organization: %w", err)
			}
		}
		contact.OrganizationID = &existing.ID
	}

	if err := db.CreateContact(ctx, database, contact); err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	fmt.Printf("✓ Contact created: %s (ID: %s)\n", contact.Name, contact.ID)
	if contact.Email != "" {
		fmt.Printf("  Email: %s\n", contact.Email)
	}
	if *org != "" {
		fmt.Printf("  Organization: %s\n", *org)
	}
	fmt.Printf("  Owner: %s\n", user.Name)

	return nil
}

// ListContactsCommand prints the ranked outreach list.
func ListContactsCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("list-contacts", flag.ExitOnError)
	owner := fs.String("owner", "", "Only contacts owned by this user (email or ID)")
	limit := fs.Int("limit", ranking.DefaultLimit, "Maximum results")
	_ = fs.Parse(args)

	ctx := context.Background()

	var ownerID *uuid.UUID
	title := "My list"
	if *owner != "" {
		user, err := resolveUser(ctx, database, *owner)
		if err != nil {
			return err
		}
		ownerID = &user.ID
		title = fmt.Sprintf("%s's list", user.Name)
	}

	contacts, err := db.ListContacts(ctx, database, ownerID)
	if err != nil {
		return fmt.Errorf("failed to list contacts: %w", err)
	}

	ranked := ranking.MyList(contacts, *limit)
	if len(ranked) == 0 {
		fmt.Println("No contacts found")
		return nil
	}

	fmt.Println(titleStyle.Render(title))
	fmt.Println(headerStyle.Render("Outreach first, then coldest, then longest since contact"))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tNAME\tSCORE\tOUTREACH\tLAST CONTACT\tCRM\tID")
	_, _ = fmt.Fprintln(w, "-\t----\t-----\t--------\t------------\t---\t--")

	for i, contact := range ranked {
		outreach := "-"
		if contact.InActiveOutreach {
			outreach = "yes"
		}
		last := "never"
		if contact.LastContactedAt != nil {
			last = contact.LastContactedAt.Format("2006-01-02")
		}
		linked := "-"
		if contact.RemotePersonID != nil {
			linked = fmt.Sprintf("%d", *contact.RemotePersonID)
		}

		_, _ = fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\t%s\n",
			i+1, contact.Name, contact.WarmnessScore, outreach, last, linked, contact.ID.String()[:8])
	}
	_ = w.Flush()

	fmt.Printf("\nTotal: %d of %d contact(s)\n", len(ranked), len(contacts))
	return nil
}

// SetScoreCommand stores a warmness score and promotes the contact once it is warm enough.
func SetScoreCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("set-score", flag.ExitOnError)
	id := fs.String("id", "", "Contact ID (required)")
	score := fs.Int("score", -1, "Warmness score (required)")
	_ = fs.Parse(args)

	contactID, err := parseContactID(*id)
	if err != nil {
		return err
	}
	if *score < 0 {
		return fmt.Errorf("--score is required")
	}

	ctx := context.Background()
	if err := db.UpdateContactScore(ctx, database, contactID, *score); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("contact not found: %s", contactID)
		}
		return fmt.Errorf("failed to update score: %w", err)
	}
	fmt.Printf("✓ Score set to %d\n", *score)

	if *score < sync.PromotionThreshold {
		return nil
	}

	engine, cleanup, err := openEngine(database)
	if errors.Is(err, errNotConfigured) {
		fmt.Println("  Remote CRM not configured; skipping promotion")
		return nil
	}
	if err != nil {
		return err
	}
	defer cleanup()

	printPromotion(engine.Promoter.Promote(ctx, contactID, *score))
	return nil
}

// EnrollCommand moves a contact in or out of active outreach.
func EnrollCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("enroll", flag.ExitOnError)
	id := fs.String("id", "", "Contact ID (required)")
	off := fs.Bool("off", false, "Remove from active outreach")
	_ = fs.Parse(args)

	contactID, err := parseContactID(*id)
	if err != nil {
		return err
	}

	if err := db.SetContactOutreach(context.Background(), database, contactID, !*off); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("contact not found: %s", contactID)
		}
		return fmt.Errorf("failed to update outreach: %w", err)
	}

	if *off {
		fmt.Printf("✓ Contact %s removed from active outreach\n", contactID)
	} else {
		fmt.Printf("✓ Contact %s enrolled in active outreach\n", contactID)
	}
	return nil
}

func printPromotion(result sync.PromotionResult) {
	switch {
	case result.Promoted:
		fmt.Printf("✓ Promoted to remote person %d\n", result.PersonID)
	case result.AlreadyLinked:
		fmt.Printf("✓ Already linked to remote person %d\n", result.PersonID)
	default:
		fmt.Printf("✗ Not promoted: %s\n", result.Reason)
	}
}
