// ABOUTME: User CLI commands
// ABOUTME: Adds the consultants who own contacts and log activities
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/harperreed/leadsync/db"
	"github.com/harperreed/leadsync/models"
)

// AddUserCommand adds a contact owner.
func AddUserCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("add-user", flag.ExitOnError)
	name := fs.String("name", "", "User name (required)")
	email := fs.String("email", "", "Email address, used to match the remote CRM user")
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	user := &models.User{Name: *name, Email: *email}
	if err := db.CreateUser(context.Background(), database, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("✓ User created: %s (ID: %s)\n", user.Name, user.ID)
	if user.Email == "" {
		fmt.Println("  No email: promoted contacts will have no remote owner")
	}
	return nil
}
