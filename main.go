// ABOUTME: Entry point for the leadsync CLI and MCP server
// ABOUTME: Routes to crm, sync or mcp commands based on arguments
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/harperreed/leadsync/cli"
	"github.com/harperreed/leadsync/db"
)

const version = "0.1.0"

type command func(database *sql.DB, args []string) error

var crmCommands = map[string]command{
	"add-user":      cli.AddUserCommand,
	"add-contact":   cli.AddContactCommand,
	"list-contacts": cli.ListContactsCommand,
	"set-score":     cli.SetScoreCommand,
	"enroll":        cli.EnrollCommand,
	"add-campaign":  cli.AddCampaignCommand,
	"log-activity":  cli.LogActivityCommand,
}

var syncCommands = map[string]command{
	"login":       cli.SyncLoginCommand,
	"promote":     cli.SyncPromoteCommand,
	"link":        cli.SyncLinkCommand,
	"replicate":   cli.SyncReplicateCommand,
	"sweep":       cli.SyncSweepCommand,
	"status":      cli.SyncStatusCommand,
	"cache-clear": cli.SyncCacheClearCommand,
}

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/leadsync/leadsync.db)")
	initOnly := flag.Bool("init", false, "Initialize database and exit")
	verbose := flag.Bool("verbose", false, "Enable debug logging")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("leadsync version %s\n", version)
		os.Exit(0)
	}

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	args := flag.Args()
	if len(args) == 0 && !*initOnly {
		printUsage()
		os.Exit(0)
	}

	finalDBPath := getDatabasePath(*dbPath)
	database, err := db.OpenDatabase(finalDBPath)
	if err != nil {
		log.Fatal("Failed to open database", "path", finalDBPath, "err", err)
	}
	defer func() { _ = database.Close() }()

	if *initOnly {
		log.Info("Database initialized", "path", finalDBPath)
		return
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "mcp":
		if err := cli.MCPCommand(database, version); err != nil {
			log.Fatal("MCP server failed", "err", err)
		}

	case "crm":
		log.Debug("CRM database", "path", finalDBPath)
		runSubcommand(database, "crm", crmCommands, commandArgs)

	case "sync":
		runSubcommand(database, "sync", syncCommands, commandArgs)

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runSubcommand(database *sql.DB, group string, commands map[string]command, args []string) {
	if len(args) == 0 {
		fmt.Printf("Error: %s requires a subcommand\n", group)
		printUsage()
		os.Exit(1)
	}

	run, ok := commands[args[0]]
	if !ok {
		fmt.Printf("Unknown %s command: %s\n\n", group, args[0])
		printUsage()
		os.Exit(1)
	}

	if err := run(database, args[1:]); err != nil {
		_ = database.Close()
		log.Fatal("Error", "err", err)
	}
}

func getDatabasePath(dbPath string) string {
	if dbPath != "" {
		return dbPath
	}
	return db.DefaultPath()
}

func printUsage() {
	fmt.Printf(`leadsync v%s - local CRM with remote CRM promotion and outreach ranking

USAGE:
  leadsync [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/leadsync/leadsync.db)
  --init                 Initialize database and exit
  --verbose              Enable debug logging

COMMANDS:
  mcp                    Start MCP server
  crm                    Local CRM commands
  sync                   Remote CRM sync commands

CRM COMMANDS:
  leadsync crm add-user         Add a contact owner
    --name <name>                 User name (required)
    --email <email>               Email (matches the remote CRM user)

  leadsync crm add-contact      Add a new contact
    --name <name>                 Contact name (required)
    --owner <email|id>            Owning user (required)
    --email <email>               Email address
    --phone <phone>               Phone number
    --org <name>                  Organization (looked up or created)
    --industry, --country         Details for a new organization

  leadsync crm list-contacts    Print the ranked outreach list
    --owner <email|id>            Only this user's contacts
    --limit <n>                   Max results (default: 500)

  leadsync crm set-score        Set a warmness score (4+ promotes)
    --id <id> --score <n>

  leadsync crm enroll           Put a contact in active outreach
    --id <id> [--off]

  leadsync crm add-campaign     Create a campaign
    --name <name>                 Campaign name (required)
    --shortcode <code>            Explicit shortcode (default: generated)

  leadsync crm log-activity     Log an activity (replicates when linked)
    --contact <id>                Contact ID (required)
    --subject <text>              Subject (required)
    --type <type>                 meeting, call, email, message, event (default: call)
    --notes <text>                Notes
    --owner <email|id>            Logging user (default: contact owner)
    --campaign <code>             Campaign shortcode
    --at <date>                   YYYY-MM-DD or RFC3339 (default: now)

SYNC COMMANDS:
  leadsync sync login           Save remote CRM credentials
    --base-url <url> --token <token> --warm-label <label> --cache <local|charm|memory>
  leadsync sync promote --id <id>     Promote one contact with its stored score
  leadsync sync link --id <id>        Link a contact to an existing remote person
  leadsync sync replicate --id <id>   Replicate one activity
  leadsync sync sweep                 Promote eligible contacts and retry pending activities
    --owner <email|id> --limit <n>
  leadsync sync status                Show sync state and linked record counts
  leadsync sync cache-clear           Drop cached remote ids
    --prefix <label:|owner:> --yes

EXAMPLES:
  leadsync crm add-user --name "Sam" --email sam@example.com
  leadsync crm add-contact --name "Ada" --email ada@example.com --owner sam@example.com --org "Acme"
  leadsync crm set-score --id <contact-id> --score 4
  leadsync crm list-contacts --owner sam@example.com

`, version)
}
