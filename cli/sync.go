// ABOUTME: Remote CRM sync CLI commands
// ABOUTME: Login, manual promote/link/replicate, sweeps, status and cache maintenance
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/harperreed/leadsync/crm"
	"github.com/harperreed/leadsync/db"
	"github.com/harperreed/leadsync/kvcache"
	"github.com/harperreed/leadsync/sync"
)

// SyncLoginCommand saves remote CRM credentials.
func SyncLoginCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("sync login", flag.ExitOnError)
	baseURL := fs.String("base-url", "", "Remote CRM API base URL")
	token := fs.String("token", "", "API token (prompted when omitted)")
	label := fs.String("warm-label", "", "Person label applied to promoted contacts")
	backend := fs.String("cache", "", "Cache backend: local, charm or memory")
	charmHost := fs.String("charm-host", "", "Charm server host for the charm cache backend")
	charmAutoSync := fs.Bool("charm-auto-sync", true, "Push charm cache writes to the server immediately")
	_ = fs.Parse(args)

	charmFlagsSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "charm-host" || f.Name == "charm-auto-sync" {
			charmFlagsSet = true
		}
	})

	cfg, err := crm.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load crm config: %w", err)
	}

	if *baseURL != "" {
		cfg.BaseURL = strings.TrimRight(*baseURL, "/")
	}
	if *label != "" {
		cfg.WarmLeadLabel = *label
	}
	if *backend != "" {
		switch *backend {
		case crm.CacheBackendLocal, crm.CacheBackendCharm, crm.CacheBackendMemory:
			cfg.CacheBackend = *backend
		default:
			return fmt.Errorf("unknown cache backend %q", *backend)
		}
	}

	apiToken := *token
	if apiToken == "" {
		fmt.Print("API token: ")
		tokenBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		fmt.Println() // New line after hidden input
		apiToken = strings.TrimSpace(string(tokenBytes))
	}
	if apiToken == "" {
		return fmt.Errorf("an API token is required")
	}
	cfg.APIToken = apiToken

	if err := crm.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save crm config: %w", err)
	}

	var charmCfg *kvcache.Config
	if cfg.CacheBackend == crm.CacheBackendCharm || charmFlagsSet {
		charmCfg, err = kvcache.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load charm config: %w", err)
		}
		if *charmHost != "" {
			charmCfg.Host = *charmHost
		}
		charmCfg.AutoSync = *charmAutoSync
		if err := charmCfg.Save(); err != nil {
			return fmt.Errorf("failed to save charm config: %w", err)
		}
	}

	fmt.Printf("✓ Credentials saved to %s\n", crm.ConfigPath())
	fmt.Printf("✓ Remote CRM: %s\n", cfg.BaseURL)
	fmt.Printf("✓ Warm lead label: %s\n", cfg.WarmLeadLabel)
	fmt.Printf("✓ Cache: %s\n", cfg.CacheBackend)
	if charmCfg != nil {
		fmt.Printf("✓ Charm host: %s (auto-sync %t)\n", charmCfg.Host, charmCfg.AutoSync)
	}
	fmt.Println("\nRun 'leadsync sync sweep' to promote warm contacts.")

	return nil
}

// SyncPromoteCommand promotes one contact using its stored score.
func SyncPromoteCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("sync promote", flag.ExitOnError)
	id := fs.String("id", "", "Contact ID (required)")
	_ = fs.Parse(args)

	contactID, err := parseContactID(*id)
	if err != nil {
		return err
	}

	ctx := context.Background()
	contact, err := db.GetContact(ctx, database, contactID)
	if err != nil {
		return fmt.Errorf("failed to get contact: %w", err)
	}
	if contact == nil {
		return fmt.Errorf("contact not found: %s", contactID)
	}

	engine, cleanup, err := openEngine(database)
	if err != nil {
		return err
	}
	defer cleanup()

	printPromotion(engine.Promoter.Promote(ctx, contactID, contact.WarmnessScore))
	return nil
}

// SyncLinkCommand links a contact to an existing remote person with the same email.
func SyncLinkCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("sync link", flag.ExitOnError)
	id := fs.String("id", "", "Contact ID (required)")
	_ = fs.Parse(args)

	contactID, err := parseContactID(*id)
	if err != nil {
		return err
	}

	engine, cleanup, err := openEngine(database)
	if err != nil {
		return err
	}
	defer cleanup()

	result := engine.Promoter.LinkExisting(context.Background(), contactID)
	switch {
	case result.Promoted:
		fmt.Printf("✓ Linked to remote person %d\n", result.PersonID)
	case result.AlreadyLinked:
		fmt.Printf("✓ Already linked to remote person %d\n", result.PersonID)
	default:
		fmt.Printf("✗ Not linked: %s\n", result.Reason)
	}
	return nil
}

// SyncReplicateCommand replicates one activity.
func SyncReplicateCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("sync replicate", flag.ExitOnError)
	id := fs.String("id", "", "Activity ID (required)")
	_ = fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("--id is required")
	}
	activityID, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("invalid activity ID: %w", err)
	}

	ctx := context.Background()
	activity, err := db.GetActivity(ctx, database, activityID)
	if err != nil {
		return fmt.Errorf("failed to get activity: %w", err)
	}
	if activity == nil {
		return fmt.Errorf("activity not found: %s", activityID)
	}

	engine, cleanup, err := openEngine(database)
	if err != nil {
		return err
	}
	defer cleanup()

	printReplication(engine.Replicator.Replicate(ctx, activity.ID, activity.ContactID, activity.OwnerID))
	return nil
}

// SyncSweepCommand promotes every eligible contact and retries pending activities.
func SyncSweepCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("sync sweep", flag.ExitOnError)
	owner := fs.String("owner", "", "Only sweep contacts owned by this user (email or ID)")
	limit := fs.Int("limit", sync.DefaultSweepLimit, "Maximum pending activities to retry")
	_ = fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var ownerID *uuid.UUID
	if *owner != "" {
		user, err := resolveUser(ctx, database, *owner)
		if err != nil {
			return err
		}
		ownerID = &user.ID
	}

	contacts, err := db.ListContacts(ctx, database, ownerID)
	if err != nil {
		return fmt.Errorf("failed to list contacts: %w", err)
	}

	engine, cleanup, err := openEngine(database)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Println("Sweeping...")
	start := time.Now()

	summary, err := engine.Sweeper.Run(ctx, contacts, *limit)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	fmt.Printf("\n✓ Attempted: %d\n", summary.Attempted)
	fmt.Printf("✓ Succeeded: %d\n", summary.Succeeded)
	if summary.Failed > 0 {
		fmt.Printf("✗ Failed:    %d\n", summary.Failed)
	}
	fmt.Printf("  Took %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// SyncStatusCommand shows the sync state and linkage counts.
func SyncStatusCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("sync status", flag.ExitOnError)
	_ = fs.Parse(args)

	ctx := context.Background()

	cfg, err := crm.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load crm config: %w", err)
	}

	fmt.Println(titleStyle.Render("Remote CRM Sync Status"))
	fmt.Println()
	fmt.Printf("Server:     %s\n", cfg.BaseURL)
	if cfg.IsConfigured() {
		fmt.Printf("Credentials: %s\n", idleStyle.Render("saved"))
	} else {
		fmt.Printf("Credentials: %s\n", errorStyle.Render("missing (run 'leadsync sync login')"))
	}
	fmt.Printf("Warm label: %s\n", cfg.WarmLeadLabel)
	fmt.Printf("Cache:      %s\n", cfg.CacheBackend)
	switch cfg.CacheBackend {
	case crm.CacheBackendLocal:
		fmt.Printf("Cache dir:  %s\n", kvcache.LocalDir())
	case crm.CacheBackendCharm:
		printCharmStatus()
	}

	state, err := db.GetSyncState(ctx, database, db.ServiceCRM)
	if err != nil {
		return fmt.Errorf("failed to get sync state: %w", err)
	}

	fmt.Println()
	if state == nil {
		fmt.Println(mutedStyle.Render("No sweep has run yet"))
	} else {
		fmt.Printf("Status:     %s\n", statusStyle(state.Status).Render(state.Status))
		if state.LastSyncTime != nil {
			fmt.Printf("Last sync:  %s\n", state.LastSyncTime.Local().Format("2006-01-02 15:04"))
		}
		if state.ErrorMessage != "" {
			fmt.Printf("Error:      %s\n", errorStyle.Render(state.ErrorMessage))
		}
	}

	counts, err := db.CountSyncLog(ctx, database)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("Linked records"))
	if len(counts) == 0 {
		fmt.Println(mutedStyle.Render("none"))
		return nil
	}

	entities := make([]string, 0, len(counts))
	for entity := range counts {
		entities = append(entities, entity)
	}
	sort.Strings(entities)
	for _, entity := range entities {
		fmt.Printf("  %-13s %d\n", entity, counts[entity])
	}

	pending, err := db.CountUnreplicatedActivities(ctx, database, sync.MaxSweepAttempts)
	if err != nil {
		return err
	}
	if pending > 0 {
		fmt.Printf("\n%s\n", syncingStyle.Render(fmt.Sprintf("%d activities waiting to replicate", pending)))
	}

	return nil
}

func printCharmStatus() {
	charmCfg, err := kvcache.LoadConfig()
	if err != nil {
		fmt.Printf("Charm:      %s\n", errorStyle.Render(err.Error()))
		return
	}
	fmt.Printf("Charm host: %s (auto-sync %t)\n", charmCfg.Host, charmCfg.AutoSync)

	cache, err := kvcache.OpenCharm(charmCfg)
	if err != nil {
		fmt.Printf("Charm ID:   %s\n", errorStyle.Render(err.Error()))
		return
	}
	defer func() { _ = cache.Close() }()

	id, err := cache.CharmID()
	if err != nil {
		fmt.Printf("Charm ID:   %s\n", errorStyle.Render(err.Error()))
		return
	}
	fmt.Printf("Charm ID:   %s\n", id)
}

// SyncCacheClearCommand drops cached remote ids so they are looked up again.
func SyncCacheClearCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("sync cache-clear", flag.ExitOnError)
	prefix := fs.String("prefix", "", "Only clear keys with this prefix (label: or owner:)")
	yes := fs.Bool("yes", false, "Skip confirmation")
	_ = fs.Parse(args)

	cfg, err := crm.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load crm config: %w", err)
	}

	if cfg.CacheBackend == crm.CacheBackendMemory {
		fmt.Println("✓ Memory cache has nothing to clear")
		return nil
	}

	if !*yes {
		fmt.Printf("Clear the %s cache? [y/N] ", cfg.CacheBackend)
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			fmt.Println("Aborted")
			return nil
		}
	}

	cache, closeCache, err := kvcache.Open(cfg.CacheBackend)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer func() { _ = closeCache() }()

	kv, ok := cache.(*kvcache.Cache)
	if !ok {
		return errors.New("cache backend does not support clearing")
	}

	if *prefix == "" {
		n, err := kv.Clear()
		if err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Printf("✓ Cleared %d key(s)\n", n)
	} else {
		keys, err := kv.Keys(*prefix)
		if err != nil {
			return err
		}
		ctx := context.Background()
		for _, key := range keys {
			if err := kv.Delete(ctx, key); err != nil {
				return err
			}
		}
		fmt.Printf("✓ Cleared %d key(s) with prefix %q\n", len(keys), *prefix)
	}

	if kv.IsCharm() {
		if err := kv.Sync(); err != nil {
			return fmt.Errorf("failed to sync charm cache: %w", err)
		}
		fmt.Println("✓ Charm server updated")
	}

	return nil
}
