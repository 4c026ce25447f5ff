// ABOUTME: Builds the sync engine from the saved CRM config for CLI and MCP commands
// ABOUTME: Also resolves users given by email or ID on the command line
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/harperreed/leadsync/crm"
	"github.com/harperreed/leadsync/db"
	"github.com/harperreed/leadsync/kvcache"
	"github.com/harperreed/leadsync/models"
	"github.com/harperreed/leadsync/sync"
)

// errNotConfigured is returned when a command needs the remote CRM.
var errNotConfigured = errors.New("remote CRM is not configured. Run 'leadsync sync login' first")

// openEngine wires the sync engine. It returns errNotConfigured when no
// credentials are saved; callers that can work offline check for it.
func openEngine(database *sql.DB) (*sync.Engine, func(), error) {
	cfg, err := crm.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load crm config: %w", err)
	}
	if !cfg.IsConfigured() {
		return nil, nil, errNotConfigured
	}

	client, err := crm.NewHTTPClient(cfg)
	if err != nil {
		return nil, nil, err
	}

	cache, closeCache, err := kvcache.Open(cfg.CacheBackend)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}

	engine := sync.NewEngine(db.NewStore(database), client, cache,
		sync.WithLogger(log.Default()),
		sync.WithWarmLeadLabel(cfg.WarmLeadLabel),
	)

	cleanup := func() {
		if err := closeCache(); err != nil {
			log.Warn("failed to close cache", "err", err)
		}
	}
	return engine, cleanup, nil
}

// resolveUser accepts a user ID or an email address.
func resolveUser(ctx context.Context, database *sql.DB, ref string) (*models.User, error) {
	if id, err := uuid.Parse(ref); err == nil {
		user, err := db.GetUser(ctx, database, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		if user == nil {
			return nil, fmt.Errorf("user not found: %s", ref)
		}
		return user, nil
	}

	user, err := db.FindUserByEmail(ctx, database, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found: %s", ref)
	}
	return user, nil
}

func parseContactID(ref string) (uuid.UUID, error) {
	if ref == "" {
		return uuid.Nil, fmt.Errorf("--id is required")
	}
	id, err := uuid.Parse(ref)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid contact ID: %w", err)
	}
	return id, nil
}
