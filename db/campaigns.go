// ABOUTME: Campaign database operations
// ABOUTME: Assigns unique shortcodes on insert and retries on a lost uniqueness race
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/leadsync/models"
	"github.com/harperreed/leadsync/shortcode"
)

// maxShortcodeInserts bounds how often a generated code is retried after a
// concurrent writer claimed it between lookup and insert.
const maxShortcodeInserts = 3

var (
	ErrShortcodeTaken   = errors.New("campaign shortcode already taken")
	ErrInvalidShortcode = errors.New("invalid campaign shortcode")
)

// ShortcodeExists reports whether any campaign holds code.
func ShortcodeExists(ctx context.Context, db *sql.DB, code string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns WHERE shortcode = ?`, code).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check shortcode: %w", err)
	}
	return count > 0, nil
}

// CreateCampaign inserts a campaign. A preset Shortcode is validated and used
// as is; otherwise one is generated from the name.
func CreateCampaign(ctx context.Context, db *sql.DB, campaign *models.Campaign) error {
	lookup := shortcode.LookupFunc(func(ctx context.Context, code string) (bool, error) {
		return ShortcodeExists(ctx, db, code)
	})
	return createCampaign(ctx, db, campaign, lookup)
}

func createCampaign(ctx context.Context, db *sql.DB, campaign *models.Campaign, lookup shortcode.Lookup) error {
	campaign.ID = uuid.New()
	campaign.CreatedAt = time.Now()

	if campaign.Shortcode != "" {
		campaign.Shortcode = strings.ToUpper(strings.TrimSpace(campaign.Shortcode))
		if !shortcode.Valid(campaign.Shortcode) {
			return fmt.Errorf("%w: %q", ErrInvalidShortcode, campaign.Shortcode)
		}
		err := insertCampaign(ctx, db, campaign)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrShortcodeTaken, campaign.Shortcode)
		}
		return err
	}

	for attempt := 0; attempt < maxShortcodeInserts; attempt++ {
		code, err := shortcode.Generate(ctx, lookup, campaign.Name)
		if err != nil {
			return fmt.Errorf("failed to generate shortcode: %w", err)
		}
		campaign.Shortcode = code

		err = insertCampaign(ctx, db, campaign)
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return err
		}
	}

	return fmt.Errorf("%w: %s", ErrShortcodeTaken, campaign.Shortcode)
}

func insertCampaign(ctx context.Context, db *sql.DB, campaign *models.Campaign) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO campaigns (id, name, shortcode, created_at)
		VALUES (?, ?, ?, ?)
	`, campaign.ID.String(), campaign.Name, campaign.Shortcode, campaign.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

const campaignColumns = `id, name, shortcode, created_at`

func scanCampaign(row interface{ Scan(...any) error }) (*models.Campaign, error) {
	var c models.Campaign
	if err := row.Scan(&c.ID, &c.Name, &c.Shortcode, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func GetCampaign(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.Campaign, error) {
	c, err := scanCampaign(db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, id.String()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return c, nil
}

func FindCampaignByShortcode(ctx context.Context, db *sql.DB, code string) (*models.Campaign, error) {
	c, err := scanCampaign(db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE shortcode = ?`,
		strings.ToUpper(strings.TrimSpace(code))))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find campaign: %w", err)
	}
	return c, nil
}

func ListCampaigns(ctx context.Context, db *sql.DB) ([]models.Campaign, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var campaigns []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, *c)
	}

	return campaigns, rows.Err()
}
