// ABOUTME: Tests for campaign persistence and shortcode assignment
// ABOUTME: Simulates lost uniqueness races with a lookup that misreports
package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/leadsync/models"
	"github.com/harperreed/leadsync/shortcode"
)

func TestCreateCampaignGeneratesShortcode(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	first := &models.Campaign{Name: "Spring Launch"}
	require.NoError(t, CreateCampaign(ctx, database, first))
	assert.Equal(t, "SL", first.Shortcode)

	second := &models.Campaign{Name: "Summer Leads"}
	require.NoError(t, CreateCampaign(ctx, database, second))
	assert.Equal(t, "SL1", second.Shortcode)

	got, err := FindCampaignByShortcode(ctx, database, "sl1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.ID, got.ID)

	byID, err := GetCampaign(ctx, database, first.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "Spring Launch", byID.Name)

	all, err := ListCampaigns(ctx, database)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreateCampaignRetriesAfterLostRace(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, CreateCampaign(ctx, database, &models.Campaign{Name: "Spring Launch"}))

	// The first lookup misses the existing row, as if it was written
	// concurrently; later lookups see it.
	calls := 0
	lookup := shortcode.LookupFunc(func(ctx context.Context, code string) (bool, error) {
		calls++
		if calls == 1 {
			return false, nil
		}
		return ShortcodeExists(ctx, database, code)
	})

	campaign := &models.Campaign{Name: "Spring Launch"}
	require.NoError(t, createCampaign(ctx, database, campaign, lookup))
	assert.Equal(t, "SL1", campaign.Shortcode)
}

func TestCreateCampaignGivesUpAfterRepeatedRaces(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, CreateCampaign(ctx, database, &models.Campaign{Name: "Spring Launch"}))

	blind := shortcode.LookupFunc(func(context.Context, string) (bool, error) {
		return false, nil
	})

	err := createCampaign(ctx, database, &models.Campaign{Name: "Spring Launch"}, blind)
	assert.ErrorIs(t, err, ErrShortcodeTaken)
}

func TestCreateCampaignLookupFailure(t *testing.T) {
	database := setupTestDB(t)
	boom := errors.New("boom")

	failing := shortcode.LookupFunc(func(context.Context, string) (bool, error) {
		return false, boom
	})

	err := createCampaign(context.Background(), database, &models.Campaign{Name: "Q3 Push"}, failing)
	assert.ErrorIs(t, err, shortcode.ErrLookupUnavailable)
	assert.ErrorIs(t, err, boom)
}

func TestCreateCampaignWithPresetShortcode(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	campaign := &models.Campaign{Name: "Anything", Shortcode: " exp1 "}
	require.NoError(t, CreateCampaign(ctx, database, campaign))
	assert.Equal(t, "EXP1", campaign.Shortcode)

	err := CreateCampaign(ctx, database, &models.Campaign{Name: "Other", Shortcode: "EXP1"})
	assert.ErrorIs(t, err, ErrShortcodeTaken)

	err = CreateCampaign(ctx, database, &models.Campaign{Name: "Bad", Shortcode: "TOOLONG1"})
	assert.ErrorIs(t, err, ErrInvalidShortcode)

	exists, err := ShortcodeExists(ctx, database, "EXP1")
	require.NoError(t, err)
	assert.True(t, exists)
}
