// ABOUTME: Tests for sync_state and sync_log bookkeeping
// ABOUTME: Verifies status transitions and linkage counts
package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/leadsync/models"
)

func TestUpdateSyncStatus(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	state, err := GetSyncState(ctx, database, ServiceCRM)
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, UpdateSyncStatus(ctx, database, ServiceCRM, models.SyncStatusSyncing, nil))
	state, err = GetSyncState(ctx, database, ServiceCRM)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.SyncStatusSyncing, state.Status)
	assert.Nil(t, state.LastSyncTime)

	msg := "2 tasks failed"
	require.NoError(t, UpdateSyncStatus(ctx, database, ServiceCRM, models.SyncStatusError, &msg))
	state, err = GetSyncState(ctx, database, ServiceCRM)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusError, state.Status)
	assert.Equal(t, msg, state.ErrorMessage)

	require.NoError(t, UpdateSyncStatus(ctx, database, ServiceCRM, models.SyncStatusIdle, nil))
	state, err = GetSyncState(ctx, database, ServiceCRM)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusIdle, state.Status)
	assert.Empty(t, state.ErrorMessage)
	assert.NotNil(t, state.LastSyncTime)
}

func TestCountSyncLog(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	owner := seedOwner(t, database, "owner@example.com")
	a := seedContact(t, database, owner, "a")
	b := seedContact(t, database, owner, "b")

	_, err := LinkContactRemotePerson(ctx, database, a.ID, 1, nil, time.Now())
	require.NoError(t, err)
	_, err = LinkContactRemotePerson(ctx, database, b.ID, 2, nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, SetUserRemoteOwnerID(ctx, database, owner.ID, 1))

	counts, err := CountSyncLog(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.EntityContact])
	assert.Equal(t, 1, counts[models.EntityUser], "same remote id in another entity type is a separate row")
}
