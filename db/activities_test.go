// ABOUTME: Tests for activity logging and replication bookkeeping
// ABOUTME: Checks attempt counting, remote id stickiness and pending listings
package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/leadsync/models"
)

func TestLogActivityUpdatesLastContacted(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	owner := seedOwner(t, database, "owner@example.com")
	contact := seedContact(t, database, owner, "ada")

	newer := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	older := newer.AddDate(0, -1, 0)

	first := &models.Activity{ContactID: contact.ID, OwnerID: owner.ID, Type: models.ActivityCall, Subject: "Intro", OccurredAt: newer}
	require.NoError(t, LogActivity(ctx, database, first))

	second := &models.Activity{ContactID: contact.ID, OwnerID: owner.ID, Type: models.ActivityEmail, Subject: "Recap", OccurredAt: older}
	require.NoError(t, LogActivity(ctx, database, second))

	got, err := GetContact(ctx, database, contact.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastContactedAt)
	assert.True(t, newer.Equal(*got.LastContactedAt), "older activity must not move last_contacted_at back")

	stored, err := GetActivity(ctx, database, first.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 0, stored.SyncAttempts)
	assert.False(t, stored.Replicated)
	assert.Nil(t, stored.RemoteActivityID)
}

func TestLogActivityRejectsUnknownType(t *testing.T) {
	database := setupTestDB(t)
	owner := seedOwner(t, database, "owner@example.com")
	contact := seedContact(t, database, owner, "ada")

	err := LogActivity(context.Background(), database, &models.Activity{
		ContactID: contact.ID, OwnerID: owner.ID, Type: "fax", Subject: "x",
	})
	assert.ErrorIs(t, err, ErrInvalidActivityType)
}

func TestRecordActivitySyncAttempt(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	owner := seedOwner(t, database, "owner@example.com")
	contact := seedContact(t, database, owner, "ada")

	activity := &models.Activity{ContactID: contact.ID, OwnerID: owner.ID, Type: models.ActivityMeeting, Subject: "Demo"}
	require.NoError(t, LogActivity(ctx, database, activity))

	at := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, RecordActivitySyncAttempt(ctx, database, activity.ID, at, nil))

	got, err := GetActivity(ctx, database, activity.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.SyncAttempts)
	assert.False(t, got.Replicated)
	require.NotNil(t, got.LastSyncAttemptAt)
	assert.True(t, at.Equal(*got.LastSyncAttemptAt))

	remote := int64(555)
	require.NoError(t, RecordActivitySyncAttempt(ctx, database, activity.ID, at.Add(time.Minute), &remote))

	other := int64(999)
	require.NoError(t, RecordActivitySyncAttempt(ctx, database, activity.ID, at.Add(2*time.Minute), &other))

	got, err = GetActivity(ctx, database, activity.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.SyncAttempts)
	assert.True(t, got.Replicated)
	require.NotNil(t, got.RemoteActivityID)
	assert.Equal(t, int64(555), *got.RemoteActivityID, "remote id is never replaced")

	err = RecordActivitySyncAttempt(ctx, database, uuid.New(), at, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListUnreplicatedActivities(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	owner := seedOwner(t, database, "owner@example.com")
	linked := seedContact(t, database, owner, "linked")
	unlinked := seedContact(t, database, owner, "unlinked")

	_, err := LinkContactRemotePerson(ctx, database, linked.ID, 1, nil, time.Now())
	require.NoError(t, err)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newActivity := func(c *models.Contact, offset int) *models.Activity {
		a := &models.Activity{
			ContactID:  c.ID,
			OwnerID:    owner.ID,
			Type:       models.ActivityCall,
			Subject:    "call",
			OccurredAt: base.AddDate(0, 0, offset),
		}
		require.NoError(t, LogActivity(ctx, database, a))
		return a
	}

	pending := newActivity(linked, 2)
	exhausted := newActivity(linked, 1)
	done := newActivity(linked, 0)
	newActivity(unlinked, 0)

	for i := 0; i < 3; i++ {
		require.NoError(t, RecordActivitySyncAttempt(ctx, database, exhausted.ID, time.Now(), nil))
	}
	remote := int64(5)
	require.NoError(t, RecordActivitySyncAttempt(ctx, database, done.ID, time.Now(), &remote))

	got, err := ListUnreplicatedActivities(ctx, database, 3, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pending.ID, got[0].ID)

	got, err = ListUnreplicatedActivities(ctx, database, 6, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, exhausted.ID, got[0].ID, "oldest first")

	count, err := CountUnreplicatedActivities(ctx, database, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = CountUnreplicatedActivities(ctx, database, 6)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCountUnreplicatedActivitiesIsNotCapped(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	owner := seedOwner(t, database, "owner@example.com")
	contact := seedContact(t, database, owner, "busy")
	_, err := LinkContactRemotePerson(ctx, database, contact.ID, 1, nil, time.Now())
	require.NoError(t, err)

	for i := 0; i < 120; i++ {
		require.NoError(t, LogActivity(ctx, database, &models.Activity{
			ContactID:  contact.ID,
			OwnerID:    owner.ID,
			Type:       models.ActivityEmail,
			Subject:    "note",
			OccurredAt: time.Date(2024, 1, 1, 0, i, 0, 0, time.UTC),
		}))
	}

	listed, err := ListUnreplicatedActivities(ctx, database, 6, 0)
	require.NoError(t, err)
	assert.Len(t, listed, 100)

	count, err := CountUnreplicatedActivities(ctx, database, 6)
	require.NoError(t, err)
	assert.Equal(t, 120, count)
}

func TestListContactActivitiesNewestFirst(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	owner := seedOwner(t, database, "owner@example.com")
	ada := seedContact(t, database, owner, "ada")
	bob := seedContact(t, database, owner, "bob")

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, subject := range []string{"first", "second", "third"} {
		a := &models.Activity{ContactID: ada.ID, OwnerID: owner.ID, Type: models.ActivityCall, Subject: subject, OccurredAt: base.AddDate(0, 0, i)}
		require.NoError(t, LogActivity(ctx, database, a))
	}
	require.NoError(t, LogActivity(ctx, database, &models.Activity{ContactID: bob.ID, OwnerID: owner.ID, Type: models.ActivityCall, Subject: "other"}))

	got, err := ListContactActivities(ctx, database, ada.ID, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "third", got[0].Subject)
	assert.Equal(t, "second", got[1].Subject)

	none, err := ListContactActivities(ctx, database, uuid.New(), 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
