// ABOUTME: Tests for activity replication
// ABOUTME: Checks preconditions, bounded retries, attempt bookkeeping and payload shape
package sync

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/leadsync/crm"
	"github.com/harperreed/leadsync/models"
)

type replicateFixture struct {
	store    *fakeStore
	client   *fakeCRM
	engine   *Engine
	owner    *models.User
	contact  *models.Contact
	activity *models.Activity
}

func newReplicateFixture(t *testing.T) *replicateFixture {
	t.Helper()
	store := newFakeStore()
	client := newFakeCRM()
	owner := store.addUser("Sam", "sam@example.com")
	org := store.addOrganization("Acme")
	orgRemote := int64(300)
	org.RemoteOrgID = &orgRemote
	person := int64(77)
	contact := store.addContact(models.Contact{
		Name:           "Ada",
		Email:          "ada@example.com",
		OwnerID:        owner.ID,
		OrganizationID: &org.ID,
		RemotePersonID: &person,
	})
	campaign := store.addCampaign("Spring Launch", "SL")
	activity := store.addActivity(models.Activity{
		ContactID:  contact.ID,
		OwnerID:    owner.ID,
		CampaignID: &campaign.ID,
		Type:       models.ActivityCall,
		Subject:    "Intro call",
		Notes:      "went well",
		OccurredAt: fixedNow.Add(-24 * time.Hour),
	})
	return &replicateFixture{
		store:    store,
		client:   client,
		engine:   newTestEngine(store, client, nil),
		owner:    owner,
		contact:  contact,
		activity: activity,
	}
}

func (f *replicateFixture) replicate() ReplicationResult {
	return f.engine.Replicator.Replicate(context.Background(), f.activity.ID, f.contact.ID, f.owner.ID)
}

func TestReplicateFirstAttemptSucceeds(t *testing.T) {
	f := newReplicateFixture(t)

	result := f.replicate()
	require.True(t, result.Replicated)
	assert.Equal(t, 1, result.Attempts)

	stored := f.store.activity(f.activity.ID)
	assert.Equal(t, 1, stored.SyncAttempts)
	assert.True(t, stored.Replicated)
	require.NotNil(t, stored.RemoteActivityID)
	assert.Equal(t, result.RemoteActivityID, *stored.RemoteActivityID)
	require.NotNil(t, stored.LastSyncAttemptAt)
	assert.True(t, fixedNow.Equal(*stored.LastSyncAttemptAt))

	sent := f.client.lastActivity
	assert.Equal(t, "Intro call", sent.Subject)
	assert.Equal(t, models.ActivityCall, sent.Type)
	assert.Equal(t, "2024-05-31", sent.DueDate)
	assert.True(t, sent.Done)
	assert.Equal(t, int64(77), sent.Contact.PersonID)
	require.NotNil(t, sent.Contact.OrgID)
	assert.Equal(t, int64(300), *sent.Contact.OrgID)
	assert.Equal(t, crm.ActivityUser{Name: "Sam", Email: "sam@example.com"}, sent.User)
	require.NotNil(t, sent.Campaign)
	assert.Equal(t, "SL", sent.Campaign.Shortcode)
	assert.Equal(t, "went well", sent.Note)
}

func TestReplicateRetriesOnce(t *testing.T) {
	f := newReplicateFixture(t)
	f.client.activityErrs = []error{errBoom}

	result := f.replicate()
	require.True(t, result.Replicated)
	assert.Equal(t, 2, result.Attempts)

	stored := f.store.activity(f.activity.ID)
	assert.Equal(t, 2, stored.SyncAttempts)
	assert.True(t, stored.Replicated)
}

func TestReplicateGivesUpAfterTwoAttempts(t *testing.T) {
	f := newReplicateFixture(t)
	f.client.activityErrs = []error{errBoom, &crm.APIError{StatusCode: 429}, nil}

	result := f.replicate()
	assert.False(t, result.Replicated)
	assert.Equal(t, MaxReplicationAttempts, result.Attempts)
	assert.Equal(t, ReasonActivityCreate, result.Reason)

	_, _, _, activityCalls, _ := f.client.calls()
	assert.Equal(t, 2, activityCalls)

	stored := f.store.activity(f.activity.ID)
	assert.Equal(t, 2, stored.SyncAttempts)
	assert.False(t, stored.Replicated)
	assert.Nil(t, stored.RemoteActivityID)
}

func TestReplicateUnlinkedContactMakesNoRemoteCalls(t *testing.T) {
	f := newReplicateFixture(t)
	f.store.mu.Lock()
	f.store.contacts[f.contact.ID].RemotePersonID = nil
	f.store.mu.Unlock()

	result := f.replicate()
	assert.False(t, result.Replicated)
	assert.Equal(t, ReasonContactUnlinked, result.Reason)

	_, _, _, activityCalls, _ := f.client.calls()
	assert.Equal(t, 0, activityCalls)
	assert.Equal(t, 0, f.store.activity(f.activity.ID).SyncAttempts)
}

func TestReplicateAlreadyReplicated(t *testing.T) {
	f := newReplicateFixture(t)
	require.True(t, f.replicate().Replicated)

	again := f.replicate()
	assert.True(t, again.Replicated)
	assert.Equal(t, 0, again.Attempts)

	_, _, _, activityCalls, _ := f.client.calls()
	assert.Equal(t, 1, activityCalls)
}

func TestReplicatePreconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("activity missing", func(t *testing.T) {
		f := newReplicateFixture(t)
		result := f.engine.Replicator.Replicate(ctx, uuid.New(), f.contact.ID, f.owner.ID)
		assert.False(t, result.Replicated)
		assert.Equal(t, ReasonActivityNotFound, result.Reason)
	})

	t.Run("owner missing", func(t *testing.T) {
		f := newReplicateFixture(t)
		result := f.engine.Replicator.Replicate(ctx, f.activity.ID, f.contact.ID, uuid.New())
		assert.False(t, result.Replicated)
		assert.Equal(t, ReasonOwnerNotFound, result.Reason)
	})

	t.Run("wrong contact", func(t *testing.T) {
		f := newReplicateFixture(t)
		result := f.engine.Replicator.Replicate(ctx, f.activity.ID, uuid.New(), f.owner.ID)
		assert.False(t, result.Replicated)
		assert.Equal(t, ReasonMismatch, result.Reason)
	})

	t.Run("contact load error", func(t *testing.T) {
		f := newReplicateFixture(t)
		f.store.getContactErr = errBoom
		assert.False(t, f.replicate().Replicated)
	})
}

func TestReplicateWithoutCampaignOrOrganization(t *testing.T) {
	f := newReplicateFixture(t)
	person := int64(88)
	loner := f.store.addContact(models.Contact{Name: "Lin", OwnerID: f.owner.ID, RemotePersonID: &person})
	future := f.store.addActivity(models.Activity{
		ContactID:  loner.ID,
		OwnerID:    f.owner.ID,
		Type:       models.ActivityMeeting,
		Subject:    "Kickoff",
		OccurredAt: fixedNow.Add(48 * time.Hour),
	})

	result := f.engine.Replicator.Replicate(context.Background(), future.ID, loner.ID, f.owner.ID)
	require.True(t, result.Replicated)

	sent := f.client.lastActivity
	assert.Nil(t, sent.Campaign)
	assert.Nil(t, sent.Contact.OrgID)
	assert.False(t, sent.Done, "future activities are scheduled, not done")
}

func TestReplicateIgnoresContactOrgWhenOrganizationUnlinked(t *testing.T) {
	f := newReplicateFixture(t)
	org := f.store.addOrganization("Unpromoted Co")
	person := int64(77)
	stale := int64(999)
	contact := f.store.addContact(models.Contact{
		Name:           "Bo",
		OwnerID:        f.owner.ID,
		OrganizationID: &org.ID,
		RemotePersonID: &person,
		RemoteOrgID:    &stale,
	})
	activity := f.store.addActivity(models.Activity{
		ContactID:  contact.ID,
		OwnerID:    f.owner.ID,
		Type:       models.ActivityCall,
		Subject:    "Follow up",
		OccurredAt: fixedNow.Add(-time.Hour),
	})

	result := f.engine.Replicator.Replicate(context.Background(), activity.ID, contact.ID, f.owner.ID)
	require.True(t, result.Replicated)
	assert.Nil(t, f.client.lastActivity.Contact.OrgID)
}
