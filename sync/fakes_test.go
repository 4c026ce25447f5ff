// ABOUTME: In-memory Store and crm.Client doubles for sync engine tests
// ABOUTME: Count calls and allow injected failures per operation
package sync

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/harperreed/leadsync/crm"
	"github.com/harperreed/leadsync/models"
)

var errBoom = errors.New("boom")

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

type fakeStore struct {
	mu            sync.Mutex
	contacts      map[uuid.UUID]*models.Contact
	organizations map[uuid.UUID]*models.Organization
	users         map[uuid.UUID]*models.User
	activities    map[uuid.UUID]*models.Activity
	campaigns     map[uuid.UUID]*models.Campaign
	statuses      []string
	lastError     string

	getContactErr    error
	getOrgErr        error
	getUserErr       error
	linkErr          error
	setOwnerErr      error
	listPendingErr   error
	reads            int
	linkCalls        int
	attemptRecords   int
	beforeLinkHook   func(contactID uuid.UUID)
	beforeSetOrgHook func(orgID uuid.UUID)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		contacts:      make(map[uuid.UUID]*models.Contact),
		organizations: make(map[uuid.UUID]*models.Organization),
		users:         make(map[uuid.UUID]*models.User),
		activities:    make(map[uuid.UUID]*models.Activity),
		campaigns:     make(map[uuid.UUID]*models.Campaign),
	}
}

func (s *fakeStore) addUser(name, email string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{ID: uuid.New(), Name: name, Email: email}
	s.users[u.ID] = u
	return u
}

func (s *fakeStore) addOrganization(name string) *models.Organization {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := &models.Organization{ID: uuid.New(), Name: name}
	s.organizations[o.ID] = o
	return o
}

func (s *fakeStore) addContact(c models.Contact) *models.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.contacts[c.ID] = &c
	return &c
}

func (s *fakeStore) addCampaign(name, code string) *models.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &models.Campaign{ID: uuid.New(), Name: name, Shortcode: code}
	s.campaigns[c.ID] = c
	return c
}

func (s *fakeStore) addActivity(a models.Activity) *models.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	s.activities[a.ID] = &a
	return &a
}

func (s *fakeStore) contact(id uuid.UUID) models.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.contacts[id]
}

func (s *fakeStore) activity(id uuid.UUID) models.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.activities[id]
}

func (s *fakeStore) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func (s *fakeStore) GetContact(_ context.Context, id uuid.UUID) (*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.getContactErr != nil {
		return nil, s.getContactErr
	}
	c, ok := s.contacts[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *fakeStore) GetOrganization(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.getOrgErr != nil {
		return nil, s.getOrgErr
	}
	o, ok := s.organizations[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (s *fakeStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.getUserErr != nil {
		return nil, s.getUserErr
	}
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) GetActivity(_ context.Context, id uuid.UUID) (*models.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	a, ok := s.activities[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *fakeStore) GetCampaign(_ context.Context, id uuid.UUID) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	c, ok := s.campaigns[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *fakeStore) SetOrganizationRemoteID(_ context.Context, orgID uuid.UUID, remoteID int64) (bool, error) {
	if s.beforeSetOrgHook != nil {
		s.beforeSetOrgHook(orgID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.organizations[orgID]
	if !ok || o.RemoteOrgID != nil {
		return false, nil
	}
	o.RemoteOrgID = &remoteID
	return true, nil
}

func (s *fakeStore) SetUserRemoteOwnerID(_ context.Context, userID uuid.UUID, remoteID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setOwnerErr != nil {
		return s.setOwnerErr
	}
	u, ok := s.users[userID]
	if !ok {
		return errors.New("user not found")
	}
	u.RemoteOwnerID = &remoteID
	return nil
}

func (s *fakeStore) LinkContactRemotePerson(_ context.Context, contactID uuid.UUID, personID int64, orgID *int64, at time.Time) (bool, error) {
	if s.beforeLinkHook != nil {
		s.beforeLinkHook(contactID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkCalls++
	if s.linkErr != nil {
		return false, s.linkErr
	}
	c, ok := s.contacts[contactID]
	if !ok || c.RemotePersonID != nil {
		return false, nil
	}
	for id, other := range s.contacts {
		if id != contactID && other.RemotePersonID != nil && *other.RemotePersonID == personID {
			return false, ErrRemotePersonTaken
		}
	}
	c.RemotePersonID = &personID
	if orgID != nil {
		c.RemoteOrgID = orgID
	}
	c.RemoteUpdatedAt = &at
	return true, nil
}

func (s *fakeStore) RecordActivitySyncAttempt(_ context.Context, activityID uuid.UUID, at time.Time, remoteID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attemptRecords++
	a, ok := s.activities[activityID]
	if !ok {
		return errors.New("activity not found")
	}
	a.SyncAttempts++
	a.LastSyncAttemptAt = &at
	if remoteID != nil {
		if a.RemoteActivityID == nil {
			a.RemoteActivityID = remoteID
		}
		a.Replicated = true
	}
	return nil
}

func (s *fakeStore) ListUnreplicatedActivities(_ context.Context, maxAttempts, limit int) ([]models.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listPendingErr != nil {
		return nil, s.listPendingErr
	}
	var out []models.Activity
	for _, a := range s.activities {
		c, ok := s.contacts[a.ContactID]
		if a.Replicated || a.SyncAttempts >= maxAttempts || !ok || c.RemotePersonID == nil {
			continue
		}
		out = append(out, *a)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateSyncStatus(_ context.Context, status string, errorMsg *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, status)
	s.lastError = ""
	if errorMsg != nil {
		s.lastError = *errorMsg
	}
	return nil
}

type fakeCRM struct {
	mu sync.Mutex

	fields          []crm.Field
	fieldsErr       error
	persons         map[string]*crm.Person
	findPersonErr   error
	users           map[string]*crm.User
	findUserErr     error
	createOrgErr    error
	createPersonErr error
	activityErrs    []error
	nextID          int64

	fieldCalls    int
	orgCalls      int
	personCalls   int
	activityCalls int
	userCalls     int
	lastPerson    crm.PersonFields
	lastActivity  crm.ActivityPayload
	inFlight      int
	maxInFlight   int
	personDelay   time.Duration
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{
		fields: []crm.Field{
			{ID: 1, Name: "Name", Key: "name", FieldType: "varchar"},
			{ID: 2, Name: "Label", Key: "label", FieldType: crm.FieldTypeEnum, Options: []crm.FieldOption{
				{ID: 10, Label: "Customer"},
				{ID: 11, Label: "Warm Lead"},
			}},
		},
		persons: make(map[string]*crm.Person),
		users:   make(map[string]*crm.User),
		nextID:  1000,
	}
}

func (c *fakeCRM) id() int64 {
	c.nextID++
	return c.nextID
}

func (c *fakeCRM) calls() (fields, orgs, persons, activities, users int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fieldCalls, c.orgCalls, c.personCalls, c.activityCalls, c.userCalls
}

func (c *fakeCRM) FindPersonByEmail(_ context.Context, email string) (*crm.Person, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.findPersonErr != nil {
		return nil, c.findPersonErr
	}
	return c.persons[email], nil
}

func (c *fakeCRM) FindUserByEmail(_ context.Context, email string) (*crm.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userCalls++
	if c.findUserErr != nil {
		return nil, c.findUserErr
	}
	return c.users[email], nil
}

func (c *fakeCRM) CreatePerson(ctx context.Context, fields crm.PersonFields) (int64, error) {
	c.mu.Lock()
	c.personCalls++
	c.lastPerson = fields
	c.inFlight++
	if c.inFlight > c.maxInFlight {
		c.maxInFlight = c.inFlight
	}
	delay := c.personDelay
	c.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight--
	if c.createPersonErr != nil {
		return 0, c.createPersonErr
	}
	return c.id(), nil
}

func (c *fakeCRM) CreateOrganization(_ context.Context, _ crm.OrganizationFields) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orgCalls++
	if c.createOrgErr != nil {
		return 0, c.createOrgErr
	}
	return c.id(), nil
}

func (c *fakeCRM) GetPersonFields(_ context.Context) ([]crm.Field, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fieldCalls++
	if c.fieldsErr != nil {
		return nil, c.fieldsErr
	}
	return c.fields, nil
}

func (c *fakeCRM) CreateActivity(_ context.Context, payload crm.ActivityPayload) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activityCalls++
	c.lastActivity = payload
	if len(c.activityErrs) > 0 {
		err := c.activityErrs[0]
		c.activityErrs = c.activityErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	return c.id(), nil
}

var (
	_ Store      = (*fakeStore)(nil)
	_ crm.Client = (*fakeCRM)(nil)
)
