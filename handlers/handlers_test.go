// ABOUTME: Shared fixtures for MCP handler tests
// ABOUTME: Temp SQLite database plus an in-memory remote CRM double
package handlers

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	gosync "sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/leadsync/crm"
	"github.com/harperreed/leadsync/db"
	"github.com/harperreed/leadsync/models"
	"github.com/harperreed/leadsync/sync"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

type stubCRM struct {
	mu         gosync.Mutex
	nextID     int64
	persons    []crm.PersonFields
	activities []crm.ActivityPayload
}

func (s *stubCRM) id() int64 {
	s.nextID++
	return 100 + s.nextID
}

func (s *stubCRM) FindPersonByEmail(context.Context, string) (*crm.Person, error) {
	return nil, nil
}

func (s *stubCRM) FindUserByEmail(_ context.Context, email string) (*crm.User, error) {
	return &crm.User{ID: 9, Email: email, Active: true}, nil
}

func (s *stubCRM) CreatePerson(_ context.Context, fields crm.PersonFields) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persons = append(s.persons, fields)
	return s.id(), nil
}

func (s *stubCRM) CreateOrganization(context.Context, crm.OrganizationFields) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id(), nil
}

func (s *stubCRM) GetPersonFields(context.Context) ([]crm.Field, error) {
	return []crm.Field{{
		ID: 1, Name: "Label", Key: "label", FieldType: crm.FieldTypeEnum,
		Options: []crm.FieldOption{{ID: 11, Label: "Warm Lead"}},
	}}, nil
}

func (s *stubCRM) CreateActivity(_ context.Context, payload crm.ActivityPayload) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities = append(s.activities, payload)
	return s.id(), nil
}

func newTestEngine(database *sql.DB, client crm.Client) *sync.Engine {
	now := func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return sync.NewEngine(db.NewStore(database), client, sync.NewMemoryCache(),
		sync.WithLogger(log.New(io.Discard)), sync.WithClock(now))
}

func seedContact(t *testing.T, database *sql.DB, owner *models.User, name string, score int) *models.Contact {
	t.Helper()
	ctx := context.Background()
	contact := &models.Contact{Name: name, Email: name + "@example.com", OwnerID: owner.ID}
	require.NoError(t, db.CreateContact(ctx, database, contact))
	if score != 0 {
		require.NoError(t, db.UpdateContactScore(ctx, database, contact.ID, score))
		contact.WarmnessScore = score
	}
	return contact
}

func seedOwner(t *testing.T, database *sql.DB, email string) *models.User {
	t.Helper()
	owner := &models.User{Name: "Sam", Email: email}
	require.NoError(t, db.CreateUser(context.Background(), database, owner))
	return owner
}
