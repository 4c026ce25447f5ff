// ABOUTME: Tests for lead management data models
// ABOUTME: Validates linkage helpers and activity type checks
package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestContactIsLinked(t *testing.T) {
	contact := &Contact{
		ID:      uuid.New(),
		Name:    "Ada Lovelace",
		OwnerID: uuid.New(),
	}

	if contact.IsLinked() {
		t.Error("expected new contact to be unlinked")
	}

	personID := int64(42)
	contact.RemotePersonID = &personID
	if !contact.IsLinked() {
		t.Error("expected contact with remote person id to be linked")
	}
}

func TestValidActivityType(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{ActivityMeeting, true},
		{ActivityCall, true},
		{ActivityEmail, true},
		{ActivityMessage, true},
		{ActivityEvent, true},
		{"lunch", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidActivityType(tt.input); got != tt.expected {
			t.Errorf("ValidActivityType(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestActivityDefaults(t *testing.T) {
	activity := &Activity{
		ID:         uuid.New(),
		ContactID:  uuid.New(),
		OwnerID:    uuid.New(),
		Type:       ActivityCall,
		Subject:    "Intro call",
		OccurredAt: time.Now(),
	}

	if activity.SyncAttempts != 0 {
		t.Errorf("expected zero sync attempts, got %d", activity.SyncAttempts)
	}
	if activity.Replicated {
		t.Error("expected new activity to be unreplicated")
	}
	if activity.RemoteActivityID != nil {
		t.Error("expected no remote activity id")
	}
}
