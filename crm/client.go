// ABOUTME: Remote CRM client contract and typed payloads
// ABOUTME: Persons, organizations, person fields, users and activities as explicit DTOs
package crm

import (
	"context"
)

// Client is the capability the sync engine needs from the remote CRM.
// Every method is fallible and subject to the remote rate limit.
type Client interface {
	// FindPersonByEmail returns nil, nil when no person matches.
	FindPersonByEmail(ctx context.Context, email string) (*Person, error)
	// FindUserByEmail returns nil, nil when no user matches.
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	CreatePerson(ctx context.Context, fields PersonFields) (int64, error)
	CreateOrganization(ctx context.Context, fields OrganizationFields) (int64, error)
	GetPersonFields(ctx context.Context) ([]Field, error)
	CreateActivity(ctx context.Context, payload ActivityPayload) (int64, error)
}

type Person struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	OrgID *int64 `json:"org_id,omitempty"`
}

type User struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active bool   `json:"active_flag"`
}

// PersonFields is the create-person request. Optional ids are nil when absent.
type PersonFields struct {
	Name     string   `json:"name"`
	Email    []string `json:"email,omitempty"`
	Phone    []string `json:"phone,omitempty"`
	OrgID    *int64   `json:"org_id,omitempty"`
	OrgName  string   `json:"org_name,omitempty"`
	LabelIDs []int64  `json:"label_ids,omitempty"`
	OwnerID  *int64   `json:"owner_id,omitempty"`
}

type OrganizationFields struct {
	Name     string `json:"name"`
	Industry string `json:"industry,omitempty"`
	Country  string `json:"country,omitempty"`
}

// Field is a person custom-field definition.
type Field struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Key       string        `json:"key"`
	FieldType string        `json:"field_type"`
	Options   []FieldOption `json:"options,omitempty"`
}

type FieldOption struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Value string `json:"value,omitempty"`
}

// Field types that carry a list of options.
const (
	FieldTypeEnum = "enum"
	FieldTypeSet  = "set"
)

// HasOptions reports whether the field is an enumerated/options field.
func (f Field) HasOptions() bool {
	return f.FieldType == FieldTypeEnum || f.FieldType == FieldTypeSet
}

// ActivityPayload mirrors a local activity. Contact, User and Campaign are
// display blocks; only Contact.PersonID and Contact.OrgID are remote ids.
type ActivityPayload struct {
	Subject  string
	Type     string
	DueDate  string // YYYY-MM-DD
	Done     bool
	Note     string
	Contact  ActivityContact
	User     ActivityUser
	Campaign *ActivityCampaign
}

type ActivityContact struct {
	PersonID int64
	Name     string
	Email    string
	OrgID    *int64
}

type ActivityUser struct {
	Name  string
	Email string
}

type ActivityCampaign struct {
	Name      string
	Shortcode string
}
