// ABOUTME: Promotes warm local contacts to remote CRM persons
// ABOUTME: Resolves organization, label and owner before a single person create and commit
package sync

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/harperreed/leadsync/crm"
	"github.com/harperreed/leadsync/models"
)

// PromotionThreshold is the lowest warmness score that triggers promotion.
const PromotionThreshold = 4

// Promotion outcome reasons.
const (
	ReasonBelowThreshold  = "below threshold"
	ReasonContactNotFound = "contact not found"
	ReasonOwnerNotFound   = "owner not found"
	ReasonStoreError      = "store error"
	ReasonOrganization    = "organization step failed"
	ReasonLabel           = "label step failed"
	ReasonPersonCreate    = "person create failed"
	ReasonAlreadyLinked   = "already linked"
	ReasonNoEmail         = "contact has no email"
	ReasonNoRemoteMatch   = "no remote person with this email"
	ReasonRemoteLookup    = "remote lookup failed"
	ReasonPersonTaken     = "remote person linked to another contact"
)

type PromotionResult struct {
	Promoted      bool   `json:"promoted"`
	AlreadyLinked bool   `json:"already_linked,omitempty"`
	PersonID      int64  `json:"person_id,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

type Promoter struct {
	store         Store
	client        crm.Client
	labels        *LabelResolver
	orgs          *OrganizationResolver
	owners        *OwnerResolver
	warmLeadLabel string
	now           func() time.Time
	logger        *log.Logger
}

// Promote creates the remote person for a contact whose score reached the
// threshold. It never returns an error: every failure is a false result.
func (p *Promoter) Promote(ctx context.Context, contactID uuid.UUID, triggerScore int) PromotionResult {
	if triggerScore < PromotionThreshold {
		return PromotionResult{Reason: ReasonBelowThreshold}
	}

	logger := p.logger.With("contact", contactID)

	contact, err := p.store.GetContact(ctx, contactID)
	if err != nil {
		logger.Error("failed to load contact", "err", err)
		return PromotionResult{Reason: ReasonStoreError}
	}
	if contact == nil {
		return PromotionResult{Reason: ReasonContactNotFound}
	}
	if contact.RemotePersonID != nil {
		return PromotionResult{Promoted: true, AlreadyLinked: true, PersonID: *contact.RemotePersonID, Reason: ReasonAlreadyLinked}
	}

	owner, err := p.store.GetUser(ctx, contact.OwnerID)
	if err != nil {
		logger.Error("failed to load owner", "owner", contact.OwnerID, "err", err)
		return PromotionResult{Reason: ReasonStoreError}
	}
	if owner == nil {
		return PromotionResult{Reason: ReasonOwnerNotFound}
	}

	var org *models.Organization
	if contact.OrganizationID != nil {
		org, err = p.store.GetOrganization(ctx, *contact.OrganizationID)
		if err != nil {
			logger.Error("failed to load organization", "org", *contact.OrganizationID, "err", err)
			return PromotionResult{Reason: ReasonStoreError}
		}
		if org == nil {
			logger.Warn("contact references a missing organization, promoting without it", "org", *contact.OrganizationID)
		}
	}

	var orgID *int64
	if org != nil {
		id, err := p.orgs.Resolve(ctx, org)
		if err != nil {
			logger.Error("organization step failed", "org", org.ID, "err", err)
			return PromotionResult{Reason: ReasonOrganization}
		}
		orgID = &id
	}

	labelID, err := p.labels.ResolveLabelID(ctx, p.warmLeadLabel)
	if err != nil {
		if errors.Is(err, ErrNoLabelField) || errors.Is(err, ErrNoLabelOptions) {
			logger.Error("remote CRM label configuration is missing", "label", p.warmLeadLabel, "err", err)
		} else {
			logger.Warn("label step failed", "label", p.warmLeadLabel, "err", err)
		}
		return PromotionResult{Reason: ReasonLabel}
	}

	fields := crm.PersonFields{
		Name:     contact.Name,
		OrgID:    orgID,
		LabelIDs: []int64{labelID},
	}
	if contact.Email != "" {
		fields.Email = []string{contact.Email}
	}
	if contact.Phone != "" {
		fields.Phone = []string{contact.Phone}
	}
	if org != nil {
		fields.OrgName = org.Name
	}
	if ownerID, ok := p.owners.Resolve(ctx, owner.ID); ok {
		fields.OwnerID = &ownerID
	}

	personID, err := p.client.CreatePerson(ctx, fields)
	if err != nil {
		logger.Warn("person create failed", "err", err)
		return PromotionResult{Reason: ReasonPersonCreate}
	}

	return p.commit(ctx, logger, contactID, personID, orgID)
}

// LinkExisting adopts a remote person that already carries the contact's
// email instead of creating a new one.
func (p *Promoter) LinkExisting(ctx context.Context, contactID uuid.UUID) PromotionResult {
	logger := p.logger.With("contact", contactID)

	contact, err := p.store.GetContact(ctx, contactID)
	if err != nil {
		logger.Error("failed to load contact", "err", err)
		return PromotionResult{Reason: ReasonStoreError}
	}
	if contact == nil {
		return PromotionResult{Reason: ReasonContactNotFound}
	}
	if contact.RemotePersonID != nil {
		return PromotionResult{Promoted: true, AlreadyLinked: true, PersonID: *contact.RemotePersonID, Reason: ReasonAlreadyLinked}
	}

	email := normalizeEmail(contact.Email)
	if email == "" {
		return PromotionResult{Reason: ReasonNoEmail}
	}

	person, err := p.client.FindPersonByEmail(ctx, email)
	if err != nil {
		logger.Warn("remote person lookup failed", "err", err)
		return PromotionResult{Reason: ReasonRemoteLookup}
	}
	if person == nil {
		return PromotionResult{Reason: ReasonNoRemoteMatch}
	}

	return p.commit(ctx, logger, contactID, person.ID, person.OrgID)
}

func (p *Promoter) commit(ctx context.Context, logger *log.Logger, contactID uuid.UUID, personID int64, orgID *int64) PromotionResult {
	linked, err := p.store.LinkContactRemotePerson(ctx, contactID, personID, orgID, p.now())
	if errors.Is(err, ErrRemotePersonTaken) {
		logger.Warn("remote person already belongs to another contact", "person", personID)
		return PromotionResult{PersonID: personID, Reason: ReasonPersonTaken}
	}
	if err != nil {
		logger.Error("remote person created but link was not stored", "person", personID, "err", err)
		return PromotionResult{Reason: ReasonStoreError}
	}
	if !linked {
		// Lost a double-promotion race; the stored link stands.
		logger.Warn("contact was linked concurrently, remote person is a duplicate", "person", personID)
		result := PromotionResult{Promoted: true, AlreadyLinked: true, Reason: ReasonAlreadyLinked}
		if stored, err := p.store.GetContact(ctx, contactID); err == nil && stored != nil && stored.RemotePersonID != nil {
			result.PersonID = *stored.RemotePersonID
		}
		return result
	}

	logger.Info("contact promoted", "person", personID)
	return PromotionResult{Promoted: true, PersonID: personID}
}
