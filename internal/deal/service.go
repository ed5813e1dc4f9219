package deal

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/activity"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/apperrors"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/catalog"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/locks"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/models"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/notification"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/realtime"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/storage"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service owns the deal lifecycle. Transition is the single write path
// for status; nothing else may touch that column.
type Service struct {
	DB         *gorm.DB
	Repository Repository
	Activity   *activity.Service
	Hub        *realtime.Hub
	Notifier   notification.Dispatcher
	Catalog    catalog.Catalog
	Blobs      storage.BlobStore
	Locks      *locks.Keyed
}

func NewService(db *gorm.DB, act *activity.Service, hub *realtime.Hub, notifier notification.Dispatcher, cat catalog.Catalog, blobs storage.BlobStore, lk *locks.Keyed) *Service {
	return &Service{
		DB:         db,
		Repository: NewRepository(),
		Activity:   act,
		Hub:        hub,
		Notifier:   notifier,
		Catalog:    cat,
		Blobs:      blobs,
		Locks:      lk,
	}
}

// CreateParams is the validated input for a new deal.
type CreateParams struct {
	LeadID          *uint
	PropertyID      *uint
	ProjectID       *uint
	CoAgentID       *uint
	DealValue       *float64
	CommissionSplit string
	Notes           string
}

// Create builds a Draft deal. The deal type is derived, never supplied:
// an explicit co-agent means Collaboration; a marketplace property
// listed by another agent makes that agent the co-agent; a project
// reference without a partner is OffPlanProject; everything else is
// OwnProperty. The derivation keeps the invariant that CoAgentID is set
// exactly when the type is Collaboration.
func (s *Service) Create(ctx context.Context, ownerID uint, p CreateParams) (*models.Deal, error) {
	if (p.PropertyID == nil) == (p.ProjectID == nil) {
		return nil, apperrors.Validation("a deal references exactly one of a property or a project")
	}
	if p.CoAgentID != nil && *p.CoAgentID == ownerID {
		return nil, apperrors.Validation("co-agent must differ from the owning agent")
	}

	d := &models.Deal{
		AgentID:         ownerID,
		CoAgentID:       p.CoAgentID,
		LeadID:          p.LeadID,
		PropertyID:      p.PropertyID,
		ProjectID:       p.ProjectID,
		Status:          models.StatusDraft,
		DealValue:       p.DealValue,
		CommissionSplit: p.CommissionSplit,
		Notes:           p.Notes,
	}

	if p.ProjectID != nil {
		info, err := s.Catalog.Project(ctx, *p.ProjectID)
		if err != nil {
			return nil, apperrors.Validation("unknown project %d: %v", *p.ProjectID, err)
		}
		d.Provenance = datatypes.JSONMap{
			"source":      "project",
			"title":       info.Title,
			"location":    info.Location,
			"developerId": info.DeveloperID,
		}
		d.DealType = models.DealTypeOffPlan
	} else {
		info, err := s.Catalog.Property(ctx, *p.PropertyID)
		if err != nil {
			return nil, apperrors.Validation("unknown property %d: %v", *p.PropertyID, err)
		}
		source := "own"
		if info.Marketplace {
			source = "marketplace"
		}
		d.Provenance = datatypes.JSONMap{
			"source":         source,
			"title":          info.Title,
			"location":       info.Location,
			"listingAgentId": info.ListingAgentID,
		}
		d.DealType = models.DealTypeOwnProperty
		// Working a marketplace listing of another agent makes that
		// agent the partner on the deal.
		if info.Marketplace && info.ListingAgentID != 0 && info.ListingAgentID != ownerID && p.CoAgentID == nil {
			coAgent := info.ListingAgentID
			d.CoAgentID = &coAgent
		}
	}
	if d.CoAgentID != nil {
		d.DealType = models.DealTypeCollaboration
	}

	if err := s.Repository.Save(s.DB, d); err != nil {
		return nil, apperrors.Storage(err)
	}
	if _, err := s.Activity.Append(d.ID, ownerID, models.ActivityNote, "deal created"); err != nil {
		log.Printf("deal %d: audit entry for create failed: %v", d.ID, err)
	}
	return d, nil
}

// Get returns the deal with its sub-resources, participant-only.
func (s *Service) Get(dealID, actorID uint) (*models.Deal, error) {
	d, err := s.Repository.FindByIDFull(s.DB, dealID)
	if err != nil {
		return nil, wrapFind(err)
	}
	if !d.IsParticipant(actorID) {
		return nil, apperrors.Permission("agent %d is not a participant of deal %d", actorID, dealID)
	}
	return d, nil
}

// List returns every deal the agent participates in.
func (s *Service) List(agentID uint) ([]models.Deal, error) {
	list, err := s.Repository.ListByAgent(s.DB, agentID)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return list, nil
}

// IsParticipant implements the realtime subscription check.
func (s *Service) IsParticipant(dealID, agentID uint) (bool, error) {
	d, err := s.Repository.FindByID(s.DB, dealID)
	if err != nil {
		return false, wrapFind(err)
	}
	return d.IsParticipant(agentID), nil
}

// UpdateParams is a partial patch; nil fields stay untouched.
type UpdateParams struct {
	LeadID          *uint
	DealValue       *float64
	CommissionSplit *string
	Notes           *string
}

// Update applies the patch. Financial terms and the lead are owner-only;
// the co-agent may only touch the shared working notes. Status never
// moves through here.
func (s *Service) Update(dealID, actorID uint, p UpdateParams) (*models.Deal, error) {
	s.Locks.Lock(dealID)
	defer s.Locks.Unlock(dealID)

	d, err := s.Repository.FindByID(s.DB, dealID)
	if err != nil {
		return nil, wrapFind(err)
	}
	if !d.IsParticipant(actorID) {
		return nil, apperrors.Permission("agent %d is not a participant of deal %d", actorID, dealID)
	}
	if actorID != d.AgentID {
		if p.DealValue != nil || p.CommissionSplit != nil || p.LeadID != nil {
			return nil, apperrors.Permission("co-agent may not edit financial terms or the lead")
		}
	}

	if p.LeadID != nil {
		d.LeadID = p.LeadID
	}
	if p.DealValue != nil {
		d.DealValue = p.DealValue
	}
	if p.CommissionSplit != nil {
		d.CommissionSplit = *p.CommissionSplit
	}
	if p.Notes != nil {
		d.Notes = *p.Notes
	}

	if err := s.Repository.Update(s.DB, d); err != nil {
		return nil, apperrors.Storage(err)
	}
	if _, err := s.Activity.Append(d.ID, actorID, models.ActivityNote, "deal details updated"); err != nil {
		log.Printf("deal %d: audit entry for update failed: %v", d.ID, err)
	}
	return d, nil
}

// Transition moves the deal to newStatus if the edge is legal. On
// success it appends exactly one status_change entry, fans the entry
// out, and signals the other participant.
func (s *Service) Transition(ctx context.Context, dealID, actorID uint, newStatus string) (*models.Deal, error) {
	if !ValidStatus(newStatus) {
		return nil, apperrors.Validation("unknown status %q", newStatus)
	}

	s.Locks.Lock(dealID)
	defer s.Locks.Unlock(dealID)

	d, err := s.Repository.FindByID(s.DB, dealID)
	if err != nil {
		return nil, wrapFind(err)
	}
	if !d.IsParticipant(actorID) {
		return nil, apperrors.Permission("agent %d is not a participant of deal %d", actorID, dealID)
	}
	if !CanTransition(d.Status, newStatus) {
		return nil, &apperrors.InvalidTransitionError{From: d.Status, To: newStatus}
	}

	if err := s.Repository.UpdateStatus(s.DB, dealID, newStatus); err != nil {
		return nil, apperrors.Storage(err)
	}
	prev := d.Status
	d.Status = newStatus

	desc := fmt.Sprintf("status changed from %s to %s (%s)", prev, newStatus, StageLabel(newStatus))
	if _, err := s.Activity.Append(dealID, actorID, models.ActivityStatusChange, desc); err != nil {
		log.Printf("deal %d: audit entry for transition failed: %v", dealID, err)
	}

	s.Notifier.Dispatch(ctx, notification.Notification{
		Kind:        notification.KindStatusChange,
		DealID:      dealID,
		ActorID:     actorID,
		RecipientID: d.OtherParticipant(actorID),
		Title:       "Deal status updated",
		Body:        desc,
	})
	return d, nil
}

// Delete removes the deal and cascades to its documents, activities and
// chat history in one transaction. Owner-only. Blobs are removed
// best-effort after commit; open subscriptions are closed.
func (s *Service) Delete(dealID, actorID uint) error {
	s.Locks.Lock(dealID)
	defer s.Locks.Unlock(dealID)

	d, err := s.Repository.FindByID(s.DB, dealID)
	if err != nil {
		return wrapFind(err)
	}
	if actorID != d.AgentID {
		return apperrors.Permission("only the owning agent may delete a deal")
	}

	var docs []models.Document
	if err := s.DB.Where("deal_id = ?", dealID).Find(&docs).Error; err != nil {
		return apperrors.Storage(err)
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("deal_id = ?", dealID).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("deal_id = ?", dealID).Delete(&models.ActivityEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("deal_id = ?", dealID).Delete(&models.Document{}).Error; err != nil {
			return err
		}
		return s.Repository.Delete(tx, dealID)
	})
	if err != nil {
		return apperrors.Storage(err)
	}

	for _, doc := range docs {
		if err := s.Blobs.Delete(doc.StoragePath); err != nil {
			log.Printf("deal %d: blob %s not removed: %v", dealID, doc.StoragePath, err)
		}
	}
	s.Hub.CloseDeal(dealID)
	return nil
}

func wrapFind(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	return apperrors.Storage(err)
}
