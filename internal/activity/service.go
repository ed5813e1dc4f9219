package activity

import (
	"time"

	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/apperrors"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/models"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/realtime"
	"gorm.io/gorm"
)

// Kinds an agent may log by hand. The engine writes the others itself.
var manualKinds = map[string]bool{
	models.ActivityNote:     true,
	models.ActivityCall:     true,
	models.ActivityWhatsApp: true,
	models.ActivityEmail:    true,
}

type Service struct {
	DB         *gorm.DB
	Repository Repository
	Hub        realtime.Publisher
}

func NewService(db *gorm.DB, hub realtime.Publisher) *Service {
	return &Service{DB: db, Repository: NewRepository(), Hub: hub}
}

// Append inserts one entry and fans it out. It is the single write path
// for the audit log; callers that are already inside a transaction pass
// it as tx and publish themselves after commit.
func (s *Service) Append(dealID, actorID uint, kind, description string) (*models.ActivityEntry, error) {
	e := &models.ActivityEntry{
		DealID:      dealID,
		ActorID:     actorID,
		Kind:        kind,
		Description: description,
	}
	if err := s.Repository.Append(s.DB, e); err != nil {
		return nil, apperrors.Storage(err)
	}
	s.Hub.Publish(dealID, realtime.NewActivity(e))
	return e, nil
}

// AppendTx inserts one entry inside the caller's transaction without
// publishing; the caller publishes after its commit succeeds.
func (s *Service) AppendTx(tx *gorm.DB, dealID, actorID uint, kind, description string) (*models.ActivityEntry, error) {
	e := &models.ActivityEntry{
		DealID:      dealID,
		ActorID:     actorID,
		Kind:        kind,
		Description: description,
	}
	if err := s.Repository.Append(tx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// LogManual records an offline touchpoint (note, call, whatsapp, email)
// by a deal participant.
func (s *Service) LogManual(dealID, actorID uint, kind, description string) (*models.ActivityEntry, error) {
	if !manualKinds[kind] {
		return nil, apperrors.Validation("activity kind %q cannot be logged manually", kind)
	}
	if description == "" {
		return nil, apperrors.Validation("description is required")
	}
	deal, err := loadDeal(s.DB, dealID)
	if err != nil {
		return nil, err
	}
	if !deal.IsParticipant(actorID) {
		return nil, apperrors.Permission("agent %d is not a participant of deal %d", actorID, dealID)
	}
	return s.Append(dealID, actorID, kind, description)
}

// List returns the timeline newest-first, participant-only.
func (s *Service) List(dealID, actorID uint, before *time.Time, limit int) ([]models.ActivityEntry, error) {
	deal, err := loadDeal(s.DB, dealID)
	if err != nil {
		return nil, err
	}
	if !deal.IsParticipant(actorID) {
		return nil, apperrors.Permission("agent %d is not a participant of deal %d", actorID, dealID)
	}
	entries, err := s.Repository.ListByDeal(s.DB, dealID, before, limit)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return entries, nil
}

func loadDeal(db *gorm.DB, dealID uint) (*models.Deal, error) {
	var deal models.Deal
	if err := db.First(&deal, dealID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Storage(err)
	}
	return &deal, nil
}
