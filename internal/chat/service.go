package chat

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/activity"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/apperrors"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/locks"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/models"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/notification"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/realtime"
	"gorm.io/gorm"
)

const maxBodyLen = 5 * 1024

type Service struct {
	DB         *gorm.DB
	Repository Repository
	Activity   *activity.Service
	Hub        realtime.Publisher
	Notifier   notification.Dispatcher
	Locks      *locks.Keyed
}

func NewService(db *gorm.DB, act *activity.Service, hub realtime.Publisher, notifier notification.Dispatcher, lk *locks.Keyed) *Service {
	return &Service{
		DB:         db,
		Repository: NewRepository(),
		Activity:   act,
		Hub:        hub,
		Notifier:   notifier,
		Locks:      lk,
	}
}

// Send stores one message, appends its audit entry and fans it out to
// the deal's live viewers.
func (s *Service) Send(ctx context.Context, dealID, senderID uint, body string) (*models.ChatMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.EmptyMessageError
	}
	if len(body) > maxBodyLen {
		return nil, apperrors.Validation("message body exceeds %d bytes", maxBodyLen)
	}

	s.Locks.Lock(dealID)
	defer s.Locks.Unlock(dealID)

	deal, err := s.loadDeal(dealID)
	if err != nil {
		return nil, err
	}
	if !deal.IsParticipant(senderID) {
		return nil, apperrors.Permission("agent %d is not a participant of deal %d", senderID, dealID)
	}

	m := &models.ChatMessage{DealID: dealID, SenderID: senderID, Body: body}
	if err := s.Repository.Create(s.DB, m); err != nil {
		return nil, apperrors.Storage(err)
	}

	if _, err := s.Activity.Append(dealID, senderID, models.ActivityMessage, "message sent"); err != nil {
		// the message itself is durable; only the audit entry is lost
		log.Printf("deal %d: audit entry for message failed: %v", dealID, err)
	}
	s.Hub.Publish(dealID, realtime.NewMessage(m))
	s.Notifier.Dispatch(ctx, notification.Notification{
		Kind:        notification.KindNewMessage,
		DealID:      dealID,
		ActorID:     senderID,
		RecipientID: deal.OtherParticipant(senderID),
		Title:       "New message",
		Body:        body,
	})
	return m, nil
}

// List returns the deal's thread, participant-only, oldest-first.
func (s *Service) List(dealID, actorID uint) ([]models.ChatMessage, error) {
	deal, err := s.loadDeal(dealID)
	if err != nil {
		return nil, err
	}
	if !deal.IsParticipant(actorID) {
		return nil, apperrors.Permission("agent %d is not a participant of deal %d", actorID, dealID)
	}
	msgs, err := s.Repository.ListByDeal(s.DB, dealID)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return msgs, nil
}

// MarkRead flips the read flag on everything the reader has not sent.
// Idempotent: repeated calls end in the same state.
func (s *Service) MarkRead(dealID, readerID uint) error {
	deal, err := s.loadDeal(dealID)
	if err != nil {
		return err
	}
	if !deal.IsParticipant(readerID) {
		return apperrors.Permission("agent %d is not a participant of deal %d", readerID, dealID)
	}
	if err := s.Repository.MarkRead(s.DB, dealID, readerID); err != nil {
		return apperrors.Storage(err)
	}
	return nil
}

func (s *Service) loadDeal(dealID uint) (*models.Deal, error) {
	var deal models.Deal
	if err := s.DB.First(&deal, dealID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Storage(err)
	}
	return &deal, nil
}
