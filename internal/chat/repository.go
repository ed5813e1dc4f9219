package chat

import (
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/models"
	"gorm.io/gorm"
)

type Repository interface {
	Create(db *gorm.DB, m *models.ChatMessage) error
	ListByDeal(db *gorm.DB, dealID uint) ([]models.ChatMessage, error)
	MarkRead(db *gorm.DB, dealID, readerID uint) error
	CountUnread(db *gorm.DB, dealID, readerID uint) (int64, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Create(db *gorm.DB, m *models.ChatMessage) error {
	return db.Create(m).Error
}

// ListByDeal returns the thread oldest-first; ties on created_at break
// by id so the order is total.
func (r *repositoryImpl) ListByDeal(db *gorm.DB, dealID uint) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := db.
		Where("deal_id = ?", dealID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}

// MarkRead flips every message not sent by the reader. Zero affected
// rows is fine; the call is idempotent.
func (r *repositoryImpl) MarkRead(db *gorm.DB, dealID, readerID uint) error {
	return db.Model(&models.ChatMessage{}).
		Where("deal_id = ? AND sender_id <> ? AND is_read = ?", dealID, readerID, false).
		Update("is_read", true).Error
}

func (r *repositoryImpl) CountUnread(db *gorm.DB, dealID, readerID uint) (int64, error) {
	var n int64
	err := db.Model(&models.ChatMessage{}).
		Where("deal_id = ? AND sender_id <> ? AND is_read = ?", dealID, readerID, false).
		Count(&n).Error
	return n, err
}
