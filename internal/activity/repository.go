package activity

import (
	"time"

	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/models"
	"gorm.io/gorm"
)

type Repository interface {
	Append(db *gorm.DB, e *models.ActivityEntry) error
	ListByDeal(db *gorm.DB, dealID uint, before *time.Time, limit int) ([]models.ActivityEntry, error)
	CountByDeal(db *gorm.DB, dealID uint) (int64, error)
	DeleteByDeal(db *gorm.DB, dealID uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Append(db *gorm.DB, e *models.ActivityEntry) error {
	return db.Create(e).Error
}

// ListByDeal returns entries newest-first. before is an optional cursor
// for deals with long histories.
func (r *repositoryImpl) ListByDeal(db *gorm.DB, dealID uint, before *time.Time, limit int) ([]models.ActivityEntry, error) {
	var entries []models.ActivityEntry
	q := db.Where("deal_id = ?", dealID)
	if before != nil {
		q = q.Where("created_at < ?", *before)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Order("created_at DESC, id DESC").Find(&entries).Error
	return entries, err
}

func (r *repositoryImpl) CountByDeal(db *gorm.DB, dealID uint) (int64, error) {
	var n int64
	err := db.Model(&models.ActivityEntry{}).Where("deal_id = ?", dealID).Count(&n).Error
	return n, err
}

// DeleteByDeal is only reachable from the deal-delete cascade. The log
// is immutable for as long as its deal exists.
func (r *repositoryImpl) DeleteByDeal(db *gorm.DB, dealID uint) error {
	return db.Unscoped().Where("deal_id = ?", dealID).Delete(&models.ActivityEntry{}).Error
}
