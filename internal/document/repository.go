package document

import (
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/models"
	"gorm.io/gorm"
)

type Repository interface {
	Create(db *gorm.DB, d *models.Document) error
	FindByID(db *gorm.DB, id uint) (*models.Document, error)
	ListByDeal(db *gorm.DB, dealID uint) ([]models.Document, error)
	Delete(db *gorm.DB, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Create(db *gorm.DB, d *models.Document) error {
	return db.Create(d).Error
}

func (r *repositoryImpl) FindByID(db *gorm.DB, id uint) (*models.Document, error) {
	var d models.Document
	err := db.First(&d, id).Error
	return &d, err
}

func (r *repositoryImpl) ListByDeal(db *gorm.DB, dealID uint) ([]models.Document, error) {
	var docs []models.Document
	err := db.Where("deal_id = ?", dealID).Order("created_at DESC").Find(&docs).Error
	return docs, err
}

func (r *repositoryImpl) Delete(db *gorm.DB, id uint) error {
	return db.Delete(&models.Document{}, id).Error
}
