package deal

import (
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/models"
	"gorm.io/gorm"
)

type Repository interface {
	Save(db *gorm.DB, d *models.Deal) error
	FindByID(db *gorm.DB, id uint) (*models.Deal, error)
	FindByIDFull(db *gorm.DB, id uint) (*models.Deal, error)
	ListByAgent(db *gorm.DB, agentID uint) ([]models.Deal, error)
	Update(db *gorm.DB, d *models.Deal) error
	UpdateStatus(db *gorm.DB, id uint, status string) error
	Delete(db *gorm.DB, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Save(db *gorm.DB, d *models.Deal) error {
	return db.Create(d).Error
}

func (r *repositoryImpl) FindByID(db *gorm.DB, id uint) (*models.Deal, error) {
	var d models.Deal
	err := db.First(&d, id).Error
	return &d, err
}

// FindByIDFull preloads the three sub-resources for the detail view.
func (r *repositoryImpl) FindByIDFull(db *gorm.DB, id uint) (*models.Deal, error) {
	var d models.Deal
	err := db.
		Preload("Documents").
		Preload("Activities").
		Preload("Messages").
		First(&d, id).Error
	return &d, err
}

// ListByAgent returns deals where the agent is the owner or the co-agent.
func (r *repositoryImpl) ListByAgent(db *gorm.DB, agentID uint) ([]models.Deal, error) {
	var list []models.Deal
	err := db.
		Where("agent_id = ? OR co_agent_id = ?", agentID, agentID).
		Order("updated_at DESC").
		Find(&list).Error
	return list, err
}

func (r *repositoryImpl) Update(db *gorm.DB, d *models.Deal) error {
	return db.Save(d).Error
}

func (r *repositoryImpl) UpdateStatus(db *gorm.DB, id uint, status string) error {
	return db.Model(&models.Deal{}).Where("id = ?", id).Update("status", status).Error
}

func (r *repositoryImpl) Delete(db *gorm.DB, id uint) error {
	return db.Delete(&models.Deal{}, id).Error
}
