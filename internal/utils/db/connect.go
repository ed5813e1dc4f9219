package db

import (
	"fmt"
	"os"

	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/config"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the Postgres database from config. Credentials come
// from the environment like every other knob.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
	if sslDisabled() {
		dsn += " sslmode=disable"
	}
	database, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}
	return database, nil
}

func sslDisabled() bool {
	return os.Getenv("DB_SSL_MODE_DISABLE") == "true"
}

// Migrate runs AutoMigrate for every engine entity.
func Migrate(database *gorm.DB) error {
	return database.AutoMigrate(
		&models.Deal{},
		&models.Document{},
		&models.ActivityEntry{},
		&models.ChatMessage{},
	)
}
