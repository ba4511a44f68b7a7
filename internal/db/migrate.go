package db

import (
	"fmt"

	"github.com/zulandar/hookyard/internal/config"
	"github.com/zulandar/hookyard/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.ConfigValue{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// Open connects using cfg and migrates the schema. For MySQL the database
// is created first if it does not exist.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.Driver == "mysql" {
		adminDB, err := ConnectAdmin(cfg)
		if err != nil {
			return nil, err
		}
		if err := CreateDatabase(adminDB, cfg.Name); err != nil {
			return nil, err
		}
		if sqlDB, err := adminDB.DB(); err == nil {
			sqlDB.Close()
		}
	}
	gormDB, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(gormDB); err != nil {
		return nil, err
	}
	return gormDB, nil
}
