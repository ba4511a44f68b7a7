// Package settings persists named configuration objects, the durable
// record behind the repository list.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/hookyard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// ConfigName is the configuration object holding the repository list.
	ConfigName = "github_webhook.settings"
	// KeyRepositories is the key of the repository list within ConfigName.
	KeyRepositories = "repositories"
)

// Store reads and writes JSON values addressed by configuration name and key.
type Store interface {
	// Get decodes the value into v. It reports false when no value is stored.
	Get(ctx context.Context, name, key string, v any) (bool, error)
	// Set replaces the stored value wholesale.
	Set(ctx context.Context, name, key string, v any) error
}

// GormStore implements Store on the config_values table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore returns a Store backed by db. The schema must already be migrated.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Get implements Store.
func (s *GormStore) Get(ctx context.Context, name, key string, v any) (bool, error) {
	var row models.ConfigValue
	err := s.db.WithContext(ctx).
		Where("name = ? AND config_key = ?", name, key).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("settings: get %s.%s: %w", name, key, err)
	}
	if err := json.Unmarshal([]byte(row.Value), v); err != nil {
		return false, fmt.Errorf("settings: decode %s.%s: %w", name, key, err)
	}
	return true, nil
}

// Set implements Store. The write is a single upsert, so concurrent
// writers resolve as last write wins.
func (s *GormStore) Set(ctx context.Context, name, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("settings: encode %s.%s: %w", name, key, err)
	}
	row := models.ConfigValue{
		Name:      name,
		ConfigKey: key,
		Value:     string(data),
		UpdatedAt: time.Now(),
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}, {Name: "config_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row)
	if result.Error != nil {
		return fmt.Errorf("settings: set %s.%s: %w", name, key, result.Error)
	}
	return nil
}

// LoadRepositories returns the persisted repository list. A missing record
// is an empty list.
func LoadRepositories(ctx context.Context, s Store) (models.RepositoryList, error) {
	var list models.RepositoryList
	if _, err := s.Get(ctx, ConfigName, KeyRepositories, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = models.RepositoryList{}
	}
	return list, nil
}

// SaveRepositories replaces the persisted repository list.
func SaveRepositories(ctx context.Context, s Store, list models.RepositoryList) error {
	if list == nil {
		list = models.RepositoryList{}
	}
	return s.Set(ctx, ConfigName, KeyRepositories, list)
}
