package models

import "time"

// ConfigValue stores one key of a named configuration object. Value holds
// the JSON-encoded payload and is replaced wholesale on every write.
type ConfigValue struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:128;not null;uniqueIndex:idx_config_name_key"`
	ConfigKey string `gorm:"size:128;not null;uniqueIndex:idx_config_name_key"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}
