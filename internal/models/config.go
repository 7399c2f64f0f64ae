package models

import "time"

// System config keys seeded at startup.
const (
	ConfigKeySystemActive = "SYSTEM_ACTIVE"
	ConfigKeyMaxUploadMB  = "MAX_UPLOAD_MB"
	ConfigKeyAutoBackup   = "AUTO_BACKUP"
)

// SystemConfig is one key/value pair of the admin-editable system settings.
type SystemConfig struct {
	Key         string    `db:"key"`
	Value       string    `db:"value"`
	Description string    `db:"description"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// DefaultSystemConfigs returns the settings seeded on first start.
func DefaultSystemConfigs() []SystemConfig {
	return []SystemConfig{
		{Key: ConfigKeySystemActive, Value: "true", Description: "Accept statement uploads"},
		{Key: ConfigKeyMaxUploadMB, Value: "10", Description: "Maximum upload size in megabytes"},
		{Key: ConfigKeyAutoBackup, Value: "false", Description: "Produce a JSON backup after each import"},
	}
}
