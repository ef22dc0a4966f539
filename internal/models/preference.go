package models

// Preference is a per-user client setting, stored as a key/value flag.
// Known keys: "notifications_enabled", "dark_mode_enabled".
type Preference struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value bool   `gorm:"not null;default:false"`
}
