package models

import "time"

// SessionRecord is the single persisted session row. The client keeps at
// most one: the fixed primary key makes every save an upsert of row 1.
type SessionRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Token     string `gorm:"size:128;not null"`
	Profile   string `gorm:"type:text"` // serialized api.Profile
	UpdatedAt time.Time
}
