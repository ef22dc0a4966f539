// Package state manages the local sqlite database holding the persisted
// session and user preferences. Nothing else is stored locally: all
// message, schedule, and announcement state is portal-owned.
package state

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/depotlink/depotctl/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AllModels returns the GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.SessionRecord{},
		&models.Preference{},
	}
}

// Open opens (creating if needed) the state database at path and migrates
// its tables. The parent directory is created on first use.
func Open(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("state: db path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("state: create %s: %w", dir, err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("state: open %s: %w", path, err)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenMemory opens an in-memory state database, used by tests.
func OpenMemory() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("state: open in-memory: %w", err)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate creates or updates all state tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("state: auto-migrate: %w", err)
	}
	return nil
}
