// Package database opens the SQLite store holding tier entries, the block
// list, decision audit rows and operator accounts.
package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open connects to the SQLite database at dbPath, creating the file on
// first boot. Schema migration is handled at route registration, not here.
func Open(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dbPath, err)
	}

	return db, nil
}
