package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent and valid in both dialects. Append new
// migrations at the end.
var migrations = []string{
	// Migration 1: listing endpoints sort newest first.
	`CREATE INDEX IF NOT EXISTS idx_history_created ON history(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_created ON alerts(created_at)`,

	// Migration 2: expiry scan only looks at dated, active items.
	`CREATE INDEX IF NOT EXISTS idx_items_expiry
	     ON items(expiry_date) WHERE deleted_at IS NULL AND expiry_date IS NOT NULL`,
}

// Migrate runs the database schema migrations.
func Migrate(db *sqlx.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
