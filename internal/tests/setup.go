// Package tests holds end-to-end tests that run the full HTTP stack against a real
// PostgreSQL database. They are skipped unless DATABASE_URL is set.
package tests

import (
	"context"
	"database/sql"
	"fmt"
)

// TruncateIdentities empties the identities table for a clean test state.
func TruncateIdentities(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, "TRUNCATE TABLE identities")
	if err != nil {
		return fmt.Errorf("truncate identities: %w", err)
	}
	return nil
}
