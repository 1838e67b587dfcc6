package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

const wordColumns = `
	user_id        TEXT NOT NULL,
	language       TEXT NOT NULL,
	word           TEXT NOT NULL,
	meanings       TEXT NOT NULL DEFAULT '[]',
	meaning_count  INTEGER NOT NULL DEFAULT 0,
	created_at     %[1]s NOT NULL,
	status         TEXT NOT NULL,
	last_tested_at %[1]s NULL,
	test_results   TEXT NOT NULL DEFAULT '[]',
	version        BIGINT NOT NULL DEFAULT 1`

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS words (` + wordColumns + `,
	PRIMARY KEY (user_id, language, word)
)`,
	`CREATE INDEX IF NOT EXISTS idx_words_user_status ON words (user_id, language, status)`,
	`CREATE TABLE IF NOT EXISTS recycled_words (` + wordColumns + `,
	deleted_at     %[1]s NOT NULL,
	retain_until   %[1]s NOT NULL,
	PRIMARY KEY (user_id, language, word)
)`,
	`CREATE INDEX IF NOT EXISTS idx_recycled_words_retain ON recycled_words (retain_until)`,
	`CREATE TABLE IF NOT EXISTS challenges (
	user_id     TEXT NOT NULL,
	id          TEXT NOT NULL,
	description TEXT NOT NULL,
	word        TEXT NOT NULL,
	language    TEXT NOT NULL,
	tries       INTEGER NOT NULL DEFAULT 0,
	created_at  %[1]s NOT NULL,
	expires_at  %[1]s NOT NULL,
	PRIMARY KEY (user_id, id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_challenges_expires ON challenges (expires_at)`,
}

// timestampType returns the column type for instants on the db's dialect.
func timestampType(db *sqlx.DB) string {
	if db.DriverName() == "sqlite3" {
		return "TIMESTAMP"
	}
	return "TIMESTAMPTZ"
}

// Migrate creates the tables and indexes when they are missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	ts := timestampType(db)
	for _, stmt := range schemaStatements {
		ddl := stmt
		if strings.Contains(ddl, "%[1]s") {
			ddl = fmt.Sprintf(stmt, ts)
		}
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
