package database

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// PostgresDialect implements Dialect for PostgreSQL
type PostgresDialect struct{}

// NewPostgresDialect creates a new PostgreSQL dialect
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

func (d *PostgresDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (d *PostgresDialect) RewriteQuery(query string) string {
	// PostgreSQL uses $1, $2, etc. instead of ?
	return rewritePlaceholdersToNumbered(query)
}

func (d *PostgresDialect) SupportsLastInsertId() bool {
	return false
}

func (d *PostgresDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
	return nil
}

func (d *PostgresDialect) MigrationsSubdir() string {
	return "postgres"
}

func (d *PostgresDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGSERIAL PRIMARY KEY,
			filename TEXT UNIQUE NOT NULL,
			executed_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
	`
}

func (d *PostgresDialect) UpsertRewardPolicyQuery() string {
	return `
		INSERT INTO reward_policies (child_id, reward_type, amount_per_book, payout_threshold)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (child_id) DO UPDATE SET
			reward_type = EXCLUDED.reward_type,
			amount_per_book = EXCLUDED.amount_per_book,
			payout_threshold = EXCLUDED.payout_threshold,
			updated_at = CURRENT_TIMESTAMP
	`
}

func (d *PostgresDialect) InsertAchievementQuery() string {
	return `
		INSERT INTO achievements (child_id, achievement_type, title, description, earned_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (child_id, achievement_type) DO NOTHING
	`
}
