package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDialect implements Dialect for SQLite
type SQLiteDialect struct{}

// NewSQLiteDialect creates a new SQLite dialect
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) DriverName() string {
	return "sqlite3"
}

func (d *SQLiteDialect) DSN(config DialectConfig) string {
	// Foreign keys are per-connection in SQLite, so enable them in the DSN
	// to cover every connection in the pool.
	return "file:" + config.Path + "?_foreign_keys=on&_busy_timeout=5000"
}

func (d *SQLiteDialect) RewriteQuery(query string) string {
	return query
}

func (d *SQLiteDialect) SupportsLastInsertId() bool {
	return true
}

func (d *SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return err
	}

	return nil
}

func (d *SQLiteDialect) MigrationsSubdir() string {
	return "sqlite"
}

func (d *SQLiteDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT UNIQUE NOT NULL,
			executed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
}

func (d *SQLiteDialect) UpsertRewardPolicyQuery() string {
	return `
		INSERT INTO reward_policies (child_id, reward_type, amount_per_book, payout_threshold)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (child_id) DO UPDATE SET
			reward_type = excluded.reward_type,
			amount_per_book = excluded.amount_per_book,
			payout_threshold = excluded.payout_threshold,
			updated_at = CURRENT_TIMESTAMP
	`
}

func (d *SQLiteDialect) InsertAchievementQuery() string {
	return `
		INSERT OR IGNORE INTO achievements (child_id, achievement_type, title, description, earned_at)
		VALUES (?, ?, ?, ?, ?)
	`
}
