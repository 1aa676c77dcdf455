package database

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL.
// The DSN must carry parseTime=true and multiStatements=true.
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

func (d *MySQLDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	return query
}

func (d *MySQLDialect) SupportsLastInsertId() bool {
	return true
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	if _, err := db.Exec("SET FOREIGN_KEY_CHECKS = 1;"); err != nil {
		return err
	}

	return nil
}

func (d *MySQLDialect) MigrationsSubdir() string {
	return "mysql"
}

func (d *MySQLDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
		);
	`
}

func (d *MySQLDialect) UpsertRewardPolicyQuery() string {
	return "INSERT INTO reward_policies (child_id, reward_type, amount_per_book, payout_threshold) " +
		"VALUES (?, ?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE reward_type = VALUES(reward_type), " +
		"amount_per_book = VALUES(amount_per_book), " +
		"payout_threshold = VALUES(payout_threshold), updated_at = CURRENT_TIMESTAMP"
}

func (d *MySQLDialect) InsertAchievementQuery() string {
	return `
		INSERT IGNORE INTO achievements (child_id, achievement_type, title, description, earned_at)
		VALUES (?, ?, ?, ?, ?)
	`
}
