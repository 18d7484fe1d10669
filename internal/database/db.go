package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/iliyamo/restaurant-sim/internal/config"
)

// Open connects to MySQL and verifies the connection.
func Open(cfg config.DBConfig) (*sql.DB, error) {
	auth := cfg.User
	if cfg.Pass != "" {
		auth = fmt.Sprintf("%s:%s", cfg.User, cfg.Pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, cfg.Host, cfg.Port, cfg.Name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Runs are written once at start and once at the end; a small pool is enough.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `CREATE TABLE IF NOT EXISTS runs (
	id                    CHAR(36)     NOT NULL PRIMARY KEY,
	n_groups              INT          NOT NULL,
	n_tables              INT          NOT NULL,
	receptionist_requests INT          NOT NULL DEFAULT 0,
	waiter_requests       INT          NOT NULL DEFAULT 0,
	orders_cooked         INT          NOT NULL DEFAULT 0,
	outcome               VARCHAR(16)  NOT NULL,
	error_text            VARCHAR(1024) NOT NULL DEFAULT '',
	started_at            DATETIME(6)  NOT NULL,
	finished_at           DATETIME(6)  NULL,
	KEY idx_runs_started_at (started_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// EnsureSchema creates the run history table when it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	return nil
}
