package mysql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Connect opens a pooled MySQL handle and pings it. Zero pool sizes keep the defaults.
func Connect(ctx context.Context, dsn string, maxOpen, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if maxOpen <= 0 {
		maxOpen = 25
	}
	if maxIdle <= 0 {
		maxIdle = 10
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS therapy_history (
  id          VARCHAR(64)  NOT NULL PRIMARY KEY,
  client_id   VARCHAR(128) NOT NULL,
  kind        VARCHAR(16)  NOT NULL,
  input_text  TEXT         NOT NULL,
  photo_url   VARCHAR(512) NOT NULL,
  source      VARCHAR(255) NOT NULL,
  result_json JSON         NOT NULL,
  answer      TEXT         NOT NULL,
  created_at  DATETIME(6)  NOT NULL,
  INDEX idx_history_client_created (client_id, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

// Migrate creates the history table when it does not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
