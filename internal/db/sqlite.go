package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Money columns are TEXT so decimals round-trip exactly. security_id carries
// no foreign key: it is only checked when an operation is recorded.
func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS securities (
		id INTEGER PRIMARY KEY,
		ticker TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		current_price TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS operations (
		id INTEGER PRIMARY KEY,
		security_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		purchase_price_per_share TEXT NOT NULL,
		commission TEXT NOT NULL,
		target_buy_price TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}
