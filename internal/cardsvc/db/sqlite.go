package db

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// OpenSQLite opens (creating if needed) the embedded catalog database.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// sqlite serializes writers anyway, keep one writer to avoid SQLITE_BUSY
	db.SetMaxOpenConns(1)

	return db, nil
}
