package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/lorrc/ticket-insight/internal/config"
	"github.com/lorrc/ticket-insight/internal/core/query"
)

// DriverName is the database/sql driver registered by this package. It is
// go-sqlite3 with Unicode case-folding functions added to every connection.
const DriverName = "sqlite3_unicode"

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := conn.RegisterFunc(query.SQLiteLowerFunc, strings.ToLower, true); err != nil {
				return err
			}
			return conn.RegisterFunc(query.SQLiteUpperFunc, strings.ToUpper, true)
		},
	})
}

// Open opens the database file at path. In-memory databases live on a single
// connection, so the pool is pinned to one.
func Open(ctx context.Context, path string, cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000"
	}

	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if isMemory(path) {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return db, nil
}

func isMemory(path string) bool {
	return path == MemoryPath || strings.HasPrefix(path, MemoryPath+"?") || strings.Contains(path, "mode=memory")
}
