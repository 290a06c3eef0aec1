// Package database opens the SQL connection behind the job queue and outbox,
// and carries transactions through context.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// DriverMemory selects the in-process repositories; it has no SQL connection.
const DriverMemory = "memory"

const defaultPingTimeout = 5 * time.Second

// ErrNoSQLDriver is returned by Connect for the memory driver.
var ErrNoSQLDriver = errors.New("memory driver has no SQL connection")

// Config holds the pool settings for the postgres and mysql drivers.
type Config struct {
	Driver             string
	ConnectionString   string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	// PingTimeout bounds the startup ping. Zero means five seconds.
	PingTimeout time.Duration
}

// Connect opens the pool and pings it so a bad DSN fails at startup rather
// than on the first lease. The pool is closed again when the ping fails.
func Connect(cfg Config) (*sql.DB, error) {
	if cfg.Driver == DriverMemory {
		return nil, ErrNoSQLDriver
	}

	db, err := sql.Open(cfg.Driver, cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.Driver, err)
	}

	return db, nil
}
