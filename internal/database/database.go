// Package database provides utilities for database connection management.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds database connection pool configuration.
type Config struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// DefaultConfig returns sensible defaults for production use.
func DefaultConfig() *Config {
	return &Config{
		MaxOpenConns:    25,
		MaxIdleConns:    25,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// ParseDSN validates a MySQL DSN and forces the options the user queries rely on:
// DATETIME columns scan into time.Time and sessions run in UTC.
func ParseDSN(connStr string) (*mysql.Config, error) {
	dsn, err := mysql.ParseDSN(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	dsn.ParseTime = true
	dsn.Loc = time.UTC
	return dsn, nil
}

// NewPool creates a production-ready database connection pool.
func NewPool(connStr string, cfg *Config) (*sql.DB, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	dsn, err := ParseDSN(connStr)
	if err != nil {
		return nil, err
	}

	connector, err := mysql.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}

	// OpenDB does not establish any connections, it just prepares the pool
	dbPool := sql.OpenDB(connector)

	dbPool.SetMaxOpenConns(cfg.MaxOpenConns)
	dbPool.SetMaxIdleConns(cfg.MaxIdleConns)
	dbPool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbPool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	if err = dbPool.PingContext(ctx); err != nil {
		_ = dbPool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbPool, nil
}
