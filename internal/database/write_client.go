package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// WriteClient provides write access to the results database
type WriteClient struct {
	db *sqlx.DB
}

// DriverFor auto-detects the driver from a database URL and returns the DSN
// the driver expects
func DriverFor(databaseURL string) (driver, dsn string) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return DriverPostgres, databaseURL
	}
	return DriverMySQL, strings.TrimPrefix(databaseURL, "mysql://")
}

// NewWriteClient connects to MySQL or PostgreSQL, detected from the URL
func NewWriteClient(databaseURL string) (*WriteClient, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	driver, dsn := DriverFor(databaseURL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	return &WriteClient{db: db}, nil
}

// NewWriteClientFromDB wraps an existing connection
func NewWriteClientFromDB(db *sqlx.DB) *WriteClient {
	return &WriteClient{db: db}
}

// GetDB returns the underlying database connection
func (wc *WriteClient) GetDB() *sqlx.DB {
	return wc.db
}

// DriverName returns the driver of the underlying connection
func (wc *WriteClient) DriverName() string {
	return wc.db.DriverName()
}

// ExecuteWriteQuery rebinds '?' placeholders for the driver and executes the query
func (wc *WriteClient) ExecuteWriteQuery(query string, args ...interface{}) (sql.Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return wc.db.ExecContext(ctx, wc.db.Rebind(query), args...)
}

// ExecuteWriteQueryWithResult rebinds the query and scans all rows into dest
func (wc *WriteClient) ExecuteWriteQueryWithResult(dest interface{}, query string, args ...interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return wc.db.SelectContext(ctx, dest, wc.db.Rebind(query), args...)
}

// Close closes the database connection
func (wc *WriteClient) Close() error {
	return wc.db.Close()
}
