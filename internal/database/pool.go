package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Database drivers selected by ParseURL.
	_ "github.com/glebarez/go-sqlite"
	_ "github.com/go-sql-driver/mysql"
)

// Conn exposes only the methods needed to run SQL statements. Both *sql.DB
// and *sql.Conn satisfy it.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PooledConn is a connection checked out of a Pool. Close returns it to the
// pool; it must be called on every path once Acquire succeeded.
type PooledConn interface {
	Conn
	Close() error
}

// Pool hands out connections for the lifetime of a single request.
type Pool interface {
	Acquire(ctx context.Context) (PooledConn, error)
}

// Limits bounds the number and lifetime of pooled connections.
type Limits struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// SQLPool is a Pool backed by database/sql.
type SQLPool struct {
	db     *sql.DB
	driver string
}

var _ Pool = (*SQLPool)(nil)

// NewSQLPool wraps an open *sql.DB.
func NewSQLPool(db *sql.DB, driver string) *SQLPool {
	return &SQLPool{db: db, driver: driver}
}

// Acquire checks a dedicated connection out of the pool. It blocks while
// MaxOpenConns connections are in use.
func (p *SQLPool) Acquire(ctx context.Context) (PooledConn, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed checking out database connection: %w", err)
	}
	return conn, nil
}

// DB returns the underlying *sql.DB.
func (p *SQLPool) DB() *sql.DB {
	return p.db
}

// Driver returns the database/sql driver name.
func (p *SQLPool) Driver() string {
	return p.driver
}

// Close closes every connection in the pool.
func (p *SQLPool) Close() error {
	return p.db.Close()
}

// Open builds a pool for the given connection URL and verifies that the
// database answers.
func Open(ctx context.Context, rawURL string, limits Limits) (*SQLPool, error) {
	driver, dsn, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed opening %s database: %w", driver, err)
	}

	return Verify(ctx, db, driver, limits)
}

// Verify applies limits to db and pings it. db is closed if the ping fails.
func Verify(ctx context.Context, db *sql.DB, driver string, limits Limits) (*SQLPool, error) {
	if limits.MaxOpenConns > 0 {
		db.SetMaxOpenConns(limits.MaxOpenConns)
	}
	if limits.MaxIdleConns > 0 {
		db.SetMaxIdleConns(limits.MaxIdleConns)
	}
	if limits.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(limits.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed reaching %s database: %w", driver, err)
	}

	return NewSQLPool(db, driver), nil
}
