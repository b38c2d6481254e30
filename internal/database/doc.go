// Package database owns the shared connection pool: building it at startup
// with an unbounded fixed-interval retry, checking connections out per
// request, and applying the schema.
//
// The bootstrapper moves through three states:
//
//   - DISCONNECTED: no pool, waiting for the next attempt
//   - CONNECTING: an attempt is in progress
//   - CONNECTED: the pool is ready; requests may be served
//
// Usage:
//
//	b := database.NewBootstrapper(logger, time.Second, database.Limits{MaxOpenConns: 10})
//	pool, err := b.Connect(ctx, os.Getenv("DATABASE_URL"))
//	conn, err := pool.Acquire(ctx)
//	defer conn.Close()
package database
