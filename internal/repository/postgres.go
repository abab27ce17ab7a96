package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
)

type PoolConfig struct {
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetimeS int
	ConnMaxIdleTimeS int
	// ConnectWait bounds how long startup waits for the database to accept
	// connections. Zero means a single attempt.
	ConnectWait time.Duration
}

// NewPostgresDB opens a pool and pings until the database answers or
// pool.ConnectWait elapses.
func NewPostgresDB(ctx context.Context, databaseURL string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresDB: open: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeS) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTimeS) * time.Second)

	var b backoff.BackOff = &backoff.StopBackOff{}
	if pool.ConnectWait > 0 {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = 250 * time.Millisecond
		eb.MaxInterval = 2 * time.Second
		eb.MaxElapsedTime = pool.ConnectWait
		b = eb
	}

	attempt := 0
	err = backoff.RetryNotify(
		func() error { return db.PingContext(ctx) },
		backoff.WithContext(b, ctx),
		func(err error, next time.Duration) {
			attempt++
			slog.Info("waiting for database", "attempt", attempt, "retry_in", next, "error", err)
		},
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("NewPostgresDB: ping: %w", err)
	}

	return db, nil
}
