package database

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Opener builds a pool for a connection URL.
type Opener func(ctx context.Context, rawURL string) (*SQLPool, error)

// Waiter blocks for d or until ctx is done.
type Waiter func(ctx context.Context, d time.Duration) error

// Bootstrapper establishes the process-wide connection pool. Failed attempts
// are retried forever at a fixed interval; there is no cap and no jitter.
type Bootstrapper struct {
	mutex    sync.Mutex
	state    State
	attempts int
	open     Opener
	wait     Waiter
	interval time.Duration
	logger   *slog.Logger
}

type BootstrapOption func(*Bootstrapper)

// WithOpener replaces the function used to build the pool.
func WithOpener(open Opener) BootstrapOption {
	return func(b *Bootstrapper) {
		b.open = open
	}
}

// WithWaiter replaces the function used to wait between attempts.
func WithWaiter(wait Waiter) BootstrapOption {
	return func(b *Bootstrapper) {
		b.wait = wait
	}
}

func NewBootstrapper(logger *slog.Logger, interval time.Duration, limits Limits, opts ...BootstrapOption) *Bootstrapper {
	b := &Bootstrapper{
		state:    StateDisconnected,
		interval: interval,
		logger:   logger,
		wait:     sleep,
		open: func(ctx context.Context, rawURL string) (*SQLPool, error) {
			return Open(ctx, rawURL, limits)
		},
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Connect blocks until a pool has been built. It only gives up when ctx is
// done, which happens on process shutdown.
func (b *Bootstrapper) Connect(ctx context.Context, rawURL string) (*SQLPool, error) {
	b.logger.Info("Connecting to database")
	b.logger.Debug("Connecting to", slog.String("url", Redact(rawURL)))

	for {
		attempt := b.begin()

		pool, err := b.open(ctx, rawURL)
		if err == nil {
			b.setState(StateConnected)
			b.logger.Info("Connected to database",
				slog.String("driver", pool.Driver()),
				slog.Int("attempts", attempt))
			return pool, nil
		}

		b.setState(StateDisconnected)
		b.logger.Warn("Could not connect to database",
			slog.Int("attempt", attempt),
			slog.Any("err", err))
		b.logger.Info("Retrying", slog.Duration("in", b.interval))

		if err := b.wait(ctx, b.interval); err != nil {
			return nil, err
		}
	}
}

func (b *Bootstrapper) State() State {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.state
}

// String reports the current state, so a Bootstrapper can be handed to
// anything that displays pool status.
func (b *Bootstrapper) String() string {
	return b.State().String()
}

// Attempts returns how many connection attempts have been started.
func (b *Bootstrapper) Attempts() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.attempts
}

func (b *Bootstrapper) begin() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.state = StateConnecting
	b.attempts++
	return b.attempts
}

func (b *Bootstrapper) setState(s State) {
	b.mutex.Lock()
	b.state = s
	b.mutex.Unlock()
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
