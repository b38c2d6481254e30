package database_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/inventory-service/internal/database"
)

var _ = Describe("Bootstrapper", func() {
	var (
		log    *slog.Logger
		ctx    context.Context
		cancel context.CancelFunc
		waits  []time.Duration
		dbURL  string
	)

	recordWait := func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
		ctx, cancel = context.WithCancel(context.Background())
		waits = nil
		dbURL = "sqlite://" + filepath.Join(GinkgoT().TempDir(), "bootstrap.db")
	})

	AfterEach(func() {
		cancel()
	})

	It("should start disconnected", func() {
		b := database.NewBootstrapper(log, time.Second, database.Limits{})
		Expect(b.State()).To(Equal(database.StateDisconnected))
		Expect(b.State().String()).To(Equal("DISCONNECTED"))
		Expect(b.Attempts()).To(BeZero())
	})

	It("should connect on the first attempt without waiting", func() {
		b := database.NewBootstrapper(log, time.Second, database.Limits{MaxOpenConns: 2},
			database.WithWaiter(recordWait))

		pool, err := b.Connect(ctx, dbURL)
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()

		Expect(b.State()).To(Equal(database.StateConnected))
		Expect(b.String()).To(Equal("CONNECTED"))
		Expect(b.Attempts()).To(Equal(1))
		Expect(waits).To(BeEmpty())
		Expect(pool.DB().Stats().MaxOpenConnections).To(Equal(2))
	})

	It("should retry exactly twice with the fixed interval before succeeding", func() {
		calls := 0
		opener := func(ctx context.Context, rawURL string) (*database.SQLPool, error) {
			calls++
			if calls <= 2 {
				return nil, errors.New("connection refused")
			}
			return database.Open(ctx, rawURL, database.Limits{})
		}

		var b *database.Bootstrapper
		b = database.NewBootstrapper(log, 1500*time.Millisecond, database.Limits{},
			database.WithOpener(opener),
			database.WithWaiter(func(ctx context.Context, d time.Duration) error {
				Expect(b.State()).To(Equal(database.StateDisconnected))
				return recordWait(ctx, d)
			}))

		pool, err := b.Connect(ctx, dbURL)
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()

		Expect(calls).To(Equal(3))
		Expect(b.Attempts()).To(Equal(3))
		Expect(waits).To(Equal([]time.Duration{1500 * time.Millisecond, 1500 * time.Millisecond}))
		Expect(b.State()).To(Equal(database.StateConnected))
	})

	It("should retry when the database does not answer pings", func() {
		pings := 0
		opener := func(ctx context.Context, rawURL string) (*database.SQLPool, error) {
			pings++
			db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			Expect(err).NotTo(HaveOccurred())
			if pings == 1 {
				mock.ExpectPing().WillReturnError(errors.New("server starting up"))
			} else {
				mock.ExpectPing()
			}
			return database.Verify(ctx, db, "sqlmock", database.Limits{})
		}

		b := database.NewBootstrapper(log, time.Second, database.Limits{},
			database.WithOpener(opener),
			database.WithWaiter(recordWait))

		pool, err := b.Connect(ctx, "mysql://db/inventory")
		Expect(err).NotTo(HaveOccurred())
		Expect(pool.Driver()).To(Equal("sqlmock"))
		Expect(pings).To(Equal(2))
		Expect(waits).To(HaveLen(1))
	})

	It("should give up only when the context is cancelled", func() {
		b := database.NewBootstrapper(log, 10*time.Millisecond, database.Limits{},
			database.WithOpener(func(context.Context, string) (*database.SQLPool, error) {
				return nil, errors.New("connection refused")
			}))

		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		pool, err := b.Connect(ctx, dbURL)
		Expect(err).To(MatchError(context.Canceled))
		Expect(pool).To(BeNil())
		Expect(b.Attempts()).To(BeNumerically(">", 1))
		Expect(b.State()).To(Equal(database.StateDisconnected))
	})
})
