package metrics_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/inventory-service/internal/metrics"
)

type stateString string

func (s stateString) String() string { return string(s) }

var _ = Describe("Collector", func() {
	var (
		collector *metrics.Collector
		log       *slog.Logger
		ctx       context.Context
		cancel    context.CancelFunc
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
		ctx, cancel = context.WithCancel(context.Background())
		collector = metrics.NewCollector(100, log)
	})

	AfterEach(func() {
		cancel()
	})

	Describe("event processing", func() {
		It("should process request and response events", func() {
			collector.Start(ctx)

			collector.Emit(metrics.MetricEvent{Type: metrics.EventRequestReceived, Resource: "users"})
			collector.Emit(metrics.MetricEvent{
				Type:       metrics.EventResponseCompleted,
				Resource:   "users",
				Duration:   50 * time.Millisecond,
				StatusCode: 201,
			})

			Eventually(func() int64 {
				return collector.Snapshot("").Resources["users"].StatusCodes[201]
			}).Should(Equal(int64(1)))

			rm := collector.Snapshot("").Resources["users"]
			Expect(rm.Requests).To(Equal(int64(1)))
			Expect(rm.AvgResponse).To(Equal(50 * time.Millisecond))
		})

		It("should process pool failures", func() {
			collector.Start(ctx)
			collector.EventChannel() <- metrics.MetricEvent{Type: metrics.EventPoolUnavailable}

			Eventually(func() int64 {
				return collector.Snapshot("").PoolFailures
			}).Should(Equal(int64(1)))
		})

		It("should drain queued events on cancellation", func() {
			for i := 0; i < 5; i++ {
				collector.Emit(metrics.MetricEvent{Type: metrics.EventRequestReceived, Resource: "users"})
			}

			collector.Start(ctx)
			cancel()

			Eventually(func() int64 {
				return collector.Snapshot("").TotalRequests
			}).Should(Equal(int64(5)))
		})
	})

	Describe("Emit", func() {
		It("should drop events when the buffer is full", func() {
			small := metrics.NewCollector(1, log)
			small.Emit(metrics.MetricEvent{Type: metrics.EventRequestReceived, Resource: "users"})
			small.Emit(metrics.MetricEvent{Type: metrics.EventRequestReceived, Resource: "users"})

			small.Start(ctx)
			Eventually(func() int64 {
				return small.Snapshot("").TotalRequests
			}).Should(Equal(int64(1)))
			Consistently(func() int64 {
				return small.Snapshot("").TotalRequests
			}, 50*time.Millisecond).Should(Equal(int64(1)))
		})

		It("should be a no-op on a nil collector", func() {
			var c *metrics.Collector
			Expect(func() {
				c.Emit(metrics.MetricEvent{Type: metrics.EventRequestReceived})
			}).NotTo(Panic())
		})
	})

	Describe("Handler", func() {
		It("should serve the snapshot as JSON with the database state", func() {
			collector.Start(ctx)
			collector.Emit(metrics.MetricEvent{Type: metrics.EventRequestReceived, Resource: "users"})
			Eventually(func() int64 {
				return collector.Snapshot("").TotalRequests
			}).Should(Equal(int64(1)))

			w := httptest.NewRecorder()
			collector.Handler(stateString("CONNECTED")).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(Equal("application/json"))

			var snap metrics.Snapshot
			Expect(json.Unmarshal(w.Body.Bytes(), &snap)).To(Succeed())
			Expect(snap.Database).To(Equal("CONNECTED"))
			Expect(snap.Resources["users"].Requests).To(Equal(int64(1)))
		})

		It("should tolerate a nil state source", func() {
			w := httptest.NewRecorder()
			collector.Handler(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			Expect(w.Code).To(Equal(http.StatusOK))
		})
	})
})
