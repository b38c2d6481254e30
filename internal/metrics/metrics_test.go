package metrics_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/inventory-service/internal/metrics"
)

var _ = Describe("Metrics", func() {
	var m *metrics.Metrics

	BeforeEach(func() {
		m = metrics.NewMetrics()
	})

	Describe("IncrementRequests", func() {
		It("should count requests per resource", func() {
			m.IncrementRequests("users")
			m.IncrementRequests("users")
			m.IncrementRequests(metrics.ResourceUnknown)

			snap := m.Snapshot("CONNECTED")
			Expect(snap.TotalRequests).To(Equal(int64(3)))
			Expect(snap.Resources["users"].Requests).To(Equal(int64(2)))
			Expect(snap.Resources[metrics.ResourceUnknown].Requests).To(Equal(int64(1)))
			Expect(snap.Database).To(Equal("CONNECTED"))
		})
	})

	Describe("RecordResponse", func() {
		It("should record latency and status codes", func() {
			m.RecordResponse("users", 100*time.Millisecond, 200)
			m.RecordResponse("users", 200*time.Millisecond, 204)

			rm := m.Snapshot("").Resources["users"]
			Expect(rm.AvgResponse).To(Equal(150 * time.Millisecond))
			Expect(rm.Responses).To(Equal(int64(2)))
			Expect(rm.StatusCodes).To(Equal(map[int]int64{200: 1, 204: 1}))
		})

		It("should compute percentiles over sorted samples", func() {
			for i := 100; i >= 1; i-- {
				m.RecordResponse("users", time.Duration(i)*time.Millisecond, 200)
			}

			rm := m.Snapshot("").Resources["users"]
			Expect(rm.P50Response).To(Equal(51 * time.Millisecond))
			Expect(rm.P95Response).To(Equal(96 * time.Millisecond))
			Expect(rm.P99Response).To(Equal(100 * time.Millisecond))
		})

		It("should keep a bounded window of samples", func() {
			for i := 0; i < 1500; i++ {
				m.RecordResponse("users", time.Second, 200)
			}
			m.RecordResponse("users", 0, 200)

			rm := m.Snapshot("").Resources["users"]
			Expect(rm.Responses).To(Equal(int64(1501)))
			Expect(rm.AvgResponse).To(BeNumerically("<", time.Second))
		})
	})

	Describe("IncrementPoolFailures", func() {
		It("should count pool failures outside any resource", func() {
			m.IncrementPoolFailures()
			m.IncrementPoolFailures()

			snap := m.Snapshot("")
			Expect(snap.PoolFailures).To(Equal(int64(2)))
			Expect(snap.Resources).To(BeEmpty())
		})
	})

	Describe("Snapshot", func() {
		It("should not share status code maps with the live metrics", func() {
			m.RecordResponse("users", time.Millisecond, 200)
			snap := m.Snapshot("")
			snap.Resources["users"].StatusCodes[200] = 99

			Expect(m.Snapshot("").Resources["users"].StatusCodes[200]).To(Equal(int64(1)))
		})

		It("should report uptime", func() {
			time.Sleep(5 * time.Millisecond)
			Expect(m.Snapshot("").Uptime).To(BeNumerically(">=", 5*time.Millisecond))
		})
	})
})
