package metrics

import (
	"sort"
	"sync"
	"time"
)

const maxSamples = 1000

type Metrics struct {
	mutex         sync.RWMutex
	requests      map[string]int64
	responseTimes map[string][]time.Duration
	statusCodes   map[string]map[int]int64
	poolFailures  int64
	startTime     time.Time
}

type Snapshot struct {
	TotalRequests int64                      `json:"total_requests"`
	PoolFailures  int64                      `json:"pool_failures"`
	Uptime        time.Duration              `json:"uptime"`
	Database      string                     `json:"database"`
	Resources     map[string]ResourceMetrics `json:"resources"`
}

type ResourceMetrics struct {
	Requests    int64         `json:"requests"`
	Responses   int64         `json:"responses"`
	AvgResponse time.Duration `json:"avg_response"`
	P50Response time.Duration `json:"p50_response"`
	P95Response time.Duration `json:"p95_response"`
	P99Response time.Duration `json:"p99_response"`
	StatusCodes map[int]int64 `json:"status_codes"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		requests:      make(map[string]int64),
		responseTimes: make(map[string][]time.Duration),
		statusCodes:   make(map[string]map[int]int64),
		startTime:     time.Now(),
	}
}

func (m *Metrics) IncrementRequests(resource string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.requests[resource]++
}

func (m *Metrics) IncrementPoolFailures() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.poolFailures++
}

// RecordResponse keeps the last maxSamples durations per resource.
func (m *Metrics) RecordResponse(resource string, duration time.Duration, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	samples := append(m.responseTimes[resource], duration)
	if len(samples) > maxSamples {
		samples = samples[len(samples)-maxSamples:]
	}
	m.responseTimes[resource] = samples

	if m.statusCodes[resource] == nil {
		m.statusCodes[resource] = make(map[int]int64)
	}
	m.statusCodes[resource][statusCode]++
}

func (m *Metrics) Snapshot(database string) Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		PoolFailures: m.poolFailures,
		Uptime:       time.Since(m.startTime),
		Database:     database,
		Resources:    make(map[string]ResourceMetrics),
	}

	seen := make(map[string]struct{})
	for resource := range m.requests {
		seen[resource] = struct{}{}
	}
	for resource := range m.statusCodes {
		seen[resource] = struct{}{}
	}

	for resource := range seen {
		snap.TotalRequests += m.requests[resource]

		codes := make(map[int]int64, len(m.statusCodes[resource]))
		var responses int64
		for code, n := range m.statusCodes[resource] {
			codes[code] = n
			responses += n
		}

		rm := ResourceMetrics{
			Requests:    m.requests[resource],
			Responses:   responses,
			StatusCodes: codes,
		}

		if durations := m.responseTimes[resource]; len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			rm.AvgResponse = average(sorted)
			rm.P50Response = percentile(sorted, 0.50)
			rm.P95Response = percentile(sorted, 0.95)
			rm.P99Response = percentile(sorted, 0.99)
		}

		snap.Resources[resource] = rm
	}

	return snap
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
