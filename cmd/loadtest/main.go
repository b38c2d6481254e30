// Loadtest drives concurrent traffic at a running inventory service and
// reports throughput, latency percentiles and the status code mix.
//
// Usage:
//
//	go run ./cmd/loadtest -base http://localhost:8000 -mode create -concurrency 20 -requests 2000
//	go run ./cmd/loadtest -mode mixed -out summary.json
//
// Modes:
//   - create: POST /users with unique banner IDs
//   - list: GET /users
//   - preflight: OPTIONS /users, which never touches the database
//   - mixed: round-robin over the three above
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type sample struct {
	kind   string
	status int
	dur    time.Duration
	err    error
}

type kindSummary struct {
	Total       int         `json:"total"`
	StatusCodes map[int]int `json:"status_codes"`
	Errors      int         `json:"errors"`
	P50         float64     `json:"p50_ms"`
	P90         float64     `json:"p90_ms"`
	P99         float64     `json:"p99_ms"`
}

func main() {
	var (
		base        = flag.String("base", "http://localhost:8000", "Service base URL")
		mode        = flag.String("mode", "mixed", "create, list, preflight or mixed")
		concurrency = flag.Int("concurrency", 10, "Number of concurrent workers")
		requests    = flag.Int("requests", 500, "Total number of requests to send")
		timeoutSec  = flag.Int("timeout", 10, "Per-request timeout in seconds")
		outJSON     = flag.String("out", "", "Write JSON summary to this file (optional)")
	)
	flag.Parse()

	kinds, err := kindsFor(*mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: time.Duration(*timeoutSec) * time.Second}
	bannerBase := uint32(time.Now().Unix() % 1_000_000 * 1000)
	var seq atomic.Uint32

	jobs := make(chan int)
	results := make(chan sample, *concurrency)
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				kind := kinds[idx%len(kinds)]
				req, err := newRequest(*base, kind, bannerBase+seq.Add(1))
				if err != nil {
					results <- sample{kind: kind, err: err}
					continue
				}
				results <- do(client, kind, req)
			}
		}()
	}

	go func() {
		for i := 0; i < *requests; i++ {
			jobs <- i
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	byKind := make(map[string][]sample)
	var failures int
	for s := range results {
		byKind[s.kind] = append(byKind[s.kind], s)
		if s.err != nil || s.status >= http.StatusInternalServerError {
			failures++
		}
	}
	elapsed := time.Since(start)

	summary := make(map[string]kindSummary, len(byKind))
	for kind, samples := range byKind {
		summary[kind] = summarize(samples)
	}

	fmt.Println("--- Load Test Summary ---")
	fmt.Printf("Target: %s  Mode: %s\n", *base, *mode)
	fmt.Printf("Requests: %d  Concurrency: %d  Duration: %v  Throughput: %.2f req/s\n",
		*requests, *concurrency, elapsed, float64(*requests)/elapsed.Seconds())

	names := make([]string, 0, len(summary))
	for k := range summary {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		s := summary[k]
		fmt.Printf("  %-9s total=%d errors=%d p50=%.1fms p90=%.1fms p99=%.1fms codes=%v\n",
			k, s.Total, s.Errors, s.P50, s.P90, s.P99, s.StatusCodes)
	}

	if *outJSON != "" {
		if err := writeJSON(*outJSON, summary); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write json summary: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nWrote JSON summary to %s\n", *outJSON)
	}

	if failures > 0 {
		os.Exit(2)
	}
}

func kindsFor(mode string) ([]string, error) {
	switch mode {
	case "create", "list", "preflight":
		return []string{mode}, nil
	case "mixed":
		return []string{"create", "list", "preflight"}, nil
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

func newRequest(base, kind string, bannerID uint32) (*http.Request, error) {
	switch kind {
	case "create":
		body, err := json.Marshal(map[string]any{
			"first_name": "Load",
			"last_name":  "Test",
			"banner_id":  bannerID,
		})
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequest(http.MethodPost, base+"/users", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	case "list":
		return http.NewRequest(http.MethodGet, base+"/users", nil)
	default:
		req, err := http.NewRequest(http.MethodOptions, base+"/users", nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		return req, nil
	}
}

func do(client *http.Client, kind string, req *http.Request) sample {
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return sample{kind: kind, dur: time.Since(start), err: err}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return sample{kind: kind, status: resp.StatusCode, dur: time.Since(start)}
}

func summarize(samples []sample) kindSummary {
	s := kindSummary{Total: len(samples), StatusCodes: make(map[int]int)}

	durs := make([]time.Duration, 0, len(samples))
	for _, smp := range samples {
		if smp.err != nil {
			s.Errors++
			continue
		}
		s.StatusCodes[smp.status]++
		durs = append(durs, smp.dur)
	}
	if len(durs) == 0 {
		return s
	}

	sort.Slice(durs, func(i, j int) bool { return durs[i] < durs[j] })
	pick := func(p float64) float64 {
		return float64(durs[int(float64(len(durs)-1)*p)].Microseconds()) / 1000.0
	}
	s.P50, s.P90, s.P99 = pick(0.50), pick(0.90), pick(0.99)

	return s
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
