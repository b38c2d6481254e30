package main

import (
	"fmt"
	"net/http"

	"github.com/angeloszaimis/inventory-service/internal/metrics"
)

// setupMetricsRouter builds the mux for the metrics listener. It is kept off
// the public API so every API path is left to the inventory handler.
func setupMetricsRouter(collector *metrics.Collector, database fmt.Stringer) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /metrics", collector.Handler(database))

	return mux
}
