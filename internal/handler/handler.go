package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/felixge/httpsnoop"

	"github.com/angeloszaimis/inventory-service/internal/apierror"
	"github.com/angeloszaimis/inventory-service/internal/database"
	"github.com/angeloszaimis/inventory-service/internal/metrics"
	"github.com/angeloszaimis/inventory-service/internal/request"
	"github.com/angeloszaimis/inventory-service/internal/router"
)

// Preflight header values. Browsers compare these literally.
const (
	AllowMethods = "POST, GET, DELETE, OPTIONS"
	AllowOrigin  = "*"
	AllowHeaders = "X-PINGOTHER, Content-Type"
	MaxAge       = "86400"
)

// Fixed bodies for failures that never reach a resource handler.
const (
	msgDatabaseError = "Database error"
	msgURLParse      = "URL parse error"
	msgInvalidMethod = "Invalid method"
)

// Dispatcher routes a canonical request to its resource handler.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *request.Request, conn database.Conn) ([]byte, error)
}

// Response is the JSON body written for failed requests.
type Response struct {
	StatusCode int    `json:"status_code"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

type InventoryHandler struct {
	logger           *slog.Logger
	pool             database.Pool
	router           Dispatcher
	metricsCollector *metrics.Collector
}

func NewInventoryHandler(logger *slog.Logger, pool database.Pool, router Dispatcher, collector *metrics.Collector) *InventoryHandler {
	return &InventoryHandler{
		logger:           logger,
		pool:             pool,
		router:           router,
		metricsCollector: collector,
	}
}

func (h *InventoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resource := metrics.ResourceUnknown
	m := httpsnoop.CaptureMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resource = h.serve(w, r)
	}), w, r)

	h.logger.Info(fmt.Sprintf("%s %s", r.Method, r.URL),
		slog.Int("response_code", m.Code),
		slog.Duration("duration", m.Duration),
		slog.Int64("bytes_sent", m.Written),
		slog.String("remote_addr", extractClientIP(r)))

	h.metricsCollector.Emit(metrics.MetricEvent{
		Type:       metrics.EventResponseCompleted,
		Resource:   resource,
		Duration:   m.Duration,
		StatusCode: m.Code,
	})
}

// serve handles one request and returns the resource label it was counted
// under.
func (h *InventoryHandler) serve(w http.ResponseWriter, r *http.Request) string {
	if r.Method == http.MethodOptions {
		h.received(metrics.ResourcePreflight)
		writePreflight(w)
		return metrics.ResourcePreflight
	}

	w.Header().Set("Access-Control-Allow-Origin", AllowOrigin)

	req, err := request.Parse(r.Method, requestTarget(r), r.Body)
	if err != nil {
		h.received(metrics.ResourceInvalid)
		h.logger.Warn("Rejected request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", extractClientIP(r)),
			slog.Any("err", err))

		if errors.Is(err, request.ErrUnsupportedMethod) {
			writeText(w, http.StatusBadRequest, msgInvalidMethod)
		} else {
			writeText(w, http.StatusBadRequest, msgURLParse)
		}
		return metrics.ResourceInvalid
	}

	resource := metrics.ResourceUnknown
	if res := router.ResourceOf(req); res != "" {
		resource = string(res)
	}
	h.received(resource)

	// A client going away does not cancel checkout or the handler.
	ctx := context.WithoutCancel(r.Context())

	conn, err := h.pool.Acquire(ctx)
	if err != nil {
		h.metricsCollector.Emit(metrics.MetricEvent{Type: metrics.EventPoolUnavailable})
		h.logger.Warn("Could not acquire database connection",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", extractClientIP(r)),
			slog.Any("err", err))
		writeText(w, http.StatusInternalServerError, msgDatabaseError)
		return resource
	}
	defer conn.Close()

	payload, err := h.router.Dispatch(ctx, req, conn)
	if err != nil {
		h.writeError(w, r, err)
		return resource
	}

	if payload == nil {
		w.WriteHeader(http.StatusNoContent)
		return resource
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(payload); err != nil {
		h.logger.Debug("Failed writing response", slog.Any("err", err))
	}
	return resource
}

func (h *InventoryHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apierror.KindOf(err)
	status := kind.Status()

	attrs := []any{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("remote_addr", extractClientIP(r)),
		slog.String("kind", kind.String()),
		slog.Any("err", err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", attrs...)
	} else {
		h.logger.Warn("Request failed", attrs...)
	}

	body, merr := json.Marshal(Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Error:      apierror.PublicMessage(err),
	})
	if merr != nil {
		writeText(w, status, http.StatusText(status))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (h *InventoryHandler) received(resource string) {
	h.metricsCollector.Emit(metrics.MetricEvent{
		Type:     metrics.EventRequestReceived,
		Resource: resource,
	})
}

func writePreflight(w http.ResponseWriter) {
	header := w.Header()
	header.Set("Access-Control-Allow-Methods", AllowMethods)
	header.Set("Access-Control-Allow-Origin", AllowOrigin)
	header.Set("Access-Control-Allow-Headers", AllowHeaders)
	header.Set("Access-Control-Max-Age", MaxAge)
	w.WriteHeader(http.StatusOK)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// requestTarget returns the target as sent on the request line, falling back
// to the parsed URL for requests built in-process.
func requestTarget(r *http.Request) string {
	if r.RequestURI != "" {
		return r.RequestURI
	}
	return r.URL.RequestURI()
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
