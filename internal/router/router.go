package router

import (
	"context"
	"log/slog"

	"github.com/angeloszaimis/inventory-service/internal/apierror"
	"github.com/angeloszaimis/inventory-service/internal/database"
	"github.com/angeloszaimis/inventory-service/internal/request"
)

// Resource is a leading path segment the router knows about.
type Resource string

const (
	ResourceUsers Resource = "users"
)

// Handler serves one resource family. The request's path no longer contains
// the leading segment. A nil payload with a nil error means "no content".
type Handler interface {
	Handle(ctx context.Context, req *request.Request, conn database.Conn) ([]byte, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req *request.Request, conn database.Conn) ([]byte, error)

func (f HandlerFunc) Handle(ctx context.Context, req *request.Request, conn database.Conn) ([]byte, error) {
	return f(ctx, req, conn)
}

// Router dispatches on the leading path segment by exact match. It keeps no
// state between requests.
type Router struct {
	logger *slog.Logger
	users  Handler
}

func New(logger *slog.Logger, users Handler) *Router {
	return &Router{
		logger: logger,
		users:  users,
	}
}

// Dispatch pops the leading segment off req and invokes the matching handler.
func (rt *Router) Dispatch(ctx context.Context, req *request.Request, conn database.Conn) ([]byte, error) {
	first, ok := req.Pop()
	rt.logger.Debug("first path", slog.String("segment", first), slog.Bool("present", ok))
	if !ok {
		return nil, apierror.NotFound("not found")
	}

	switch Resource(first) {
	case ResourceUsers:
		return rt.users.Handle(ctx, req, conn)
	default:
		rt.logger.Warn("Path not found", slog.String("segment", first))
		return nil, apierror.Newf(apierror.KindNotFound, "resource %q not found", first)
	}
}

// ResourceOf returns the leading segment of req if it names a known resource,
// without consuming it. Unknown or missing segments yield "".
func ResourceOf(req *request.Request) Resource {
	first, ok := req.Peek()
	if !ok {
		return ""
	}
	switch Resource(first) {
	case ResourceUsers:
		return Resource(first)
	default:
		return ""
	}
}
