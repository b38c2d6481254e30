// Package logger builds the service's structured logger. It wraps log/slog,
// emitting JSON in production and colourised tint output elsewhere.
package logger
