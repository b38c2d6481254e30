// Package apierror defines the error taxonomy shared by domain handlers and
// the HTTP layer.
package apierror
