// Package handler implements the HTTP entry point of the inventory service.
//
// For every request it answers CORS preflights directly, canonicalizes the
// method and target, checks a connection out of the database pool, hands the
// request to the router and translates the outcome into an HTTP response.
// Failures before dispatch get fixed plain-text bodies. Failures reported by
// a resource handler get a JSON body whose status is derived from the error
// kind alone.
package handler
