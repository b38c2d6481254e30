// Package request turns a raw HTTP request into the canonical form used for
// routing: a method enum, a reversed stack of path segments, ordered query
// pairs and the raw body.
package request
