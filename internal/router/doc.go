// Package router selects the domain handler for a canonical request by exact
// match on its leading path segment. Everything below the leading segment is
// left to the selected handler.
package router
