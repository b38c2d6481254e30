// Package users implements the users resource: create, read, update, list
// and delete over a pooled database connection. Errors are reported as
// apierror kinds so the HTTP layer can map them without inspecting them.
package users
