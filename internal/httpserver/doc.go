// Package httpserver runs the service's HTTP listeners: the public API and
// the optional metrics endpoint.
package httpserver
