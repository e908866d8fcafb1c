// Package fake defines the interface of the fake servers icnpush can run for
// rehearsing deployments without a real content server.
package fake

import "net/http"

// Info holds metadata about a fake service.
type Info struct {
	Name    string `json:"name"` // "icn"
	Version string `json:"version"`
}

// Service is the interface every fake server must implement.
// Services implement http.Handler directly so they can route however they like.
type Service interface {
	// Info returns service metadata.
	Info() Info

	// Configure passes the env block of the service config.
	Configure(env map[string]string) error

	// ServeHTTP handles HTTP requests (standard http.Handler).
	http.Handler

	// Reset clears all in-memory state.
	Reset() error
}
