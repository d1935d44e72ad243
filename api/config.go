// Package api provides the HTTP API for patching, validating and rendering
// UI-DSL trees and for driving chat sessions and their revisions.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// RateLimit is the sustained number of requests per second allowed for
	// each session. Zero disables limiting.
	RateLimit float64

	// RateBurst is the number of requests a session may make at once.
	RateBurst int
}
