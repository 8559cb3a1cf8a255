// Package server holds the HTTP server configuration.
//
// While the cmd package handles server startup, this package defines the
// listen ports for the presentation API and the reference players backend,
// and the API key protecting the presentation API.
package server
