// Package api is the REST client for the players backend.
//
// It implements the snapshot side of the roster engine (Fetch) and the
// remote half of every player command. Non-2xx answers surface as
// *StatusError so callers can inspect the status code.
package api
