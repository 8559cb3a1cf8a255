// Package remote holds the connection settings for the remote players service.
//
// The REST snapshot/command client and the WebSocket event source both read
// their endpoints and timeouts from Config. NewHTTPClient builds the shared
// HTTP client with the same strict transport timeouts the storage client uses.
package remote
