// Package live is the WebSocket client for the players event feed.
//
// A Source implements the subscription side of the roster engine. Each text
// frame is decoded with the models codec; malformed frames are reported to
// the decode error handler and skipped, unknown types are skipped silently.
// Reconnection is handled here, not in the engine.
package live
