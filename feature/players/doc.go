// Package players wires the player roster together: the reconciliation
// engine specialised to players, the command dispatcher and the HTTP
// presentation layer.
//
// # Command Flow
//
// Commands are forwarded to the backend and never applied locally. A
// successful create shows up in the roster only when the matching
// PlayerAdded event arrives on the live feed. A failed command surfaces a
// message in the view's error slot, which clears itself after the configured
// display time or on DELETE /players/error.
//
// # HTTP Endpoints
//
//   - GET /players : Current roster view.
//   - POST /players : Create a player (202 Accepted).
//   - PUT /players/:id : Update a player (202 Accepted).
//   - DELETE /players/:id : Delete a player (202 Accepted).
//   - DELETE /players/error : Dismiss the surfaced error.
//   - POST /players/fcm-token : Register a push token.
package players
