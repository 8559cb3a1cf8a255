// Package backend is a reference players backend the roster client can run
// against.
//
// It persists players with GORM and announces every committed change as a
// PlayerAdded, PlayerUpdated or PlayerDeleted frame on /ws/players.
//
// # HTTP Endpoints
//
//   - GET /players
//   - POST /players (201 with the created player)
//   - PUT /players/{id}
//   - DELETE /players/{id}
//   - POST /register_fcm_token
//   - GET /healthz
//   - GET /ws/players (WebSocket event feed)
package backend
