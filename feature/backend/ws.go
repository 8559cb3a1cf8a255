package backend

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	outboxSize   = 32
	writeTimeout = 5 * time.Second
)

// EventsHandler upgrades to a WebSocket and streams every broadcast frame to
// the client. Inbound frames are ignored.
func EventsHandler(h *Hub, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Warn("WebSocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		out := make(chan []byte, outboxSize)
		if !h.Send(Join{ClientID: clientID, Outbox: out}) {
			conn.Close(websocket.StatusGoingAway, "shutting down")
			return
		}
		defer h.Send(Leave{ClientID: clientID})

		// CloseRead discards inbound frames and cancels ctx when the peer goes away.
		ctx := conn.CloseRead(r.Context())

		for {
			select {
			case <-ctx.Done():
				return
			case payload, ok := <-out:
				if !ok {
					conn.Close(websocket.StatusGoingAway, "stream closed")
					return
				}
				if err := write(ctx, conn, payload); err != nil {
					logger.Debug("Client write failed", zap.String("client_id", clientID), zap.Error(err))
					return
				}
			}
		}
	}
}

func write(parent context.Context, conn *websocket.Conn, payload []byte) error {
	ctx, cancel := context.WithTimeout(parent, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}
