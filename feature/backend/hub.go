package backend

import (
	"context"
	"fmt"

	"roster-sync/feature/players/models"

	"go.uber.org/zap"
)

// HubMsg is a message handled by the hub loop.
type HubMsg interface{ isHubMsg() }

// Join registers a client outbox. Payloads are encoded event frames.
type Join struct {
	ClientID string
	Outbox   chan []byte
}

// Leave unregisters a client and closes its outbox.
type Leave struct {
	ClientID string
}

// Broadcast delivers a frame to every client.
type Broadcast struct {
	Payload []byte
}

// CountClients reports the number of connected clients.
type CountClients struct {
	Reply chan int
}

func (Join) isHubMsg()         {}
func (Leave) isHubMsg()        {}
func (Broadcast) isHubMsg()    {}
func (CountClients) isHubMsg() {}

// Hub fans event frames out to every connected WebSocket client.
// Clients whose outbox is full are dropped.
type Hub struct {
	inbox   chan HubMsg
	clients map[string]chan []byte
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	logger  *zap.Logger
}

// NewHub creates a hub and starts its loop.
func NewHub(parent context.Context, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		clients: make(map[string]chan []byte),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		logger:  logger,
	}
	go h.loop()
	return h
}

// Send posts a message to the hub. It returns false once the hub has stopped.
func (h *Hub) Send(m HubMsg) bool {
	if h.ctx.Err() != nil {
		return false
	}
	select {
	case h.inbox <- m:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Publish encodes ev and broadcasts it.
func (h *Hub) Publish(ev models.Event) error {
	payload, err := models.EncodeEvent(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if !h.Send(Broadcast{Payload: payload}) {
		return context.Canceled
	}
	return nil
}

// Clients returns the number of connected clients, or 0 after Shutdown.
func (h *Hub) Clients() int {
	reply := make(chan int, 1)
	if !h.Send(CountClients{Reply: reply}) {
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-h.ctx.Done():
		return 0
	}
}

// Shutdown stops the loop and closes every client outbox.
func (h *Hub) Shutdown() {
	h.cancel()
	<-h.done
}

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Join:
				h.clients[msg.ClientID] = msg.Outbox
				h.logger.Debug("Client joined", zap.String("client_id", msg.ClientID), zap.Int("clients", len(h.clients)))

			case Leave:
				if ch, ok := h.clients[msg.ClientID]; ok {
					close(ch)
					delete(h.clients, msg.ClientID)
				}

			case Broadcast:
				h.broadcast(msg.Payload)

			case CountClients:
				msg.Reply <- len(h.clients)
			}
		}
	}
}

func (h *Hub) broadcast(payload []byte) {
	for id, ch := range h.clients {
		select {
		case ch <- payload:
		default:
			h.logger.Warn("Dropping slow client", zap.String("client_id", id))
			close(ch)
			delete(h.clients, id)
		}
	}
}

func (h *Hub) shutdown() {
	for id, ch := range h.clients {
		close(ch)
		delete(h.clients, id)
	}
}
