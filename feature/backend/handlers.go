package backend

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"roster-sync/feature/players/models"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handlers serves the players REST API and announces every committed change
// on the hub.
type Handlers struct {
	store  *Store
	hub    *Hub
	logger *zap.Logger
}

// NewHandlers creates the REST handlers.
func NewHandlers(store *Store, hub *Hub, logger *zap.Logger) *Handlers {
	return &Handlers{store: store, hub: hub, logger: logger}
}

// ListPlayers returns every stored player ordered by id.
func (h *Handlers) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.store.List(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

// CreatePlayer stores a new player, announces PlayerAdded and answers 201
// with the stored player.
func (h *Handlers) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	var p models.NewPlayer
	if !decode(w, r, &p) {
		return
	}
	if err := p.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.store.Create(r.Context(), p)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.announce(models.PlayerAdded(created))
	writeJSON(w, http.StatusCreated, created)
}

// UpdatePlayer replaces player {id} and announces PlayerUpdated. Unknown ids
// answer 404.
func (h *Handlers) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := playerID(w, r)
	if !ok {
		return
	}
	var p models.NewPlayer
	if !decode(w, r, &p) {
		return
	}
	if err := p.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.store.Update(r.Context(), id, p)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.announce(models.PlayerUpdated(updated))
	writeJSON(w, http.StatusOK, updated)
}

// DeletePlayer removes player {id} and announces PlayerDeleted.
func (h *Handlers) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := playerID(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	h.announce(models.PlayerDeleted(id))
	w.WriteHeader(http.StatusOK)
}

// RegisterToken stores the push token of a user, replacing any earlier one.
func (h *Handlers) RegisterToken(w http.ResponseWriter, r *http.Request) {
	var t models.FCMToken
	if !decode(w, r, &t) {
		return
	}
	if err := t.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.store.SaveToken(r.Context(), t); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// announce must only be called once the store has committed the change.
func (h *Handlers) announce(ev models.Event) {
	if err := h.hub.Publish(ev); err != nil {
		h.logger.Warn("Failed to broadcast event", zap.Stringer("kind", ev.Kind), zap.Error(err))
	}
}

func (h *Handlers) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	h.logger.Error("Store operation failed", zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func playerID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid player id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
