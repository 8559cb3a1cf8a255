package models

import (
	"encoding/json"
	"fmt"

	"roster-sync/core/reconcile"
)

// Wire discriminators of the live event feed.
const (
	TypePlayerAdded   = "PlayerAdded"
	TypePlayerDeleted = "PlayerDeleted"
	TypePlayerUpdated = "PlayerUpdated"
)

// Event is a player change as consumed by the reconciliation engine.
type Event = reconcile.Event[int, Player]

// PlayerAdded builds an Added event.
func PlayerAdded(p Player) Event {
	return Event{Kind: reconcile.KindAdded, Key: p.ID, Entity: p}
}

// PlayerDeleted builds a Deleted event.
func PlayerDeleted(id int) Event {
	return Event{Kind: reconcile.KindDeleted, Key: id}
}

// PlayerUpdated builds an Updated event.
func PlayerUpdated(p Player) Event {
	return Event{Kind: reconcile.KindUpdated, Key: p.ID, Entity: p}
}

type wireEvent struct {
	Type   string      `json:"type"`
	Player *wirePlayer `json:"player,omitempty"`
	ID     *int        `json:"id,omitempty"`
}

// wirePlayer uses pointers so missing fields can be told apart from zero values.
type wirePlayer struct {
	ID    *int    `json:"id"`
	Name  *string `json:"name"`
	Age   *int    `json:"age"`
	Email string  `json:"email,omitempty"`
}

// DecodeEvent parses one frame of the live feed. ok is false for a frame of
// an unknown type, which callers should skip whatever its payload looks like.
// Malformed frames of a known type return an error wrapping
// reconcile.ErrEventDecodeFailed.
func DecodeEvent(data []byte) (ev Event, ok bool, err error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Event{}, false, fmt.Errorf("%w: %w", reconcile.ErrEventDecodeFailed, err)
	}

	switch head.Type {
	case TypePlayerAdded, TypePlayerUpdated, TypePlayerDeleted:
	case "":
		return Event{}, false, fmt.Errorf("%w: missing type", reconcile.ErrEventDecodeFailed)
	default:
		return Event{}, false, nil
	}

	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{}, false, fmt.Errorf("%w: %s: %w", reconcile.ErrEventDecodeFailed, head.Type, err)
	}

	if w.Type == TypePlayerDeleted {
		if w.ID == nil {
			return Event{}, false, fmt.Errorf("%w: %s: missing id", reconcile.ErrEventDecodeFailed, w.Type)
		}
		return PlayerDeleted(*w.ID), true, nil
	}

	p, err := w.Player.toPlayer()
	if err != nil {
		return Event{}, false, fmt.Errorf("%w: %s: %w", reconcile.ErrEventDecodeFailed, w.Type, err)
	}
	if w.Type == TypePlayerAdded {
		return PlayerAdded(p), true, nil
	}
	return PlayerUpdated(p), true, nil
}

func (w *wirePlayer) toPlayer() (Player, error) {
	switch {
	case w == nil:
		return Player{}, fmt.Errorf("missing player")
	case w.ID == nil:
		return Player{}, fmt.Errorf("missing player.id")
	case w.Name == nil:
		return Player{}, fmt.Errorf("missing player.name")
	}
	return Player{ID: *w.ID, Name: *w.Name, Age: w.Age, Email: w.Email}, nil
}

// EncodeEvent renders an event in the live feed wire format.
func EncodeEvent(ev Event) ([]byte, error) {
	var w wireEvent
	switch ev.Kind {
	case reconcile.KindAdded, reconcile.KindUpdated:
		w.Type = TypePlayerAdded
		if ev.Kind == reconcile.KindUpdated {
			w.Type = TypePlayerUpdated
		}
		p := ev.Entity
		w.Player = &wirePlayer{ID: &p.ID, Name: &p.Name, Age: p.Age, Email: p.Email}
	case reconcile.KindDeleted:
		id := ev.Key
		w.Type = TypePlayerDeleted
		w.ID = &id
	default:
		return nil, fmt.Errorf("cannot encode event of kind %s", ev.Kind)
	}
	return json.Marshal(w)
}
