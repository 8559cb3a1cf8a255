package models

import (
	"errors"
	"strings"
)

// ErrInvalidPlayer is returned for a player payload that fails validation
// before any remote call is made.
var ErrInvalidPlayer = errors.New("invalid player")

// Player is a roster entry. ID is assigned by the backend, never locally.
type Player struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Age   *int   `json:"age"`
	Email string `json:"email,omitempty"`
}

// NewPlayer is the payload for creating or updating a player.
type NewPlayer struct {
	Name  string `json:"name"`
	Age   *int   `json:"age"`
	Email string `json:"email,omitempty"`
}

// FCMToken registers a push token for a user.
type FCMToken struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// PlayerKey returns the identity of a player.
func PlayerKey(p Player) int {
	return p.ID
}

// Validate trims the name and rejects payloads the backend would refuse.
func (n *NewPlayer) Validate() error {
	n.Name = strings.TrimSpace(n.Name)
	n.Email = strings.TrimSpace(n.Email)
	if n.Name == "" {
		return errors.Join(ErrInvalidPlayer, errors.New("name is required"))
	}
	if n.Age != nil && *n.Age < 0 {
		return errors.Join(ErrInvalidPlayer, errors.New("age must not be negative"))
	}
	return nil
}

// WithID returns the player the payload describes once it has an id.
func (n NewPlayer) WithID(id int) Player {
	return Player{ID: id, Name: n.Name, Age: n.Age, Email: n.Email}
}

// Validate rejects a registration with a missing user or token.
func (t FCMToken) Validate() error {
	if strings.TrimSpace(t.UserID) == "" || strings.TrimSpace(t.Token) == "" {
		return errors.New("userId and token are required")
	}
	return nil
}
