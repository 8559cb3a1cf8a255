package reconcile

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrSnapshotFetchFailed reports that the initial snapshot could not be loaded.
	ErrSnapshotFetchFailed = errors.New("snapshot fetch failed")
	// ErrEventDecodeFailed reports a single inbound event payload that could not be parsed.
	ErrEventDecodeFailed = errors.New("event decode failed")
	// ErrCommandFailed reports a remote create, update or delete call that failed.
	ErrCommandFailed = errors.New("command failed")
	// ErrTransportClosed reports that the live event subscription ended.
	ErrTransportClosed = errors.New("transport closed")
	// ErrStopped is returned by engine operations after Stop.
	ErrStopped = errors.New("engine stopped")
)

// Kind identifies the variant of an Event.
type Kind int

const (
	// KindAdded means a new entity now exists remotely.
	KindAdded Kind = iota + 1
	// KindDeleted means the entity with Key no longer exists remotely.
	KindDeleted
	// KindUpdated means an existing entity's fields changed.
	KindUpdated
)

func (k Kind) String() string {
	switch k {
	case KindAdded:
		return "added"
	case KindDeleted:
		return "deleted"
	case KindUpdated:
		return "updated"
	default:
		return "unknown"
	}
}

// Event is one incremental change delivered by the live event source.
// Entity is set for Added and Updated, Key for Deleted.
type Event[K comparable, T any] struct {
	Kind   Kind
	Key    K
	Entity T
}

// Added builds an Added event.
func Added[K comparable, T any](entity T) Event[K, T] {
	return Event[K, T]{Kind: KindAdded, Entity: entity}
}

// Deleted builds a Deleted event.
func Deleted[K comparable, T any](key K) Event[K, T] {
	return Event[K, T]{Kind: KindDeleted, Key: key}
}

// Updated builds an Updated event.
func Updated[K comparable, T any](entity T) Event[K, T] {
	return Event[K, T]{Kind: KindUpdated, Entity: entity}
}

// View is an immutable published state of the engine.
type View[T any] struct {
	// Version increases by one with every published view.
	Version uint64 `json:"version"`
	// Entities is the authoritative list in arrival order.
	Entities []T `json:"entities"`
	// Loading is true only while the initial snapshot is being fetched.
	Loading bool `json:"loading"`
	// Error is the most recent unrecovered failure message, empty if none.
	Error string `json:"error,omitempty"`
}

// Snapshotter fetches the full current list of entities.
type Snapshotter[T any] interface {
	Fetch(ctx context.Context) ([]T, error)
}

// Subscriber opens the live event stream. The returned channel is closed
// when the subscription ends.
type Subscriber[K comparable, T any] interface {
	Subscribe(ctx context.Context) (<-chan Event[K, T], error)
}

// KeyFunc extracts the identity of an entity.
type KeyFunc[K comparable, T any] func(T) K

// Spec bundles the collaborators and settings of an Engine.
type Spec[K comparable, T any] struct {
	// Snapshots loads the initial authoritative list.
	Snapshots Snapshotter[T]

	// Events opens the live event subscription.
	Events Subscriber[K, T]

	// Key extracts entity identity.
	Key KeyFunc[K, T]

	// ErrorTTL is how long a surfaced error stays visible before it is
	// cleared automatically. Zero keeps errors until ClearError.
	ErrorTTL time.Duration

	// SnapshotErrorPrefix prefixes surfaced snapshot failures.
	SnapshotErrorPrefix string

	// Logger receives engine diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger
}
