package reconcile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type msg interface{ isEngineMsg() }

type startLoading struct{}

type snapshotResult[T any] struct {
	entities []T
	err      error
}

type applyEvent[K comparable, T any] struct {
	event Event[K, T]
	reply chan bool // optional
}

type setError struct {
	message string
	reply   chan struct{}
}

// clearError with gen 0 clears unconditionally; otherwise only the error
// armed with that generation is cleared.
type clearError struct {
	gen   uint64
	reply chan struct{}
}

func (startLoading) isEngineMsg()      {}
func (snapshotResult[T]) isEngineMsg() {}
func (applyEvent[K, T]) isEngineMsg()  {}
func (setError) isEngineMsg()          {}
func (clearError) isEngineMsg()        {}

// Engine maintains the authoritative list of entities as the merge of one
// snapshot and the live event stream, and publishes a View after every change.
//
// All mutations go through a single loop goroutine. Readers only ever see
// published copies.
type Engine[K comparable, T any] struct {
	spec   Spec[K, T]
	logger *zap.Logger

	inbox  chan msg
	ctx    context.Context
	cancel context.CancelFunc
	loopWG sync.WaitGroup
	pumpWG sync.WaitGroup

	lifecycle sync.Mutex
	started   atomic.Bool
	pumping   atomic.Bool
	dropped   atomic.Uint64
	stopOnce  sync.Once
	startOnce sync.Once

	feed *Feed[View[T]]

	// Owned by the loop goroutine.
	entities []T
	index    map[K]int
	loading  bool
	settled  bool
	pending  []Event[K, T]
	errMsg   string
	errGen   uint64
	errTimer *time.Timer
	version  uint64
}

// NewEngine creates an engine and starts its apply loop. Nothing is fetched
// or subscribed until Start.
func NewEngine[K comparable, T any](parent context.Context, spec Spec[K, T]) *Engine[K, T] {
	ctx, cancel := context.WithCancel(parent)

	logger := spec.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if spec.SnapshotErrorPrefix == "" {
		spec.SnapshotErrorPrefix = "failed to load entities"
	}

	e := &Engine[K, T]{
		spec:   spec,
		logger: logger,
		inbox:  make(chan msg, 64),
		ctx:    ctx,
		cancel: cancel,
		feed:   NewFeed(View[T]{Entities: []T{}}),
		index:  make(map[K]int),
	}

	e.loopWG.Add(1)
	go e.loop()
	return e
}

// Start fetches the snapshot and opens the live subscription concurrently.
// Only the first call has an effect.
func (e *Engine[K, T]) Start() {
	e.startOnce.Do(func() {
		if e.ctx.Err() != nil {
			return
		}
		e.started.Store(true)
		if !e.post(startLoading{}) {
			return
		}

		go e.fetchSnapshot()
		e.Resubscribe()
	})
}

// Resubscribe opens a new live subscription if none is active. It lets a
// caller restart the event stream after the transport closed; events keep
// merging into the existing list.
func (e *Engine[K, T]) Resubscribe() {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	if !e.started.Load() || e.ctx.Err() != nil {
		return
	}
	if !e.pumping.CompareAndSwap(false, true) {
		return
	}
	e.pumpWG.Add(1)
	go e.pump()
}

// Apply merges a single event and waits until it has been applied. It
// reports whether the authoritative list changed.
func (e *Engine[K, T]) Apply(event Event[K, T]) (bool, error) {
	reply := make(chan bool, 1)
	if !e.post(applyEvent[K, T]{event: event, reply: reply}) {
		return false, ErrStopped
	}
	select {
	case changed := <-reply:
		return changed, nil
	case <-e.ctx.Done():
		return false, ErrStopped
	}
}

// SetError surfaces message in the view's error slot.
func (e *Engine[K, T]) SetError(message string) error {
	reply := make(chan struct{})
	if !e.post(setError{message: message, reply: reply}) {
		return ErrStopped
	}
	return e.wait(reply)
}

// ClearError empties the view's error slot.
func (e *Engine[K, T]) ClearError() error {
	reply := make(chan struct{})
	if !e.post(clearError{reply: reply}) {
		return ErrStopped
	}
	return e.wait(reply)
}

// ReportDecodeFailure records an inbound payload that could not be parsed.
// The payload is dropped; state and the error slot are untouched.
func (e *Engine[K, T]) ReportDecodeFailure(err error) {
	e.dropped.Add(1)
	e.logger.Warn("Dropping undecodable event", zap.Error(fmt.Errorf("%w: %w", ErrEventDecodeFailed, err)))
}

// Dropped returns how many inbound payloads were dropped as undecodable.
func (e *Engine[K, T]) Dropped() uint64 {
	return e.dropped.Load()
}

// View returns the latest published view.
func (e *Engine[K, T]) View() View[T] {
	return e.feed.Last()
}

// Subscribe returns an observation receiving the current view followed by
// every later view.
func (e *Engine[K, T]) Subscribe() *Observation[View[T]] {
	return e.feed.Subscribe()
}

// Done is closed once Stop is called or the parent context ends.
func (e *Engine[K, T]) Done() <-chan struct{} {
	return e.ctx.Done()
}

// Stop closes the live subscription and the apply loop. It is safe to call
// more than once and before Start. A snapshot still in flight is discarded.
func (e *Engine[K, T]) Stop() {
	e.stopOnce.Do(func() {
		e.lifecycle.Lock()
		e.cancel()
		e.lifecycle.Unlock()

		e.pumpWG.Wait()
		e.loopWG.Wait()
		e.logger.Debug("Engine stopped")
	})
}

func (e *Engine[K, T]) post(m msg) bool {
	if e.ctx.Err() != nil {
		return false
	}
	select {
	case e.inbox <- m:
		return true
	case <-e.ctx.Done():
		return false
	}
}

func (e *Engine[K, T]) wait(reply chan struct{}) error {
	select {
	case <-reply:
		return nil
	case <-e.ctx.Done():
		return ErrStopped
	}
}

func (e *Engine[K, T]) fetchSnapshot() {
	entities, err := e.spec.Snapshots.Fetch(e.ctx)
	if e.ctx.Err() != nil {
		return
	}
	e.post(snapshotResult[T]{entities: entities, err: err})
}

func (e *Engine[K, T]) pump() {
	defer e.pumpWG.Done()
	defer e.pumping.Store(false)

	events, err := e.spec.Events.Subscribe(e.ctx)
	if err != nil {
		e.logger.Warn("Failed to open event subscription", zap.Error(err))
		return
	}

	for {
		select {
		case <-e.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				e.logger.Warn("Event subscription ended", zap.Error(ErrTransportClosed))
				return
			}
			if !e.post(applyEvent[K, T]{event: ev}) {
				return
			}
		}
	}
}

func (e *Engine[K, T]) loop() {
	defer e.loopWG.Done()
	defer e.feed.Close()
	defer e.stopErrorTimer()

	for {
		select {
		case <-e.ctx.Done():
			return

		case m := <-e.inbox:
			// Nothing mutates after Stop, even if messages are still queued.
			if e.ctx.Err() != nil {
				return
			}

			switch msg := m.(type) {
			case startLoading:
				e.loading = true
				e.publish()

			case snapshotResult[T]:
				e.landSnapshot(msg.entities, msg.err)

			case applyEvent[K, T]:
				changed := e.handleEvent(msg.event)
				if msg.reply != nil {
					msg.reply <- changed
				}

			case setError:
				e.raiseError(msg.message)
				close(msg.reply)

			case clearError:
				if msg.gen == 0 || msg.gen == e.errGen {
					e.dropError()
				}
				if msg.reply != nil {
					close(msg.reply)
				}
			}
		}
	}
}

func (e *Engine[K, T]) handleEvent(ev Event[K, T]) bool {
	if e.loading && !e.settled {
		e.pending = append(e.pending, ev)
	}
	if !e.merge(ev) {
		return false
	}
	e.publish()
	return true
}

// merge applies one event to the authoritative list and reports whether it
// changed.
func (e *Engine[K, T]) merge(ev Event[K, T]) bool {
	switch ev.Kind {
	case KindAdded:
		key := e.spec.Key(ev.Entity)
		if _, exists := e.index[key]; exists {
			e.logger.Debug("Ignoring duplicate added event", zap.Any("key", key))
			return false
		}
		e.index[key] = len(e.entities)
		e.entities = append(e.entities, ev.Entity)
		return true

	case KindDeleted:
		pos, exists := e.index[ev.Key]
		if !exists {
			e.logger.Debug("Ignoring delete for unknown key", zap.Any("key", ev.Key))
			return false
		}
		e.entities = slices.Delete(e.entities, pos, pos+1)
		e.reindex()
		return true

	case KindUpdated:
		key := e.spec.Key(ev.Entity)
		pos, exists := e.index[key]
		if !exists {
			e.logger.Debug("Ignoring update for unknown key", zap.Any("key", key))
			return false
		}
		e.entities[pos] = ev.Entity
		return true

	default:
		e.logger.Warn("Ignoring event of unknown kind", zap.Stringer("kind", ev.Kind))
		return false
	}
}

// landSnapshot replaces the list with the snapshot and replays every event
// applied while the fetch was in flight, so events that raced ahead of the
// snapshot are neither lost nor duplicated.
func (e *Engine[K, T]) landSnapshot(entities []T, err error) {
	pending := e.pending
	e.pending = nil
	e.settled = true
	e.loading = false

	if err != nil {
		e.logger.Error("Snapshot fetch failed", zap.Error(err))
		e.raiseError(fmt.Sprintf("%s: %v", e.spec.SnapshotErrorPrefix, err))
		return
	}

	e.entities = make([]T, 0, len(entities))
	e.index = make(map[K]int, len(entities))
	for _, entity := range entities {
		e.merge(Added[K](entity))
	}
	for _, ev := range pending {
		e.merge(ev)
	}

	e.logger.Info("Snapshot loaded",
		zap.Int("entities", len(e.entities)),
		zap.Int("replayed_events", len(pending)))

	e.stopErrorTimer()
	e.errMsg = ""
	e.publish()
}

func (e *Engine[K, T]) raiseError(message string) {
	e.stopErrorTimer()
	e.errGen++
	e.errMsg = message
	e.publish()

	if ttl := e.spec.ErrorTTL; ttl > 0 {
		gen := e.errGen
		e.errTimer = time.AfterFunc(ttl, func() {
			e.post(clearError{gen: gen})
		})
	}
}

func (e *Engine[K, T]) dropError() {
	e.stopErrorTimer()
	if e.errMsg == "" {
		return
	}
	e.errMsg = ""
	e.publish()
}

func (e *Engine[K, T]) stopErrorTimer() {
	if e.errTimer != nil {
		e.errTimer.Stop()
		e.errTimer = nil
	}
}

func (e *Engine[K, T]) reindex() {
	clear(e.index)
	for i, entity := range e.entities {
		e.index[e.spec.Key(entity)] = i
	}
}

func (e *Engine[K, T]) publish() {
	e.version++
	e.feed.Publish(View[T]{
		Version:  e.version,
		Entities: append(make([]T, 0, len(e.entities)), e.entities...),
		Loading:  e.loading,
		Error:    e.errMsg,
	})
}

// IsStopped reports whether err means the engine has stopped.
func IsStopped(err error) bool {
	return errors.Is(err, ErrStopped)
}
