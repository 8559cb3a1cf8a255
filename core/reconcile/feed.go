package reconcile

import (
	"sync"

	"github.com/google/uuid"
)

// Feed fans out published values to any number of observers.
// Every observer receives every value published after it subscribed, in
// publish order, starting with the latest value at subscription time.
// Slow observers are buffered, never dropped.
type Feed[V any] struct {
	mu        sync.Mutex
	last      V
	observers map[string]*Observation[V]
	closed    bool
}

// NewFeed creates a feed whose latest value is initial.
func NewFeed[V any](initial V) *Feed[V] {
	return &Feed[V]{
		last:      initial,
		observers: make(map[string]*Observation[V]),
	}
}

// Last returns the most recently published value.
func (f *Feed[V]) Last() V {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// Publish records v as the latest value and queues it for every observer.
func (f *Feed[V]) Publish(v V) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.last = v
	for _, o := range f.observers {
		o.push(v)
	}
}

// Subscribe registers a new observer. On a closed feed the observation
// delivers the last value and then closes.
func (f *Feed[V]) Subscribe() *Observation[V] {
	f.mu.Lock()
	defer f.mu.Unlock()

	o := newObservation[V](uuid.NewString(), f.remove)
	o.push(f.last)
	if f.closed {
		o.finish()
		return o
	}
	f.observers[o.id] = o
	return o
}

// Len returns the number of active observers.
func (f *Feed[V]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.observers)
}

// Close stops accepting values. Observers drain what is queued and then
// their channels close.
func (f *Feed[V]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for id, o := range f.observers {
		o.finish()
		delete(f.observers, id)
	}
}

func (f *Feed[V]) remove(id string) {
	f.mu.Lock()
	delete(f.observers, id)
	f.mu.Unlock()
}

// Observation is one observer's handle on a Feed.
type Observation[V any] struct {
	id       string
	out      chan V
	signal   chan struct{}
	done     chan struct{}
	onCancel func(string)

	mu       sync.Mutex
	queue    []V
	finished bool

	cancelOnce sync.Once
}

func newObservation[V any](id string, onCancel func(string)) *Observation[V] {
	o := &Observation[V]{
		id:       id,
		out:      make(chan V),
		signal:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		onCancel: onCancel,
	}
	go o.pump()
	return o
}

// ID returns the unique identifier of this observation.
func (o *Observation[V]) ID() string { return o.id }

// C returns the channel values are delivered on. It is closed after Cancel
// or after the feed closes and the queue is drained.
func (o *Observation[V]) C() <-chan V { return o.out }

// Cancel detaches the observer. Multiple calls are safe.
func (o *Observation[V]) Cancel() {
	o.cancelOnce.Do(func() {
		close(o.done)
		o.onCancel(o.id)
	})
}

func (o *Observation[V]) push(v V) {
	o.mu.Lock()
	o.queue = append(o.queue, v)
	o.mu.Unlock()
	o.wake()
}

func (o *Observation[V]) finish() {
	o.mu.Lock()
	o.finished = true
	o.mu.Unlock()
	o.wake()
}

func (o *Observation[V]) wake() {
	select {
	case o.signal <- struct{}{}:
	default:
	}
}

func (o *Observation[V]) pump() {
	defer close(o.out)
	for {
		o.mu.Lock()
		if len(o.queue) == 0 {
			finished := o.finished
			o.mu.Unlock()
			if finished {
				return
			}
			select {
			case <-o.signal:
				continue
			case <-o.done:
				return
			}
		}
		v := o.queue[0]
		var zero V
		o.queue[0] = zero
		o.queue = o.queue[1:]
		o.mu.Unlock()

		select {
		case o.out <- v:
		case <-o.done:
			return
		}
	}
}
