// Package reconcile provides the client-side read model that merges an
// authoritative snapshot with a live stream of incremental events.
//
// # Architecture
//
// The reconcile system consists of three parts:
//
//  1. Engine: owns the authoritative list. A single loop goroutine applies the
//     snapshot and every event in arrival order, so the list is never touched
//     by two writers at once.
//
//  2. Collaborators: a Snapshotter that loads the full list over
//     request/response and a Subscriber that streams Added, Deleted and
//     Updated events. Both are passed in through Spec; there is no container.
//
//  3. Feed: fans out immutable View copies to any number of observers without
//     dropping transitions.
//
// # Merge Rules
//
//   - Added: appended unless the key is already present (duplicates ignored).
//   - Deleted: removes the key if present; unknown keys are a no-op.
//   - Updated: replaces the entity in place; unknown keys are a no-op.
//
// Events that arrive while the snapshot is still loading are replayed on top
// of it once it lands, so an Added racing its own snapshot row never produces
// two entries for the same key.
//
// # Usage Example
//
//	engine := reconcile.NewEngine(ctx, reconcile.Spec[int, models.Player]{
//	    Snapshots: apiClient,
//	    Events:    liveSource,
//	    Key:       models.PlayerKey,
//	    ErrorTTL:  5 * time.Second,
//	})
//	engine.Start()
//	defer engine.Stop()
//
//	obs := engine.Subscribe()
//	for view := range obs.C() {
//	    render(view)
//	}
package reconcile
