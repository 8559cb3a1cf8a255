// Package loader provides the plugin-like feature loading system.
//
// Each feature implements the Feature interface and is registered on a
// Manager, which mounts the enabled ones in registration order.
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// The players presentation API and the roster export status endpoint are
// both mounted this way.
package loader
