// Package loader registers features and loads their routes.
//
// Each feature implements Feature:
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// The start command registers logs, sync, settings and integrity on a Manager and
// calls LoadAll once middleware is in place.
package loader
