// Package registry stores lifescope services keyed by scope, type and tag.
//
// A Service wraps either a ready instance or a zero-argument factory that is
// materialized on first access and memoized afterwards. Services are grouped
// into scopes so that everything registered for a level, screen or session
// can be dropped with a single Unregister call.
//
// Lookup searches scopes most-recently-registered first and the global scope
// last. The first scope holding any service of the requested type decides
// the result: the tag is matched only inside that scope's bucket.
//
// The registry is not safe for concurrent use.
package registry
