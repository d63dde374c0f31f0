package registry

import (
	"reflect"
	"sort"

	"github.com/kbukum/lifescope/errors"
	"github.com/kbukum/lifescope/logger"
)

// bucket maps a tag to its service for one (scope, type) pair.
type bucket map[string]*Service

type scopeEntry struct {
	scope    Scope
	services map[reflect.Type]bucket
}

// ServiceInfo describes a registered service for introspection.
type ServiceInfo struct {
	Type         string
	Tag          string
	Scope        Scope
	Materialized bool
}

// Registry holds every registered service, grouped by scope.
type Registry struct {
	scopes map[int]*scopeEntry
	// order lists non-global scope IDs by first registration.
	order []int
	log   *logger.Logger
}

// New creates an empty registry. A nil logger discards events.
func New(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		scopes: make(map[int]*scopeEntry),
		log:    log,
	}
}

// SetLogger replaces the logger used for registry events.
func (r *Registry) SetLogger(log *logger.Logger) {
	if log != nil {
		r.log = log
	}
}

// Register adds svc. It fails with DUPLICATE_REGISTRATION when the
// (scope, type, tag) triple already holds a service, whatever kind either
// registration is.
func (r *Registry) Register(svc *Service) error {
	entry, ok := r.scopes[svc.Scope.ID]
	if !ok {
		entry = &scopeEntry{scope: svc.Scope, services: make(map[reflect.Type]bucket)}
		r.scopes[svc.Scope.ID] = entry
		if !svc.Scope.IsGlobal() {
			r.order = append(r.order, svc.Scope.ID)
		}
	}

	b, ok := entry.services[svc.Type]
	if !ok {
		b = make(bucket)
		entry.services[svc.Type] = b
	}
	if _, exists := b[svc.Tag]; exists {
		return errors.DuplicateRegistration(svc.Type.String(), svc.Tag, entry.scope.String())
	}
	b[svc.Tag] = svc

	fields := logger.Fields(
		logger.FieldServiceType, svc.Type.String(),
		logger.FieldTag, svc.Tag,
		logger.FieldScopeID, entry.scope.ID,
	)
	if entry.scope.Name != "" {
		fields[logger.FieldScope] = entry.scope.Name
	}
	r.log.Info("Service registered", fields)
	return nil
}

// Unregister removes every service registered under scope and returns how
// many were removed. An unknown or already-removed scope only logs a warning.
func (r *Registry) Unregister(scope Scope) (int, error) {
	if scope.IsGlobal() {
		return 0, errors.InvalidArgument("scope", "the global scope lives as long as the container")
	}

	entry, ok := r.scopes[scope.ID]
	if !ok {
		r.log.Warn("Scope not registered; nothing to unregister", logger.Fields(
			logger.FieldScope, scope.Name,
			logger.FieldScopeID, scope.ID,
		))
		return 0, nil
	}

	removed := 0
	for _, b := range entry.services {
		removed += len(b)
	}
	delete(r.scopes, scope.ID)
	for i, id := range r.order {
		if id == scope.ID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.log.Info("Scope unregistered", logger.Fields(
		logger.FieldScope, entry.scope.Name,
		logger.FieldScopeID, entry.scope.ID,
		logger.FieldCount, removed,
	))
	return removed, nil
}

// Lookup returns the service for (serviceType, tag). Scopes are searched
// most-recently-registered first, then the global scope. The first scope
// with any service of serviceType decides: a tag missing from that scope's
// bucket is SERVICE_NOT_FOUND even if another scope holds it.
func (r *Registry) Lookup(serviceType reflect.Type, tag string) (*Service, error) {
	for i := len(r.order) - 1; i >= -1; i-- {
		id := GlobalScopeID
		if i >= 0 {
			id = r.order[i]
		}
		entry, ok := r.scopes[id]
		if !ok {
			continue
		}
		b, ok := entry.services[serviceType]
		if !ok {
			continue
		}
		svc, ok := b[tag]
		if !ok {
			return nil, errors.ServiceNotFound(serviceType.String(), tag).
				WithDetail(logger.FieldScope, entry.scope.String())
		}
		return svc, nil
	}
	return nil, errors.ServiceNotFound(serviceType.String(), tag)
}

// Scopes returns the registered scopes in lookup order.
func (r *Registry) Scopes() []Scope {
	scopes := make([]Scope, 0, len(r.scopes))
	for i := len(r.order) - 1; i >= 0; i-- {
		scopes = append(scopes, r.scopes[r.order[i]].scope)
	}
	if entry, ok := r.scopes[GlobalScopeID]; ok {
		scopes = append(scopes, entry.scope)
	}
	return scopes
}

// Services returns a snapshot of every registration, sorted by scope ID,
// type and tag.
func (r *Registry) Services() []ServiceInfo {
	var result []ServiceInfo
	for _, entry := range r.scopes {
		for _, b := range entry.services {
			for _, svc := range b {
				result = append(result, ServiceInfo{
					Type:         svc.Type.String(),
					Tag:          svc.Tag,
					Scope:        entry.scope,
					Materialized: svc.Materialized(),
				})
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Scope.ID != b.Scope.ID {
			return a.Scope.ID < b.Scope.ID
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Tag < b.Tag
	})
	return result
}

// Len returns the number of registered services.
func (r *Registry) Len() int {
	n := 0
	for _, entry := range r.scopes {
		for _, b := range entry.services {
			n += len(b)
		}
	}
	return n
}

// Clear drops every service in every scope, including the global one.
func (r *Registry) Clear() {
	r.scopes = make(map[int]*scopeEntry)
	r.order = nil
}
