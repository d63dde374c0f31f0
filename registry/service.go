package registry

import (
	"reflect"

	"github.com/kbukum/lifescope/errors"
)

// DefaultTag is the tag of services registered without one.
const DefaultTag = ""

// Factory builds a service instance on first access.
type Factory func() (any, error)

// Service is a registered (type, tag, scope) binding to an instance or a factory.
type Service struct {
	Type  reflect.Type
	Tag   string
	Scope Scope

	instance     any
	factory      Factory
	materialized bool
}

// NewInstance returns a service bound to an existing instance.
func NewInstance(serviceType reflect.Type, tag string, scope Scope, instance any) *Service {
	return &Service{
		Type:         serviceType,
		Tag:          tag,
		Scope:        scope,
		instance:     instance,
		materialized: true,
	}
}

// NewFactory returns a service whose instance is built by factory on first access.
func NewFactory(serviceType reflect.Type, tag string, scope Scope, factory Factory) *Service {
	return &Service{
		Type:    serviceType,
		Tag:     tag,
		Scope:   scope,
		factory: factory,
	}
}

// Instance returns the service instance, running the factory on first access.
// A successful factory result is memoized, so every later call returns the
// same instance. A failed factory is retried on the next access.
func (s *Service) Instance() (any, error) {
	if s.materialized {
		return s.instance, nil
	}

	instance, err := s.factory()
	if err != nil {
		return nil, errors.FactoryFailed(s.Type.String(), err)
	}
	if instance != nil {
		if actual := reflect.TypeOf(instance); !actual.AssignableTo(s.Type) {
			return nil, errors.TypeMismatch(s.Type.String(), actual.String())
		}
	}

	s.instance = instance
	s.materialized = true
	s.factory = nil
	return instance, nil
}

// Materialized reports whether the instance exists yet.
func (s *Service) Materialized() bool { return s.materialized }
