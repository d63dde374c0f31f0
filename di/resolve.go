package di

import (
	"fmt"
	"reflect"

	"github.com/kbukum/lifescope/errors"
)

// TypeOf returns the reflect.Type of T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Register binds instance to T.
//
// Example:
//
//	di.Register[Weapon](c, &Sword{}, di.WithTag("primary"))
func Register[T any](c *Container, instance T, opts ...RegisterOption) error {
	return c.Register(TypeOf[T](), instance, opts...)
}

// RegisterFactory binds T to a typed factory.
func RegisterFactory[T any](c *Container, factory func() (T, error), opts ...RegisterOption) error {
	if factory == nil {
		return c.RegisterFactory(TypeOf[T](), nil, opts...)
	}
	return c.RegisterFactory(TypeOf[T](), func() (any, error) {
		return factory()
	}, opts...)
}

// Resolve resolves a service with type safety, returns error on failure.
//
// Example:
//
//	sword, err := di.Resolve[Weapon](c, "primary")
//	if err != nil {
//	    return fmt.Errorf("failed to get weapon: %w", err)
//	}
func Resolve[T any](c *Container, tag string) (T, error) {
	var zero T
	instance, err := c.Resolve(TypeOf[T](), tag)
	if err != nil {
		return zero, err
	}
	result, ok := instance.(T)
	if !ok {
		return zero, errors.TypeMismatch(TypeOf[T]().String(), fmt.Sprintf("%T", instance))
	}
	return result, nil
}

// MustResolve resolves a service with type safety, panics on error.
func MustResolve[T any](c *Container, tag string) T {
	result, err := Resolve[T](c, tag)
	if err != nil {
		panic(fmt.Sprintf("di: failed to resolve %s: %v", TypeOf[T](), err))
	}
	return result
}

// TryResolve resolves a service, returns zero value and false if not found.
//
// Example:
//
//	if shield, ok := di.TryResolve[*Shield](c, ""); ok {
//	    shield.Raise()
//	}
func TryResolve[T any](c *Container, tag string) (T, bool) {
	result, err := Resolve[T](c, tag)
	if err != nil {
		return result, false
	}
	return result, true
}

// Construct builds a T through the constructor catalog.
func Construct[T any](c *Container) (T, error) {
	var zero T
	instance, err := c.Construct(TypeOf[T]())
	if err != nil {
		return zero, err
	}
	result, ok := instance.(T)
	if !ok {
		return zero, errors.TypeMismatch(TypeOf[T]().String(), fmt.Sprintf("%T", instance))
	}
	return result, nil
}

// MustConstruct builds a T, panics on error.
func MustConstruct[T any](c *Container) T {
	result, err := Construct[T](c)
	if err != nil {
		panic(fmt.Sprintf("di: failed to construct %s: %v", TypeOf[T](), err))
	}
	return result
}

// CacheResolution whitelists T for compiled resolutions.
func CacheResolution[T any](c *Container) error {
	return c.CacheResolution(TypeOf[T]())
}

// Declare makes T available to the by-name operations.
func Declare[T any](c *Container) error {
	return c.Declare(TypeOf[T]())
}
