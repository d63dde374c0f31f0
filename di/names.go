package di

import (
	"reflect"
	"strings"

	"github.com/kbukum/lifescope/errors"
	"github.com/kbukum/lifescope/registry"
)

// Go cannot load a type from its name at runtime, so the container keeps a
// catalog of every type it has seen: registered service types, constructor
// results, resolved clients and their levels, and types passed to Declare.
// Each type is reachable by its reflect name ("*game.Warrior") and by its
// package-qualified name ("*github.com/acme/game.Warrior").

// typeNames returns the names t is catalogued under.
func typeNames(t reflect.Type) []string {
	names := []string{t.String()}
	if q := qualifiedName(t); q != "" && q != names[0] {
		names = append(names, q)
	}
	return names
}

func qualifiedName(t reflect.Type) string {
	prefix := ""
	for t.Kind() == reflect.Pointer && t.Name() == "" {
		prefix += "*"
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return ""
	}
	return prefix + t.PkgPath() + "." + t.Name()
}

func (c *Container) declare(t reflect.Type) {
	for _, name := range typeNames(t) {
		if _, ok := c.types[name]; !ok {
			c.types[name] = t
		}
	}
	if len(c.pendingNames) > 0 {
		c.isCacheable(t)
	}
}

// Declare makes t available to the by-name operations.
func (c *Container) Declare(t reflect.Type) error {
	if err := c.requireInitialized("Declare"); err != nil {
		return err
	}
	if t == nil {
		return c.fail(errors.InvalidArgument("type", "type is nil"))
	}
	c.declare(t)
	return nil
}

// LookupType returns the catalogued type called name.
func (c *Container) LookupType(name string) (reflect.Type, error) {
	if err := c.requireInitialized("LookupType"); err != nil {
		return nil, err
	}
	t, err := c.typeByName(name)
	if err != nil {
		return nil, c.fail(err)
	}
	return t, nil
}

func (c *Container) typeByName(name string) (reflect.Type, error) {
	name = strings.TrimSpace(name)
	if t, ok := c.types[name]; ok {
		return t, nil
	}
	return nil, errors.TypeNotFound(name)
}

// RegisterByName registers instance under the catalogued type called name.
// It fails with TYPE_NOT_FOUND for unknown names and TYPE_MISMATCH when
// instance is not assignable to the type.
func (c *Container) RegisterByName(name string, instance any, opts ...RegisterOption) error {
	if err := c.requireInitialized("RegisterByName"); err != nil {
		return err
	}
	t, err := c.typeByName(name)
	if err != nil {
		return c.fail(err)
	}
	return c.Register(t, instance, opts...)
}

// RegisterFactoryByName registers factory under the catalogued type called name.
func (c *Container) RegisterFactoryByName(name string, factory registry.Factory, opts ...RegisterOption) error {
	if err := c.requireInitialized("RegisterFactoryByName"); err != nil {
		return err
	}
	t, err := c.typeByName(name)
	if err != nil {
		return c.fail(err)
	}
	return c.RegisterFactory(t, factory, opts...)
}

// ConstructByName constructs the catalogued type called name.
func (c *Container) ConstructByName(name string) (any, error) {
	if err := c.requireInitialized("ConstructByName"); err != nil {
		return nil, err
	}
	t, err := c.typeByName(name)
	if err != nil {
		return nil, c.fail(err)
	}
	return c.Construct(t)
}
