package di

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/kbukum/lifescope/errors"
	"github.com/kbukum/lifescope/logger"
	"github.com/kbukum/lifescope/metadata"
	"github.com/kbukum/lifescope/observability"
)

// compiledCall is a cached resolution. A nil call marks a cached level
// without an injection method.
type compiledCall struct {
	call metadata.Call
}

type dependencyKey struct {
	t   reflect.Type
	tag string
}

// ResolutionCounts reports how often each type was resolved through a
// compiled call and through reflection while recording was on.
type ResolutionCounts struct {
	Cached   map[reflect.Type]int
	Uncached map[reflect.Type]int
}

// ResolveDependenciesOf walks the hierarchy of client, most derived level
// first, and invokes each level's injection method with its dependencies.
// client must be a non-nil pointer to a struct.
func (c *Container) ResolveDependenciesOf(client any) error {
	if err := c.requireInitialized("ResolveDependenciesOf"); err != nil {
		return err
	}
	v := reflect.ValueOf(client)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return c.fail(errors.InvalidArgument("client", fmt.Sprintf("expected a non-nil pointer to a struct, got %T", client)))
	}

	clientType := v.Type()
	for _, level := range c.hierarchy(clientType) {
		if err := c.injectLevel(v, clientType, level); err != nil {
			return c.fail(err)
		}
	}
	return nil
}

func (c *Container) hierarchy(t reflect.Type) []metadata.Level {
	if levels, ok := c.hierarchies[t]; ok {
		return levels
	}
	levels := c.provider.Hierarchy(t)
	c.hierarchies[t] = levels
	c.declare(t)
	for _, l := range levels {
		c.declare(reflect.PointerTo(l.Type))
	}
	return levels
}

func (c *Container) injectLevel(root reflect.Value, clientType reflect.Type, level metadata.Level) error {
	receiver := level.Receiver(root)
	levelType := receiver.Type()
	if entry, ok := c.methodCache[level.Type]; ok {
		if entry.call == nil {
			return nil
		}
		if _, err := entry.call(receiver); err != nil {
			return err
		}
		c.count(levelType, metadata.MethodKind, true)
		return nil
	}

	m, err := c.provider.InjectMethod(level.Type, c.cfg.InjectPrefix)
	if err != nil {
		return err
	}
	cache := c.isCacheable(levelType) || c.isCacheable(level.Type)
	if m == nil {
		if cache {
			c.methodCache[level.Type] = compiledCall{}
		}
		return nil
	}

	args, err := c.resolveArguments(m, c.provider.Parameters(m), clientType)
	if err != nil {
		return err
	}

	if cache {
		call := c.provider.CompileCall(m, args)
		c.methodCache[level.Type] = compiledCall{call: call}
		c.log.Debug("Resolution compiled and cached", logger.Fields(
			logger.FieldDeclaringType, level.Type.String(),
			logger.FieldMember, m.String(),
		))
		if _, err := call(receiver); err != nil {
			return err
		}
		c.count(levelType, metadata.MethodKind, true)
		return nil
	}

	if _, err := c.provider.Invoke(m, receiver, args); err != nil {
		return err
	}
	c.count(levelType, metadata.MethodKind, false)
	return nil
}

// resolveArguments looks up one service per parameter and binds them.
// Optional parameters without a registration get their zero value.
func (c *Container) resolveArguments(m *metadata.Member, params []metadata.Parameter, client reflect.Type) ([]reflect.Value, error) {
	values := make([]reflect.Value, len(params))
	seen := make(map[dependencyKey]string, len(params))
	warned := make(map[dependencyKey]bool)

	for i, p := range params {
		tag, _ := c.provider.TagAnnotation(p)
		key := dependencyKey{t: p.Type, tag: tag}
		if first, dup := seen[key]; dup && !warned[key] {
			warned[key] = true
			c.log.Warn("Duplicate dependency in injection signature", logger.Fields(
				logger.FieldMember, m.String(),
				logger.FieldServiceType, p.Type.String(),
				logger.FieldTag, tag,
				logger.FieldParameter, p.Name,
				"first_parameter", first,
			))
		} else if !dup {
			seen[key] = p.Name
		}

		inst, err := c.lookup(p.Type, tag)
		if err != nil {
			if p.Optional && notRegistered(err) {
				c.log.Debug("Optional dependency not registered", logger.Fields(
					logger.FieldMember, m.String(),
					logger.FieldServiceType, p.Type.String(),
					logger.FieldTag, tag,
					logger.FieldParameter, p.Name,
				))
				continue
			}
			var appErr *errors.AppError
			if stderrors.As(err, &appErr) {
				appErr.WithDetail(logger.FieldParameter, p.Name).WithDetail(logger.FieldMember, m.String())
			}
			return nil, err
		}

		if inst != nil {
			values[i] = reflect.ValueOf(inst)
		}
		c.log.Debug("Dependency resolved", logger.Fields(
			logger.FieldClient, client.String(),
			logger.FieldServiceType, p.Type.String(),
			logger.FieldTag, tag,
			logger.FieldParameter, p.Name,
		))
	}

	return c.provider.Bind(m, params, values)
}

// notRegistered reports whether err is a lookup miss itself, not a failure
// further down the chain such as a factory that could not resolve its own
// dependencies.
func notRegistered(err error) bool {
	return errors.CodeOf(err) == errors.ErrCodeServiceNotFound
}

// Construct builds an instance of t. Constructors are tried greedily, most
// dependencies first; the first one whose dependencies all resolve wins.
// A type with no constructors is instantiated with its zero value (new(T)
// for a pointer type *T).
func (c *Container) Construct(t reflect.Type) (any, error) {
	if err := c.requireInitialized("Construct"); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, c.fail(errors.InvalidArgument("type", "type is nil"))
	}
	v, err := c.construct(t)
	if err != nil {
		return nil, c.fail(err)
	}
	return v.Interface(), nil
}

type candidate struct {
	member *metadata.Member
	params []metadata.Parameter
}

func (c *Container) construct(t reflect.Type) (reflect.Value, error) {
	if entry, ok := c.ctorCache[t]; ok {
		v, err := entry.call(reflect.Value{})
		if err != nil {
			return reflect.Value{}, err
		}
		c.count(t, metadata.ConstructorKind, true)
		return v, nil
	}

	c.declare(t)
	cache := c.isCacheable(t)
	ctors := c.provider.Constructors(t)
	if len(ctors) == 0 {
		return c.instantiate(t, cache)
	}

	candidates := make([]candidate, len(ctors))
	for i, m := range ctors {
		candidates[i] = candidate{member: m, params: c.provider.Parameters(m)}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].params) > len(candidates[j].params)
	})

	var lastErr error
	for _, cand := range candidates {
		args, err := c.resolveArguments(cand.member, cand.params, t)
		if err != nil {
			if notRegistered(err) {
				lastErr = err
				continue
			}
			return reflect.Value{}, err
		}

		if cache {
			call := c.provider.CompileCall(cand.member, args)
			c.ctorCache[t] = compiledCall{call: call}
			c.log.Debug("Resolution compiled and cached", logger.Fields(
				logger.FieldDeclaringType, t.String(),
				logger.FieldMember, cand.member.String(),
			))
			v, err := call(reflect.Value{})
			if err != nil {
				return reflect.Value{}, err
			}
			c.count(t, metadata.ConstructorKind, true)
			return v, nil
		}

		v, err := c.provider.Invoke(cand.member, reflect.Value{}, args)
		if err != nil {
			return reflect.Value{}, err
		}
		c.count(t, metadata.ConstructorKind, false)
		return v, nil
	}

	return reflect.Value{}, errors.UnresolvableConstructor(t.String(), len(candidates)).WithCause(lastErr)
}

// instantiate is the parameterless path for types without constructors.
func (c *Container) instantiate(t reflect.Type, cache bool) (reflect.Value, error) {
	var call metadata.Call
	switch t.Kind() {
	case reflect.Interface:
		return reflect.Value{}, errors.UnresolvableConstructor(t.String(), 0).
			WithDetail("reason", "interface types need a registered constructor")
	case reflect.Pointer:
		elem := t.Elem()
		call = func(reflect.Value) (reflect.Value, error) { return reflect.New(elem), nil }
	default:
		call = func(reflect.Value) (reflect.Value, error) { return reflect.New(t).Elem(), nil }
	}

	if cache {
		c.ctorCache[t] = compiledCall{call: call}
	}
	v, _ := call(reflect.Value{})
	c.count(t, metadata.ConstructorKind, cache)
	return v, nil
}

// CacheResolution adds t to the compile whitelist. Injection levels match
// by struct or pointer type, constructors by the type they return.
func (c *Container) CacheResolution(t reflect.Type) error {
	if err := c.requireInitialized("CacheResolution"); err != nil {
		return err
	}
	if t == nil {
		return c.fail(errors.InvalidArgument("type", "type is nil"))
	}
	c.whitelist(t)
	return nil
}

// CacheResolutionByName whitelists a type by name. Names the container
// has not seen yet are kept and matched as types show up.
func (c *Container) CacheResolutionByName(name string) error {
	if err := c.requireInitialized("CacheResolutionByName"); err != nil {
		return err
	}
	if name == "" {
		return c.fail(errors.InvalidArgument("name", "type name is empty"))
	}
	c.cacheByName(name)
	return nil
}

func (c *Container) cacheByName(name string) {
	if t, ok := c.types[name]; ok {
		c.whitelist(t)
		return
	}
	c.pendingNames[name] = true
}

func (c *Container) whitelist(t reflect.Type) {
	c.declare(t)
	if c.cacheable[t] {
		return
	}
	c.cacheable[t] = true
	c.log.Debug("Type added to resolution cache whitelist", logger.Fields(
		logger.FieldServiceType, t.String(),
	))
}

func (c *Container) isCacheable(t reflect.Type) bool {
	if c.cacheable[t] {
		return true
	}
	if len(c.pendingNames) == 0 {
		return false
	}
	for _, name := range typeNames(t) {
		if c.pendingNames[name] {
			delete(c.pendingNames, name)
			c.whitelist(t)
			return true
		}
	}
	return false
}

func (c *Container) count(t reflect.Type, kind metadata.Kind, cached bool) {
	path := observability.PathReflect
	if cached {
		path = observability.PathCached
	}
	c.metrics.RecordResolution(context.Background(), t.String(), kind.String(), path)

	if !c.recording {
		return
	}
	if cached {
		c.cached[t]++
	} else {
		c.uncached[t]++
	}
}

// SetRecordingResolutions turns resolution counters on or off. Turning
// recording off clears the counters.
func (c *Container) SetRecordingResolutions(on bool) error {
	if err := c.requireInitialized("SetRecordingResolutions"); err != nil {
		return err
	}
	c.recording = on
	if !on {
		c.cached = make(map[reflect.Type]int)
		c.uncached = make(map[reflect.Type]int)
	}
	return nil
}

// RecordingResolutions reports whether counters are being recorded.
func (c *Container) RecordingResolutions() bool { return c.recording }

// ResolutionCounts returns a copy of the counters.
func (c *Container) ResolutionCounts() (ResolutionCounts, error) {
	if err := c.requireInitialized("ResolutionCounts"); err != nil {
		return ResolutionCounts{}, err
	}
	counts := ResolutionCounts{
		Cached:   make(map[reflect.Type]int, len(c.cached)),
		Uncached: make(map[reflect.Type]int, len(c.uncached)),
	}
	for t, n := range c.cached {
		counts.Cached[t] = n
	}
	for t, n := range c.uncached {
		counts.Uncached[t] = n
	}
	return counts, nil
}
