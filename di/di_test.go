package di

import (
	"bytes"
	stderrors "errors"
	"reflect"
	"strings"
	"testing"

	"github.com/kbukum/lifescope/errors"
	"github.com/kbukum/lifescope/logger"
	"github.com/kbukum/lifescope/metadata"
)

// Test fixtures: a small game world.

type Weapon interface{ Hit() string }

type Sword struct{ name string }

func (s *Sword) Hit() string { return s.name }

type Bow struct{}

func (b *Bow) Hit() string { return "twang" }

type Shield struct{ armor int }

type Unit struct {
	calls  []string
	shield *Shield
}

func (u *Unit) Inject(shield *Shield) {
	u.shield = shield
	u.calls = append(u.calls, "Unit")
}

type Warrior struct {
	Unit
	weapon Weapon
}

func (w *Warrior) InjectWeapon(weapon Weapon) {
	w.weapon = weapon
	w.calls = append(w.calls, "Warrior")
}

var (
	level1 = NewScope(1, "level-1")
	level2 = NewScope(2, "level-2")
)

func newTestContainer(t *testing.T, opts ...Option) (*Container, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: logger.FormatJSON}, &buf, "di-test")
	c := New(append([]Option{WithLogger(log)}, opts...)...)
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return c, &buf
}

func mustRegister[T any](t *testing.T, c *Container, instance T, opts ...RegisterOption) {
	t.Helper()
	if err := Register[T](c, instance, opts...); err != nil {
		t.Fatalf("Register[%s] failed: %v", TypeOf[T](), err)
	}
}

func assertCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if !errors.IsCode(err, code) {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func TestNewContainer(t *testing.T) {
	c := New()
	if c == nil {
		t.Fatal("expected non-nil container")
	}
	if c.State() != Uninitialized {
		t.Errorf("expected state uninitialized, got %s", c.State())
	}
	if c.ID() == "" {
		t.Error("expected a container id")
	}
	if c.Config().InjectPrefix != DefaultInjectPrefix {
		t.Errorf("expected default inject prefix, got %q", c.Config().InjectPrefix)
	}
}

func TestOperationsRequireInitialize(t *testing.T) {
	c := New()
	swordType := TypeOf[*Sword]()

	checks := map[string]error{
		"Register":              c.Register(swordType, &Sword{}),
		"RegisterConstructor":   c.RegisterConstructor(func() *Sword { return &Sword{} }),
		"ResolveDependenciesOf": c.ResolveDependenciesOf(&Warrior{}),
		"CacheResolution":       c.CacheResolution(swordType),
		"Dispose":               c.Dispose(),
	}
	_, checks["Resolve"] = c.Resolve(swordType, "")
	_, checks["Construct"] = c.Construct(swordType)
	_, checks["UnregisterScope"] = c.UnregisterScope(level1)
	_, checks["ConstructByName"] = c.ConstructByName("*di.Sword")

	for op, err := range checks {
		if !errors.IsCode(err, errors.ErrCodeInvalidState) {
			t.Errorf("%s: expected INVALID_STATE, got %v", op, err)
		}
	}
}

func TestInitializeTwice(t *testing.T) {
	c, _ := newTestContainer(t)
	if c.State() != Initialized {
		t.Fatalf("expected initialized, got %s", c.State())
	}
	assertCode(t, c.Initialize(), errors.ErrCodeInvalidState)
}

func TestInitializeRejectsInvalidConfig(t *testing.T) {
	c := New(WithLogger(logger.Nop()), WithConfig(Config{InjectPrefix: "inject"}))
	if err := c.Initialize(); err == nil {
		t.Fatal("expected validation error for a lower-case inject prefix")
	}
	if c.State() != Uninitialized {
		t.Errorf("expected container to stay uninitialized, got %s", c.State())
	}
}

func TestDispose(t *testing.T) {
	c, _ := newTestContainer(t)
	mustRegister[*Sword](t, c, &Sword{})

	if err := c.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}
	if c.State() != Disposed {
		t.Errorf("expected disposed, got %s", c.State())
	}
	_, err := c.Resolve(TypeOf[*Sword](), "")
	assertCode(t, err, errors.ErrCodeInvalidState)
	assertCode(t, c.Initialize(), errors.ErrCodeInvalidState)
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		Uninitialized: "uninitialized",
		Initialized:   "initialized",
		Disposed:      "disposed",
		State(7):      "State(7)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}

func TestRegisterDuplicate(t *testing.T) {
	tests := []struct {
		name   string
		first  func(*Container) error
		second func(*Container) error
	}{
		{
			"instance then instance",
			func(c *Container) error { return Register[*Sword](c, &Sword{}) },
			func(c *Container) error { return Register[*Sword](c, &Sword{}) },
		},
		{
			"factory then instance",
			func(c *Container) error {
				return RegisterFactory(c, func() (*Sword, error) { return &Sword{}, nil }, InScope(level1))
			},
			func(c *Container) error { return Register[*Sword](c, &Sword{}, InScope(level1)) },
		},
		{
			"instance then factory with tag",
			func(c *Container) error { return Register[*Sword](c, &Sword{}, WithTag("main")) },
			func(c *Container) error {
				return RegisterFactory(c, func() (*Sword, error) { return &Sword{}, nil }, WithTag("main"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContainer(t)
			if err := tt.first(c); err != nil {
				t.Fatalf("first registration failed: %v", err)
			}
			assertCode(t, tt.second(c), errors.ErrCodeDuplicateRegistration)
		})
	}
}

func TestRegisterCoexisting(t *testing.T) {
	c, _ := newTestContainer(t)
	mustRegister[*Sword](t, c, &Sword{name: "global"})
	mustRegister[*Sword](t, c, &Sword{name: "main"}, WithTag("main"))
	mustRegister[*Sword](t, c, &Sword{name: "scoped"}, InScope(level1), WithTag("other"))

	services, err := c.Services()
	if err != nil {
		t.Fatalf("Services failed: %v", err)
	}
	// Three swords plus the logging service.
	if len(services) != 4 {
		t.Errorf("expected 4 services, got %d", len(services))
	}
}

func TestRegisterInvalid(t *testing.T) {
	c, _ := newTestContainer(t)

	assertCode(t, c.Register(nil, &Sword{}), errors.ErrCodeInvalidArgument)
	assertCode(t, c.Register(TypeOf[*Sword](), nil), errors.ErrCodeInvalidArgument)
	assertCode(t, c.Register(TypeOf[*Sword](), &Shield{}), errors.ErrCodeTypeMismatch)
	assertCode(t, c.RegisterFactory(TypeOf[*Sword](), nil), errors.ErrCodeInvalidArgument)
	assertCode(t, RegisterFactory[*Sword](c, nil), errors.ErrCodeInvalidArgument)
}

func TestResolveRoundTrip(t *testing.T) {
	c, _ := newTestContainer(t)

	_, err := Resolve[Weapon](c, "primary")
	assertCode(t, err, errors.ErrCodeServiceNotFound)

	sword := &Sword{name: "excalibur"}
	mustRegister[Weapon](t, c, sword, WithTag("primary"))

	got, err := Resolve[Weapon](c, "primary")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != Weapon(sword) {
		t.Errorf("expected the registered instance, got %v", got)
	}

	_, err = Resolve[Weapon](c, "")
	assertCode(t, err, errors.ErrCodeServiceNotFound)
}

func TestResolveHelpers(t *testing.T) {
	c, _ := newTestContainer(t)

	if _, ok := TryResolve[*Shield](c, ""); ok {
		t.Error("expected TryResolve to miss")
	}

	func() {
		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("expected MustResolve to panic")
			}
			if !strings.Contains(r.(string), "*di.Shield") {
				t.Errorf("expected panic to name the type, got %v", r)
			}
		}()
		MustResolve[*Shield](c, "")
	}()

	shield := &Shield{armor: 3}
	mustRegister[*Shield](t, c, shield)
	if got, ok := TryResolve[*Shield](c, ""); !ok || got != shield {
		t.Errorf("expected TryResolve to return the registered shield, got %v %v", got, ok)
	}
	if got := MustResolve[*Shield](c, ""); got != shield {
		t.Errorf("expected MustResolve to return the registered shield, got %v", got)
	}
}

func TestFactoryInvokedOnce(t *testing.T) {
	c, _ := newTestContainer(t)

	calls := 0
	err := RegisterFactory(c, func() (*Shield, error) {
		calls++
		return &Shield{armor: calls}, nil
	})
	if err != nil {
		t.Fatalf("RegisterFactory failed: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected factory to run lazily, ran %d times", calls)
	}

	first := MustResolve[*Shield](c, "")
	second := MustResolve[*Shield](c, "")
	if calls != 1 {
		t.Errorf("expected factory invoked once, got %d", calls)
	}
	if first != second {
		t.Error("expected both resolutions to yield the same instance")
	}
}

func TestFactoryFailure(t *testing.T) {
	c, _ := newTestContainer(t)
	boom := stderrors.New("forge is cold")

	err := RegisterFactory(c, func() (*Sword, error) { return nil, boom })
	if err != nil {
		t.Fatalf("RegisterFactory failed: %v", err)
	}

	_, err = Resolve[*Sword](c, "")
	assertCode(t, err, errors.ErrCodeFactoryFailed)
	if !stderrors.Is(err, boom) {
		t.Errorf("expected factory error in chain, got %v", err)
	}
}

func TestUnregisterScope(t *testing.T) {
	c, buf := newTestContainer(t)
	mustRegister[*Sword](t, c, &Sword{name: "one"}, InScope(level1))
	mustRegister[*Shield](t, c, &Shield{}, InScope(level1))
	mustRegister[*Bow](t, c, &Bow{}, InScope(level2))
	mustRegister[Weapon](t, c, &Sword{name: "global"})

	removed, err := c.UnregisterScope(level1)
	if err != nil {
		t.Fatalf("UnregisterScope failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 services removed, got %d", removed)
	}

	_, err = Resolve[*Sword](c, "")
	assertCode(t, err, errors.ErrCodeServiceNotFound)
	if _, err := Resolve[*Bow](c, ""); err != nil {
		t.Errorf("expected level-2 service to survive: %v", err)
	}
	if _, err := Resolve[Weapon](c, ""); err != nil {
		t.Errorf("expected global service to survive: %v", err)
	}

	before := strings.Count(buf.String(), `"level":"warn"`)
	removed, err = c.UnregisterScope(level1)
	if err != nil {
		t.Fatalf("second UnregisterScope failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("expected nothing removed the second time, got %d", removed)
	}
	if after := strings.Count(buf.String(), `"level":"warn"`); after != before+1 {
		t.Errorf("expected exactly one new warning, got %d", after-before)
	}

	_, err = c.UnregisterScope(GlobalScope)
	assertCode(t, err, errors.ErrCodeInvalidArgument)
}

func TestScopePrecedence(t *testing.T) {
	c, _ := newTestContainer(t)
	global := &Sword{name: "global"}
	scoped := &Sword{name: "scoped"}
	mustRegister[*Sword](t, c, global)
	mustRegister[*Sword](t, c, scoped, InScope(level1))

	if got := MustResolve[*Sword](c, ""); got != scoped {
		t.Errorf("expected scoped sword to win, got %q", got.name)
	}

	if _, err := c.UnregisterScope(level1); err != nil {
		t.Fatalf("UnregisterScope failed: %v", err)
	}
	if got := MustResolve[*Sword](c, ""); got != global {
		t.Errorf("expected global fallback, got %q", got.name)
	}
}

func TestLoggerIsAService(t *testing.T) {
	log := logger.Nop()
	c := New(WithLogger(log))
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	got, err := Resolve[*logger.Logger](c, "")
	if err != nil {
		t.Fatalf("Resolve logger failed: %v", err)
	}
	if got != log {
		t.Error("expected the logger passed to WithLogger")
	}

	assertCode(t, Register(c, logger.Nop()), errors.ErrCodeDuplicateRegistration)
}

func TestLoggerFromConfig(t *testing.T) {
	c := New(WithLoggerConfig(logger.Config{Level: "error", Format: logger.FormatJSON, Output: "stderr"}))
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if _, err := Resolve[*logger.Logger](c, ""); err != nil {
		t.Fatalf("expected a logger built from config: %v", err)
	}

	bad := New(WithLoggerConfig(logger.Config{Level: "loud"}))
	if err := bad.Initialize(); err == nil {
		t.Fatal("expected an invalid logger config to fail Initialize")
	}
	if bad.State() != Uninitialized {
		t.Errorf("expected container to stay uninitialized, got %s", bad.State())
	}
}

func TestContainerLogsCarryID(t *testing.T) {
	c, buf := newTestContainer(t)
	if !strings.Contains(buf.String(), c.ID()) {
		t.Error("expected log events to carry the container id")
	}
	if !strings.Contains(buf.String(), "Container initialized") {
		t.Error("expected an initialization log event")
	}
}

func TestTypeOf(t *testing.T) {
	if got := TypeOf[Weapon](); got.Kind() != reflect.Interface {
		t.Errorf("expected interface kind, got %s", got.Kind())
	}
	if got := TypeOf[*Sword](); got != reflect.TypeOf(&Sword{}) {
		t.Errorf("unexpected type %s", got)
	}
	if got := TypeOf[metadata.In](); got.Kind() != reflect.Struct {
		t.Errorf("expected struct kind, got %s", got.Kind())
	}
}
