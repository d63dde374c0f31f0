// Package di provides the lifescope dependency container.
//
// A Container keeps services keyed by (scope, type, tag), resolves the
// dependencies of client structs through their injection methods, and
// builds new values through registered constructors. Resolutions of
// whitelisted types are compiled once and replayed without reflection.
//
// # Registration
//
//	c := di.New(di.WithLoggerConfig(logger.Config{Level: "info"}))
//	if err := c.Initialize(); err != nil {
//	    return err
//	}
//	_ = di.Register[Weapon](c, &Sword{})
//	_ = di.RegisterFactory[*Shield](c, func() (*Shield, error) {
//	    return NewShield(), nil
//	}, di.InScope(level1))
//
// # Injection
//
// Any method on *T named Inject, or Inject followed by an upper-case letter,
// is an injection method. Embedded structs are levels of their own and are
// injected after the struct that embeds them.
//
//	type Warrior struct {
//	    Unit
//	    weapon Weapon
//	}
//
//	func (w *Warrior) InjectWeapon(weapon Weapon) { w.weapon = weapon }
//
//	err := c.ResolveDependenciesOf(&Warrior{})
//
// Tagged and optional dependencies are declared through a parameter object:
//
//	type Loadout struct {
//	    metadata.In
//	    Main   Weapon  `inject:"primary"`
//	    Shield *Shield `inject:",optional"`
//	}
//
// # Construction
//
//	_ = c.RegisterConstructor(NewArmory)
//	armory, err := di.Construct[*Armory](c)
//
// Constructors with more dependencies are tried first.
//
// # Scopes
//
// Services registered with InScope are dropped together by UnregisterScope.
// Compiled resolutions survive the teardown.
package di
