// Package metadata reads the dependency shape of Go types for the di engine.
//
// A type's hierarchy is the chain of exported structs it embeds by value,
// most derived first. Each level may declare one injection method, named
// after a configurable prefix:
//
//	type Actor struct{}
//
//	func (a *Actor) Inject(log *logger.Logger) {}
//
//	type Warrior struct {
//	    Actor
//	}
//
//	func (w *Warrior) InjectWeapon(w Weapon) error { return nil }
//
// Constructors are plain functions registered in a Catalog and keyed by the
// type they return. Dependencies that need a tag are declared through a
// parameter object embedding In:
//
//	type ArmoryDeps struct {
//	    metadata.In
//
//	    Primary   Weapon `inject:"primary"`
//	    Secondary Weapon `inject:"secondary,optional"`
//	}
//
//	func NewArmory(deps ArmoryDeps) *Armory { ... }
//
// CompileCall binds resolved arguments into a Call that later invocations
// run without any further metadata work.
package metadata
