package main

import (
	"fmt"

	"github.com/kbukum/lifescope/logger"
	"github.com/kbukum/lifescope/metadata"
)

// Weapon is registered per level under the "primary" and "secondary" tags.
type Weapon interface {
	Name() string
	Damage() int
}

type Sword struct{ damage int }

func (s *Sword) Name() string { return "sword" }
func (s *Sword) Damage() int  { return s.damage }

type Bow struct{ damage int }

func (b *Bow) Name() string { return "bow" }
func (b *Bow) Damage() int  { return b.damage }

// Clock lives in the global scope and counts game ticks.
type Clock struct{ tick int }

func (c *Clock) Tick() int {
	c.tick++
	return c.tick
}

// Unit is the base of every combatant.
type Unit struct {
	Label string
	clock *Clock
	log   *logger.Logger
}

func (u *Unit) Inject(clock *Clock, log *logger.Logger) {
	u.clock = clock
	u.log = log.WithComponent("unit")
}

func (u *Unit) announce(msg string) {
	u.log.Info(msg, logger.Fields("unit", u.Label, "tick", u.clock.Tick()))
}

// Loadout is a parameter object: each field is a dependency.
type Loadout struct {
	metadata.In
	Main    Weapon `inject:"primary"`
	Sidearm Weapon `inject:"secondary,optional"`
}

// Warrior embeds Unit; its injection method runs before Unit's.
type Warrior struct {
	Unit
	main, sidearm Weapon
}

func (w *Warrior) InjectLoadout(l Loadout) {
	w.main, w.sidearm = l.Main, l.Sidearm
}

func (w *Warrior) Attack() int {
	total := w.main.Damage()
	if w.sidearm != nil {
		total += w.sidearm.Damage()
	}
	w.announce(fmt.Sprintf("attacks with %s for %d", w.main.Name(), total))
	return total
}

// Forge is built through the constructor catalog.
type Forge struct {
	clock  *Clock
	weapon Weapon
}

func NewForge(clock *Clock) *Forge {
	return &Forge{clock: clock}
}

func NewArmedForge(clock *Clock, weapon Weapon) *Forge {
	return &Forge{clock: clock, weapon: weapon}
}

func (f *Forge) String() string {
	if f.weapon == nil {
		return "an empty forge"
	}
	return "a forge holding a " + f.weapon.Name()
}
