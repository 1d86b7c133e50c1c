// Package combat resolves naval battles and ground invasions. Both resolvers
// are pure: everything they need comes in as arguments, randomness is drawn
// from the game stream in a fixed order, and the same inputs with the same
// stream position always give the same result.
package combat

import (
	"conquest-server/internal/fleet"
	"conquest-server/internal/rng"
)

const (
	// DefensiveMissileThreshold is the defenses a system needs before its
	// missiles fire at incoming ships.
	DefensiveMissileThreshold = 50
	// MissilesPerFactory is how many leftover missiles destroy one factory.
	MissilesPerFactory = 5
	// MaxRounds ends a stalemate as a draw.
	MaxRounds = 500
)

type Winner string

const (
	WinnerAttacker Winner = "attacker"
	WinnerDefender Winner = "defender"
	WinnerDraw     Winner = "draw"
)

// Forces is the defending side of a naval battle: the orbiting fleet plus
// the system installations.
type Forces struct {
	fleet.Fleet
	Defenses  int
	Factories int
}

// IsEliminated reports whether nothing is left to fight. Factories do not
// fight.
func (f Forces) IsEliminated() bool {
	return f.Fleet.IsEliminated() && f.Defenses == 0
}

// Battle is the input of a naval battle. Ratings are hit chances in [0, 1].
type Battle struct {
	Attacker       fleet.Fleet
	AttackerRating float64
	Defender       Forces
	DefenderRating float64
	Mission        fleet.Mission
}

// NavalResult holds what is left of both sides and what each lost.
type NavalResult struct {
	Winner         Winner
	Rounds         int
	Attacker       fleet.Fleet
	Defender       Forces
	AttackerLosses fleet.Fleet
	DefenderLosses fleet.Fleet
	DefensesLost   int
	FactoriesLost  int
}

type naval struct {
	attacker       fleet.Fleet
	attackerRating float64
	defender       Forces
	defenderRating float64
	stream         *rng.Stream
}

// ResolveNaval fights b to the end. Conquest battles go on until one side is
// eliminated (or MaxRounds); every other mission fights a single round.
func ResolveNaval(b Battle, stream *rng.Stream) NavalResult {
	n := &naval{
		attacker:       b.Attacker,
		attackerRating: b.AttackerRating,
		defender:       b.Defender,
		defenderRating: b.DefenderRating,
		stream:         stream,
	}

	if n.defender.IsEliminated() && !n.attacker.IsMissilesOnly() {
		n.defender.Fleet.DestroyUndefendedCargo()
		return n.result(b, WinnerAttacker, 0)
	}

	rounds := 0
	for rounds < MaxRounds && n.keepFighting() {
		rounds++
		n.round()
		if b.Mission != fleet.MissionConquest {
			break
		}
	}

	return n.result(b, n.winner(b.Mission), rounds)
}

func (n *naval) keepFighting() bool {
	bothAlive := !n.attacker.IsEliminated() && !n.defender.IsEliminated()
	return bothAlive || (n.attacker.Missiles > 0 && n.defender.Factories > 0)
}

func (n *naval) winner(mission fleet.Mission) Winner {
	attackerOut := n.attacker.IsEliminated()
	defenderOut := n.defender.IsEliminated()
	switch {
	case attackerOut && defenderOut:
		return WinnerDraw
	case defenderOut && mission == fleet.MissionConquest:
		return WinnerAttacker
	case attackerOut:
		return WinnerDefender
	default:
		return WinnerDraw
	}
}

func (n *naval) round() {
	n.offensiveMissiles()
	n.defensiveMissiles()

	// stealth ships strike first
	n.fire(n.attacker.StealthShips, n.attackerRating, n.defenderTargets, func() { n.hitDefender(false) })

	n.fire(n.defender.Defenses, n.defenderRating, n.attackerTargets, n.hitAttacker)
	n.fire(n.defender.StealthShips, n.defenderRating, n.attackerTargets, n.hitAttacker)
	n.fire(n.defender.WarShips, n.defenderRating, n.attackerTargets, n.hitAttacker)

	n.fire(n.attacker.WarShips, n.attackerRating, n.defenderTargets, func() { n.hitDefender(true) })

	n.attacker.DestroyUndefendedCargo()
	if n.defender.IsEliminated() {
		n.defender.Fleet.DestroyUndefendedCargo()
	}
	n.attacker.SaveDamagedStealthShips()
	n.defender.SaveDamagedStealthShips()
}

// offensiveMissiles spends every attacker missile. Missiles always hit;
// once the defender has nothing left they go for the factories.
func (n *naval) offensiveMissiles() {
	for n.attacker.Missiles > 0 && n.defenderTargets() > 0 {
		n.attacker.Missiles--
		n.hitDefender(false)
	}
	if n.attacker.Missiles == 0 {
		return
	}
	destroyed := min(n.attacker.Missiles/MissilesPerFactory, n.defender.Factories)
	n.defender.Factories -= destroyed
	n.attacker.Missiles = 0
}

func (n *naval) defensiveMissiles() {
	if n.defender.Defenses < DefensiveMissileThreshold {
		return
	}
	for shots := n.defender.Missiles; shots > 0; shots-- {
		if n.attackerTargets() == 0 {
			return
		}
		n.defender.Missiles--
		if !n.stream.Chance(n.defenderRating) {
			continue
		}
		if n.attacker.StealthShips > 0 {
			n.attacker.DamageStealthShip(false)
		} else {
			n.attacker.WarShips--
		}
	}
}

// fire rolls one rating check per shot and calls hit on success. It stops
// once the other side has nothing left to hit.
func (n *naval) fire(shots int, rating float64, targets func() int, hit func()) {
	for ; shots > 0; shots-- {
		if targets() == 0 {
			return
		}
		if n.stream.Chance(rating) {
			hit()
		}
	}
}

func (n *naval) defenderTargets() int {
	d := n.defender
	return d.Defenses + d.WarShips + d.StealthShips + d.Missiles
}

func (n *naval) attackerTargets() int {
	return n.attacker.WarShips + n.attacker.StealthShips
}

// hitDefender lands one hit on a defender category picked with weight equal
// to its remaining count.
func (n *naval) hitDefender(halfStealth bool) {
	d := &n.defender
	switch n.stream.Pick(d.Defenses, d.WarShips, d.StealthShips, d.Missiles) {
	case 0:
		d.Defenses--
	case 1:
		d.WarShips--
	case 2:
		d.DamageStealthShip(halfStealth)
	case 3:
		d.Missiles--
	}
}

// hitAttacker lands one hit on the attacking ships. Stealth ships only take
// half damage from return fire.
func (n *naval) hitAttacker() {
	a := &n.attacker
	switch n.stream.Pick(a.WarShips, a.StealthShips) {
	case 0:
		a.WarShips--
	case 1:
		a.DamageStealthShip(true)
	}
}

func (n *naval) result(b Battle, winner Winner, rounds int) NavalResult {
	return NavalResult{
		Winner:         winner,
		Rounds:         rounds,
		Attacker:       n.attacker,
		Defender:       n.defender,
		AttackerLosses: losses(b.Attacker, n.attacker),
		DefenderLosses: losses(b.Defender.Fleet, n.defender.Fleet),
		DefensesLost:   b.Defender.Defenses - n.defender.Defenses,
		FactoriesLost:  b.Defender.Factories - n.defender.Factories,
	}
}

// losses is before minus after. Combat only ever removes units.
func losses(before, after fleet.Fleet) fleet.Fleet {
	return fleet.Fleet{
		WarShips:     before.WarShips - after.WarShips,
		StealthShips: before.StealthShips - after.StealthShips,
		Missiles:     before.Missiles - after.Missiles,
		Transports:   before.Transports - after.Transports,
		Troops:       before.Troops - after.Troops,
		BuildPoints:  before.BuildPoints - after.BuildPoints,
	}
}
