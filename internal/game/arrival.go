package game

import (
	"conquest-server/internal/combat"
	"conquest-server/internal/fleet"
	"conquest-server/internal/report"
	"conquest-server/internal/system"
)

// capturedMorale is the morale of a freshly invaded planet.
const capturedMorale = -1

// arrive handles a dispatch that reached its target. It returns true when
// the dispatch stays in flight, heading home.
func (r *resolution) arrive(d *fleet.Dispatch) bool {
	target := r.state.System(d.Target)
	if target == nil {
		panic("dispatch to unknown system " + d.Target)
	}

	if target.Owner == d.Owner {
		target.Merge(d.Fleet)
		switch {
		case !d.IsReturning():
			r.notify(d.Owner, report.Reinforced{System: target.Name, Source: d.Source, Units: d.Fleet})
		case d.Engaged:
			// survivors of a raid, probe or withdrawal; recalled units merge silently
			r.notify(d.Owner, report.Reinforced{System: target.Name, Source: d.Source, Units: d.Fleet, Returned: true})
		}
		return false
	}

	if d.Mission == fleet.MissionReinforce && !d.IsReturning() {
		// the system changed hands on the way; turn back
		return r.sendHome(d, target)
	}

	r.battle(d, target)
	return !d.IsEliminated() && d.IsReturning()
}

// sendHome recalls d from where it stands to its source. It returns false
// when there is nothing left to send.
func (r *resolution) sendHome(d *fleet.Dispatch, from *system.System) bool {
	home := r.state.System(d.Source)
	if home == nil || d.IsEmpty() {
		return false
	}
	d.Recall(from.Position.DistanceTo(home.Position))
	return true
}

func (r *resolution) defenderRatings(owner string) (naval, ground float64) {
	if p := r.state.Player(owner); p != nil {
		return p.Ratings.NavalChance(), p.Ratings.GroundChance()
	}
	rating := r.state.Settings.Difficulty.EmpireRating()
	return rating, rating
}

// battle fights d against target and applies the mission outcome.
func (r *resolution) battle(d *fleet.Dispatch, target *system.System) {
	attacker := r.state.Player(d.Owner)
	defender := target.Owner
	defenderNaval, _ := r.defenderRatings(defender)

	returning := d.IsReturning()
	mission := d.Mission
	if returning || mission == fleet.MissionReinforce {
		// units coming home to a lost system fight to take it back
		mission = fleet.MissionConquest
	}

	// the build point reserve is not part of the fight
	reserve := target.BuildPoints
	orbit := target.Fleet
	orbit.BuildPoints = 0

	forces := combat.Forces{Fleet: orbit, Factories: target.Factories}
	if r.state.Settings.EnableSystemDefenses {
		forces.Defenses = target.Defenses
	}

	result := combat.ResolveNaval(combat.Battle{
		Attacker:       d.Fleet,
		AttackerRating: attacker.Ratings.NavalChance(),
		Defender:       forces,
		DefenderRating: defenderNaval,
		Mission:        mission,
	}, r.stream)
	r.summary.Battles++
	d.Engaged = true

	d.Fleet = result.Attacker
	target.Fleet = result.Defender.Fleet
	target.BuildPoints = reserve
	target.Factories = result.Defender.Factories
	if r.state.Settings.EnableSystemDefenses {
		target.Defenses = result.Defender.Defenses
	}

	rep := report.Combat{
		System:         target.Name,
		Attacker:       d.Owner,
		Defender:       defender,
		Mission:        mission,
		Winner:         report.Outcome(result.Winner),
		Rounds:         result.Rounds,
		AttackerLosses: result.AttackerLosses,
		DefenderLosses: result.DefenderLosses,
		DefensesLost:   result.DefensesLost,
		FactoriesLost:  result.FactoriesLost,
	}

	switch {
	case d.IsEliminated():
		// nothing left to do
	case mission == fleet.MissionConquest && result.Winner == combat.WinnerAttacker:
		rep.Invasion = r.invade(d, target)
	case mission == fleet.MissionResourceRaid:
		rep.Looted = r.loot(d, target)
		r.sendHome(d, target)
	case mission == fleet.MissionProbe:
		attacker.Sight(target, r.state.Turn)
		attacker.AddReport(report.Intel{System: target.Name, Turn: r.state.Turn, Source: d.Source, View: target.Clone()})
		r.sendHome(d, target)
	case returning:
		// no home left to withdraw to
		d.Fleet = fleet.Fleet{}
	default:
		// a drawn conquest withdraws
		r.sendHome(d, target)
	}

	r.notify(d.Owner, rep)
	if defender != "" {
		r.notify(defender, rep)
	}
	r.logger.Debug("Battle resolved",
		"system", target.Name,
		"attacker", d.Owner,
		"defender", defender,
		"mission", mission,
		"winner", result.Winner,
		"rounds", result.Rounds)
}

func (r *resolution) loot(d *fleet.Dispatch, target *system.System) int {
	looted := min(target.BuildPoints, d.FreeCapacity())
	target.BuildPoints -= looted
	d.BuildPoints += looted
	return looted
}

// invade takes space control of target and lands the dispatch's troops on
// every planet not yet held by the attacker, one after the other. Each
// captured planet keeps an even share of the troops still to be landed.
func (r *resolution) invade(d *fleet.Dispatch, target *system.System) *report.Invasion {
	r.summary.Invasions++
	attacker := r.state.Player(d.Owner)

	troops := d.Troops
	d.Troops = 0
	target.Capture(d.Owner)
	target.Merge(d.Fleet)
	d.Fleet = fleet.Fleet{}

	inv := &report.Invasion{}
	var foreign []int
	for i, p := range target.Planets {
		if p.Owner != d.Owner {
			foreign = append(foreign, i)
		}
	}

	for n, i := range foreign {
		p := &target.Planets[i]
		if troops == 0 {
			inv.PlanetsHeld++
			continue
		}

		_, defenderGround := r.defenderRatings(p.Owner)
		result := combat.ResolveGround(troops, attacker.Ratings.GroundChance(), p.Troops, defenderGround, r.stream)
		inv.AttackerLosses += troops - result.AttackerRemaining
		inv.DefenderLosses += p.Troops - result.DefenderRemaining

		if result.Winner != combat.WinnerAttacker {
			p.Troops = result.DefenderRemaining
			troops = 0
			inv.PlanetsHeld++
			continue
		}

		troops = result.AttackerRemaining
		left := len(foreign) - n
		garrison := (troops + left - 1) / left
		p.Owner = d.Owner
		p.Troops = garrison
		p.Morale = capturedMorale
		troops -= garrison
		inv.PlanetsCaptured++
	}

	target.Troops += troops
	return inv
}
