// Package events applies random events to the systems of one player.
package events

import (
	"fmt"

	"conquest-server/internal/report"
	"conquest-server/internal/rng"
	"conquest-server/internal/system"
)

const (
	firstEventChance  = 0.5
	secondEventChance = 0.25
)

// Target is the system (and planet, when the event needs one) an event
// lands on.
type Target struct {
	System *system.System
	Planet int
}

func (t Target) planet() *system.Planet {
	return &t.System.Planets[t.Planet]
}

// Event is one entry of the event table. Apply reports what happened, or
// false when the target offered nothing to change.
type Event struct {
	Name       string
	NeedPlanet bool
	Apply      func(t Target, stream *rng.Stream) (string, bool)
}

// Table is the list events are picked from, uniformly.
var Table = []Event{
	{
		Name:       "propaganda",
		NeedPlanet: true,
		Apply: func(t Target, stream *rng.Stream) (string, bool) {
			p := t.planet()
			before := p.Morale
			p.ChangeMorale(-1)
			return fmt.Sprintf("enemy propaganda lowers morale on planet %d", t.Planet+1), p.Morale != before
		},
	},
	{
		Name:       "epidemic",
		NeedPlanet: true,
		Apply: func(t Target, stream *rng.Stream) (string, bool) {
			p := t.planet()
			lost := min(p.Troops, stream.Between(1, max(1, p.Troops/4)))
			p.Troops -= lost
			return fmt.Sprintf("an epidemic kills %d troops on planet %d", lost, t.Planet+1), lost > 0
		},
	},
	{
		Name: "industrial accident",
		Apply: func(t Target, stream *rng.Stream) (string, bool) {
			if t.System.Factories == 0 {
				return "", false
			}
			lost := min(t.System.Factories, stream.Between(1, 2))
			t.System.Factories -= lost
			return fmt.Sprintf("an industrial accident destroys %d factories", lost), true
		},
	},
	{
		Name:       "rousing speech",
		NeedPlanet: true,
		Apply: func(t Target, stream *rng.Stream) (string, bool) {
			p := t.planet()
			before := p.Morale
			p.ChangeMorale(1)
			return fmt.Sprintf("a rousing speech lifts morale on planet %d", t.Planet+1), p.Morale != before
		},
	},
	{
		Name: "tech breakthrough",
		Apply: func(t Target, stream *rng.Stream) (string, bool) {
			gain := stream.Between(5, 15)
			t.System.BuildPoints += gain
			return fmt.Sprintf("a technological breakthrough yields %d build points", gain), true
		},
	},
	{
		Name: "new factory",
		Apply: func(t Target, stream *rng.Stream) (string, bool) {
			if t.System.Factories >= system.MaxFactories {
				return "", false
			}
			t.System.Factories++
			return "investors open a new factory", true
		},
	},
	{
		Name: "reinforcements",
		Apply: func(t Target, stream *rng.Stream) (string, bool) {
			gift := stream.Between(2, 6)
			t.System.WarShips += gift
			return fmt.Sprintf("%d warships join the fleet", gift), true
		},
	},
	{
		Name: "mutiny",
		Apply: func(t Target, stream *rng.Stream) (string, bool) {
			if t.System.WarShips == 0 {
				return "", false
			}
			lost := min(t.System.WarShips, stream.Between(1, 3))
			t.System.WarShips -= lost
			return fmt.Sprintf("%d warship crews mutiny and desert", lost), true
		},
	},
	{
		Name:       "bumper harvest",
		NeedPlanet: true,
		Apply: func(t Target, stream *rng.Stream) (string, bool) {
			p := t.planet()
			gain := stream.Between(5, 20)
			gain = min(gain, system.MaxTroops-p.Troops)
			p.Troops += gain
			return fmt.Sprintf("a bumper harvest brings %d volunteers to planet %d", gain, t.Planet+1), gain > 0
		},
	},
	{
		Name: "sabotage",
		Apply: func(t Target, stream *rng.Stream) (string, bool) {
			if t.System.BuildPoints == 0 {
				return "", false
			}
			lost := (t.System.BuildPoints + 1) / 2
			t.System.BuildPoints -= lost
			return fmt.Sprintf("saboteurs destroy %d build points", lost), true
		},
	},
}

// Engine runs the event table against the systems of a player.
type Engine struct {
	table []Event
}

func NewEngine() *Engine {
	return &Engine{table: Table}
}

// Run rolls for a first event and, once that roll succeeds, for a second.
func (e *Engine) Run(owner string, systems []*system.System, stream *rng.Stream) []report.Event {
	var reports []report.Event
	if !stream.Chance(firstEventChance) {
		return nil
	}
	if r, ok := e.Apply(owner, systems, stream); ok {
		reports = append(reports, r)
	}
	if stream.Chance(secondEventChance) {
		if r, ok := e.Apply(owner, systems, stream); ok {
			reports = append(reports, r)
		}
	}
	return reports
}

// Apply picks one event and one target for it. Nothing happens when the
// player has no eligible target.
func (e *Engine) Apply(owner string, systems []*system.System, stream *rng.Stream) (report.Event, bool) {
	event := e.table[stream.IntN(len(e.table))]

	t, ok := pickTarget(owner, systems, event.NeedPlanet, stream)
	if !ok {
		return report.Event{}, false
	}

	description, changed := event.Apply(t, stream)
	if !changed {
		return report.Event{}, false
	}
	return report.Event{
		System:      t.System.Name,
		Name:        event.Name,
		Description: description,
	}, true
}

func pickTarget(owner string, systems []*system.System, needPlanet bool, stream *rng.Stream) (Target, bool) {
	var candidates []Target
	for _, s := range systems {
		if s.Owner != owner {
			continue
		}
		if !needPlanet {
			candidates = append(candidates, Target{System: s, Planet: -1})
			continue
		}
		for _, i := range s.OwnedPlanets(owner) {
			candidates = append(candidates, Target{System: s, Planet: i})
		}
	}
	if len(candidates) == 0 {
		return Target{}, false
	}
	return candidates[stream.IntN(len(candidates))], true
}
