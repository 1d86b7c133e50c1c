package system

import (
	"math"
	"slices"

	"conquest-server/internal/fleet"
)

const (
	MaxFactories = 50
	MaxPlanets   = 10

	baseDetectionRange = 10.0
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Position) DistanceTo(other Position) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// System is a star system's stationary state. The embedded Fleet holds the
// units in orbit; its BuildPoints field is the production reserve.
type System struct {
	Name     string   `json:"name"`
	Position Position `json:"position"`
	Owner    string   `json:"owner"`
	Home     bool     `json:"home"`
	Planets  []Planet `json:"planets"`

	fleet.Fleet

	Defenses   int      `json:"defenses"`
	Factories  int      `json:"factories"`
	Production UnitType `json:"production"`
	Privateers int      `json:"privateers"`
}

// IsNeutral reports whether the Empire holds the system.
func (s *System) IsNeutral() bool {
	return s.Owner == ""
}

// Morale is the average morale of the planets held by the system owner,
// with halves rounded up: -2.5 gives -2. A system without such planets has
// morale 0.
func (s *System) Morale() int {
	total, count := 0, 0
	for _, p := range s.Planets {
		if p.Owner != s.Owner {
			continue
		}
		total += p.Morale
		count++
	}
	if count == 0 {
		return 0
	}
	return int(math.Floor(float64(total)/float64(count) + 0.5))
}

// DetectionRange is how far out incoming fleets are noticed.
func (s *System) DetectionRange() float64 {
	return baseDetectionRange + float64(s.Defenses)/5
}

// IsEliminated reports whether nothing is left to defend the system.
func (s *System) IsEliminated() bool {
	return s.Fleet.IsEliminated() && s.Defenses == 0
}

// OwnedPlanets returns the indexes of the planets held by owner.
func (s *System) OwnedPlanets(owner string) []int {
	var idx []int
	for i, p := range s.Planets {
		if p.Owner == owner {
			idx = append(idx, i)
		}
	}
	return idx
}

// Garrison is the number of troops on planets held by the system owner.
func (s *System) Garrison() int {
	total := 0
	for _, p := range s.Planets {
		if p.Owner == s.Owner {
			total += p.Troops
		}
	}
	return total
}

// Clone returns a deep copy safe to keep as a snapshot.
func (s *System) Clone() *System {
	c := *s
	c.Planets = slices.Clone(s.Planets)
	c.SaveDamagedStealthShips()
	return &c
}

// Capture hands space control of the system to owner. Planets keep their
// owners until invaded. Production orders and the reserve are lost.
func (s *System) Capture(owner string) {
	s.Owner = owner
	s.Home = false
	s.Production = ""
	s.BuildPoints = 0
}

// Overthrow reverts the system and every planet its owner held to neutral.
func (s *System) Overthrow() {
	previous := s.Owner
	for i := range s.Planets {
		if s.Planets[i].Owner == previous {
			s.Planets[i].Owner = ""
		}
	}
	s.Capture("")
}

func (s *System) String() string {
	return s.Name
}
