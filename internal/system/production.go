package system

import (
	"math"

	"conquest-server/internal/shared/errors"
)

// UnitType is something a system can be ordered to produce.
type UnitType string

const (
	UnitNone         UnitType = ""
	UnitWarShips     UnitType = "warships"
	UnitStealthShips UnitType = "stealthships"
	UnitTransports   UnitType = "transports"
	UnitMissiles     UnitType = "missiles"
	UnitFactories    UnitType = "factories"
	UnitDefenses     UnitType = "defenses"
	UnitPlanets      UnitType = "planets"
)

var unitCosts = map[UnitType]int{
	UnitWarShips:     1,
	UnitStealthShips: 3,
	UnitTransports:   3,
	UnitMissiles:     2,
	UnitDefenses:     1,
	UnitPlanets:      100,
}

func (u UnitType) IsValid() bool {
	if u == UnitFactories {
		return true
	}
	_, ok := unitCosts[u]
	return ok
}

// Cost returns the build points one unit costs in a system with the given
// number of factories.
func Cost(unit UnitType, factories int) int {
	if unit == UnitFactories {
		return max(1, factories) * 3
	}
	return unitCosts[unit]
}

// PlanetBuilder creates a new planet for owner when a system finishes
// building one.
type PlanetBuilder func(owner string) Planet

// ProductionResult describes one production step.
type ProductionResult struct {
	Unit    UnitType
	Built   int
	PerTurn int
	Reserve int
	Capped  bool
}

// Change sets what the system builds from next turn. UnitNone banks all
// production.
func (s *System) Change(target UnitType) error {
	if target != UnitNone && !target.IsValid() {
		return errors.Argumentf("unknown production target %q", target)
	}
	s.Production = target
	return nil
}

// PerTurnProduction is the build points the system generates this turn,
// scaled by factor.
func (s *System) PerTurnProduction(factor float64) int {
	if s.Factories <= 0 {
		return 0
	}
	perTurn := s.Factories + s.Morale()
	if perTurn < 0 {
		return 0
	}
	return int(math.Floor(float64(perTurn) * factor))
}

// Produce applies exactly one turn of production.
func (s *System) Produce(builder PlanetBuilder) ProductionResult {
	return s.ProduceScaled(builder, 1)
}

// ProduceScaled is Produce with the per-turn output multiplied by factor.
func (s *System) ProduceScaled(builder PlanetBuilder, factor float64) ProductionResult {
	perTurn := s.PerTurnProduction(factor)
	available := s.BuildPoints + perTurn
	result := ProductionResult{Unit: s.Production, PerTurn: perTurn}

	if s.Production == UnitNone {
		s.BuildPoints = available
		result.Reserve = s.BuildPoints
		return result
	}

	room := s.roomFor(s.Production)
	if room <= 0 {
		// capped: nothing progresses and the reserve stays as it was
		result.Capped = true
		result.Reserve = s.BuildPoints
		return result
	}

	cost := Cost(s.Production, s.Factories)
	built := min(available/cost, room)
	s.BuildPoints = available - built*cost
	s.addUnits(s.Production, built, builder)

	result.Built = built
	result.Reserve = s.BuildPoints
	return result
}

func (s *System) roomFor(unit UnitType) int {
	switch unit {
	case UnitFactories:
		return MaxFactories - s.Factories
	case UnitPlanets:
		return MaxPlanets - len(s.Planets)
	default:
		return math.MaxInt
	}
}

func (s *System) addUnits(unit UnitType, n int, builder PlanetBuilder) {
	switch unit {
	case UnitWarShips:
		s.WarShips += n
	case UnitStealthShips:
		s.StealthShips += n
	case UnitTransports:
		s.Transports += n
	case UnitMissiles:
		s.Missiles += n
	case UnitDefenses:
		s.Defenses += n
	case UnitFactories:
		s.Factories += n
	case UnitPlanets:
		for i := 0; i < n; i++ {
			s.Planets = append(s.Planets, builder(s.Owner))
		}
	}
}
