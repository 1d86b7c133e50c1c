package system

import (
	"conquest-server/internal/fleet"
	"conquest-server/internal/shared/errors"
)

// Attack splits units off the orbiting fleet and sends them against target.
// Nothing changes when an error is returned.
func (s *System) Attack(owner string, target *System, units fleet.Fleet, mission fleet.Mission, id string) (*fleet.Dispatch, error) {
	if !mission.IsValid() || mission == fleet.MissionReinforce {
		return nil, errors.Argumentf("unknown attack mission %q", mission)
	}
	if err := s.checkRoute(owner, target); err != nil {
		return nil, err
	}
	if target.Owner == owner {
		return nil, errors.GameStatef("%s is already yours, move units there instead", target.Name)
	}
	if err := units.Validate(); err != nil {
		return nil, errors.Argumentf("invalid fleet: %v", err)
	}
	if units.IsEliminated() {
		return nil, errors.GameState("an attack needs warships, stealth ships or missiles")
	}

	forked, err := s.fork(units)
	if err != nil {
		return nil, err
	}

	return &fleet.Dispatch{
		Transit: fleet.Transit{
			ID:       id,
			Owner:    owner,
			Source:   s.Name,
			Target:   target.Name,
			Distance: s.Position.DistanceTo(target.Position),
		},
		Fleet:   forked,
		Mission: mission,
	}, nil
}

// MoveTo sends units to reinforce another system held by the same owner.
// Build points travel as cargo and come out of the reserve.
func (s *System) MoveTo(owner string, target *System, units fleet.Fleet, id string) (*fleet.Dispatch, error) {
	if err := s.checkRoute(owner, target); err != nil {
		return nil, err
	}
	if target.Owner != owner {
		return nil, errors.GameStatef("%s is not yours, attack it instead", target.Name)
	}
	if err := units.Validate(); err != nil {
		return nil, errors.Argumentf("invalid fleet: %v", err)
	}
	if units.IsEmpty() {
		return nil, errors.Argument("nothing to move")
	}

	forked, err := s.fork(units)
	if err != nil {
		return nil, err
	}

	return &fleet.Dispatch{
		Transit: fleet.Transit{
			ID:       id,
			Owner:    owner,
			Source:   s.Name,
			Target:   target.Name,
			Distance: s.Position.DistanceTo(target.Position),
		},
		Fleet:   forked,
		Mission: fleet.MissionReinforce,
	}, nil
}

// Scout sends a single ship of the given kind towards target.
func (s *System) Scout(owner string, target *System, kind fleet.ScoutKind, id string) (*fleet.Scout, error) {
	if !kind.IsValid() {
		return nil, errors.Argumentf("unknown scout kind %q", kind)
	}
	if err := s.checkRoute(owner, target); err != nil {
		return nil, err
	}
	if target.Owner == owner {
		return nil, errors.GameStatef("%s is already yours", target.Name)
	}

	if _, err := s.fork(kind.Unit()); err != nil {
		return nil, err
	}

	return &fleet.Scout{
		Transit: fleet.Transit{
			ID:       id,
			Owner:    owner,
			Source:   s.Name,
			Target:   target.Name,
			Distance: s.Position.DistanceTo(target.Position),
		},
		Kind: kind,
	}, nil
}

// Embark moves troops from a planet garrison into orbit, where they can be
// loaded onto transports.
func (s *System) Embark(owner string, planet, troops int) error {
	p, err := s.ownPlanet(owner, planet, troops)
	if err != nil {
		return err
	}
	if p.Troops < troops {
		return errors.GameStatef("planet %d only has %d troops", planet+1, p.Troops)
	}
	p.Troops -= troops
	s.Troops += troops
	return nil
}

// Disembark lands troops from orbit on a planet.
func (s *System) Disembark(owner string, planet, troops int) error {
	p, err := s.ownPlanet(owner, planet, troops)
	if err != nil {
		return err
	}
	if s.Troops < troops {
		return errors.GameStatef("only %d troops in orbit", s.Troops)
	}
	if p.Troops+troops > MaxTroops {
		return errors.GameStatef("planet %d cannot hold more than %d troops", planet+1, MaxTroops)
	}
	s.Troops -= troops
	p.Troops += troops
	return nil
}

func (s *System) checkRoute(owner string, target *System) error {
	if s.Owner != owner {
		return errors.GameStatef("you do not control %s", s.Name)
	}
	if target == nil {
		return errors.Argument("no target system")
	}
	if target.Name == s.Name {
		return errors.GameStatef("%s cannot target itself", s.Name)
	}
	return nil
}

// fork checks availability and capacity on a copy before touching the
// orbiting fleet.
func (s *System) fork(units fleet.Fleet) (fleet.Fleet, error) {
	if !units.HasCapacity() {
		return fleet.Fleet{}, errors.GameStatef("%d transports cannot carry %d cargo", units.Transports, units.Cargo())
	}

	orbit := s.Fleet
	if _, err := orbit.Fork(units); err != nil {
		return fleet.Fleet{}, errors.WrapGameState("not enough units in orbit", err)
	}

	forked, err := s.Fleet.Fork(units)
	if err != nil {
		return fleet.Fleet{}, errors.WrapInternal("fork after successful check", err)
	}
	return forked, nil
}

func (s *System) ownPlanet(owner string, planet, troops int) (*Planet, error) {
	if s.Owner != owner {
		return nil, errors.GameStatef("you do not control %s", s.Name)
	}
	if planet < 0 || planet >= len(s.Planets) {
		return nil, errors.Argumentf("%s has no planet %d", s.Name, planet+1)
	}
	if troops <= 0 {
		return nil, errors.Argument("troops must be positive")
	}
	p := &s.Planets[planet]
	if p.Owner != owner {
		return nil, errors.GameStatef("planet %d of %s is not yours", planet+1, s.Name)
	}
	return p, nil
}
