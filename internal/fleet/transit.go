package fleet

import (
	"math"
)

// Mission is what a dispatched fleet does when it arrives.
type Mission string

const (
	MissionConquest     Mission = "conquest"
	MissionResourceRaid Mission = "resource-raid"
	MissionProbe        Mission = "probe"
	MissionReinforce    Mission = "reinforce"
)

func (m Mission) IsValid() bool {
	switch m {
	case MissionConquest, MissionResourceRaid, MissionProbe, MissionReinforce:
		return true
	}
	return false
}

// ScoutKind is the single ship a scout is made of.
type ScoutKind string

const (
	ScoutWarShip     ScoutKind = "warship"
	ScoutStealthShip ScoutKind = "stealthship"
)

func (k ScoutKind) IsValid() bool {
	return k == ScoutWarShip || k == ScoutStealthShip
}

// Unit returns the one-ship fleet a scout of this kind consumes.
func (k ScoutKind) Unit() Fleet {
	if k == ScoutStealthShip {
		return Fleet{StealthShips: 1}
	}
	return Fleet{WarShips: 1}
}

const (
	missilesOnlySpeedModifier = 2.0
	scoutSpeedModifier        = 1.5
)

// Transit is the movement state shared by everything in flight between two
// systems.
type Transit struct {
	ID       string  `json:"id"`
	Owner    string  `json:"owner"`
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Distance float64 `json:"distance"`
	Recalled bool    `json:"recalled"`
	// Detected is set once the target owner has been warned.
	Detected bool `json:"detected,omitempty"`
}

func (t *Transit) advance(speed, modifier float64) {
	t.Distance -= speed * modifier
}

// HasReachedTarget is true once the remaining distance is zero or less.
func (t Transit) HasReachedTarget() bool {
	return t.Distance <= 0
}

func (t Transit) eta(speed, modifier float64) int {
	if t.HasReachedTarget() {
		return 0
	}
	step := speed * modifier
	if step <= 0 {
		return -1
	}
	return int(math.Ceil(t.Distance / step))
}

// Recall turns the unit around for a trip of the given length.
func (t *Transit) Recall(distance float64) {
	t.Source, t.Target = t.Target, t.Source
	t.Distance = distance
	t.Recalled = true
}

// IsReturning reports whether the unit is on its way back to where it came
// from.
func (t Transit) IsReturning() bool {
	return t.Recalled
}

// ShouldReveal is true exactly when the unit has arrived at a system held
// by somebody else.
func (t Transit) ShouldReveal(targetOwner string) bool {
	return t.HasReachedTarget() && targetOwner != "" && targetOwner != t.Owner
}

// Mover is implemented by everything the scheduler advances each turn.
type Mover interface {
	Move(speed float64)
	HasReachedTarget() bool
	ETA(speed float64) int
	SpeedModifier() float64
}

// Dispatch is a fleet in transit.
type Dispatch struct {
	Transit
	Fleet
	Mission Mission `json:"mission"`
	// Engaged is set once the dispatch has fought at its target.
	Engaged bool `json:"engaged,omitempty"`
}

func (d *Dispatch) SpeedModifier() float64 {
	if d.IsMissilesOnly() {
		return missilesOnlySpeedModifier
	}
	return 1
}

func (d *Dispatch) Move(speed float64) {
	d.advance(speed, d.SpeedModifier())
}

func (d *Dispatch) ETA(speed float64) int {
	return d.eta(speed, d.SpeedModifier())
}

// Scout is a single ship sent to gather intel.
type Scout struct {
	Transit
	Kind ScoutKind `json:"kind"`
}

func (s *Scout) SpeedModifier() float64 {
	return scoutSpeedModifier
}

func (s *Scout) Move(speed float64) {
	s.advance(speed, s.SpeedModifier())
}

func (s *Scout) ETA(speed float64) int {
	return s.eta(speed, s.SpeedModifier())
}

var (
	_ Mover = (*Dispatch)(nil)
	_ Mover = (*Scout)(nil)
)
