package fleet

import (
	"fmt"
)

const (
	// TransportCapacity is how much cargo (troops plus build points) one
	// transport carries.
	TransportCapacity = 50
	// DetectableShips is the ship count above which a fleet shows up on
	// enemy sensors.
	DetectableShips = 10
)

// NegativeResourceError is returned when a change would leave a fleet field
// below zero.
type NegativeResourceError struct {
	Field string
	Value int
}

func (e *NegativeResourceError) Error() string {
	return fmt.Sprintf("fleet %s would become negative (%d)", e.Field, e.Value)
}

// Fleet is a bundle of mobile units. It is used for fleets in transit, the
// units orbiting a system and deltas applied to either.
type Fleet struct {
	WarShips     int `json:"warShips" yaml:"warShips"`
	StealthShips int `json:"stealthShips" yaml:"stealthShips"`
	Missiles     int `json:"missiles" yaml:"missiles"`
	Transports   int `json:"transports" yaml:"transports"`
	Troops       int `json:"troops" yaml:"troops"`
	BuildPoints  int `json:"buildPoints" yaml:"buildPoints"`

	// stealth ships carrying one half-hit; only non-zero inside a combat round
	damagedStealth int
}

func (f Fleet) fields() [6]int {
	return [6]int{f.WarShips, f.StealthShips, f.Missiles, f.Transports, f.Troops, f.BuildPoints}
}

var fieldNames = [6]string{"warShips", "stealthShips", "missiles", "transports", "troops", "buildPoints"}

// Add applies delta in place. Either every field changes or none does.
func (f *Fleet) Add(delta Fleet) error {
	current := f.fields()
	change := delta.fields()
	for i := range current {
		if current[i]+change[i] < 0 {
			return &NegativeResourceError{Field: fieldNames[i], Value: current[i] + change[i]}
		}
	}

	f.WarShips += delta.WarShips
	f.StealthShips += delta.StealthShips
	f.Missiles += delta.Missiles
	f.Transports += delta.Transports
	f.Troops += delta.Troops
	f.BuildPoints += delta.BuildPoints
	if f.damagedStealth > f.StealthShips {
		f.damagedStealth = f.StealthShips
	}
	return nil
}

// Merge adds other into f. other must be non-negative; anything else is a
// programming error.
func (f *Fleet) Merge(other Fleet) {
	if err := f.Add(other); err != nil {
		panic(fmt.Sprintf("merge of invalid fleet: %v", err))
	}
}

// Negate returns the component-wise negation of f.
func (f Fleet) Negate() Fleet {
	return Fleet{
		WarShips:     -f.WarShips,
		StealthShips: -f.StealthShips,
		Missiles:     -f.Missiles,
		Transports:   -f.Transports,
		Troops:       -f.Troops,
		BuildPoints:  -f.BuildPoints,
	}
}

// Fork subtracts amounts from f and returns them as a new fleet.
func (f *Fleet) Fork(amounts Fleet) (Fleet, error) {
	if err := amounts.Validate(); err != nil {
		return Fleet{}, err
	}
	if err := f.Add(amounts.Negate()); err != nil {
		return Fleet{}, err
	}
	return amounts, nil
}

// Validate reports the first negative field, if any.
func (f Fleet) Validate() error {
	for i, v := range f.fields() {
		if v < 0 {
			return &NegativeResourceError{Field: fieldNames[i], Value: v}
		}
	}
	return nil
}

// IsEliminated reports whether no combat units are left. Transports and
// cargo alone do not keep a fleet in the fight.
func (f Fleet) IsEliminated() bool {
	return f.StealthShips == 0 && f.WarShips == 0 && f.Missiles == 0
}

func (f Fleet) IsMissilesOnly() bool {
	return f.Missiles > 0 && f.WarShips == 0 && f.StealthShips == 0
}

func (f Fleet) IsEmpty() bool {
	return f.fields() == [6]int{}
}

func (f Fleet) TotalShips() int {
	return f.WarShips + f.StealthShips + f.Missiles + f.Transports
}

func (f Fleet) IsDetectable() bool {
	return f.TotalShips() > DetectableShips
}

// Cargo is what the transports carry.
func (f Fleet) Cargo() int {
	return f.Troops + f.BuildPoints
}

// HasCapacity reports whether the transports can carry the cargo.
func (f Fleet) HasCapacity() bool {
	return f.Transports*TransportCapacity >= f.Cargo()
}

// FreeCapacity is the cargo that could still be loaded.
func (f Fleet) FreeCapacity() int {
	free := f.Transports*TransportCapacity - f.Cargo()
	if free < 0 {
		return 0
	}
	return free
}

// DestroyUndefendedCargo drops transports and cargo once no combat units
// are left to escort them.
func (f *Fleet) DestroyUndefendedCargo() {
	if !f.IsEliminated() {
		return
	}
	f.Troops = 0
	f.BuildPoints = 0
	f.Transports = 0
}

// DamageStealthShip applies one hit to the stealth ships. A half hit only
// damages a ship; a second half hit on a damaged ship destroys it.
func (f *Fleet) DamageStealthShip(half bool) {
	if f.StealthShips == 0 {
		return
	}
	if !half {
		f.StealthShips--
		if f.damagedStealth > f.StealthShips {
			f.damagedStealth = f.StealthShips
		}
		return
	}
	if f.damagedStealth > 0 {
		f.damagedStealth--
		f.StealthShips--
		return
	}
	f.damagedStealth++
}

// DamagedStealthShips returns how many stealth ships carry a half hit.
func (f Fleet) DamagedStealthShips() int {
	return f.damagedStealth
}

// SaveDamagedStealthShips rounds fractional stealth damage back up, so a
// ship is never lost to a half hit alone.
func (f *Fleet) SaveDamagedStealthShips() {
	f.damagedStealth = 0
}

func (f Fleet) String() string {
	return fmt.Sprintf("warships=%d stealth=%d missiles=%d transports=%d troops=%d buildpoints=%d",
		f.WarShips, f.StealthShips, f.Missiles, f.Transports, f.Troops, f.BuildPoints)
}
