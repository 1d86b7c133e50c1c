package player

import (
	"conquest-server/internal/system"
)

// SystemView is either KnownView or StaleView.
type SystemView interface {
	SystemName() string
	isSystemView()
}

// KnownView is the live state of a system the player holds.
type KnownView struct {
	System *system.System
}

// StaleView is what the player last saw of a system. Snapshot is nil when
// the system was never scouted; Turn is then zero.
type StaleView struct {
	Name     string
	Position system.Position
	Snapshot *system.System
	Turn     int
}

func (v KnownView) SystemName() string { return v.System.Name }
func (v StaleView) SystemName() string { return v.Name }

func (KnownView) isSystemView() {}
func (StaleView) isSystemView() {}

// View returns what the player may know about s.
func (p *Player) View(s *system.System) SystemView {
	if s.Owner == p.ID {
		return KnownView{System: s.Clone()}
	}
	view := StaleView{Name: s.Name, Position: s.Position}
	if seen, ok := p.FogOfWar[s.Name]; ok {
		view.Snapshot = seen.Snapshot.Clone()
		view.Turn = seen.Turn
	}
	return view
}
