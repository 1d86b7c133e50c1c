package game

import (
	"slices"
	"time"

	"conquest-server/internal/fleet"
	"conquest-server/internal/player"
	"conquest-server/internal/rng"
	"conquest-server/internal/shared/config"
	"conquest-server/internal/shared/errors"
	"conquest-server/internal/system"
)

type GameStatus string

const (
	GameStatusActive    GameStatus = "active"
	GameStatusCompleted GameStatus = "completed"
)

type Difficulty string

const (
	DifficultyEasy  Difficulty = "easy"
	DifficultyHard  Difficulty = "hard"
	DifficultyTough Difficulty = "tough"
)

// EmpireFactor scales the production of neutral systems.
func (d Difficulty) EmpireFactor() float64 {
	switch d {
	case DifficultyEasy:
		return 0.5
	case DifficultyTough:
		return 1.5
	default:
		return 1
	}
}

// EmpireRating is the hit chance of neutral defenders, naval and ground.
func (d Difficulty) EmpireRating() float64 {
	switch d {
	case DifficultyEasy:
		return 0.4
	case DifficultyTough:
		return 0.7
	default:
		return 0.55
	}
}

// Settings are fixed when a game is created.
type Settings struct {
	InitialFactories     int        `json:"initialFactories" yaml:"initialFactories"`
	ShipSpeedATurn       int        `json:"shipSpeedATurn" yaml:"shipSpeedATurn"`
	Difficulty           Difficulty `json:"gameDifficulty" yaml:"gameDifficulty"`
	MaxGameLength        int        `json:"maxGameLength" yaml:"maxGameLength"`
	EnableNoviceMode     bool       `json:"enableNoviceMode" yaml:"enableNoviceMode"`
	EnableSystemDefenses bool       `json:"enableSystemDefenses" yaml:"enableSystemDefenses"`
	EnableRandomEvents   bool       `json:"enableRandomEvents" yaml:"enableRandomEvents"`
	EnableEmpireBuilds   bool       `json:"enableEmpireBuilds" yaml:"enableEmpireBuilds"`
}

func DefaultSettings() Settings {
	return Settings{
		InitialFactories:     15,
		ShipSpeedATurn:       5,
		Difficulty:           DifficultyHard,
		MaxGameLength:        100,
		EnableSystemDefenses: true,
		EnableRandomEvents:   true,
		EnableEmpireBuilds:   true,
	}
}

// SettingsFromConfig builds game settings from the server defaults.
func SettingsFromConfig(cfg config.GameConfig) Settings {
	return Settings{
		InitialFactories:     cfg.InitialFactories,
		ShipSpeedATurn:       cfg.ShipSpeedATurn,
		Difficulty:           Difficulty(cfg.Difficulty),
		MaxGameLength:        cfg.MaxGameLength,
		EnableNoviceMode:     cfg.EnableNoviceMode,
		EnableSystemDefenses: cfg.EnableSystemDefenses,
		EnableRandomEvents:   cfg.EnableRandomEvents,
		EnableEmpireBuilds:   cfg.EnableEmpireBuilds,
	}
}

func (s Settings) Validate() error {
	if !slices.Contains([]int{10, 15, 20}, s.InitialFactories) {
		return errors.Argumentf("initial factories must be 10, 15 or 20, got %d", s.InitialFactories)
	}
	if s.ShipSpeedATurn < 4 || s.ShipSpeedATurn > 6 {
		return errors.Argumentf("ship speed must be between 4 and 6, got %d", s.ShipSpeedATurn)
	}
	switch s.Difficulty {
	case DifficultyEasy, DifficultyHard, DifficultyTough:
	default:
		return errors.Argumentf("unknown difficulty %q", s.Difficulty)
	}
	if s.MaxGameLength < 0 {
		return errors.Argumentf("max game length cannot be negative, got %d", s.MaxGameLength)
	}
	return nil
}

// Allows reports whether the settings let players build unit.
func (s Settings) Allows(unit system.UnitType) bool {
	switch unit {
	case system.UnitDefenses:
		return s.EnableSystemDefenses
	case system.UnitStealthShips, system.UnitMissiles:
		return !s.EnableNoviceMode
	}
	return true
}

// State is everything one game consists of. It has a single writer: the
// Service between turns and the Scheduler while a turn resolves.
type State struct {
	ID         string            `json:"id"`
	Turn       int               `json:"turn"`
	Status     GameStatus        `json:"status"`
	Settings   Settings          `json:"settings"`
	Players    []*player.Player  `json:"players"`
	Systems    []*system.System  `json:"systems"`
	Dispatches []*fleet.Dispatch `json:"dispatches"`
	Scouts     []*fleet.Scout    `json:"scouts"`
	Stream     *rng.Stream       `json:"stream"`
	Winner     string            `json:"winner,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

func (s *State) System(name string) *system.System {
	for _, sys := range s.Systems {
		if sys.Name == name {
			return sys
		}
	}
	return nil
}

func (s *State) Player(id string) *player.Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// SystemsOf returns the systems owned by owner, in map order.
func (s *State) SystemsOf(owner string) []*system.System {
	var owned []*system.System
	for _, sys := range s.Systems {
		if sys.Owner == owner {
			owned = append(owned, sys)
		}
	}
	return owned
}

// AllEnded reports whether every player still in the game ended the turn.
func (s *State) AllEnded() bool {
	for _, p := range s.Players {
		if p.IsActive() && !p.EndedTurn {
			return false
		}
	}
	return true
}

func (s *State) IsFinished() bool {
	return s.Status == GameStatusCompleted
}

// Score ranks players when the game runs out of turns.
func (s *State) Score(owner string) int {
	score := 0
	for _, sys := range s.Systems {
		score += 10 * len(sys.OwnedPlanets(owner))
		if sys.Owner != owner {
			continue
		}
		score += 20 + sys.Factories
		score += sys.WarShips + 3*sys.StealthShips + 2*sys.Missiles
	}
	return score
}

// Leader returns the player with the highest score. Ties go to whoever
// joined first.
func (s *State) Leader() string {
	leader, best := "", -1
	for _, p := range s.Players {
		if !p.IsActive() {
			continue
		}
		if score := s.Score(p.ID); score > best {
			leader, best = p.ID, score
		}
	}
	return leader
}

func (s *State) hasUnitsInTransit(owner string) bool {
	for _, d := range s.Dispatches {
		if d.Owner == owner {
			return true
		}
	}
	for _, sc := range s.Scouts {
		if sc.Owner == owner {
			return true
		}
	}
	return false
}

func (s *State) finish(winner string, now time.Time) {
	s.Status = GameStatusCompleted
	s.Winner = winner
	s.UpdatedAt = now
}
