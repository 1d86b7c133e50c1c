// Package scenario replays scripted games from YAML fixtures.
package scenario

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"conquest-server/internal/fleet"
	"conquest-server/internal/game"
	"conquest-server/internal/system"
)

// Scenario is a scripted game: a starting map and the orders each player
// gives before every turn.
type Scenario struct {
	Name     string        `yaml:"name"`
	Seed     string        `yaml:"seed"`
	Turns    int           `yaml:"turns"`
	Settings game.Settings `yaml:"settings"`
	Players  []game.Seat   `yaml:"players"`
	// NeutralSystems sizes a generated map; ignored when Systems is set.
	NeutralSystems int          `yaml:"neutralSystems"`
	Systems        []SystemSpec `yaml:"systems"`
	Orders         []Order      `yaml:"orders"`
}

type PlanetSpec struct {
	Owner   string `yaml:"owner"`
	Morale  int    `yaml:"morale"`
	Recruit int    `yaml:"recruit"`
	Troops  int    `yaml:"troops"`
}

type SystemSpec struct {
	Name       string          `yaml:"name"`
	X          float64         `yaml:"x"`
	Y          float64         `yaml:"y"`
	Owner      string          `yaml:"owner"`
	Home       bool            `yaml:"home"`
	Factories  int             `yaml:"factories"`
	Defenses   int             `yaml:"defenses"`
	Production system.UnitType `yaml:"production"`
	Fleet      fleet.Fleet     `yaml:"fleet"`
	Planets    []PlanetSpec    `yaml:"planets"`
}

// Command names an order.
type Command string

const (
	CommandAttack    Command = "attack"
	CommandMove      Command = "move"
	CommandScout     Command = "scout"
	CommandBuild     Command = "build"
	CommandEmbark    Command = "embark"
	CommandDisembark Command = "disembark"
	CommandRecall    Command = "recall"
	CommandEndTurn   Command = "end-turn"
)

// Order is one command, issued before the given turn resolves.
type Order struct {
	Turn    int             `yaml:"turn"`
	Player  string          `yaml:"player"`
	Command Command         `yaml:"command"`
	From    string          `yaml:"from"`
	To      string          `yaml:"to"`
	Units   fleet.Fleet     `yaml:"units"`
	Mission fleet.Mission   `yaml:"mission"`
	Kind    fleet.ScoutKind `yaml:"kind"`
	Build   system.UnitType `yaml:"build"`
	Planet  int             `yaml:"planet"`
	Troops  int             `yaml:"troops"`
	// Label names a dispatch or scout so a later recall can refer to it.
	Label string `yaml:"label"`
	// ExpectError is the error type the order must fail with.
	ExpectError string `yaml:"expectError"`
}

// Load parses a scenario and fills in defaults.
func Load(r io.Reader) (*Scenario, error) {
	sc := &Scenario{Settings: game.DefaultSettings()}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}

	if err := sc.validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", sc.Name, err)
	}
	return sc, nil
}

func (sc *Scenario) validate() error {
	if sc.Seed == "" {
		return fmt.Errorf("seed is required")
	}
	if sc.Turns <= 0 {
		return fmt.Errorf("turns must be positive")
	}
	if len(sc.Players) == 0 {
		return fmt.Errorf("at least one player is required")
	}
	if err := sc.Settings.Validate(); err != nil {
		return err
	}

	labels := make(map[string]bool)
	for i, o := range sc.Orders {
		if o.Turn < 1 || o.Turn > sc.Turns {
			return fmt.Errorf("order %d: turn %d outside 1..%d", i, o.Turn, sc.Turns)
		}
		if o.Command == CommandRecall && !labels[o.Label] {
			return fmt.Errorf("order %d: recall of unknown label %q", i, o.Label)
		}
		if o.Label != "" && o.Command != CommandRecall {
			labels[o.Label] = true
		}
	}
	return nil
}

func (s SystemSpec) build() *system.System {
	sys := &system.System{
		Name:       s.Name,
		Position:   system.Position{X: s.X, Y: s.Y},
		Owner:      s.Owner,
		Home:       s.Home,
		Fleet:      s.Fleet,
		Defenses:   s.Defenses,
		Factories:  s.Factories,
		Production: s.Production,
	}
	for _, p := range s.Planets {
		sys.Planets = append(sys.Planets, system.Planet(p))
	}
	return sys
}
