// Package report holds what the engine tells players about a turn. Each kind
// of report is its own type; consumers switch on the concrete type.
package report

import (
	"encoding/json"
	"fmt"

	"conquest-server/internal/fleet"
	"conquest-server/internal/system"
)

type Kind string

const (
	KindIntel      Kind = "intel"
	KindCombat     Kind = "combat"
	KindDetect     Kind = "detect"
	KindUnrest     Kind = "unrest"
	KindPrivateer  Kind = "privateer"
	KindReinforced Kind = "reinforced"
	KindEvent      Kind = "event"
)

// Report is implemented by every report variant.
type Report interface {
	Kind() Kind
	SystemName() string
}

// Intel is what a scout or probe saw at its target.
type Intel struct {
	System string         `json:"system"`
	Turn   int            `json:"turn"`
	Source string         `json:"source"`
	View   *system.System `json:"view"`
}

// Outcome is the result of a naval battle seen from the attacker.
type Outcome string

const (
	OutcomeAttacker Outcome = "attacker"
	OutcomeDefender Outcome = "defender"
	OutcomeDraw     Outcome = "draw"
)

// Invasion summarises the ground war that follows a conquest victory.
type Invasion struct {
	PlanetsCaptured int `json:"planetsCaptured"`
	PlanetsHeld     int `json:"planetsHeld"`
	AttackerLosses  int `json:"attackerLosses"`
	DefenderLosses  int `json:"defenderLosses"`
}

type Combat struct {
	System         string        `json:"system"`
	Attacker       string        `json:"attacker"`
	Defender       string        `json:"defender"`
	Mission        fleet.Mission `json:"mission"`
	Winner         Outcome       `json:"winner"`
	Rounds         int           `json:"rounds"`
	AttackerLosses fleet.Fleet   `json:"attackerLosses"`
	DefenderLosses fleet.Fleet   `json:"defenderLosses"`
	DefensesLost   int           `json:"defensesLost"`
	FactoriesLost  int           `json:"factoriesLost"`
	Looted         int           `json:"looted,omitempty"`
	Invasion       *Invasion     `json:"invasion,omitempty"`
}

// Detect warns a system owner about something incoming or snooping.
type Detect struct {
	System string `json:"system"`
	Owner  string `json:"owner"`
	Source string `json:"source"`
	Ships  int    `json:"ships"`
	ETA    int    `json:"eta"`
	Scout  bool   `json:"scout,omitempty"`
}

// Unrest is raised for an unhappy planet or an overthrown system.
type Unrest struct {
	System     string `json:"system"`
	Planet     int    `json:"planet"`
	Morale     int    `json:"morale"`
	Overthrown bool   `json:"overthrown,omitempty"`
}

// Privateer reports ships seized from a low-morale system.
type Privateer struct {
	System string      `json:"system"`
	Seized fleet.Fleet `json:"seized"`
}

// Reinforced reports units that arrived at one of the player's systems.
// Returned marks survivors coming home after a fight.
type Reinforced struct {
	System   string      `json:"system"`
	Source   string      `json:"source"`
	Units    fleet.Fleet `json:"units"`
	Returned bool        `json:"returned,omitempty"`
}

// Event reports a random event.
type Event struct {
	System      string `json:"system"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (Intel) Kind() Kind      { return KindIntel }
func (Combat) Kind() Kind     { return KindCombat }
func (Detect) Kind() Kind     { return KindDetect }
func (Unrest) Kind() Kind     { return KindUnrest }
func (Privateer) Kind() Kind  { return KindPrivateer }
func (Reinforced) Kind() Kind { return KindReinforced }
func (Event) Kind() Kind      { return KindEvent }

func (r Intel) SystemName() string      { return r.System }
func (r Combat) SystemName() string     { return r.System }
func (r Detect) SystemName() string     { return r.System }
func (r Unrest) SystemName() string     { return r.System }
func (r Privateer) SystemName() string  { return r.System }
func (r Reinforced) SystemName() string { return r.System }
func (r Event) SystemName() string      { return r.System }

type envelope struct {
	Kind   Kind            `json:"kind"`
	Report json.RawMessage `json:"report"`
}

// List is an ordered set of reports that survives a JSON round trip.
type List []Report

func (l List) MarshalJSON() ([]byte, error) {
	out := make([]envelope, 0, len(l))
	for _, r := range l {
		body, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("marshal %s report: %w", r.Kind(), err)
		}
		out = append(out, envelope{Kind: r.Kind(), Report: body})
	}
	return json.Marshal(out)
}

func (l *List) UnmarshalJSON(data []byte) error {
	var in []envelope
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("unmarshal reports: %w", err)
	}

	list := make(List, 0, len(in))
	for _, e := range in {
		r, err := decode(e)
		if err != nil {
			return err
		}
		list = append(list, r)
	}
	*l = list
	return nil
}

func decode(e envelope) (Report, error) {
	var (
		r   Report
		err error
	)
	switch e.Kind {
	case KindIntel:
		r, err = into[Intel](e.Report)
	case KindCombat:
		r, err = into[Combat](e.Report)
	case KindDetect:
		r, err = into[Detect](e.Report)
	case KindUnrest:
		r, err = into[Unrest](e.Report)
	case KindPrivateer:
		r, err = into[Privateer](e.Report)
	case KindReinforced:
		r, err = into[Reinforced](e.Report)
	case KindEvent:
		r, err = into[Event](e.Report)
	default:
		return nil, fmt.Errorf("unknown report kind %q", e.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s report: %w", e.Kind, err)
	}
	return r, nil
}

func into[T Report](data json.RawMessage) (Report, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
