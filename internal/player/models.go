package player

import (
	"conquest-server/internal/report"
	"conquest-server/internal/rng"
	"conquest-server/internal/system"
)

const (
	MinRating = 25
	MaxRating = 90

	// naval + ground lands near this value, give or take ratingJitter
	ratingBalance = 115
	ratingJitter  = 5
)

// Ratings are hit chances in percent.
type Ratings struct {
	Naval  int `json:"naval"`
	Ground int `json:"ground"`
}

// NewRatings draws a balanced pair: a strong navy means a weaker army.
func NewRatings(stream *rng.Stream) Ratings {
	naval := stream.Between(MinRating, MaxRating)
	ground := ratingBalance - naval + stream.Between(-ratingJitter, ratingJitter)
	return Ratings{
		Naval:  naval,
		Ground: min(MaxRating, max(MinRating, ground)),
	}
}

// NavalChance is the naval rating as a probability.
func (r Ratings) NavalChance() float64 {
	return float64(r.Naval) / 100
}

// GroundChance is the ground rating as a probability.
func (r Ratings) GroundChance() float64 {
	return float64(r.Ground) / 100
}

// Sighting is the last thing a player saw of a system they do not hold.
type Sighting struct {
	Snapshot *system.System `json:"snapshot"`
	Turn     int            `json:"turn"`
}

type Player struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Ratings    Ratings             `json:"ratings"`
	FogOfWar   map[string]Sighting `json:"fogOfWar"`
	Reports    report.List         `json:"reports"`
	EndedTurn  bool                `json:"endedTurn"`
	Eliminated bool                `json:"eliminated"`
}

func New(id, name string, stream *rng.Stream) *Player {
	return &Player{
		ID:       id,
		Name:     name,
		Ratings:  NewRatings(stream),
		FogOfWar: make(map[string]Sighting),
	}
}

// EndTurn marks the player ready for turn resolution.
func (p *Player) EndTurn() error {
	if p.Eliminated {
		return ErrEliminated
	}
	if p.EndedTurn {
		return ErrTurnEnded
	}
	p.EndedTurn = true
	return nil
}

// IsActive reports whether the player still takes part in turns.
func (p *Player) IsActive() bool {
	return !p.Eliminated
}

func (p *Player) AddReport(r report.Report) {
	p.Reports = append(p.Reports, r)
}

// StartTurn resets the per-turn state.
func (p *Player) StartTurn() {
	p.EndedTurn = false
	p.Reports = nil
}

// Sight records what the player sees of s on the given turn.
func (p *Player) Sight(s *system.System, turn int) {
	if p.FogOfWar == nil {
		p.FogOfWar = make(map[string]Sighting)
	}
	p.FogOfWar[s.Name] = Sighting{Snapshot: s.Clone(), Turn: turn}
}
