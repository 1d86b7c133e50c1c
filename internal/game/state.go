package game

import (
	"time"

	"conquest-server/internal/player"
	"conquest-server/internal/rng"
	"conquest-server/internal/shared/errors"
	"conquest-server/internal/system"
)

// Seat is a player joining a new game.
type Seat struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// MapGenerator produces the initial systems of a game. Every player id gets
// exactly one home system.
type MapGenerator interface {
	Generate(owners []string, initialFactories int, stream *rng.Stream) []*system.System
}

// New creates a game at turn zero. Ratings are drawn before the map so
// both come from the same stream in a fixed order.
func New(id string, settings Settings, seats []Seat, generator MapGenerator, stream *rng.Stream, now time.Time) (*State, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if len(seats) == 0 {
		return nil, errors.Argument("a game needs at least one player")
	}

	state := &State{
		ID:        id,
		Status:    GameStatusActive,
		Settings:  settings,
		Stream:    stream,
		CreatedAt: now,
		UpdatedAt: now,
	}

	owners := make([]string, 0, len(seats))
	for _, seat := range seats {
		if seat.ID == "" {
			return nil, errors.Argument("player id is required")
		}
		if state.Player(seat.ID) != nil {
			return nil, errors.Argumentf("player %s joined twice", seat.ID)
		}
		state.Players = append(state.Players, player.New(seat.ID, seat.Name, stream))
		owners = append(owners, seat.ID)
	}

	state.Systems = generator.Generate(owners, settings.InitialFactories, stream)
	return state, nil
}
