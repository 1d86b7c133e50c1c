// Package galaxy lays out the star map of a new game.
package galaxy

import (
	"log/slog"
	"math"
	"slices"

	"conquest-server/internal/fleet"
	"conquest-server/internal/rng"
	"conquest-server/internal/shared/config"
	"conquest-server/internal/system"
)

const (
	// CellSize is the distance between neighbouring grid cells.
	CellSize = 20.0
	// Jitter is how far a system may stray from the centre of its cell.
	Jitter = 6.0

	homePlanets  = 3
	homeTroops   = 40
	homeMorale   = 1
	homeDefenses = 20
)

var homeFleet = fleet.Fleet{WarShips: 30, Transports: 4, Troops: 20}

// Config controls the size of the generated map.
type Config struct {
	NeutralSystems int
}

func ConfigFromGame(cfg config.GameConfig) Config {
	return Config{NeutralSystems: cfg.NeutralSystems}
}

// Generator places systems on a jittered square grid.
type Generator struct {
	config Config
	logger *slog.Logger
}

func NewGenerator(cfg Config, logger *slog.Logger) *Generator {
	return &Generator{config: cfg, logger: logger}
}

type cell struct{ x, y int }

// Generate returns one home system per owner, in owner order, followed by
// the neutral systems. Homes are spread out: each one takes the free cell
// farthest from the homes already placed.
func (g *Generator) Generate(owners []string, initialFactories int, stream *rng.Stream) []*system.System {
	total := len(owners) + max(0, g.config.NeutralSystems)
	logger := g.logger.With("component", "galaxy_generator", "operation", "generate", "systems", total)

	perSide := int(math.Ceil(math.Sqrt(float64(total))))
	cells := make([]cell, 0, perSide*perSide)
	for x := 0; x < perSide; x++ {
		for y := 0; y < perSide; y++ {
			cells = append(cells, cell{x, y})
		}
	}
	shuffle(cells, stream)
	cells = cells[:total]

	homes := spread(cells, len(owners))
	nameOffset := stream.IntN(len(starNames))

	systems := make([]*system.System, 0, total)
	for i, owner := range owners {
		s := g.place(cells[homes[i]], nameOffset+len(systems), stream)
		g.settleHome(s, owner, initialFactories, stream)
		systems = append(systems, s)
	}

	isHome := make(map[int]bool, len(homes))
	for _, h := range homes {
		isHome[h] = true
	}
	for i, c := range cells {
		if isHome[i] {
			continue
		}
		s := g.place(c, nameOffset+len(systems), stream)
		g.settleNeutral(s, stream)
		systems = append(systems, s)
	}

	logger.Info("Galaxy generated", "players", len(owners), "grid", perSide)
	return systems
}

func (g *Generator) place(c cell, nameIndex int, stream *rng.Stream) *system.System {
	return &system.System{
		Name: systemName(nameIndex),
		Position: system.Position{
			X: float64(c.x)*CellSize + (stream.Float64()-0.5)*2*Jitter,
			Y: float64(c.y)*CellSize + (stream.Float64()-0.5)*2*Jitter,
		},
	}
}

func (g *Generator) settleHome(s *system.System, owner string, factories int, stream *rng.Stream) {
	s.Owner = owner
	s.Home = true
	s.Factories = min(factories, system.MaxFactories)
	s.Defenses = homeDefenses
	s.Fleet = homeFleet
	for range homePlanets {
		s.Planets = append(s.Planets, system.Planet{
			Owner:   owner,
			Morale:  homeMorale,
			Recruit: stream.Between(4, 6),
			Troops:  homeTroops,
		})
	}
}

func (g *Generator) settleNeutral(s *system.System, stream *rng.Stream) {
	s.Factories = stream.Between(2, 8)
	s.Defenses = stream.Between(0, 10)
	s.WarShips = stream.Between(0, 15)
	planets := stream.Between(1, 4)
	for range planets {
		s.Planets = append(s.Planets, system.Planet{
			Recruit: stream.Between(system.MinRecruit, 5),
			Troops:  stream.Between(5, 20),
		})
	}
}

func shuffle(cells []cell, stream *rng.Stream) {
	for i := len(cells) - 1; i > 0; i-- {
		j := stream.IntN(i + 1)
		cells[i], cells[j] = cells[j], cells[i]
	}
}

// spread picks n indexes of cells, far apart from each other.
func spread(cells []cell, n int) []int {
	if n == 0 {
		return nil
	}
	picked := []int{0}
	for len(picked) < n {
		best, bestDist := -1, -1.0
		for i, c := range cells {
			if slices.Contains(picked, i) {
				continue
			}
			nearest := math.MaxFloat64
			for _, p := range picked {
				nearest = min(nearest, distance(c, cells[p]))
			}
			if nearest > bestDist {
				best, bestDist = i, nearest
			}
		}
		picked = append(picked, best)
	}
	return picked
}

func distance(a, b cell) float64 {
	return math.Hypot(float64(a.x-b.x), float64(a.y-b.y))
}
