package galaxy

import (
	"testing"

	"conquest-server/internal/rng"
	"conquest-server/internal/shared/logger"
	"conquest-server/internal/system"
)

func newTestGenerator(neutral int) *Generator {
	return NewGenerator(Config{NeutralSystems: neutral}, logger.Discard())
}

func TestGenerateHomesAndNeutrals(t *testing.T) {
	owners := []string{"a", "b", "c"}
	systems := newTestGenerator(10).Generate(owners, 15, rng.New("map"))

	if len(systems) != 13 {
		t.Fatalf("expected 13 systems got %d", len(systems))
	}

	for i, owner := range owners {
		home := systems[i]
		if home.Owner != owner || !home.Home {
			t.Fatalf("expected home of %s got owner %q home %v", owner, home.Owner, home.Home)
		}
		if home.Factories != 15 || len(home.Planets) != homePlanets {
			t.Fatalf("expected 15 factories and %d planets got %d and %d", homePlanets, home.Factories, len(home.Planets))
		}
		for _, p := range home.Planets {
			if p.Owner != owner || p.IsUnderGarrisoned() {
				t.Fatalf("expected a settled planet got %+v", p)
			}
		}
	}

	for _, s := range systems[len(owners):] {
		if !s.IsNeutral() || s.Home {
			t.Fatalf("expected neutral system got %+v", s)
		}
	}
}

func TestGeneratedSystemsAreValid(t *testing.T) {
	systems := newTestGenerator(60).Generate([]string{"a", "b"}, 20, rng.New("big"))

	names := make(map[string]bool)
	for _, s := range systems {
		if names[s.Name] {
			t.Fatalf("duplicate system name %s", s.Name)
		}
		names[s.Name] = true

		if s.Factories > system.MaxFactories || len(s.Planets) > system.MaxPlanets {
			t.Fatalf("system %s out of bounds: %d factories %d planets", s.Name, s.Factories, len(s.Planets))
		}
		if err := s.Fleet.Validate(); err != nil {
			t.Fatalf("system %s has an invalid fleet: %v", s.Name, err)
		}
		for _, p := range s.Planets {
			if p.Recruit < system.MinRecruit || p.Recruit > system.MaxRecruit {
				t.Fatalf("planet recruit out of range: %d", p.Recruit)
			}
		}
	}

	for _, s := range systems {
		for _, o := range systems {
			if s != o && s.Position == o.Position {
				t.Fatalf("systems %s and %s share a position", s.Name, o.Name)
			}
		}
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := newTestGenerator(8).Generate([]string{"a", "b"}, 10, rng.New("seed"))
	b := newTestGenerator(8).Generate([]string{"a", "b"}, 10, rng.New("seed"))

	for i := range a {
		if a[i].Name != b[i].Name || a[i].Position != b[i].Position || a[i].WarShips != b[i].WarShips {
			t.Fatalf("system %d differs: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestHomesAreSpreadOut(t *testing.T) {
	systems := newTestGenerator(23).Generate([]string{"a", "b"}, 10, rng.New("spread"))

	// every cell of a 5x5 grid has a cell at least two rows or columns away
	if d := systems[0].Position.DistanceTo(systems[1].Position); d < 2*CellSize-2*Jitter {
		t.Fatalf("expected homes far apart got distance %.1f", d)
	}
}

func TestSystemNamesStayUnique(t *testing.T) {
	if got := systemName(len(starNames)); got != starNames[0]+" 2" {
		t.Fatalf("expected %s 2 got %s", starNames[0], got)
	}
}
