package game

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"conquest-server/internal/fleet"
	"conquest-server/internal/player"
	"conquest-server/internal/report"
	"conquest-server/internal/rng"
	"conquest-server/internal/shared/logger"
	"conquest-server/internal/system"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedMap []*system.System

func (m fixedMap) Generate([]string, int, *rng.Stream) []*system.System {
	return m
}

func testSettings() Settings {
	s := DefaultSettings()
	s.MaxGameLength = 0
	s.EnableRandomEvents = false
	s.EnableEmpireBuilds = false
	return s
}

func home(name, owner string, x float64) *system.System {
	return &system.System{
		Name:      name,
		Position:  system.Position{X: x},
		Owner:     owner,
		Home:      true,
		Factories: 10,
		Planets:   []system.Planet{{Owner: owner, Recruit: 2, Troops: 20}},
		Fleet:     fleet.Fleet{WarShips: 20},
	}
}

// newState builds a two player game: a holds Vega at the origin, b holds
// Rigel 100 away. extra systems are appended after them.
func newState(t *testing.T, settings Settings, extra ...*system.System) *State {
	t.Helper()
	systems := append([]*system.System{home("Vega", "a", 0), home("Rigel", "b", 100)}, extra...)
	state, err := New("g1", settings, []Seat{{ID: "a", Name: "Alice"}, {ID: "b", Name: "Bob"}}, fixedMap(systems), rng.New("1000"), testTime)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	return state
}

func newTestScheduler() *Scheduler {
	s := NewScheduler(logger.Discard())
	s.now = func() time.Time { return testTime }
	return s
}

func resolve(state *State) Summary {
	return newTestScheduler().Resolve(context.Background(), state)
}

func reportsOf[T report.Report](p *player.Player) []T {
	var found []T
	for _, r := range p.Reports {
		if v, ok := r.(T); ok {
			found = append(found, v)
		}
	}
	return found
}

func dispatch(owner, source, target string, distance float64, units fleet.Fleet, mission fleet.Mission) *fleet.Dispatch {
	return &fleet.Dispatch{
		Transit: fleet.Transit{ID: "d1", Owner: owner, Source: source, Target: target, Distance: distance},
		Fleet:   units,
		Mission: mission,
	}
}

func TestResolveProducesAndRecruits(t *testing.T) {
	state := newState(t, testSettings())
	vega := state.System("Vega")
	vega.Production = system.UnitWarShips

	summary := resolve(state)

	if summary.Turn != 1 || state.Turn != 1 {
		t.Fatalf("expected turn 1 got summary %d state %d", summary.Turn, state.Turn)
	}
	if vega.WarShips != 30 {
		t.Fatalf("expected 30 warships got %d", vega.WarShips)
	}
	if rigel := state.System("Rigel"); rigel.BuildPoints != 10 {
		t.Fatalf("expected 10 banked build points got %d", rigel.BuildPoints)
	}
	if vega.Planets[0].Troops != 22 {
		t.Fatalf("expected 22 troops got %d", vega.Planets[0].Troops)
	}
	if summary.Built != 10 {
		t.Fatalf("expected 10 built got %d", summary.Built)
	}
}

func TestEmpireBuildsScaleWithDifficulty(t *testing.T) {
	settings := testSettings()
	settings.EnableEmpireBuilds = true
	settings.Difficulty = DifficultyEasy
	state := newState(t, settings, &system.System{Name: "Altair", Position: system.Position{X: 50}, Factories: 10})

	resolve(state)

	if got := state.System("Altair").WarShips; got != 5 {
		t.Fatalf("expected 5 empire warships got %d", got)
	}
}

func TestReinforcementsMerge(t *testing.T) {
	altair := &system.System{Name: "Altair", Position: system.Position{X: 3}, Owner: "a"}
	state := newState(t, testSettings(), altair)
	state.Dispatches = append(state.Dispatches, dispatch("a", "Vega", "Altair", 3, fleet.Fleet{WarShips: 5}, fleet.MissionReinforce))

	summary := resolve(state)

	if altair.WarShips != 5 {
		t.Fatalf("expected 5 warships got %d", altair.WarShips)
	}
	if len(state.Dispatches) != 0 {
		t.Fatalf("expected no dispatches got %d", len(state.Dispatches))
	}
	if summary.Arrivals != 1 {
		t.Fatalf("expected 1 arrival got %d", summary.Arrivals)
	}
	if got := reportsOf[report.Reinforced](state.Player("a")); len(got) != 1 || got[0].Units.WarShips != 5 {
		t.Fatalf("expected one reinforced report got %+v", got)
	}
}

func TestReinforcingALostSystemTurnsBack(t *testing.T) {
	state := newState(t, testSettings())
	state.Dispatches = append(state.Dispatches, dispatch("a", "Vega", "Rigel", 3, fleet.Fleet{WarShips: 5}, fleet.MissionReinforce))

	resolve(state)

	if len(state.Dispatches) != 1 {
		t.Fatalf("expected the dispatch to stay in flight got %d", len(state.Dispatches))
	}
	d := state.Dispatches[0]
	if !d.IsReturning() || d.Target != "Vega" || d.Distance != 100 {
		t.Fatalf("expected a return trip of 100 to Vega got %+v", d.Transit)
	}
	if got := state.System("Rigel").WarShips; got != 20 {
		t.Fatalf("expected Rigel untouched got %d warships", got)
	}
}

func TestConquestOfUndefendedSystem(t *testing.T) {
	altair := &system.System{
		Name:     "Altair",
		Position: system.Position{X: 3},
		Planets:  []system.Planet{{Recruit: 1, Troops: 5}},
	}
	state := newState(t, testSettings(), altair)
	state.Player("a").Ratings = player.Ratings{Naval: 90, Ground: 90}
	state.Dispatches = append(state.Dispatches,
		dispatch("a", "Vega", "Altair", 3, fleet.Fleet{WarShips: 10, Transports: 1, Troops: 50}, fleet.MissionConquest))

	summary := resolve(state)

	if altair.Owner != "a" {
		t.Fatalf("expected a to hold Altair got %q", altair.Owner)
	}
	p := altair.Planets[0]
	if p.Owner != "a" || p.Morale != capturedMorale {
		t.Fatalf("expected captured planet with morale %d got %+v", capturedMorale, p)
	}
	if p.Troops < 40 {
		t.Fatalf("expected the landing troops to garrison the planet got %d", p.Troops)
	}
	if altair.Transports != 1 || altair.Troops != 0 {
		t.Fatalf("expected transports in orbit and no troops left over got %+v", altair.Fleet)
	}
	if summary.Battles != 1 || summary.Invasions != 1 {
		t.Fatalf("expected 1 battle and 1 invasion got %+v", summary)
	}

	combats := reportsOf[report.Combat](state.Player("a"))
	if len(combats) != 1 {
		t.Fatalf("expected one combat report got %d", len(combats))
	}
	c := combats[0]
	if c.Winner != report.OutcomeAttacker || c.Rounds != 0 {
		t.Fatalf("expected a walkover got winner %s after %d rounds", c.Winner, c.Rounds)
	}
	if c.Invasion == nil || c.Invasion.PlanetsCaptured != 1 {
		t.Fatalf("expected one captured planet got %+v", c.Invasion)
	}
}

func TestProbeReturnsWithIntel(t *testing.T) {
	altair := &system.System{Name: "Altair", Position: system.Position{X: 3}, Factories: 7}
	state := newState(t, testSettings(), altair)
	state.Dispatches = append(state.Dispatches, dispatch("a", "Vega", "Altair", 3, fleet.Fleet{WarShips: 2}, fleet.MissionProbe))

	resolve(state)

	a := state.Player("a")
	seen, ok := a.FogOfWar["Altair"]
	if !ok || seen.Snapshot.Factories != 7 || seen.Turn != 1 {
		t.Fatalf("expected a sighting of Altair on turn 1 got %+v", seen)
	}
	if len(reportsOf[report.Intel](a)) != 1 {
		t.Fatalf("expected one intel report")
	}
	if len(state.Dispatches) != 1 || !state.Dispatches[0].IsReturning() {
		t.Fatalf("expected the probe to head home")
	}
	if altair.Owner != "" {
		t.Fatalf("expected a probe to leave ownership alone got %q", altair.Owner)
	}
}

func TestRaidCarriesBuildPointsHome(t *testing.T) {
	altair := &system.System{Name: "Altair", Position: system.Position{X: 3}}
	altair.BuildPoints = 30
	state := newState(t, testSettings(), altair)
	state.Dispatches = append(state.Dispatches,
		dispatch("a", "Vega", "Altair", 3, fleet.Fleet{WarShips: 5, Transports: 1}, fleet.MissionResourceRaid))

	resolve(state)

	if altair.BuildPoints != 0 {
		t.Fatalf("expected Altair looted got %d build points", altair.BuildPoints)
	}
	if len(state.Dispatches) != 1 {
		t.Fatalf("expected the raiders in flight got %d", len(state.Dispatches))
	}
	d := state.Dispatches[0]
	if d.BuildPoints != 30 || !d.IsReturning() {
		t.Fatalf("expected 30 build points heading home got %+v", d)
	}
	if got := reportsOf[report.Combat](state.Player("a")); len(got) != 1 || got[0].Looted != 30 {
		t.Fatalf("expected a combat report with 30 looted got %+v", got)
	}

	resolve(state)

	vega := state.System("Vega")
	if len(state.Dispatches) != 0 || vega.WarShips != 25 || vega.Transports != 1 {
		t.Fatalf("expected the raiders merged into Vega got %+v", vega.Fleet)
	}
	// 10 banked on each turn plus the loot
	if vega.BuildPoints != 50 {
		t.Fatalf("expected 50 build points at Vega got %d", vega.BuildPoints)
	}
	back := reportsOf[report.Reinforced](state.Player("a"))
	if len(back) != 1 || !back[0].Returned || back[0].Source != "Altair" || back[0].Units.BuildPoints != 30 {
		t.Fatalf("expected a returned report carrying 30 build points got %+v", back)
	}
}

func TestScoutArrival(t *testing.T) {
	state := newState(t, testSettings())
	state.Scouts = append(state.Scouts, &fleet.Scout{
		Transit: fleet.Transit{ID: "s1", Owner: "a", Source: "Vega", Target: "Rigel", Distance: 5},
		Kind:    fleet.ScoutWarShip,
	})

	resolve(state)

	if len(state.Scouts) != 0 {
		t.Fatalf("expected the scout to be consumed")
	}
	a, b := state.Player("a"), state.Player("b")
	if _, ok := a.FogOfWar["Rigel"]; !ok {
		t.Fatalf("expected a sighting of Rigel")
	}
	if len(reportsOf[report.Intel](a)) != 1 {
		t.Fatalf("expected one intel report")
	}
	detects := reportsOf[report.Detect](b)
	if len(detects) != 1 || !detects[0].Scout || detects[0].Owner != "a" {
		t.Fatalf("expected b to spot the scout got %+v", detects)
	}
}

func TestIncomingFleetIsDetectedOnce(t *testing.T) {
	state := newState(t, testSettings())
	state.Dispatches = append(state.Dispatches,
		dispatch("a", "Vega", "Rigel", 14, fleet.Fleet{WarShips: 20}, fleet.MissionConquest))

	resolve(state)

	detects := reportsOf[report.Detect](state.Player("b"))
	if len(detects) != 1 {
		t.Fatalf("expected one detect report got %d", len(detects))
	}
	if detects[0].Ships != 20 || detects[0].ETA != 2 {
		t.Fatalf("expected 20 ships arriving in 2 turns got %+v", detects[0])
	}
	if !state.Dispatches[0].Detected {
		t.Fatalf("expected the dispatch to be marked detected")
	}
}

func TestSmallFleetsSlipThrough(t *testing.T) {
	state := newState(t, testSettings())
	state.Dispatches = append(state.Dispatches,
		dispatch("a", "Vega", "Rigel", 14, fleet.Fleet{WarShips: 5}, fleet.MissionConquest))

	resolve(state)

	if got := reportsOf[report.Detect](state.Player("b")); len(got) != 0 {
		t.Fatalf("expected no detect report got %+v", got)
	}
}

func TestUnderGarrisonedPlanetLosesMorale(t *testing.T) {
	state := newState(t, testSettings())
	state.System("Vega").Planets[0].Troops = 0

	resolve(state)

	if got := state.System("Vega").Planets[0].Morale; got != -1 {
		t.Fatalf("expected morale -1 got %d", got)
	}
	if got := reportsOf[report.Unrest](state.Player("a")); len(got) == 0 {
		t.Fatalf("expected an unrest report")
	}
}

func TestEliminationEndsTheGame(t *testing.T) {
	state := newState(t, testSettings())
	state.System("Rigel").Owner = "a"
	state.System("Rigel").Planets[0].Owner = "a"

	summary := resolve(state)

	if !state.Player("b").Eliminated {
		t.Fatalf("expected b eliminated")
	}
	if !summary.Finished || summary.Winner != "a" {
		t.Fatalf("expected a to win got %+v", summary)
	}
	if !state.IsFinished() || state.Winner != "a" {
		t.Fatalf("expected a completed game won by a got %s %q", state.Status, state.Winner)
	}
}

func TestMaxGameLengthCrownsTheLeader(t *testing.T) {
	settings := testSettings()
	settings.MaxGameLength = 1
	state := newState(t, settings)
	state.System("Rigel").WarShips = 60

	summary := resolve(state)

	if !summary.Finished || state.Winner != "b" {
		t.Fatalf("expected b to win on score got %+v", summary)
	}
}

func TestUnhappySystemIsOverthrown(t *testing.T) {
	state := newState(t, testSettings())
	vega := state.System("Vega")
	vega.Planets = []system.Planet{{Owner: "a", Morale: -5, Recruit: 2, Troops: 100}}

	scheduler := newTestScheduler()
	for i := 0; i < 20 && !state.IsFinished(); i++ {
		scheduler.Resolve(context.Background(), state)
	}

	if !vega.IsNeutral() || vega.Planets[0].Owner != "" {
		t.Fatalf("expected Vega overthrown got owner %q", vega.Owner)
	}
	if !state.Player("a").Eliminated || state.Winner != "b" {
		t.Fatalf("expected a eliminated and b the winner got %q", state.Winner)
	}
}

func TestPrivateersSeizeShipsFromUnhappySystems(t *testing.T) {
	seizedRuns := 0
	for i := range 100 {
		state := newState(t, testSettings())
		state.Stream = rng.New(strconv.Itoa(i))
		vega := state.System("Vega")
		vega.Planets[0].Morale = -2

		resolve(state)

		reports := reportsOf[report.Privateer](state.Player("a"))
		if len(reports) == 0 {
			if vega.Privateers != 0 || vega.WarShips != 20 {
				t.Fatalf("seed %d: expected nothing seized got %d privateers and %d warships", i, vega.Privateers, vega.WarShips)
			}
			continue
		}
		seizedRuns++

		seized := reports[0].Seized.WarShips
		if seized < 1 || seized > 2 {
			t.Fatalf("seed %d: expected 1 or 2 warships seized got %d", i, seized)
		}
		if vega.Privateers != seized || vega.WarShips != 20-seized {
			t.Fatalf("seed %d: expected %d privateers and %d warships got %d and %d",
				i, seized, 20-seized, vega.Privateers, vega.WarShips)
		}

		vega.Planets[0].Morale = 1
		resolve(state)
		if vega.Privateers != 0 {
			t.Fatalf("seed %d: expected privateers to disperse at morale 1 got %d", i, vega.Privateers)
		}
		if got := reportsOf[report.Privateer](state.Player("a")); len(got) != 0 {
			t.Fatalf("seed %d: expected no privateers at morale 1 got %+v", i, got)
		}
	}

	if seizedRuns == 0 {
		t.Fatalf("expected privateers to strike on some seed")
	}
}

func TestFailedInvasionLeavesPlanetsHeld(t *testing.T) {
	altair := &system.System{
		Name:     "Altair",
		Position: system.Position{X: 3},
		Planets:  []system.Planet{{Recruit: 1, Troops: 10}, {Recruit: 1, Troops: 10}},
	}
	state := newState(t, testSettings(), altair)
	state.Player("a").Ratings = player.Ratings{Naval: 90, Ground: 0}
	state.Dispatches = append(state.Dispatches,
		dispatch("a", "Vega", "Altair", 3, fleet.Fleet{WarShips: 10, Transports: 1, Troops: 5}, fleet.MissionConquest))

	resolve(state)

	if altair.Owner != "a" {
		t.Fatalf("expected a to hold the orbit got %q", altair.Owner)
	}
	for i, p := range altair.Planets {
		if p.Owner != "" || p.Troops != 11 {
			t.Fatalf("expected planet %d kept by the Empire with 11 troops got %+v", i, p)
		}
	}
	if altair.Troops != 0 {
		t.Fatalf("expected no troops left in orbit got %d", altair.Troops)
	}

	combats := reportsOf[report.Combat](state.Player("a"))
	if len(combats) != 1 || combats[0].Invasion == nil {
		t.Fatalf("expected one combat report with an invasion got %+v", combats)
	}
	inv := *combats[0].Invasion
	want := report.Invasion{PlanetsCaptured: 0, PlanetsHeld: 2, AttackerLosses: 5, DefenderLosses: 0}
	if inv != want {
		t.Fatalf("expected %+v got %+v", want, inv)
	}
}

func TestCapturedPlanetsShareTheGarrison(t *testing.T) {
	altair := &system.System{
		Name:     "Altair",
		Position: system.Position{X: 3},
		Planets:  []system.Planet{{Recruit: 1}, {Recruit: 1}, {Recruit: 1}},
	}
	state := newState(t, testSettings(), altair)
	state.Dispatches = append(state.Dispatches,
		dispatch("a", "Vega", "Altair", 3, fleet.Fleet{WarShips: 10, Transports: 1, Troops: 31}, fleet.MissionConquest))

	resolve(state)

	// recruitment runs after the invasion
	want := []int{12, 11, 11}
	for i, p := range altair.Planets {
		if p.Owner != "a" || p.Troops != want[i] {
			t.Fatalf("expected planet %d held by a with %d troops got %+v", i, want[i], p)
		}
	}
	if altair.Troops != 0 {
		t.Fatalf("expected every troop landed got %d in orbit", altair.Troops)
	}
	combats := reportsOf[report.Combat](state.Player("a"))
	if len(combats) != 1 || combats[0].Invasion == nil || combats[0].Invasion.PlanetsCaptured != 3 {
		t.Fatalf("expected three captured planets got %+v", combats)
	}
}

func TestReturningFleetScattersAtLostHome(t *testing.T) {
	state := newState(t, testSettings())
	vega := state.System("Vega")
	vega.Owner = "b"
	vega.Planets[0].Owner = "b"
	state.Player("a").Ratings.Naval = 0
	state.Player("b").Ratings.Naval = 0

	d := dispatch("a", "Rigel", "Vega", 3, fleet.Fleet{WarShips: 5}, fleet.MissionConquest)
	d.Recalled = true
	state.Dispatches = append(state.Dispatches, d)

	resolve(state)

	if len(state.Dispatches) != 0 {
		t.Fatalf("expected the fleet scattered got %d dispatches", len(state.Dispatches))
	}
	if vega.Owner != "b" || vega.WarShips != 20 {
		t.Fatalf("expected b to keep Vega with 20 warships got %q with %d", vega.Owner, vega.WarShips)
	}
	combats := reportsOf[report.Combat](state.Player("a"))
	if len(combats) != 1 || combats[0].Winner != report.OutcomeDraw {
		t.Fatalf("expected one drawn battle got %+v", combats)
	}
	if got := reportsOf[report.Reinforced](state.Player("a")); len(got) != 0 {
		t.Fatalf("expected nothing to come home got %+v", got)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	settings := DefaultSettings()
	settings.MaxGameLength = 0

	run := func() []byte {
		state := newState(t, settings, &system.System{
			Name:      "Altair",
			Position:  system.Position{X: 40},
			Factories: 5,
			Planets:   []system.Planet{{Recruit: 2, Troops: 10}},
		})
		state.System("Vega").Production = system.UnitWarShips
		state.Dispatches = append(state.Dispatches,
			dispatch("a", "Vega", "Altair", 40, fleet.Fleet{WarShips: 15, Transports: 1, Troops: 30}, fleet.MissionConquest))

		scheduler := newTestScheduler()
		for range 8 {
			scheduler.Resolve(context.Background(), state)
		}
		data, err := json.Marshal(state)
		if err != nil {
			t.Fatalf("marshal state: %v", err)
		}
		return data
	}

	if first, second := run(), run(); string(first) != string(second) {
		t.Fatalf("expected identical states from the same seed")
	}
}
