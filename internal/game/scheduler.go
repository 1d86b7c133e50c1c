package game

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"conquest-server/internal/events"
	"conquest-server/internal/fleet"
	"conquest-server/internal/player"
	"conquest-server/internal/report"
	"conquest-server/internal/rng"
	"conquest-server/internal/system"
)

const tracerName = "conquest-server/internal/game"

const (
	privateerMoraleChance = 0.1
	overthrowMorale       = -3
	overthrowChanceStep   = 0.25
)

// Summary counts what happened during one turn.
type Summary struct {
	Turn       int
	Arrivals   int
	Battles    int
	Invasions  int
	Built      int
	Events     int
	Overthrown int
	Finished   bool
	Winner     string
}

// Scheduler advances a game by one turn.
type Scheduler struct {
	events *events.Engine
	tracer trace.Tracer
	logger *slog.Logger
	now    func() time.Time
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		events: events.NewEngine(),
		tracer: otel.Tracer(tracerName),
		logger: logger,
		now:    time.Now,
	}
}

// resolution carries one pass of the scheduler over a state.
type resolution struct {
	state   *State
	stream  *rng.Stream
	events  *events.Engine
	logger  *slog.Logger
	summary Summary
}

// Resolve runs the whole turn sequence. It never fails on a valid state; a
// broken invariant panics.
func (s *Scheduler) Resolve(ctx context.Context, state *State) Summary {
	_, span := s.tracer.Start(ctx, "game.resolve_turn", trace.WithAttributes(
		attribute.String("game.id", state.ID),
		attribute.Int("game.turn", state.Turn+1),
	))
	defer span.End()

	r := &resolution{
		state:  state,
		stream: state.Stream,
		events: s.events,
		logger: s.logger.With("component", "turn_scheduler", "operation", "resolve", "game_id", state.ID),
	}

	r.startTurn()
	r.logger.Debug("Resolving turn", "turn", state.Turn)

	r.advanceDispatches()
	r.advanceScouts()
	r.produce()
	r.recruit()

	if state.Settings.MaxGameLength > 0 && state.Turn >= state.Settings.MaxGameLength {
		r.updateEliminations()
		state.finish(state.Leader(), s.now())
		r.summary.Finished = true
		r.summary.Winner = state.Winner
		r.logger.Info("Game reached its last turn", "turn", state.Turn, "winner", state.Winner)
		return r.summary
	}

	if state.Settings.EnableRandomEvents {
		r.randomEvents()
	}
	r.unrest()
	r.updateEliminations()

	if winner, ok := r.lastStanding(); ok {
		state.finish(winner, s.now())
		r.summary.Finished = true
		r.summary.Winner = winner
		r.logger.Info("Game won by elimination", "turn", state.Turn, "winner", winner)
	}

	state.UpdatedAt = s.now()
	span.SetAttributes(
		attribute.Int("turn.battles", r.summary.Battles),
		attribute.Int("turn.invasions", r.summary.Invasions),
	)
	r.logger.Info("Turn resolved",
		"turn", state.Turn,
		"arrivals", r.summary.Arrivals,
		"battles", r.summary.Battles,
		"invasions", r.summary.Invasions,
		"built", r.summary.Built,
		"events", r.summary.Events,
		"overthrown", r.summary.Overthrown)
	return r.summary
}

func (r *resolution) startTurn() {
	for _, p := range r.state.Players {
		p.StartTurn()
	}
	r.state.Turn++
	r.summary.Turn = r.state.Turn
}

func (r *resolution) speed() float64 {
	return float64(r.state.Settings.ShipSpeedATurn)
}

func (r *resolution) notify(owner string, rep report.Report) {
	if p := r.state.Player(owner); p != nil {
		p.AddReport(rep)
	}
}

func (r *resolution) advanceDispatches() {
	kept := r.state.Dispatches[:0]
	for _, d := range r.state.Dispatches {
		d.Move(r.speed())
		if !d.HasReachedTarget() {
			r.detect(d)
			kept = append(kept, d)
			continue
		}
		r.summary.Arrivals++
		if r.arrive(d) {
			kept = append(kept, d)
		}
	}
	r.state.Dispatches = kept
}

// detect warns a system owner once about a large fleet within range.
func (r *resolution) detect(d *fleet.Dispatch) {
	if d.Detected || d.IsReturning() || !d.IsDetectable() {
		return
	}
	target := r.state.System(d.Target)
	if target == nil || target.IsNeutral() || target.Owner == d.Owner {
		return
	}
	if d.Distance > target.DetectionRange() {
		return
	}
	d.Detected = true
	r.notify(target.Owner, report.Detect{
		System: target.Name,
		Owner:  d.Owner,
		Source: d.Source,
		Ships:  d.TotalShips(),
		ETA:    d.ETA(r.speed()),
	})
}

func (r *resolution) advanceScouts() {
	kept := r.state.Scouts[:0]
	for _, sc := range r.state.Scouts {
		sc.Move(r.speed())
		if !sc.HasReachedTarget() {
			kept = append(kept, sc)
			continue
		}
		r.summary.Arrivals++
		r.arriveScout(sc)
	}
	r.state.Scouts = kept
}

func (r *resolution) arriveScout(sc *fleet.Scout) {
	target := r.state.System(sc.Target)
	if target == nil {
		return
	}
	if target.Owner == sc.Owner {
		target.Merge(sc.Kind.Unit())
		return
	}
	if sc.IsReturning() {
		// home was lost while the scout was away
		return
	}

	if p := r.state.Player(sc.Owner); p != nil {
		p.Sight(target, r.state.Turn)
		p.AddReport(report.Intel{System: target.Name, Turn: r.state.Turn, Source: sc.Source, View: target.Clone()})
	}
	if sc.Kind == fleet.ScoutWarShip && sc.ShouldReveal(target.Owner) {
		r.notify(target.Owner, report.Detect{
			System: target.Name,
			Owner:  sc.Owner,
			Source: sc.Source,
			Ships:  1,
			Scout:  true,
		})
	}
}

func (r *resolution) planetBuilder(owner string) system.Planet {
	return system.Planet{
		Owner:   owner,
		Recruit: r.stream.Between(system.MinRecruit, system.MaxRecruit/2),
	}
}

func (r *resolution) produce() {
	for _, sys := range r.state.Systems {
		var result system.ProductionResult
		if sys.IsNeutral() {
			if !r.state.Settings.EnableEmpireBuilds {
				continue
			}
			sys.Production = system.UnitWarShips
			result = sys.ProduceScaled(r.planetBuilder, r.state.Settings.Difficulty.EmpireFactor())
		} else {
			result = sys.Produce(r.planetBuilder)
		}
		r.summary.Built += result.Built
	}
}

func (r *resolution) recruit() {
	for _, sys := range r.state.Systems {
		for i := range sys.Planets {
			sys.Planets[i].RecruitTroops()
		}
	}
}

func (r *resolution) randomEvents() {
	for _, p := range r.state.Players {
		if !p.IsActive() {
			continue
		}
		for _, ev := range r.events.Run(p.ID, r.state.Systems, r.stream) {
			p.AddReport(ev)
			r.summary.Events++
		}
	}
}

// unrest lowers morale on under-garrisoned planets, lets privateers prey
// on unhappy systems and overthrows the worst of them.
func (r *resolution) unrest() {
	for _, sys := range r.state.Systems {
		if sys.IsNeutral() {
			continue
		}
		owner := sys.Owner

		for _, i := range sys.OwnedPlanets(owner) {
			p := &sys.Planets[i]
			if !p.IsUnderGarrisoned() {
				continue
			}
			p.ChangeMorale(-1)
			r.notify(owner, report.Unrest{System: sys.Name, Planet: i, Morale: p.Morale})
		}

		morale := sys.Morale()
		switch {
		case morale < 0:
			r.privateers(sys, morale)
		case morale >= 1:
			sys.Privateers = 0
		}

		if morale <= overthrowMorale && r.stream.Chance(float64(-morale-2)*overthrowChanceStep) {
			sys.Overthrow()
			r.summary.Overthrown++
			r.notify(owner, report.Unrest{System: sys.Name, Planet: -1, Morale: morale, Overthrown: true})
			r.logger.Info("System overthrown", "system", sys.Name, "owner", owner, "morale", morale)
		}
	}
}

func (r *resolution) privateers(sys *system.System, morale int) {
	if sys.WarShips == 0 || !r.stream.Chance(float64(-morale)*privateerMoraleChance) {
		return
	}
	seized := fleet.Fleet{WarShips: r.stream.Between(1, max(1, sys.WarShips/10))}
	if _, err := sys.Fleet.Fork(seized); err != nil {
		panic(err)
	}
	sys.Privateers += seized.WarShips
	r.notify(sys.Owner, report.Privateer{System: sys.Name, Seized: seized})
}

func (r *resolution) updateEliminations() {
	for _, p := range r.state.Players {
		if p.Eliminated {
			continue
		}
		if len(r.state.SystemsOf(p.ID)) == 0 && !r.state.hasUnitsInTransit(p.ID) {
			p.Eliminated = true
			r.logger.Info("Player eliminated", "user_id", p.ID, "turn", r.state.Turn)
		}
	}
}

// lastStanding reports the sole surviving player of a multiplayer game.
func (r *resolution) lastStanding() (string, bool) {
	if len(r.state.Players) < 2 {
		return "", false
	}
	var alive []*player.Player
	for _, p := range r.state.Players {
		if p.IsActive() {
			alive = append(alive, p)
		}
	}
	switch len(alive) {
	case 0:
		return "", true
	case 1:
		return alive[0].ID, true
	}
	return "", false
}
