package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"conquest-server/internal/fleet"
	"conquest-server/internal/galaxy"
	"conquest-server/internal/game"
	"conquest-server/internal/rng"
	"conquest-server/internal/shared/errors"
	"conquest-server/internal/shared/response"
	"conquest-server/internal/system"
)

// Result is the outcome of a replayed scenario.
type Result struct {
	State     *game.State
	Service   *game.Service
	Summaries []game.Summary
}

type fixedMap []*system.System

func (m fixedMap) Generate([]string, int, *rng.Stream) []*system.System {
	return m
}

// Runner replays scenarios against a fresh game.
type Runner struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{logger: logger, now: time.Now}
}

// Run creates the game, then before every turn issues that turn's orders
// and forces the turn. It stops early once the game is finished.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Result, error) {
	logger := r.logger.With("component", "scenario_runner", "operation", "run", "scenario", sc.Name)

	var generator game.MapGenerator = galaxy.NewGenerator(galaxy.Config{NeutralSystems: sc.NeutralSystems}, r.logger)
	if len(sc.Systems) > 0 {
		systems := make(fixedMap, 0, len(sc.Systems))
		for _, s := range sc.Systems {
			systems = append(systems, s.build())
		}
		generator = systems
	}

	state, err := game.New(sc.Name, sc.Settings, sc.Players, generator, rng.New(sc.Seed), r.now())
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	svc := game.NewService(state, game.NewScheduler(r.logger), nil, nil, r.logger)
	result := &Result{State: state, Service: svc}
	labels := make(map[string]string)

	for turn := 1; turn <= sc.Turns && !state.IsFinished(); turn++ {
		var resolved *game.Summary
		for i, o := range sc.Orders {
			if o.Turn != turn {
				continue
			}
			summary, err := r.issue(ctx, svc, o, labels)
			if err != nil {
				rejection := response.Reject(logger, string(o.Command), o.Player, err)
				logger.Debug("Order rejected", "order", i, "turn", turn, "reason", rejection.Message)
			}
			if err := expect(o, err); err != nil {
				logger.Error("Order did not go as scripted", "order", i, "turn", turn, "error", err)
				return result, fmt.Errorf("order %d on turn %d: %w", i, turn, err)
			}
			if summary != nil {
				resolved = summary
			}
		}

		if resolved != nil {
			// every player ended the turn through orders
			result.Summaries = append(result.Summaries, *resolved)
			continue
		}
		summary, err := svc.ForceTurn(ctx)
		if err != nil {
			return result, fmt.Errorf("failed to resolve turn %d: %w", turn, err)
		}
		result.Summaries = append(result.Summaries, summary)
	}

	info := svc.Info()
	logger.Info("Scenario finished", "turn", info.Turn, "status", info.Status, "winner", info.Winner)
	return result, nil
}

// issue runs one order. The summary is set when the order completed the
// turn.
func (r *Runner) issue(ctx context.Context, svc *game.Service, o Order, labels map[string]string) (*game.Summary, error) {
	var id string
	var err error

	switch o.Command {
	case CommandAttack:
		var d fleet.Dispatch
		d, err = svc.Attack(o.Player, o.From, o.To, o.Units, o.Mission)
		id = d.ID
	case CommandMove:
		var d fleet.Dispatch
		d, err = svc.Move(o.Player, o.From, o.To, o.Units)
		id = d.ID
	case CommandScout:
		var sc fleet.Scout
		sc, err = svc.Scout(o.Player, o.From, o.To, o.Kind)
		id = sc.ID
	case CommandBuild:
		err = svc.Build(o.Player, o.From, o.Build)
	case CommandEmbark:
		err = svc.Embark(o.Player, o.From, o.Planet, o.Troops)
	case CommandDisembark:
		err = svc.Disembark(o.Player, o.From, o.Planet, o.Troops)
	case CommandRecall:
		err = svc.Recall(o.Player, labels[o.Label])
	case CommandEndTurn:
		return svc.EndTurn(ctx, o.Player)
	default:
		err = errors.Argumentf("unknown command %q", o.Command)
	}

	if err == nil && o.Label != "" && id != "" {
		labels[o.Label] = id
	}
	return nil, err
}

// expect compares the outcome of an order with what the script wants.
func expect(o Order, err error) error {
	switch {
	case o.ExpectError == "" && err != nil:
		return err
	case o.ExpectError != "" && err == nil:
		return fmt.Errorf("expected %s error, command succeeded", o.ExpectError)
	case o.ExpectError != "" && string(errors.GetType(err)) != o.ExpectError:
		return fmt.Errorf("expected %s error got %s: %w", o.ExpectError, errors.GetType(err), err)
	}
	return nil
}
