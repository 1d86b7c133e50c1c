package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"conquest-server/internal/fleet"
	"conquest-server/internal/player"
	"conquest-server/internal/report"
	"conquest-server/internal/shared/errors"
	"conquest-server/internal/snapshot"
	"conquest-server/internal/system"
)

const saveTimeout = 30 * time.Second

// Store persists encoded game snapshots.
type Store interface {
	Save(ctx context.Context, s snapshot.Snapshot) error
	Load(ctx context.Context, gameID string, turn int) (snapshot.Snapshot, error)
	Latest(ctx context.Context, gameID string) (snapshot.Snapshot, error)
}

// Info is a read-only summary of a game.
type Info struct {
	ID        string
	Turn      int
	Status    GameStatus
	Winner    string
	UpdatedAt time.Time
}

// Service is the command entry point of one game. Every command and every
// turn resolution runs under its mutex.
type Service struct {
	mu        sync.Mutex
	state     *State
	scheduler *Scheduler
	store     Store
	limiter   *CommandLimiter
	logger    *slog.Logger
	checksum  string
	saves     sync.WaitGroup
	newID     func() string
	now       func() time.Time
}

// NewService wraps state. store and limiter may be nil.
func NewService(state *State, scheduler *Scheduler, store Store, limiter *CommandLimiter, logger *slog.Logger) *Service {
	return &Service{
		state:     state,
		scheduler: scheduler,
		store:     store,
		limiter:   limiter,
		logger:    logger,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Restore loads the latest snapshot of gameID from store. The snapshot must
// follow the stored one of the turn before; a missing predecessor is only
// logged since saves are allowed to fail.
func Restore(ctx context.Context, gameID string, scheduler *Scheduler, store Store, limiter *CommandLimiter, logger *slog.Logger) (*Service, error) {
	log := logger.With("component", "game_service", "operation", "restore", "game_id", gameID)

	snap, err := store.Latest(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}

	if snap.Previous != snapshot.Genesis {
		prev, err := store.Load(ctx, gameID, snap.Turn-1)
		switch {
		case errors.Is(err, errors.ErrorTypeNotFound):
			log.Warn("Previous snapshot missing, chain not checked", "turn", snap.Turn)
		case err != nil:
			return nil, fmt.Errorf("failed to load previous snapshot: %w", err)
		case !snap.Follows(prev):
			log.Error("Snapshot chain broken", "turn", snap.Turn)
			return nil, errors.WrapInternal(
				fmt.Sprintf("snapshot of turn %d does not follow turn %d", snap.Turn, prev.Turn),
				snapshot.ErrChecksumMismatch)
		}
	}

	var state State
	if err := snapshot.Decode(snap, &state); err != nil {
		log.Error("Failed to decode snapshot", "turn", snap.Turn, "error", err)
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	svc := NewService(&state, scheduler, store, limiter, logger)
	svc.checksum = snap.Checksum
	log.Info("Game restored", "turn", state.Turn, "status", state.Status)
	return svc, nil
}

func (s *Service) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:        s.state.ID,
		Turn:      s.state.Turn,
		Status:    s.state.Status,
		Winner:    s.state.Winner,
		UpdatedAt: s.state.UpdatedAt,
	}
}

// begin checks that userID may issue a command. Callers hold the mutex.
func (s *Service) begin(userID string) (*player.Player, error) {
	if !s.limiter.Allow(userID) {
		return nil, errors.RateLimited("too many commands, slow down")
	}
	if s.state.IsFinished() {
		return nil, errors.GameState("the game is over")
	}
	p := s.state.Player(userID)
	if p == nil {
		return nil, errors.NotFoundf("player %s is not in this game", userID)
	}
	if p.Eliminated {
		return nil, errors.WrapGameState("command rejected", player.ErrEliminated)
	}
	if p.EndedTurn {
		return nil, errors.WrapGameState("command rejected", player.ErrTurnEnded)
	}
	return p, nil
}

func (s *Service) system(name string) (*system.System, error) {
	sys := s.state.System(name)
	if sys == nil {
		return nil, errors.NotFoundf("system %s does not exist", name)
	}
	return sys, nil
}

func (s *Service) route(from, to string) (*system.System, *system.System, error) {
	src, err := s.system(from)
	if err != nil {
		return nil, nil, err
	}
	dst, err := s.system(to)
	if err != nil {
		return nil, nil, err
	}
	return src, dst, nil
}

// Attack sends units from one of the player's systems against another
// system.
func (s *Service) Attack(userID, from, to string, units fleet.Fleet, mission fleet.Mission) (fleet.Dispatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger := s.logger.With("component", "game_service", "operation", "attack", "user_id", userID)

	if _, err := s.begin(userID); err != nil {
		return fleet.Dispatch{}, err
	}
	src, dst, err := s.route(from, to)
	if err != nil {
		return fleet.Dispatch{}, err
	}

	d, err := src.Attack(userID, dst, units, mission, s.newID())
	if err != nil {
		return fleet.Dispatch{}, err
	}
	s.state.Dispatches = append(s.state.Dispatches, d)

	logger.Debug("Fleet dispatched", "dispatch_id", d.ID, "from", from, "to", to, "mission", mission, "units", d.Fleet.String())
	return *d, nil
}

// Move sends units between two of the player's systems.
func (s *Service) Move(userID, from, to string, units fleet.Fleet) (fleet.Dispatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger := s.logger.With("component", "game_service", "operation", "move", "user_id", userID)

	if _, err := s.begin(userID); err != nil {
		return fleet.Dispatch{}, err
	}
	src, dst, err := s.route(from, to)
	if err != nil {
		return fleet.Dispatch{}, err
	}

	d, err := src.MoveTo(userID, dst, units, s.newID())
	if err != nil {
		return fleet.Dispatch{}, err
	}
	s.state.Dispatches = append(s.state.Dispatches, d)

	logger.Debug("Fleet moving", "dispatch_id", d.ID, "from", from, "to", to, "units", d.Fleet.String())
	return *d, nil
}

// Scout sends a single ship to look at another system.
func (s *Service) Scout(userID, from, to string, kind fleet.ScoutKind) (fleet.Scout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger := s.logger.With("component", "game_service", "operation", "scout", "user_id", userID)

	if _, err := s.begin(userID); err != nil {
		return fleet.Scout{}, err
	}
	src, dst, err := s.route(from, to)
	if err != nil {
		return fleet.Scout{}, err
	}

	sc, err := src.Scout(userID, dst, kind, s.newID())
	if err != nil {
		return fleet.Scout{}, err
	}
	s.state.Scouts = append(s.state.Scouts, sc)

	logger.Debug("Scout launched", "scout_id", sc.ID, "from", from, "to", to, "kind", kind)
	return *sc, nil
}

// Build changes what a system produces.
func (s *Service) Build(userID, systemName string, unit system.UnitType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.begin(userID); err != nil {
		return err
	}
	sys, err := s.system(systemName)
	if err != nil {
		return err
	}
	if sys.Owner != userID {
		return errors.GameStatef("%s is not yours", systemName)
	}
	if unit != system.UnitNone && !s.state.Settings.Allows(unit) {
		return errors.GameStatef("%s cannot be built in this game", unit)
	}
	return sys.Change(unit)
}

// Embark moves troops from a planet into orbit.
func (s *Service) Embark(userID, systemName string, planet, troops int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.begin(userID); err != nil {
		return err
	}
	sys, err := s.system(systemName)
	if err != nil {
		return err
	}
	return sys.Embark(userID, planet, troops)
}

// Disembark lands troops from orbit on a planet.
func (s *Service) Disembark(userID, systemName string, planet, troops int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.begin(userID); err != nil {
		return err
	}
	sys, err := s.system(systemName)
	if err != nil {
		return err
	}
	return sys.Disembark(userID, planet, troops)
}

// Recall turns a dispatch or scout around. The trip home is as long as the
// distance already covered.
func (s *Service) Recall(userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger := s.logger.With("component", "game_service", "operation", "recall", "user_id", userID, "transit_id", id)

	if _, err := s.begin(userID); err != nil {
		return err
	}

	t := s.transit(userID, id)
	if t == nil {
		return errors.NotFoundf("nothing in transit with id %s", id)
	}
	if t.IsReturning() {
		return errors.GameState("already on its way back")
	}

	src, dst, err := s.route(t.Source, t.Target)
	if err != nil {
		return err
	}
	covered := max(0, src.Position.DistanceTo(dst.Position)-t.Distance)
	t.Recall(covered)

	logger.Debug("Recalled", "distance", covered)
	return nil
}

func (s *Service) transit(owner, id string) *fleet.Transit {
	for _, d := range s.state.Dispatches {
		if d.ID == id && d.Owner == owner {
			return &d.Transit
		}
	}
	for _, sc := range s.state.Scouts {
		if sc.ID == id && sc.Owner == owner {
			return &sc.Transit
		}
	}
	return nil
}

// EndTurn marks the player ready. The turn resolves once every active
// player is ready; the summary is nil otherwise.
func (s *Service) EndTurn(ctx context.Context, userID string) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger := s.logger.With("component", "game_service", "operation", "end_turn", "user_id", userID)

	p, err := s.begin(userID)
	if err != nil {
		return nil, err
	}
	if err := p.EndTurn(); err != nil {
		return nil, errors.WrapGameState("cannot end turn", err)
	}
	logger.Debug("Player ended turn", "turn", s.state.Turn)

	if !s.state.AllEnded() {
		return nil, nil
	}
	summary := s.resolve(ctx)
	return &summary, nil
}

// ForceTurn resolves the turn whether or not every player is ready.
func (s *Service) ForceTurn(ctx context.Context) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsFinished() {
		return Summary{}, errors.GameState("the game is over")
	}
	return s.resolve(ctx), nil
}

// ResolveIfDue forces a turn when interval has passed since the last one.
func (s *Service) ResolveIfDue(ctx context.Context, interval time.Duration) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsFinished() || s.now().Sub(s.state.UpdatedAt) < interval {
		return nil, nil
	}
	summary := s.resolve(ctx)
	return &summary, nil
}

// resolve runs the scheduler and persists the result. Callers hold the
// mutex.
func (s *Service) resolve(ctx context.Context) Summary {
	logger := s.logger.With("component", "game_service", "operation", "resolve", "game_id", s.state.ID)

	summary := s.scheduler.Resolve(ctx, s.state)
	s.persist(ctx, logger)
	return summary
}

// persist encodes the state under the mutex and writes it in the
// background.
func (s *Service) persist(ctx context.Context, logger *slog.Logger) {
	if s.store == nil {
		return
	}

	snap, err := snapshot.Encode(s.state.ID, s.state.Turn, s.state, s.checksum, s.now())
	if err != nil {
		logger.Error("Failed to encode snapshot", "turn", s.state.Turn, "error", err)
		return
	}
	s.checksum = snap.Checksum

	s.saves.Add(1)
	go func() {
		defer s.saves.Done()
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
		defer cancel()
		saveCtx, span := otel.Tracer(tracerName).Start(saveCtx, "game.save_snapshot", trace.WithAttributes(
			attribute.String("game.id", snap.GameID),
			attribute.Int("game.turn", snap.Turn),
		))
		defer span.End()

		if err := s.store.Save(saveCtx, snap); err != nil {
			span.RecordError(err)
			logger.Error("Failed to save snapshot", "turn", snap.Turn, "error", err)
			return
		}
		logger.Debug("Snapshot saved", "turn", snap.Turn, "checksum", snap.Checksum)
	}()
}

// Checkpoint saves the current state without resolving a turn.
func (s *Service) Checkpoint(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.persist(ctx, s.logger.With("component", "game_service", "operation", "checkpoint", "game_id", s.state.ID))
}

// View returns what userID knows about every system.
func (s *Service) View(userID string) ([]player.SystemView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.state.Player(userID)
	if p == nil {
		return nil, errors.NotFoundf("player %s is not in this game", userID)
	}
	views := make([]player.SystemView, 0, len(s.state.Systems))
	for _, sys := range s.state.Systems {
		views = append(views, p.View(sys))
	}
	return views, nil
}

// Reports returns the reports of the last resolved turn.
func (s *Service) Reports(userID string) (report.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.state.Player(userID)
	if p == nil {
		return nil, errors.NotFoundf("player %s is not in this game", userID)
	}
	return append(report.List(nil), p.Reports...), nil
}

// Close waits for pending saves and stops the limiter.
func (s *Service) Close() {
	s.saves.Wait()
	s.limiter.Close()
}
