// Package storage persists game snapshots.
package storage

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"

	"conquest-server/internal/shared/database"
	"conquest-server/internal/shared/errors"
	"conquest-server/internal/snapshot"
)

// Store saves and loads snapshots of a game's history.
type Store interface {
	Save(ctx context.Context, s snapshot.Snapshot) error
	Load(ctx context.Context, gameID string, turn int) (snapshot.Snapshot, error)
	Latest(ctx context.Context, gameID string) (snapshot.Snapshot, error)
}

// SQLStore keeps snapshots in the snapshots table of a postgres or sqlite
// database.
type SQLStore struct {
	db     *database.DB
	logger *slog.Logger
}

func NewSQLStore(db *database.DB, logger *slog.Logger) *SQLStore {
	return &SQLStore{db: db, logger: logger}
}

// Save writes s, replacing any snapshot of the same game and turn.
func (r *SQLStore) Save(ctx context.Context, s snapshot.Snapshot) error {
	logger := r.logger.With("component", "snapshot_store", "operation", "save", "game_id", s.GameID, "turn", s.Turn)

	query := r.db.Rebind(`
		INSERT INTO snapshots (game_id, turn, data, checksum, previous, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (game_id, turn) DO UPDATE SET
			data = excluded.data,
			checksum = excluded.checksum,
			previous = excluded.previous,
			created_at = excluded.created_at`)

	if _, err := r.db.ExecContext(ctx, query, s.GameID, s.Turn, s.Data, s.Checksum, s.Previous, s.CreatedAt.UTC()); err != nil {
		logger.Error("Failed to save snapshot", "error", err)
		return errors.WrapExternal("failed to save snapshot", err)
	}

	logger.Debug("Snapshot saved", "bytes", len(s.Data))
	return nil
}

func (r *SQLStore) Load(ctx context.Context, gameID string, turn int) (snapshot.Snapshot, error) {
	query := r.db.Rebind(`
		SELECT game_id, turn, data, checksum, previous, created_at
		FROM snapshots
		WHERE game_id = ? AND turn = ?`)

	s, err := r.scan(r.db.QueryRowContext(ctx, query, gameID, turn))
	if stderrors.Is(err, sql.ErrNoRows) {
		return snapshot.Snapshot{}, errors.NotFoundf("no snapshot of game %s at turn %d", gameID, turn)
	}
	return s, err
}

func (r *SQLStore) Latest(ctx context.Context, gameID string) (snapshot.Snapshot, error) {
	query := r.db.Rebind(`
		SELECT game_id, turn, data, checksum, previous, created_at
		FROM snapshots
		WHERE game_id = ?
		ORDER BY turn DESC
		LIMIT 1`)

	s, err := r.scan(r.db.QueryRowContext(ctx, query, gameID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return snapshot.Snapshot{}, errors.NotFoundf("no snapshot of game %s", gameID)
	}
	return s, err
}

// History returns every snapshot of a game, oldest first.
func (r *SQLStore) History(ctx context.Context, gameID string) ([]snapshot.Snapshot, error) {
	query := r.db.Rebind(`
		SELECT game_id, turn, data, checksum, previous, created_at
		FROM snapshots
		WHERE game_id = ?
		ORDER BY turn`)

	rows, err := r.db.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, errors.WrapExternal("failed to query snapshots", err)
	}
	defer rows.Close()

	var history []snapshot.Snapshot
	for rows.Next() {
		s, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapExternal("failed to read snapshots", err)
	}
	return history, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *SQLStore) scan(row scanner) (snapshot.Snapshot, error) {
	var s snapshot.Snapshot
	err := row.Scan(&s.GameID, &s.Turn, &s.Data, &s.Checksum, &s.Previous, &s.CreatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return snapshot.Snapshot{}, err
	}
	if err != nil {
		return snapshot.Snapshot{}, errors.WrapExternal("failed to scan snapshot", err)
	}
	if err := s.Verify(); err != nil {
		return snapshot.Snapshot{}, errors.WrapInternal(fmt.Sprintf("snapshot of turn %d is corrupt", s.Turn), err)
	}
	return s, nil
}

// Audit verifies every stored snapshot of a game and the links between
// them. It returns the number of snapshots checked.
func (r *SQLStore) Audit(ctx context.Context, gameID string) (int, error) {
	logger := r.logger.With("component", "snapshot_store", "operation", "audit", "game_id", gameID)

	history, err := r.History(ctx, gameID)
	if err != nil {
		return 0, err
	}
	if err := VerifyChain(history); err != nil {
		logger.Error("Snapshot history is broken", "error", err)
		return 0, err
	}

	logger.Debug("Snapshot history verified", "snapshots", len(history))
	return len(history), nil
}

// VerifyChain checks that every snapshot follows the one before it.
func VerifyChain(history []snapshot.Snapshot) error {
	for i := 1; i < len(history); i++ {
		if !history[i].Follows(history[i-1]) {
			return errors.WrapInternal(
				fmt.Sprintf("snapshot of turn %d does not follow turn %d", history[i].Turn, history[i-1].Turn),
				snapshot.ErrChecksumMismatch)
		}
	}
	return nil
}
