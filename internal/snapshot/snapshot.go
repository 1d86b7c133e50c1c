// Package snapshot turns game state into durable, verifiable blobs: JSON,
// compressed with lz4, and sealed with a blake3 checksum chained to the
// previous snapshot of the same game.
package snapshot

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"
)

// Genesis is the previous checksum of the first snapshot of every game.
const Genesis = "genesis"

var ErrChecksumMismatch = errors.New("snapshot checksum mismatch")

// Snapshot is one encoded turn of one game.
type Snapshot struct {
	GameID    string    `json:"gameId"`
	Turn      int       `json:"turn"`
	Data      []byte    `json:"data"`
	Checksum  string    `json:"checksum"`
	Previous  string    `json:"previous"`
	CreatedAt time.Time `json:"createdAt"`
}

// Encode serialises v and seals it against previous. An empty previous
// starts a new chain.
func Encode(gameID string, turn int, v any, previous string, now time.Time) (Snapshot, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to marshal state: %w", err)
	}

	compressed, err := compress(raw)
	if err != nil {
		return Snapshot{}, err
	}

	if previous == "" {
		previous = Genesis
	}
	return Snapshot{
		GameID:    gameID,
		Turn:      turn,
		Data:      compressed,
		Checksum:  checksum(compressed, previous),
		Previous:  previous,
		CreatedAt: now,
	}, nil
}

// Decode verifies the checksum and unmarshals the state into v.
func Decode(s Snapshot, v any) error {
	if err := s.Verify(); err != nil {
		return err
	}

	raw, err := decompress(s.Data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return nil
}

// Verify recomputes the checksum.
func (s Snapshot) Verify() error {
	if checksum(s.Data, s.Previous) != s.Checksum {
		return fmt.Errorf("game %s turn %d: %w", s.GameID, s.Turn, ErrChecksumMismatch)
	}
	return nil
}

// Follows reports whether s directly continues the chain of prev.
func (s Snapshot) Follows(prev Snapshot) bool {
	return s.GameID == prev.GameID && s.Previous == prev.Checksum
}

func checksum(data []byte, previous string) string {
	h := blake3.New(32, nil)
	h.Write(data)
	h.Write([]byte(previous))
	return hex.EncodeToString(h.Sum(nil))
}

func compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		return nil, fmt.Errorf("failed to compress state: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress state: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, lz4.NewReader(bytes.NewReader(src))); err != nil {
		return nil, fmt.Errorf("failed to decompress state: %w", err)
	}
	return buf.Bytes(), nil
}
