package player

import "errors"

var (
	ErrEliminated = errors.New("player has been eliminated")
	ErrTurnEnded  = errors.New("turn already ended")
)
