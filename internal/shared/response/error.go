package response

import (
	"log/slog"

	"conquest-server/internal/shared/errors"
)

// Rejection is what the command layer shows a player whose command failed.
type Rejection struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}

// Reject logs an error and converts it into a player-facing rejection.
// This should be the only place where command errors are logged.
func Reject(logger *slog.Logger, command, userID string, err error) Rejection {
	errorType := errors.GetType(err)

	logError(logger, command, userID, err, errorType)

	message := err.Error()
	if errorType == errors.ErrorTypeInternal || errorType == errors.ErrorTypeExternal {
		// Internal detail never reaches players
		message = "the command could not be processed, try again later"
	}

	return Rejection{
		Error:   string(errorType),
		Message: message,
		Fatal:   errorType == errors.ErrorTypeInternal,
	}
}

// logError logs the error with appropriate level and context
func logError(logger *slog.Logger, command, userID string, err error, errorType errors.ErrorType) {
	logCtx := logger.With(
		"command", command,
		"user_id", userID,
		"error_type", errorType,
	)

	switch errorType {
	case errors.ErrorTypeArgument, errors.ErrorTypeNotFound:
		logCtx.Debug("Invalid command argument", "error", err)
	case errors.ErrorTypeGameState:
		logCtx.Debug("Command rejected by game rules", "error", err)
	case errors.ErrorTypeRateLimited:
		logCtx.Warn("Command rate limit exceeded", "error", err)
	case errors.ErrorTypeExternal:
		logCtx.Error("External service error", "error", err)
	case errors.ErrorTypeInternal:
		fallthrough
	default:
		logCtx.Error("Internal error", "error", err)
	}
}
