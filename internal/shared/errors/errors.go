package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeArgument indicates a malformed or out-of-range command parameter
	ErrorTypeArgument ErrorType = "argument"
	// ErrorTypeGameState indicates a command that would break a game invariant
	ErrorTypeGameState ErrorType = "game_state"
	// ErrorTypeNotFound indicates a game, player or system was not found
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeRateLimited indicates a player issued commands too quickly
	ErrorTypeRateLimited ErrorType = "rate_limited"
	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeExternal indicates a storage or cache failure
	ErrorTypeExternal ErrorType = "external"
)

// AppError is the base error type for application errors
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Argument creates an argument error
func Argument(message string) error {
	return &AppError{
		Type:    ErrorTypeArgument,
		Message: message,
	}
}

// Argumentf creates an argument error with formatting
func Argumentf(format string, args ...any) error {
	return &AppError{
		Type:    ErrorTypeArgument,
		Message: fmt.Sprintf(format, args...),
	}
}

// GameState creates a game state error
func GameState(message string) error {
	return &AppError{
		Type:    ErrorTypeGameState,
		Message: message,
	}
}

// GameStatef creates a game state error with formatting
func GameStatef(format string, args ...any) error {
	return &AppError{
		Type:    ErrorTypeGameState,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapGameState wraps an error as a game state error
func WrapGameState(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeGameState,
		Message: message,
		Err:     err,
	}
}

// NotFoundf creates a not found error with formatting
func NotFoundf(format string, args ...any) error {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

// RateLimited creates a rate limited error
func RateLimited(message string) error {
	return &AppError{
		Type:    ErrorTypeRateLimited,
		Message: message,
	}
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// WrapExternal wraps an error as an external service error
func WrapExternal(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// GetType returns the error type of an error
func GetType(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// Is reports whether err carries the given error type
func Is(err error, errorType ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == errorType
}
