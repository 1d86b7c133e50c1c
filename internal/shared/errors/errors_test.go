package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestGetType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"argument", Argumentf("bad amount %d", -1), ErrorTypeArgument},
		{"game state", GameState("not your system"), ErrorTypeGameState},
		{"not found", NotFoundf("system %s", "Vega"), ErrorTypeNotFound},
		{"rate limited", RateLimited("slow down"), ErrorTypeRateLimited},
		{"wrapped", fmt.Errorf("outer: %w", GameStatef("inner")), ErrorTypeGameState},
		{"plain", errors.New("boom"), ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetType(tt.err); got != tt.want {
				t.Fatalf("expected %s got %s", tt.want, got)
			}
		})
	}
}

func TestAppErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapExternal("failed to save snapshot", cause)

	if err.Error() != "failed to save snapshot: disk full" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be reachable")
	}
	if !Is(err, ErrorTypeExternal) {
		t.Fatalf("expected external type")
	}
	if Is(err, ErrorTypeInternal) {
		t.Fatalf("did not expect internal type")
	}
}
