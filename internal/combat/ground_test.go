package combat

import (
	"strconv"
	"testing"
	"time"

	"conquest-server/internal/rng"
)

func TestGroundInvasion(t *testing.T) {
	result := ResolveGround(100, 0.7, 80, 0.6, rng.New("1000"))

	if result.Winner != WinnerAttacker {
		t.Fatalf("expected attacker to win got %s", result.Winner)
	}
	if result.DefenderRemaining != 0 || result.AttackerRemaining != 29 {
		t.Fatalf("expected 29 vs 0 troops left got %d vs %d", result.AttackerRemaining, result.DefenderRemaining)
	}
}

func TestGroundOverwhelmingAttackerAlwaysWins(t *testing.T) {
	for i := 0; i < 100; i++ {
		result := ResolveGround(50, 0.9, 5, 0.3, rng.New(strconv.Itoa(i)))
		if result.Winner != WinnerAttacker {
			t.Fatalf("seed %d: expected attacker win got %+v", i, result)
		}
		if result.AttackerRemaining < 0 || result.AttackerRemaining > 50 || result.DefenderRemaining != 0 {
			t.Fatalf("seed %d: troop counts out of range %+v", i, result)
		}
	}
}

func TestGroundEdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		attacker int
		defender int
		want     Winner
	}{
		{"undefended planet", 10, 0, WinnerAttacker},
		{"no attackers", 0, 10, WinnerDefender},
		{"nobody", 0, 0, WinnerDefender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ResolveGround(tt.attacker, 0.5, tt.defender, 0.5, rng.New("edge"))
			if result.Winner != tt.want {
				t.Fatalf("expected %s got %s", tt.want, result.Winner)
			}
			if result.AttackerRemaining != tt.attacker || result.DefenderRemaining != tt.defender {
				t.Fatalf("no troops should be lost without a fight got %+v", result)
			}
		})
	}
}

func TestGroundEndsWhenNobodyCanWin(t *testing.T) {
	tests := []struct {
		name           string
		attackerRating float64
		defenderRating float64
		wantAttacker   int
		wantDefender   int
	}{
		{"both ratings zero", 0, 0, 5, 5},
		{"negative ratings", -0.5, -1, 5, 5},
		{"hits too rare to finish", 1e-12, 1e-12, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done := make(chan GroundResult, 1)
			go func() {
				done <- ResolveGround(5, tt.attackerRating, 5, tt.defenderRating, rng.New("1"))
			}()

			select {
			case result := <-done:
				if result.Winner != WinnerDefender {
					t.Fatalf("expected the defender to hold got %s", result.Winner)
				}
				if result.AttackerRemaining != tt.wantAttacker || result.DefenderRemaining != tt.wantDefender {
					t.Fatalf("expected %d vs %d troops got %+v", tt.wantAttacker, tt.wantDefender, result)
				}
			case <-time.After(3 * time.Second):
				t.Fatalf("expected the invasion to end")
			}
		})
	}
}

func TestGroundStalemateLeavesStreamUntouched(t *testing.T) {
	stream := rng.New("1")
	ResolveGround(5, 0, 5, 0, stream)

	if got, want := stream.Float64(), rng.New("1").Float64(); got != want {
		t.Fatalf("expected no draws got %v want %v", got, want)
	}
}
