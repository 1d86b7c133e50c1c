package rng

import (
	"encoding/json"
	"testing"
)

func TestSameSeedSameSequence(t *testing.T) {
	a := New("1000")
	b := New("1000")

	for i := 0; i < 100; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d: expected %v got %v", i, x, y)
		}
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := New("1000")
	b := New("1001")

	same := 0
	for i := 0; i < 20; i++ {
		if a.Float64() == b.Float64() {
			same++
		}
	}
	if same == 20 {
		t.Fatalf("expected different seeds to produce different sequences")
	}
}

func TestBetweenAndIntNRanges(t *testing.T) {
	s := New("ranges")
	for i := 0; i < 500; i++ {
		if v := s.Between(25, 90); v < 25 || v > 90 {
			t.Fatalf("Between out of range: %d", v)
		}
		if v := s.IntN(3); v < 0 || v > 2 {
			t.Fatalf("IntN out of range: %d", v)
		}
	}
	if v := s.Between(7, 7); v != 7 {
		t.Fatalf("expected 7 got %d", v)
	}
}

func TestPick(t *testing.T) {
	s := New("pick")

	if got := s.Pick(0, 0, 0); got != -1 {
		t.Fatalf("expected -1 for empty weights got %d", got)
	}
	for i := 0; i < 200; i++ {
		if got := s.Pick(0, 5, 0); got != 1 {
			t.Fatalf("expected only index 1 to be picked got %d", got)
		}
	}

	counts := make([]int, 2)
	for i := 0; i < 2000; i++ {
		counts[s.Pick(1, 3)]++
	}
	if counts[1] < counts[0] {
		t.Fatalf("expected heavier weight to win more often: %v", counts)
	}
}

func TestStreamRoundTripContinuesSequence(t *testing.T) {
	s := New("persist")
	for i := 0; i < 17; i++ {
		s.Float64()
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var restored Stream
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restored.Seed() != "persist" {
		t.Fatalf("expected seed persist got %q", restored.Seed())
	}
	for i := 0; i < 10; i++ {
		if x, y := s.Float64(), restored.Float64(); x != y {
			t.Fatalf("draw %d after restore: expected %v got %v", i, x, y)
		}
	}
}

func TestNewSeed(t *testing.T) {
	a, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed: %v", err)
	}
	b, _ := NewSeed()
	if len(a) != 32 || a == b {
		t.Fatalf("unexpected seeds %q %q", a, b)
	}
}
