package sensor

import (
	"context"
	"testing"
	"time"

	"parking_spot/internal/spot"
)

type manualNow struct{ t time.Time }

func (m *manualNow) now() time.Time     { return m.t }
func (m *manualNow) add(d time.Duration) { m.t = m.t.Add(d) }

func TestSimulator_FullCycle(t *testing.T) {
	ctx := context.Background()
	clk := &manualNow{t: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)}
	sim := NewSimulator(SimulatorConfig{Seed: 7, MeanDwell: 10 * time.Second}, clk.now)

	d, _ := sim.ReadDistanceCm(ctx)
	if d != 0 || sim.Phase() != PhaseEmpty {
		t.Fatalf("start: got %d cm in %s, want no echo while EMPTY", d, sim.Phase())
	}

	// Dwell is at most 1.5x the mean.
	clk.add(16 * time.Second)
	d, _ = sim.ReadDistanceCm(ctx)
	if sim.Phase() != PhaseArriving || d != int(approachStartCm) {
		t.Fatalf("arrival: got %d cm in %s", d, sim.Phase())
	}
	n, _ := sim.ReadNoiseLevel(ctx)
	if n < 900 {
		t.Fatalf("engine should be audible while arriving, got %d", n)
	}

	clk.add(500 * time.Millisecond)
	d, _ = sim.ReadDistanceCm(ctx)
	if d != 30 {
		t.Fatalf("approach: got %d cm, want 30", d)
	}

	clk.add(time.Second)
	d, _ = sim.ReadDistanceCm(ctx)
	if sim.Phase() != PhasePullIn || d != 21 {
		t.Fatalf("pull-in: got %d cm in %s, want 21", d, sim.Phase())
	}

	clk.add(200 * time.Millisecond)
	d, _ = sim.ReadDistanceCm(ctx)
	if sim.Phase() != PhaseParked || d != 3 {
		t.Fatalf("parked: got %d cm in %s", d, sim.Phase())
	}
	n, _ = sim.ReadNoiseLevel(ctx)
	if n < 900 {
		t.Fatalf("engine should still run right after parking, got %d", n)
	}

	clk.add(time.Second)
	_, _ = sim.ReadDistanceCm(ctx)
	n, _ = sim.ReadNoiseLevel(ctx)
	if sim.Phase() != PhaseParked || n > 60 {
		t.Fatalf("engine should be off once settled, got %d in %s", n, sim.Phase())
	}

	clk.add(16 * time.Second)
	_, _ = sim.ReadDistanceCm(ctx)
	if sim.Phase() != PhaseLeaving {
		t.Fatalf("want LEAVING, got %s", sim.Phase())
	}

	clk.add(time.Second)
	d, _ = sim.ReadDistanceCm(ctx)
	if sim.Phase() != PhaseEmpty || d != 0 {
		t.Fatalf("departure: got %d cm in %s", d, sim.Phase())
	}
}

func TestSimulator_DefaultCycleClassifiesInMotion(t *testing.T) {
	ctx := context.Background()
	clk := &manualNow{t: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)}
	sim := NewSimulator(SimulatorConfig{Seed: 11, MeanDwell: 3 * time.Second}, clk.now)
	th := spot.Thresholds{OccupiedCm: 5, NoiseRaw: 100, MotionDeltaCm: 10}

	seen := map[spot.Status]int{}
	prev := spot.NormalizeDistance(0, 200)
	for i := 0; i < 300; i++ {
		clk.add(200 * time.Millisecond)
		d, err := sim.ReadDistanceCm(ctx)
		if err != nil {
			t.Fatalf("read distance: %v", err)
		}
		n, err := sim.ReadNoiseLevel(ctx)
		if err != nil {
			t.Fatalf("read noise: %v", err)
		}
		d = spot.NormalizeDistance(d, 200)
		st, _ := spot.Classify(spot.Reading{DistanceCm: d, NoiseRaw: n}, prev, th)
		seen[st]++
		prev = d
	}

	for _, want := range []spot.Status{spot.StatusFree, spot.StatusInMotion, spot.StatusOccupied} {
		if seen[want] == 0 {
			t.Fatalf("status %s never observed over a minute of 200ms ticks: %v", want, seen)
		}
	}
}

func TestSimulator_EmptyDistanceOverride(t *testing.T) {
	clk := &manualNow{t: time.Unix(0, 0)}
	sim := NewSimulator(SimulatorConfig{Seed: 1, EmptyCm: 180}, clk.now)

	d, err := sim.ReadDistanceCm(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 180 {
		t.Fatalf("got %d, want 180", d)
	}
}

func TestSimulator_NoiseNeverNegative(t *testing.T) {
	clk := &manualNow{t: time.Unix(0, 0)}
	sim := NewSimulator(SimulatorConfig{Seed: 3, AmbientNoise: 1}, clk.now)

	for i := 0; i < 200; i++ {
		n, _ := sim.ReadNoiseLevel(context.Background())
		if n < 0 {
			t.Fatalf("negative noise sample %d", n)
		}
	}
}

func TestSimulator_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sim := NewSimulator(SimulatorConfig{Seed: 1}, nil)

	if _, err := sim.ReadDistanceCm(ctx); err == nil {
		t.Fatalf("expected error from canceled context")
	}
	if _, err := sim.ReadNoiseLevel(ctx); err == nil {
		t.Fatalf("expected error from canceled context")
	}
}
