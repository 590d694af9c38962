package sensor

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Phase is where the simulated vehicle is in its park/leave cycle.
type Phase string

const (
	PhaseEmpty    Phase = "EMPTY"
	PhaseArriving Phase = "ARRIVING"
	PhasePullIn   Phase = "PULL_IN"
	PhaseParked   Phase = "PARKED"
	PhaseLeaving  Phase = "LEAVING"
)

// approachStartCm is where a vehicle first enters the sensor's range.
const approachStartCm = 60.0

// pullInGapCm is how far short of its parked distance the vehicle stops
// before the final move, which covers the gap in a single sample. It is
// wider than the default motion delta so the move reads as motion.
const pullInGapCm = 18.0

// engineSettle is how long the engine keeps running after the vehicle
// has parked.
const engineSettle = time.Second

// noiseJitter is the +/- spread added to every noise sample.
const noiseJitter = 20

// SimulatorConfig tunes the simulated spot. Zero values fall back to
// defaults that produce a visible FREE → IN_MOTION → OCCUPIED cycle.
type SimulatorConfig struct {
	Seed          int64
	AmbientNoise  int
	EngineNoise   int
	ParkedCm      int
	EmptyCm       int // 0 simulates "no echo"
	MeanDwell     time.Duration
	ApproachCmSec int
}

func (c SimulatorConfig) withDefaults() SimulatorConfig {
	if c.AmbientNoise <= 0 {
		c.AmbientNoise = 40
	}
	if c.EngineNoise <= 0 {
		c.EngineNoise = 900
	}
	if c.ParkedCm <= 0 {
		c.ParkedCm = 3
	}
	if c.MeanDwell <= 0 {
		c.MeanDwell = 30 * time.Second
	}
	if c.ApproachCmSec <= 0 {
		c.ApproachCmSec = 60
	}
	return c
}

// Simulator models a single vehicle arriving, parking and leaving. The state
// advances lazily on each distance read based on elapsed wall time.
type Simulator struct {
	cfg SimulatorConfig
	now func() time.Time
	rng *rand.Rand

	mu          sync.Mutex
	phase       Phase
	phaseEnds   time.Time
	lastAdvance time.Time
	distanceCm  float64
	engineOn    bool
	engineOffAt time.Time
}

// NewSimulator starts with an empty spot. now may be nil for time.Now.
func NewSimulator(cfg SimulatorConfig, now func() time.Time) *Simulator {
	cfg = cfg.withDefaults()
	if now == nil {
		now = time.Now
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &Simulator{
		cfg: cfg,
		now: now,
		rng: rand.New(rand.NewSource(seed)),
	}
	t := now()
	s.lastAdvance = t
	s.enterEmpty(t)
	return s
}

// Phase returns the current phase.
func (s *Simulator) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// ReadDistanceCm advances the model and returns the echo distance, or 0
// when nothing is in range.
func (s *Simulator) ReadDistanceCm(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.advance(s.now())
	if s.phase == PhaseEmpty {
		return s.cfg.EmptyCm, nil
	}
	return int(s.distanceCm + 0.5), nil
}

// ReadNoiseLevel returns ambient noise, plus the engine while it runs.
func (s *Simulator) ReadNoiseLevel(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	level := s.cfg.AmbientNoise + s.rng.Intn(2*noiseJitter+1) - noiseJitter
	if s.engineOn {
		level += s.cfg.EngineNoise
	}
	if level < 0 {
		level = 0
	}
	return level, nil
}

// advance moves the model forward to now. Called with mu held.
func (s *Simulator) advance(now time.Time) {
	elapsed := now.Sub(s.lastAdvance).Seconds()
	if elapsed <= 0 {
		return
	}
	s.lastAdvance = now

	switch s.phase {
	case PhaseEmpty:
		if !now.Before(s.phaseEnds) {
			s.phase = PhaseArriving
			s.distanceCm = approachStartCm
			s.engineOn = true
		}
	case PhaseArriving:
		s.handleArriving(elapsed)
	case PhasePullIn:
		s.distanceCm = float64(s.cfg.ParkedCm)
		s.phase = PhaseParked
		s.engineOffAt = now.Add(engineSettle)
		s.phaseEnds = now.Add(s.dwell())
	case PhaseParked:
		if s.engineOn && !now.Before(s.engineOffAt) {
			s.engineOn = false
		}
		if !now.Before(s.phaseEnds) {
			s.phase = PhaseLeaving
			s.engineOn = true
		}
	case PhaseLeaving:
		s.handleLeaving(elapsed, now)
	}
}

// handleArriving closes in at the approach rate until the pull-in point.
// The engine keeps running through the pull-in and a short settle.
func (s *Simulator) handleArriving(elapsed float64) {
	stop := float64(s.cfg.ParkedCm) + pullInGapCm
	s.distanceCm -= float64(s.cfg.ApproachCmSec) * elapsed
	if s.distanceCm <= stop {
		s.distanceCm = stop
		s.phase = PhasePullIn
	}
}

// handleLeaving backs out until the vehicle leaves the sensor's range.
func (s *Simulator) handleLeaving(elapsed float64, now time.Time) {
	s.distanceCm += float64(s.cfg.ApproachCmSec) * elapsed
	if s.distanceCm >= approachStartCm {
		s.enterEmpty(now)
	}
}

func (s *Simulator) enterEmpty(now time.Time) {
	s.phase = PhaseEmpty
	s.engineOn = false
	s.distanceCm = approachStartCm
	s.phaseEnds = now.Add(s.dwell())
}

// dwell is uniform in [mean/2, 3*mean/2).
func (s *Simulator) dwell() time.Duration {
	mean := s.cfg.MeanDwell
	return mean/2 + time.Duration(s.rng.Int63n(int64(mean)))
}
