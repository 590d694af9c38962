package spot

import (
	"context"
	"time"

	"parking_spot/internal/logger"
)

// SensorSource provides instantaneous readings. A distance of 0 means no
// echo was received.
type SensorSource interface {
	ReadDistanceCm(ctx context.Context) (int, error)
	ReadNoiseLevel(ctx context.Context) (int, error)
}

// Indicator drives the three lamps. Setting one level clears the other two
// in the same call.
type Indicator interface {
	Set(ctx context.Context, level IndicatorLevel) error
}

// Transport is the publish/subscribe client as seen by the control loop.
type Transport interface {
	Publisher
	Connected() bool
	// Reconnect makes one bounded connection attempt.
	Reconnect(ctx context.Context) error
}

// Settings are the loop's tuning knobs.
type Settings struct {
	Thresholds       Thresholds
	NoEchoDistanceCm int
	TickDelay        time.Duration
	ReconnectBackoff time.Duration
}

// LoopState is everything carried from one tick to the next.
type LoopState struct {
	Status             Status
	PreviousDistanceCm int
	Publish            PublishState
}

// TickResult describes one completed tick.
type TickResult struct {
	Reading   Reading
	Status    Status
	Indicator IndicatorLevel
	Emission  Emission
}

// Controller owns the loop state and runs the control loop. It is not safe
// for concurrent use; a single goroutine calls Run or Tick.
type Controller struct {
	cfg       Settings
	sensors   SensorSource
	indicator Indicator
	transport Transport
	scheduler *Scheduler
	clock     Clock
	log       *logger.Logger

	state LoopState
}

// NewController wires a control loop. The telemetry timer starts now, so the
// first telemetry pair goes out one period after start.
func NewController(cfg Settings, sensors SensorSource, indicator Indicator, transport Transport,
	scheduler *Scheduler, clock Clock, log *logger.Logger) *Controller {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{
		cfg:       cfg,
		sensors:   sensors,
		indicator: indicator,
		transport: transport,
		scheduler: scheduler,
		clock:     clock,
		log:       log,
		state: LoopState{
			Status:  StatusInitializing,
			Publish: PublishState{LastTelemetryAt: clock.Now()},
		},
	}
}

// State returns a copy of the carried state.
func (c *Controller) State() LoopState { return c.state }

// Run ticks until ctx is done. Nothing inside a tick ends the loop; the
// only return is ctx.Err().
func (c *Controller) Run(ctx context.Context) error {
	c.log.Infow("control_loop_started",
		"tick_delay", c.cfg.TickDelay,
		"occupied_cm", c.cfg.Thresholds.OccupiedCm,
		"noise_raw", c.cfg.Thresholds.NoiseRaw,
		"motion_delta_cm", c.cfg.Thresholds.MotionDeltaCm,
	)
	for {
		if _, err := c.Tick(ctx); err != nil {
			return err
		}
		if err := c.clock.Sleep(ctx, c.cfg.TickDelay); err != nil {
			return err
		}
	}
}

// Tick runs one iteration: wait for the transport, read, classify, drive the
// lamps, then let the scheduler publish. It only fails when ctx is done
// while waiting for the transport.
func (c *Controller) Tick(ctx context.Context) (TickResult, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return TickResult{}, err
	}

	r := c.read(ctx)
	st, lvl := Classify(r, c.state.PreviousDistanceCm, c.cfg.Thresholds)
	c.state.Status = st

	if err := c.indicator.Set(ctx, lvl); err != nil {
		c.log.Warnw("indicator_set_failed", "level", lvl, "err", err)
	}

	em := c.scheduler.Evaluate(ctx, c.clock.Now(), r, st, &c.state.Publish)
	c.state.PreviousDistanceCm = r.DistanceCm

	return TickResult{Reading: r, Status: st, Indicator: lvl, Emission: em}, nil
}

// ensureConnected blocks, retrying with a fixed backoff, until the transport
// is up. No sensor is read while it waits.
func (c *Controller) ensureConnected(ctx context.Context) error {
	for attempt := 1; !c.transport.Connected(); attempt++ {
		c.log.Infow("mqtt_connecting", "attempt", attempt)
		err := c.transport.Reconnect(ctx)
		if err == nil && c.transport.Connected() {
			c.log.Infow("mqtt_connected", "attempt", attempt)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.log.Warnw("mqtt_connect_failed", "attempt", attempt, "retry_in", c.cfg.ReconnectBackoff, "err", err)
		if err := c.clock.Sleep(ctx, c.cfg.ReconnectBackoff); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) read(ctx context.Context) Reading {
	dist, err := c.sensors.ReadDistanceCm(ctx)
	if err != nil {
		c.log.Warnw("distance_read_failed", "err", err)
		dist = 0
	}
	noise, err := c.sensors.ReadNoiseLevel(ctx)
	if err != nil {
		c.log.Warnw("noise_read_failed", "err", err)
		noise = 0
	}
	return Reading{
		DistanceCm: NormalizeDistance(dist, c.cfg.NoEchoDistanceCm),
		NoiseRaw:   noise,
	}
}
