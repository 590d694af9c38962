package spot

import (
	"context"
	"encoding/json"
	"time"

	ps "parking_spot"
	"parking_spot/internal/logger"
)

// Publisher is the part of the transport the scheduler needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Topics names the three publish destinations.
type Topics struct {
	Distance string
	Noise    string
	Status   string
}

// DefaultTopics returns the garagem/vagas topic set.
func DefaultTopics() Topics {
	return Topics{Distance: ps.TopicDistance, Noise: ps.TopicNoise, Status: ps.TopicStatus}
}

// PublishState is the scheduler's memory across ticks.
type PublishState struct {
	LastTelemetryAt time.Time
	// LastEmittedStatus is empty until the first status record goes out.
	LastEmittedStatus Status
}

// SchedulerConfig is immutable after construction.
type SchedulerConfig struct {
	SpotID          string
	Topics          Topics
	TelemetryPeriod time.Duration
}

// Emission reports what a single Evaluate call sent.
type Emission struct {
	Telemetry bool
	Status    bool
}

// Scheduler decides, once per tick, whether to publish the telemetry pair
// (time-gated) and/or a status record (edge-triggered).
type Scheduler struct {
	cfg SchedulerConfig
	pub Publisher
	log *logger.Logger
}

// NewScheduler builds a scheduler publishing through pub.
func NewScheduler(cfg SchedulerConfig, pub Publisher, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{cfg: cfg, pub: pub, log: log}
}

// Evaluate runs both emission checks. Neither check depends on the other and
// both always run. Publish failures are logged and not retried; state still
// advances so a failed record is not re-sent on the next tick.
func (s *Scheduler) Evaluate(ctx context.Context, now time.Time, r Reading, st Status, state *PublishState) Emission {
	var em Emission

	if now.Sub(state.LastTelemetryAt) > s.cfg.TelemetryPeriod {
		s.publish(ctx, s.cfg.Topics.Distance, ps.DistanceRecord{ID: s.cfg.SpotID, DistanceCm: r.DistanceCm})
		s.publish(ctx, s.cfg.Topics.Noise, ps.NoiseRecord{ID: s.cfg.SpotID, NoiseRaw: r.NoiseRaw})
		state.LastTelemetryAt = now
		em.Telemetry = true
	}

	if st != state.LastEmittedStatus {
		s.publish(ctx, s.cfg.Topics.Status, ps.StatusRecord{ID: s.cfg.SpotID, Status: st.String()})
		s.log.Infow("spot_status_changed", "spot", s.cfg.SpotID, "from", state.LastEmittedStatus, "to", st)
		state.LastEmittedStatus = st
		em.Status = true
	}

	return em
}

func (s *Scheduler) publish(ctx context.Context, topic string, rec any) {
	payload, err := json.Marshal(rec)
	if err != nil {
		s.log.Errorw("record_marshal_failed", "topic", topic, "err", err)
		return
	}
	if err := s.pub.Publish(ctx, topic, payload); err != nil {
		s.log.Warnw("mqtt_publish_failed", "topic", topic, "payload", string(payload), "err", err)
		return
	}
	s.log.Debugw("mqtt_published", "topic", topic, "payload", string(payload))
}
