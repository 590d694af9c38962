// Package bridge turns the per-field MQTT records published by the nodes
// into complete spot snapshots for the store.
package bridge

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	ps "parking_spot"
	"parking_spot/internal/logger"
	"parking_spot/internal/models"
	"parking_spot/internal/transport/mqtt"
)

// Ingester stores a complete snapshot.
type Ingester interface {
	Ingest(ctx context.Context, st models.SpotState) error
}

// Subscriber is the part of the MQTT client the bridge needs.
type Subscriber interface {
	Subscribe(ctx context.Context, filter string, handler mqtt.Handler) error
}

type pending struct {
	status     string
	distanceCm *int
	noiseRaw   *int
}

func (p *pending) complete() bool {
	return p.status != "" && p.distanceCm != nil && p.noiseRaw != nil
}

// Bridge is safe for concurrent message callbacks.
type Bridge struct {
	filter   string
	ingester Ingester
	log      *logger.Logger
	now      func() time.Time

	mu    sync.Mutex
	spots map[string]*pending
}

// New returns a bridge for filter (e.g. garagem/vagas/#).
func New(filter string, ingester Ingester, log *logger.Logger) *Bridge {
	if log == nil {
		log = logger.Nop()
	}
	return &Bridge{
		filter:   filter,
		ingester: ingester,
		log:      log.Named("bridge"),
		now:      time.Now,
		spots:    make(map[string]*pending),
	}
}

// Start subscribes the bridge to its topic filter.
func (b *Bridge) Start(ctx context.Context, sub Subscriber) error {
	b.log.Infow("bridge_subscribing", "filter", b.filter)
	return sub.Subscribe(ctx, b.filter, func(topic string, payload []byte) {
		b.Handle(ctx, topic, payload)
	})
}

// Handle merges one record into the spot's pending snapshot and ingests it
// once id, status, distance and noise are all known. Distance and noise are
// cleared only after the store accepts the snapshot, so a failed ingest is
// retried on the next record. Status is kept because it is only sent on
// change.
func (b *Bridge) Handle(ctx context.Context, topic string, payload []byte) {
	var rec ps.InboundRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		b.log.Warnw("bridge_bad_payload", "topic", topic, "error", err)
		return
	}
	if rec.ID == "" {
		return
	}

	snapshot, ok := b.merge(topic, rec)
	if !ok {
		return
	}

	if err := b.ingester.Ingest(ctx, snapshot); err != nil {
		b.log.Errorw("bridge_ingest_failed", "spot_id", snapshot.ID, "error", err)
		return
	}
	b.clearTelemetry(snapshot)
	b.log.Debugw("bridge_ingested", "spot_id", snapshot.ID, "status", snapshot.Status)
}

// Pending reports what is currently buffered for a spot.
func (b *Bridge) Pending(id string) (status string, distanceCm, noiseRaw *int, found bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, found := b.spots[id]
	if !found {
		return "", nil, nil, false
	}
	return p.status, p.distanceCm, p.noiseRaw, true
}

// clearTelemetry drops the distance and noise that went into st, unless a
// newer record has already replaced them.
func (b *Bridge) clearTelemetry(st models.SpotState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, found := b.spots[st.ID]
	if !found {
		return
	}
	if p.distanceCm == st.DistanceCm {
		p.distanceCm = nil
	}
	if p.noiseRaw == st.NoiseRaw {
		p.noiseRaw = nil
	}
}

func (b *Bridge) merge(topic string, rec ps.InboundRecord) (models.SpotState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, found := b.spots[rec.ID]
	if !found {
		p = &pending{}
		b.spots[rec.ID] = p
	}

	switch {
	case strings.HasSuffix(topic, ps.SuffixDistance):
		if rec.DistanceCm != nil {
			p.distanceCm = rec.DistanceCm
		}
	case strings.HasSuffix(topic, ps.SuffixNoise):
		if rec.NoiseRaw != nil {
			p.noiseRaw = rec.NoiseRaw
		}
	case strings.HasSuffix(topic, ps.SuffixStatus):
		if rec.Status != nil {
			p.status = *rec.Status
		}
	default:
		return models.SpotState{}, false
	}

	if !p.complete() {
		return models.SpotState{}, false
	}

	st := models.SpotState{
		ID:         rec.ID,
		Status:     p.status,
		DistanceCm: p.distanceCm,
		NoiseRaw:   p.noiseRaw,
		UpdatedAt:  b.now().UTC(),
	}
	return st, true
}
