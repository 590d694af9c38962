package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"

	"parking_spot/internal/models"
	"parking_spot/internal/transport/mqtt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ingestStub struct {
	mu   sync.Mutex
	got  []models.SpotState
	fail error
}

func (s *ingestStub) Ingest(_ context.Context, st models.SpotState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, st)
	return s.fail
}

type subscriberStub struct {
	filter  string
	handler mqtt.Handler
}

func (s *subscriberStub) Subscribe(_ context.Context, filter string, h mqtt.Handler) error {
	s.filter, s.handler = filter, h
	return nil
}

func TestBridge_ForwardsOnlyCompleteSnapshots(t *testing.T) {
	ing := &ingestStub{}
	b := New("garagem/vagas/#", ing, nil)
	ctx := context.Background()

	b.Handle(ctx, "garagem/vagas/distancia", []byte(`{"id":"Vaga-01","distancia_cm":3}`))
	b.Handle(ctx, "garagem/vagas/ruido", []byte(`{"id":"Vaga-01","nivel_ruido_raw":40}`))
	assert.Empty(t, ing.got, "no status yet")

	b.Handle(ctx, "garagem/vagas/status", []byte(`{"id":"Vaga-01","status":"OCUPADA"}`))
	require.Len(t, ing.got, 1)
	got := ing.got[0]
	assert.Equal(t, "Vaga-01", got.ID)
	assert.Equal(t, "OCUPADA", got.Status)
	require.NotNil(t, got.DistanceCm)
	require.NotNil(t, got.NoiseRaw)
	assert.Equal(t, 3, *got.DistanceCm)
	assert.Equal(t, 40, *got.NoiseRaw)
	assert.False(t, got.UpdatedAt.IsZero())

	status, dist, noise, found := b.Pending("Vaga-01")
	require.True(t, found)
	assert.Equal(t, "OCUPADA", status, "status is kept")
	assert.Nil(t, dist)
	assert.Nil(t, noise)

	// Next telemetry period completes a new snapshot with the kept status.
	b.Handle(ctx, "garagem/vagas/ruido", []byte(`{"id":"Vaga-01","nivel_ruido_raw":41}`))
	assert.Len(t, ing.got, 1)
	b.Handle(ctx, "garagem/vagas/distancia", []byte(`{"id":"Vaga-01","distancia_cm":4}`))
	require.Len(t, ing.got, 2)
	assert.Equal(t, "OCUPADA", ing.got[1].Status)
	assert.Equal(t, 4, *ing.got[1].DistanceCm)
}

func TestBridge_IgnoresBadRecords(t *testing.T) {
	ing := &ingestStub{}
	b := New("garagem/vagas/#", ing, nil)
	ctx := context.Background()

	b.Handle(ctx, "garagem/vagas/status", []byte(`not json`))
	b.Handle(ctx, "garagem/vagas/status", []byte(`{"status":"LIVRE"}`))
	b.Handle(ctx, "garagem/vagas/outro", []byte(`{"id":"Vaga-02","status":"LIVRE"}`))

	_, _, _, found := b.Pending("Vaga-02")
	assert.True(t, found, "unknown suffix still registers the spot")
	status, _, _, _ := b.Pending("Vaga-02")
	assert.Empty(t, status)
	assert.Empty(t, ing.got)
}

func TestBridge_KeepsSpotsApart(t *testing.T) {
	ing := &ingestStub{}
	b := New("garagem/vagas/#", ing, nil)
	ctx := context.Background()

	b.Handle(ctx, "garagem/vagas/status", []byte(`{"id":"A","status":"LIVRE"}`))
	b.Handle(ctx, "garagem/vagas/distancia", []byte(`{"id":"B","distancia_cm":200}`))
	b.Handle(ctx, "garagem/vagas/ruido", []byte(`{"id":"A","nivel_ruido_raw":10}`))
	assert.Empty(t, ing.got)

	b.Handle(ctx, "garagem/vagas/distancia", []byte(`{"id":"A","distancia_cm":200}`))
	require.Len(t, ing.got, 1)
	assert.Equal(t, "A", ing.got[0].ID)
}

func TestBridge_IngestErrorDoesNotPanic(t *testing.T) {
	ing := &ingestStub{fail: errors.New("db locked")}
	b := New("garagem/vagas/#", ing, nil)
	ctx := context.Background()

	b.Handle(ctx, "garagem/vagas/status", []byte(`{"id":"A","status":"LIVRE"}`))
	b.Handle(ctx, "garagem/vagas/distancia", []byte(`{"id":"A","distancia_cm":200}`))
	b.Handle(ctx, "garagem/vagas/ruido", []byte(`{"id":"A","nivel_ruido_raw":10}`))
	assert.Len(t, ing.got, 1)
}

func TestBridge_FailedIngestKeepsTelemetryPending(t *testing.T) {
	ing := &ingestStub{fail: errors.New("db locked")}
	b := New("garagem/vagas/#", ing, nil)
	ctx := context.Background()

	b.Handle(ctx, "garagem/vagas/distancia", []byte(`{"id":"A","distancia_cm":3}`))
	b.Handle(ctx, "garagem/vagas/ruido", []byte(`{"id":"A","nivel_ruido_raw":40}`))
	b.Handle(ctx, "garagem/vagas/status", []byte(`{"id":"A","status":"OCUPADA"}`))
	require.Len(t, ing.got, 1)

	_, dist, noise, _ := b.Pending("A")
	require.NotNil(t, dist, "distance survives a failed ingest")
	require.NotNil(t, noise, "noise survives a failed ingest")

	// Store recovers; the next record alone completes the snapshot again.
	ing.mu.Lock()
	ing.fail = nil
	ing.mu.Unlock()
	b.Handle(ctx, "garagem/vagas/ruido", []byte(`{"id":"A","nivel_ruido_raw":42}`))
	require.Len(t, ing.got, 2)
	assert.Equal(t, 3, *ing.got[1].DistanceCm)
	assert.Equal(t, 42, *ing.got[1].NoiseRaw)

	_, dist, noise, _ = b.Pending("A")
	assert.Nil(t, dist)
	assert.Nil(t, noise)
}

func TestBridge_StartSubscribesFilter(t *testing.T) {
	ing := &ingestStub{}
	sub := &subscriberStub{}
	b := New("garagem/vagas/#", ing, nil)

	require.NoError(t, b.Start(context.Background(), sub))
	assert.Equal(t, "garagem/vagas/#", sub.filter)
	require.NotNil(t, sub.handler)

	sub.handler("garagem/vagas/status", []byte(`{"id":"A","status":"LIVRE"}`))
	status, _, _, found := b.Pending("A")
	assert.True(t, found)
	assert.Equal(t, "LIVRE", status)
}
