package repository

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"parking_spot/internal/models"
	"parking_spot/internal/repository/db"
)

func TestRepository_SQLiteRoundTrip(t *testing.T) {
	conn, err := db.InitDB(filepath.Join(t.TempDir(), "vagas.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	repo := NewRepository(conn)
	ctx := testCtx(t)
	ts := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	if err := repo.SpotRepo.Upsert(ctx, models.SpotState{ID: "Vaga-02", Status: "LIVRE", UpdatedAt: ts}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	for _, st := range []string{"LIVRE", "OCUPADA"} {
		err := repo.SpotRepo.Upsert(ctx, models.SpotState{
			ID: "Vaga-01", Status: st, DistanceCm: intRef(3), NoiseRaw: intRef(40), UpdatedAt: ts,
		})
		if err != nil {
			t.Fatalf("Upsert %s: %v", st, err)
		}
	}

	spots, err := repo.SpotRepo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(spots) != 2 {
		t.Fatalf("want 2 rows after repeated upsert, got %d", len(spots))
	}
	if spots[0].ID != "Vaga-01" || spots[0].Status != "OCUPADA" {
		t.Fatalf("unexpected first spot: %+v", spots[0])
	}
	if spots[1].DistanceCm != nil {
		t.Fatalf("expected NULL distance for Vaga-02")
	}

	got, err := repo.SpotRepo.Get(ctx, "Vaga-01")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.UpdatedAt.Equal(ts) {
		t.Fatalf("updated at: got %v, want %v", got.UpdatedAt, ts)
	}

	for i, spot := range []string{"Vaga-01", "Vaga-02"} {
		if err := repo.EventRepo.Append(ctx, models.SpotEvent{
			SpotID:     spot,
			OccurredAt: ts.Add(time.Duration(i) * time.Minute),
			Type:       models.EventStatusChange,
		}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	events, err := repo.EventRepo.List(ctx, models.EventFilter{SpotID: "Vaga-02", From: ts})
	if err != nil {
		t.Fatalf("List events: %v", err)
	}
	if len(events) != 1 || events[0].SpotID != "Vaga-02" {
		t.Fatalf("unexpected events: %+v", events)
	}

	if _, err := repo.Auth.Create(ctx, "operador", "$2a$hash"); err != nil {
		t.Fatalf("Create operator: %v", err)
	}
	if _, err := repo.Auth.Create(ctx, "operador", "$2a$other"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate Create: want ErrUsernameTaken, got %v", err)
	}
	u, err := repo.Auth.GetByUsername(ctx, "operador")
	if err != nil || u == nil {
		t.Fatalf("GetByUsername: %v %v", u, err)
	}
}
