package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parking_spot/internal/models"
)

type SpotSQLite struct {
	db *sql.DB
}

func NewSpotSQLite(db *sql.DB) *SpotSQLite {
	return &SpotSQLite{db: db}
}

const (
	upsertSpotSQL = `
		INSERT INTO vagas (id, status, distancia_cm, nivel_ruido_raw, ultima_atualizacao)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status=excluded.status,
			distancia_cm=excluded.distancia_cm,
			nivel_ruido_raw=excluded.nivel_ruido_raw,
			ultima_atualizacao=excluded.ultima_atualizacao
	`

	selectSpotSQL = `
		SELECT id, status, distancia_cm, nivel_ruido_raw, ultima_atualizacao
		FROM vagas WHERE id=?
	`

	selectSpotsSQL = `
		SELECT id, status, distancia_cm, nivel_ruido_raw, ultima_atualizacao
		FROM vagas ORDER BY id ASC
	`
)

// Upsert inserts the spot or overwrites its row.
func (r *SpotSQLite) Upsert(ctx context.Context, s models.SpotState) error {
	ts := s.UpdatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	_, err := r.db.ExecContext(ctx, upsertSpotSQL,
		s.ID,
		s.Status,
		nullableInt(s.DistanceCm),
		nullableInt(s.NoiseRaw),
		ts,
	)
	if err != nil {
		return fmt.Errorf("upsert spot %q: %w", s.ID, err)
	}
	return nil
}

// Get returns ErrSpotNotFound when the spot has never reported.
func (r *SpotSQLite) Get(ctx context.Context, id string) (models.SpotState, error) {
	s, err := scanSpot(r.db.QueryRowContext(ctx, selectSpotSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SpotState{}, ErrSpotNotFound
		}
		return models.SpotState{}, fmt.Errorf("select spot %q: %w", id, err)
	}
	return s, nil
}

// List returns every spot ordered by id.
func (r *SpotSQLite) List(ctx context.Context) ([]models.SpotState, error) {
	rows, err := r.db.QueryContext(ctx, selectSpotsSQL)
	if err != nil {
		return nil, fmt.Errorf("select spots: %w", err)
	}
	defer rows.Close()

	out := make([]models.SpotState, 0, 16)
	for rows.Next() {
		s, err := scanSpot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpot(row rowScanner) (models.SpotState, error) {
	var (
		s     models.SpotState
		dist  sql.NullInt64
		noise sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.Status, &dist, &noise, &s.UpdatedAt); err != nil {
		return models.SpotState{}, err
	}
	s.DistanceCm = intPtr(dist)
	s.NoiseRaw = intPtr(noise)
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
