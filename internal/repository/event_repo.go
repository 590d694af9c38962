package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"parking_spot/internal/models"

	"github.com/google/uuid"
)

// EventSQLite is the append-only occupancy history.
type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

// sqliteTimestamp is how occurred_at is stored so range filters compare as text.
const sqliteTimestamp = "2006-01-02 15:04:05"

const eventColumns = "id, spot_id, occurred_at, type, message, meta"

const insertEventSQL = `INSERT INTO spot_events (` + eventColumns + `) VALUES (?, ?, ?, ?, ?, ?)`

// Append stores e, assigning an id and timestamp when missing. Metadata
// that cannot be encoded is dropped rather than failing the append.
func (r *EventSQLite) Append(ctx context.Context, e models.SpotEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	at := e.OccurredAt.UTC()
	if e.OccurredAt.IsZero() {
		at = time.Now().UTC()
	}

	var meta sql.NullString
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			meta = sql.NullString{String: string(b), Valid: true}
		}
	}

	if _, err := r.db.ExecContext(ctx, insertEventSQL,
		e.EventID,
		e.SpotID,
		at.Format(sqliteTimestamp),
		strings.ToUpper(strings.TrimSpace(e.Type)),
		e.Description,
		meta,
	); err != nil {
		return fmt.Errorf("insert event for %s: %w", e.SpotID, err)
	}
	return nil
}

// buildEventQuery turns f into a SELECT. From and To are inclusive.
func buildEventQuery(f models.EventFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		conds = append(conds, cond)
		args = append(args, arg)
	}

	if !f.From.IsZero() {
		add("occurred_at >= ?", f.From.UTC().Format(sqliteTimestamp))
	}
	if !f.To.IsZero() {
		add("occurred_at <= ?", f.To.UTC().Format(sqliteTimestamp))
	}
	if typ := strings.ToUpper(strings.TrimSpace(f.Type)); typ != "" {
		add("type = ?", typ)
	}
	if spot := strings.TrimSpace(f.SpotID); spot != "" {
		add("spot_id = ?", spot)
	}

	q := `SELECT ` + eventColumns + ` FROM spot_events`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	return q + " ORDER BY occurred_at ASC", args
}

// List returns the events matching f, oldest first.
func (r *EventSQLite) List(ctx context.Context, f models.EventFilter) ([]models.SpotEvent, error) {
	q, args := buildEventQuery(f)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	out := []models.SpotEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

func scanEvent(row rowScanner) (models.SpotEvent, error) {
	var (
		ev   models.SpotEvent
		meta sql.NullString
	)
	if err := row.Scan(&ev.EventID, &ev.SpotID, &ev.OccurredAt, &ev.Type, &ev.Description, &meta); err != nil {
		return models.SpotEvent{}, fmt.Errorf("scan event: %w", err)
	}
	ev.OccurredAt = ev.OccurredAt.UTC()

	if meta.Valid && meta.String != "" {
		var v any
		if err := json.Unmarshal([]byte(meta.String), &v); err == nil {
			ev.Metadata = v
		} else {
			ev.Metadata = meta.String
		}
	}
	return ev, nil
}
