package repository

import (
	"context"
	"database/sql"
	"errors"

	"parking_spot/internal/models"
)

// ErrSpotNotFound is returned when no row exists for a spot id.
var ErrSpotNotFound = errors.New("spot not found")

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type SpotRepo interface {
	Upsert(ctx context.Context, s models.SpotState) error
	Get(ctx context.Context, id string) (models.SpotState, error)
	List(ctx context.Context) ([]models.SpotState, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.SpotEvent) error
	List(ctx context.Context, f models.EventFilter) ([]models.SpotEvent, error)
}

type Repository struct {
	SpotRepo  SpotRepo
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		SpotRepo:  NewSpotSQLite(db),
		EventRepo: NewEventSQLite(db),
		Auth:      NewOperatorSQLite(db),
	}
}
