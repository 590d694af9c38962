package service

import (
	"context"
	"time"

	"parking_spot/internal/logger"
	"parking_spot/internal/models"
	"parking_spot/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Spots stores snapshots forwarded by the bridge or posted over HTTP and
// serves them to the dashboard.
type Spots interface {
	Ingest(ctx context.Context, st models.SpotState) error
	List(ctx context.Context) ([]models.SpotState, error)
	Get(ctx context.Context, id string) (models.SpotState, error)
}

// EventLog exposes the append-only spot history with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.SpotEvent, error)
}

// LogFilter supports history filtering by time range, type and spot.
type LogFilter struct {
	From   time.Time // inclusive; zero means no lower bound
	To     time.Time // inclusive; zero means no upper bound
	Type   string    // "", "FIRST_SEEN", "STATUS_CHANGE"
	SpotID string    // "" means every spot
}

// AuthConfig carries the token settings from configuration.
type AuthConfig struct {
	SigningKey string
	TokenTTL   time.Duration
}

type Service struct {
	Spots
	EventLog
	Authorization
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, auth AuthConfig, log *logger.Logger) *Service {
	return &Service{
		Spots:         NewSpotService(repos.SpotRepo, repos.EventRepo, log),
		EventLog:      NewEventLogService(repos.EventRepo),
		Authorization: NewAuthService(repos.Auth, auth),
	}
}
