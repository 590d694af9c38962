package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"parking_spot/internal/logger"
	"parking_spot/internal/models"
	"parking_spot/internal/repository"
	"parking_spot/internal/spot"

	"github.com/google/uuid"
)

// ErrInvalidSpot is returned by Ingest for a snapshot without id or with an
// unknown status.
var ErrInvalidSpot = errors.New("invalid spot snapshot")

// ErrSpotNotFound is returned by Get for an id that never reported.
var ErrSpotNotFound = repository.ErrSpotNotFound

type SpotService struct {
	spotRepo  repository.SpotRepo
	eventRepo repository.EventRepo
	log       *logger.Logger
	now       func() time.Time

	// ingestMu serializes the read-compare-write in Ingest so that two
	// snapshots for one spot cannot both see it as new.
	ingestMu sync.Mutex
}

func NewSpotService(spotRepo repository.SpotRepo, eventRepo repository.EventRepo, log *logger.Logger) *SpotService {
	if log == nil {
		log = logger.Nop()
	}
	return &SpotService{
		spotRepo:  spotRepo,
		eventRepo: eventRepo,
		log:       log.Named("spots"),
		now:       time.Now,
	}
}

// Ingest upserts the snapshot and records FIRST_SEEN or STATUS_CHANGE
// when the stored status differs. Event failures are logged, not returned.
func (s *SpotService) Ingest(ctx context.Context, st models.SpotState) error {
	st.ID = strings.TrimSpace(st.ID)
	if st.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidSpot)
	}
	status, err := spot.ParseStatus(strings.TrimSpace(st.Status))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSpot, err)
	}
	st.Status = status.String()
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = s.now().UTC()
	}

	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	prev, err := s.spotRepo.Get(ctx, st.ID)
	firstSeen := errors.Is(err, repository.ErrSpotNotFound)
	if err != nil && !firstSeen {
		return fmt.Errorf("load spot %q: %w", st.ID, err)
	}

	if err := s.spotRepo.Upsert(ctx, st); err != nil {
		return err
	}

	switch {
	case firstSeen:
		s.appendEvent(ctx, models.SpotEvent{
			SpotID:      st.ID,
			OccurredAt:  st.UpdatedAt,
			Type:        models.EventFirstSeen,
			Description: "Spot reported for the first time",
			Metadata:    map[string]any{"to": st.Status},
		})
	case prev.Status != st.Status:
		s.appendEvent(ctx, models.SpotEvent{
			SpotID:      st.ID,
			OccurredAt:  st.UpdatedAt,
			Type:        models.EventStatusChange,
			Description: fmt.Sprintf("%s -> %s", prev.Status, st.Status),
			Metadata:    map[string]any{"from": prev.Status, "to": st.Status},
		})
	}
	return nil
}

func (s *SpotService) appendEvent(ctx context.Context, ev models.SpotEvent) {
	ev.EventID = uuid.NewString()
	if err := s.eventRepo.Append(ctx, ev); err != nil {
		s.log.Warnw("spot_event_append_failed", "spot_id", ev.SpotID, "type", ev.Type, "error", err)
		return
	}
	s.log.Infow("spot_event", "spot_id", ev.SpotID, "type", ev.Type, "description", ev.Description)
}

// List returns all spots ordered by id.
func (s *SpotService) List(ctx context.Context) ([]models.SpotState, error) {
	return s.spotRepo.List(ctx)
}

// Get returns one spot or ErrSpotNotFound.
func (s *SpotService) Get(ctx context.Context, id string) (models.SpotState, error) {
	return s.spotRepo.Get(ctx, strings.TrimSpace(id))
}
