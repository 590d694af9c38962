package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"parking_spot/internal/models"
	"parking_spot/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var (
	// ErrInvalidTimeRange is returned when From is after To.
	ErrInvalidTimeRange = errors.New("invalid time range: From must be <= To")
	ErrUnknownEventType = errors.New("unknown event type")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares the repository filter and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (models.EventFilter, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return models.EventFilter{}, ErrInvalidTimeRange
	}
	typ := normalizeEventType(f.Type)
	switch typ {
	case "", models.EventFirstSeen, models.EventStatusChange:
	default:
		return models.EventFilter{}, fmt.Errorf("%w: %q", ErrUnknownEventType, typ)
	}

	return models.EventFilter{
		From:   from,
		To:     to,
		Type:   typ,
		SpotID: strings.TrimSpace(f.SpotID),
	}, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.SpotEvent, error) {
	rf, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, rf)
}
