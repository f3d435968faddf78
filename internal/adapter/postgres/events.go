package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/couchcryptid/quake-match/internal/domain"
)

// RecordEvent inserts the event. There is no update path: a second insert for
// the same event id fails with an error wrapping domain.ErrDuplicateEvent.
func (s *Store) RecordEvent(ctx context.Context, event domain.Event) error {
	raw, err := json.Marshal(event.Raw)
	if err != nil {
		return domain.NewError(domain.KindStore, "encode notification", err)
	}

	row := EventRow{
		EventID:   event.ID,
		Source:    event.Source,
		EventTime: event.Time.UTC(),
		EventLat:  event.Latitude,
		EventLon:  event.Longitude,
		Depth:     event.Depth,
		Magnitude: event.Magnitude,
		Region:    event.Region,
		EventURI:  event.URI,
		RawJSON:   raw,
	}

	err = s.db.WithContext(ctx).Create(&row).Error
	switch {
	case err == nil:
		s.logger.Debug("event row inserted", "event_id", event.ID, "row_id", row.ID)
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.NewError(domain.KindStore, "insert event", fmt.Errorf("%w: %s", domain.ErrDuplicateEvent, event.ID))
	default:
		return domain.NewError(domain.KindStore, "insert event", err)
	}
}
