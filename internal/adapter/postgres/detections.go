package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/couchcryptid/quake-match/internal/domain"
)

// FindDetection returns the detection in [start, end) closest to start,
// breaking ties on the lowest detection id. found is false when the window is
// empty.
func (s *Store) FindDetection(ctx context.Context, start, end time.Time) (domain.Detection, bool, error) {
	var row DetectionRow
	err := s.db.WithContext(ctx).
		Where("detection_time >= ? AND detection_time < ?", start.UTC(), end.UTC()).
		Order("detection_time ASC").
		Order("detection_id ASC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Detection{}, false, nil
	}
	if err != nil {
		return domain.Detection{}, false, domain.NewError(domain.KindMatch, "find detection", err)
	}

	return domain.Detection{
		ID:        row.DetectionID,
		Time:      row.DetectionTime.UTC(),
		Latitude:  row.DetectionLat,
		Longitude: row.DetectionLon,
	}, true, nil
}
