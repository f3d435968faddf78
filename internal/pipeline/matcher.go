package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quake-match/internal/domain"
)

// DetectionFinder returns one detection in [start, end), if any.
type DetectionFinder interface {
	FindDetection(ctx context.Context, start, end time.Time) (domain.Detection, bool, error)
}

// MatchUpserter atomically inserts or overwrites the match keyed by detection
// id and reports whether a row was created.
type MatchUpserter interface {
	UpsertMatch(ctx context.Context, m domain.Match) (created bool, err error)
}

// DetectionMatcher runs the temporal search, spatial test and upsert for one event.
type DetectionMatcher struct {
	finder   DetectionFinder
	upserter MatchUpserter
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewMatcher creates a DetectionMatcher.
func NewMatcher(finder DetectionFinder, upserter MatchUpserter, clock clockwork.Clock, logger *slog.Logger) *DetectionMatcher {
	return &DetectionMatcher{
		finder:   finder,
		upserter: upserter,
		clock:    clock,
		logger:   logger,
	}
}

// Match correlates the event with at most one detection. Only the first
// candidate in the window is tested spatially. Storage failures are returned
// as KindMatch errors.
func (m *DetectionMatcher) Match(ctx context.Context, event domain.Event) (domain.MatchResult, error) {
	result := domain.MatchResult{EventID: event.ID}

	start, end := domain.Window(event.Time)
	det, found, err := m.finder.FindDetection(ctx, start, end)
	if err != nil {
		return result, asMatchError("find detection", err)
	}
	if !found {
		result.Status = domain.StatusNoDetectionInWindow
		m.logger.Info("no detection in window",
			"event_id", event.ID,
			"window_start", start,
			"window_end", end,
		)
		return result, nil
	}

	result.DetectionID = det.ID
	if !domain.WithinBox(event, det) {
		result.Status = domain.StatusNotSpatiallyClose
		m.logger.Info("detection not spatially close",
			"event_id", event.ID,
			"detection_id", det.ID,
			"event_lat", event.Latitude.String(),
			"event_lon", event.Longitude.String(),
			"detection_lat", det.Latitude.String(),
			"detection_lon", det.Longitude.String(),
		)
		return result, nil
	}

	now := m.clock.Now().UTC()
	created, err := m.upserter.UpsertMatch(ctx, domain.Match{
		DetectionID: det.ID,
		EventID:     event.ID,
		MatchTime:   now,
		CreateTime:  now,
	})
	if err != nil {
		return result, asMatchError("upsert match", err)
	}

	result.Status = domain.StatusMatched
	result.MatchTime = now
	result.Action = domain.MatchUpdated
	if created {
		result.Action = domain.MatchCreated
	}
	m.logger.Info("detection matched",
		"event_id", event.ID,
		"detection_id", det.ID,
		"action", result.Action,
		"detection_time", det.Time,
	)
	return result, nil
}

// asMatchError keeps an existing classification and tags anything else,
// including context timeouts, as a match failure.
func asMatchError(op string, err error) error {
	if domain.KindOf(err) == domain.KindMatch {
		return err
	}
	return domain.NewError(domain.KindMatch, op, err)
}
