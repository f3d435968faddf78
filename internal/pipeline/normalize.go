package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/quake-match/internal/domain"
)

// NotificationNormalizer implements Normalizer using the domain parsing
// functions with optional region geocoding.
type NotificationNormalizer struct {
	policy   domain.Policy
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewNormalizer creates a NotificationNormalizer. Pass a nil geocoder to
// leave region labels empty.
func NewNormalizer(policy domain.Policy, geocoder domain.Geocoder, logger *slog.Logger) *NotificationNormalizer {
	return &NotificationNormalizer{
		policy:   policy,
		geocoder: geocoder,
		logger:   logger,
	}
}

func (n *NotificationNormalizer) Normalize(ctx context.Context, raw domain.Notification) (domain.Event, error) {
	event, err := domain.ParseNotification(raw, n.policy)
	if err != nil {
		return domain.Event{}, err
	}
	return domain.EnrichWithRegion(ctx, event, n.geocoder, n.logger), nil
}
