package domain

import (
	"context"
	"log/slog"
)

// EnrichWithRegion sets the event's region label from a reverse geocode of its
// coordinates. If geocoder is nil or geocoding fails, the event is returned
// with an empty region (graceful degradation).
func EnrichWithRegion(ctx context.Context, event Event, geocoder Geocoder, logger *slog.Logger) Event {
	if geocoder == nil {
		return event
	}

	lat, _ := event.Latitude.Float64()
	lon, _ := event.Longitude.Float64()

	result, err := geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"event_id", event.ID,
			"lat", event.Latitude.StringFixed(CoordinatePlaces),
			"lon", event.Longitude.StringFixed(CoordinatePlaces),
			"error", err,
		)
		return event
	}

	event.Region = result.FormattedAddress
	if event.Region == "" {
		event.Region = result.PlaceName
	}
	return event
}
