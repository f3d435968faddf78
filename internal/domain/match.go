package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchWindow is the length of the temporal window following an event.
const MatchWindow = 180 * time.Second

// MaxOffsetDegrees bounds |Δlat| and |Δlon| for a spatial match.
var MaxOffsetDegrees = decimal.NewFromInt(4)

// Window returns the half-open interval [start, end) in which a detection
// must fall to be correlated with an event at t.
func Window(t time.Time) (start, end time.Time) {
	start = t.UTC()
	return start, start.Add(MatchWindow)
}

// InWindow reports whether detectionTime lies in Window(eventTime).
func InWindow(eventTime, detectionTime time.Time) bool {
	start, end := Window(eventTime)
	return !detectionTime.Before(start) && detectionTime.Before(end)
}

// WithinBox reports whether the detection lies inside the inclusive
// ±MaxOffsetDegrees box around the event.
func WithinBox(e Event, d Detection) bool {
	dLat := e.Latitude.Sub(d.Latitude).Abs()
	dLon := e.Longitude.Sub(d.Longitude).Abs()
	return dLat.LessThanOrEqual(MaxOffsetDegrees) && dLon.LessThanOrEqual(MaxOffsetDegrees)
}
