package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Indexer actions carried by a notification.
const (
	ActionEventAdded   = "EVENT_ADDED"
	ActionEventUpdated = "EVENT_UPDATED"
	ActionEventDeleted = "EVENT_DELETED"
)

// Notification holds the raw, textual fields passed by the indexer.
type Notification struct {
	Action             string `json:"action"`
	Source             string `json:"source"`
	Code               string `json:"code"`
	PreferredID        string `json:"preferred_id"`
	PreferredEventTime string `json:"preferred_eventtime"`
	PreferredLatitude  string `json:"preferred_latitude"`
	PreferredLongitude string `json:"preferred_longitude"`
	PreferredDepth     string `json:"preferred_depth"`
	PreferredMagnitude string `json:"preferred_magnitude"`
}

// Event is the canonical record built from an accepted notification.
type Event struct {
	ID        string          `json:"id"`
	Source    string          `json:"source"`
	Code      string          `json:"code"`
	Time      time.Time       `json:"time"`
	Latitude  decimal.Decimal `json:"latitude"`
	Longitude decimal.Decimal `json:"longitude"`
	Depth     decimal.Decimal `json:"depth"`
	Magnitude decimal.Decimal `json:"magnitude"`
	Region    string          `json:"region,omitempty"`
	URI       string          `json:"uri"`

	// Raw is the notification the event was built from, kept for audit.
	Raw Notification `json:"-"`
}

// Detection is a signal detection recorded by the detection pipeline.
type Detection struct {
	ID        string
	Time      time.Time
	Latitude  decimal.Decimal
	Longitude decimal.Decimal
}

// Match links a detection to the event currently believed to explain it.
type Match struct {
	DetectionID string
	EventID     string
	MatchTime   time.Time // last time the match was written
	CreateTime  time.Time // first time the match was written
}

// MatchStatus is the result of a match attempt.
type MatchStatus string

const (
	StatusNoDetectionInWindow MatchStatus = "no_detection_in_window"
	StatusNotSpatiallyClose   MatchStatus = "not_spatially_close"
	StatusMatched             MatchStatus = "matched"
)

// MatchAction tells whether a match row was inserted or overwritten.
type MatchAction string

const (
	MatchCreated MatchAction = "created"
	MatchUpdated MatchAction = "updated"
)

// MatchResult describes the outcome of matching one event.
// DetectionID is set whenever a candidate was found in the window.
type MatchResult struct {
	Status      MatchStatus `json:"status"`
	EventID     string      `json:"event_id"`
	DetectionID string      `json:"detection_id,omitempty"`
	Action      MatchAction `json:"action,omitempty"`
	MatchTime   time.Time   `json:"match_time,omitzero"`
}

// Matched reports whether a match row was written.
func (r MatchResult) Matched() bool {
	return r.Status == StatusMatched
}
