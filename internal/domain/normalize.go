package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// URLPlaceholder is replaced with the lowercase event id in the URL template.
const URLPlaceholder = "[EVENTID]"

// Fixed decimal places for stored event fields.
const (
	CoordinatePlaces = 4
	DepthPlaces      = 1
	MagnitudePlaces  = 1
)

// eventTimeRe accepts ISO-8601 timestamps with a mandatory fractional part and
// a trailing Z, e.g. "2010-01-14T14:11:28.691Z".
var eventTimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{1,9}Z$`)

var (
	maxLatitude  = decimal.NewFromInt(90)
	maxLongitude = decimal.NewFromInt(180)
)

// Policy holds the acceptance settings applied to every notification.
type Policy struct {
	ignored     map[string]struct{}
	urlTemplate string
}

// NewPolicy builds a Policy. Source codes are matched case-insensitively.
func NewPolicy(ignoredSources []string, urlTemplate string) Policy {
	ignored := make(map[string]struct{}, len(ignoredSources))
	for _, s := range ignoredSources {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			ignored[s] = struct{}{}
		}
	}
	return Policy{ignored: ignored, urlTemplate: urlTemplate}
}

// Ignores reports whether notifications from source are dropped.
func (p Policy) Ignores(source string) bool {
	_, ok := p.ignored[strings.ToLower(strings.TrimSpace(source))]
	return ok
}

// EventURI substitutes the lowercase event id into the URL template.
func (p Policy) EventURI(eventID string) string {
	return strings.ReplaceAll(p.urlTemplate, URLPlaceholder, strings.ToLower(eventID))
}

// ParseNotification applies the acceptance filters and builds the canonical
// Event. Filtered notifications return an error wrapping ErrDiscarded;
// malformed fields return a KindValidation *Error. The Region field is left
// empty, see EnrichWithRegion.
func ParseNotification(n Notification, p Policy) (Event, error) {
	if err := p.accept(n); err != nil {
		return Event{}, err
	}

	eventTime, err := ParseEventTime(n.PreferredEventTime)
	if err != nil {
		return Event{}, invalid("preferred event time", err)
	}
	lat, err := parseFixed(n.PreferredLatitude, CoordinatePlaces)
	if err != nil {
		return Event{}, invalid("preferred latitude", err)
	}
	if lat.Abs().GreaterThan(maxLatitude) {
		return Event{}, invalid("preferred latitude", fmt.Errorf("%s out of range", lat))
	}
	lon, err := parseFixed(n.PreferredLongitude, CoordinatePlaces)
	if err != nil {
		return Event{}, invalid("preferred longitude", err)
	}
	if lon.Abs().GreaterThan(maxLongitude) {
		return Event{}, invalid("preferred longitude", fmt.Errorf("%s out of range", lon))
	}
	depth, err := parseFixed(n.PreferredDepth, DepthPlaces)
	if err != nil {
		return Event{}, invalid("preferred depth", err)
	}
	mag, err := parseFixed(n.PreferredMagnitude, MagnitudePlaces)
	if err != nil {
		return Event{}, invalid("preferred magnitude", err)
	}

	id := strings.ToLower(strings.TrimSpace(n.PreferredID))
	return Event{
		ID:        id,
		Source:    strings.ToLower(strings.TrimSpace(n.Source)),
		Code:      strings.ToLower(strings.TrimSpace(n.Code)),
		Time:      eventTime,
		Latitude:  lat,
		Longitude: lon,
		Depth:     depth,
		Magnitude: mag,
		URI:       p.EventURI(id),
		Raw:       n,
	}, nil
}

// accept returns a discard error when the notification must be dropped.
func (p Policy) accept(n Notification) error {
	switch n.Action {
	case ActionEventAdded, ActionEventUpdated:
	default:
		return discard("action %q", n.Action)
	}
	if p.Ignores(n.Source) {
		return discard("ignored source %q", n.Source)
	}
	code := strings.TrimSpace(n.Code)
	if code == "" || !strings.EqualFold(code, strings.TrimSpace(n.PreferredID)) {
		return discard("code %q is not the preferred id %q", n.Code, n.PreferredID)
	}
	if strings.TrimSpace(n.PreferredMagnitude) == "" {
		return discard("no preferred magnitude")
	}
	return nil
}

// ParseEventTime parses a strict ISO-8601 UTC timestamp with fractional seconds.
func ParseEventTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if !eventTimeRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("%q is not an ISO-8601 UTC time with fractional seconds", s)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// parseFixed parses a decimal string and rounds it to places.
func parseFixed(s string, places int32) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, errors.New("value is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return d.Round(places), nil
}
