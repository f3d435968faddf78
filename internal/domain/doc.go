// Package domain models seismic event notifications, the detections they are
// correlated with, and the match records linking the two.
//
// # Data Source
//
// Notifications come from an external product indexer that invokes the worker
// once per indexer action with the event's preferred origin passed as
// command-line arguments. Detections are written by a separate detection
// pipeline; this module only reads them.
//
// # Notification Conventions
//
// Actions:
//
//	EVENT_ADDED and EVENT_UPDATED are processed. Every other action
//	(EVENT_DELETED, EVENT_SPLIT, EVENT_MERGED, PRODUCT_* ...) is discarded.
//
// Identifiers:
//
//	The preferred id is the lowercase concatenation of network source and
//	event code, e.g. "us" + "2020abcd" -> "us2020abcd". An event may have
//	several aliases; only the notification whose own code equals the
//	preferred id is processed.
//
// Time format:
//
//	ISO-8601 with fractional seconds and a trailing UTC marker, e.g.
//	"2010-01-14T14:11:28.691Z". Notifications without a fractional part or
//	with a numeric offset are rejected.
//
// Precision:
//
//	Latitude and longitude are kept to 4 decimal places (~11 m), depth (km)
//	and magnitude to 1 decimal place. Values are rounded half away from zero.
//
// # Matching
//
// A detection matches an event when its time falls in the half-open window
// [event time, event time + 180s) and its coordinates lie inside the box
// |Δlat| <= 4.0 and |Δlon| <= 4.0 degrees (both bounds inclusive). The box is
// deliberately coarse and ignores great-circle distance. Comparisons use
// decimal arithmetic so the bounds are exact. See [InWindow] and [WithinBox].
package domain
