package postgres

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// EventRow is one accepted notification. Rows are write-once.
type EventRow struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement"`
	EventID   string          `gorm:"type:text;uniqueIndex;not null"`
	Source    string          `gorm:"column:event_source;type:text;not null"`
	EventTime time.Time       `gorm:"type:timestamptz;index;not null"`
	EventLat  decimal.Decimal `gorm:"type:numeric(7,4);not null"`
	EventLon  decimal.Decimal `gorm:"type:numeric(8,4);not null"`
	Depth     decimal.Decimal `gorm:"column:event_depth;type:numeric(6,1);not null"`
	Magnitude decimal.Decimal `gorm:"type:numeric(4,1);not null"`
	Region    string          `gorm:"type:text"`
	EventURI  string          `gorm:"type:text"`
	RawJSON   datatypes.JSON  `gorm:"type:jsonb"`
	CreatedAt time.Time       `gorm:"type:timestamptz;not null"`
}

func (EventRow) TableName() string {
	return "events"
}

// DetectionRow is owned by the detection pipeline; this module only reads it.
type DetectionRow struct {
	DetectionID   string          `gorm:"primaryKey;type:text"`
	DetectionTime time.Time       `gorm:"type:timestamptz;index;not null"`
	DetectionLat  decimal.Decimal `gorm:"type:numeric(9,6);not null"`
	DetectionLon  decimal.Decimal `gorm:"type:numeric(10,6);not null"`
}

func (DetectionRow) TableName() string {
	return "detections"
}

// MatchRow links a detection to its event. DetectionID is the primary key, so
// a detection has at most one match, and references detections.detection_id
// (see matchDetectionFK).
type MatchRow struct {
	DetectionID string    `gorm:"primaryKey;type:text"`
	EventID     string    `gorm:"type:text;index;not null"`
	MatchTime   time.Time `gorm:"type:timestamptz;not null"`
	CreateTime  time.Time `gorm:"type:timestamptz;not null"`
}

func (MatchRow) TableName() string {
	return "matches"
}
