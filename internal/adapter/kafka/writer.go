package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/quake-match/internal/config"
	"github.com/couchcryptid/quake-match/internal/domain"
)

// Announcement is the JSON payload published for every established match.
type Announcement struct {
	DetectionID string             `json:"detection_id"`
	EventID     string             `json:"event_id"`
	Action      domain.MatchAction `json:"action"`
	MatchTime   time.Time          `json:"match_time"`
	EventTime   time.Time          `json:"event_time"`
	Latitude    string             `json:"latitude"`
	Longitude   string             `json:"longitude"`
	Depth       string             `json:"depth"`
	Magnitude   string             `json:"magnitude"`
	Region      string             `json:"region,omitempty"`
	URI         string             `json:"uri"`
}

// Writer produces match announcements to a Kafka topic.
// It implements pipeline.Announcer.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg config.KafkaConfig, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Announce publishes one match keyed by detection id, so announcements for
// the same detection stay ordered within a partition.
func (w *Writer) Announce(ctx context.Context, event domain.Event, result domain.MatchResult) error {
	msg, err := serializeToMessage(event, result)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish match announcement: %w", err)
	}
	w.logger.Debug("match announced", "topic", w.writer.Topic, "detection_id", result.DetectionID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a match announcement into a Kafka message.
func serializeToMessage(event domain.Event, result domain.MatchResult) (kafkago.Message, error) {
	data, err := json.Marshal(Announcement{
		DetectionID: result.DetectionID,
		EventID:     event.ID,
		Action:      result.Action,
		MatchTime:   result.MatchTime,
		EventTime:   event.Time,
		Latitude:    event.Latitude.StringFixed(domain.CoordinatePlaces),
		Longitude:   event.Longitude.StringFixed(domain.CoordinatePlaces),
		Depth:       event.Depth.StringFixed(domain.DepthPlaces),
		Magnitude:   event.Magnitude.StringFixed(domain.MagnitudePlaces),
		Region:      event.Region,
		URI:         event.URI,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize match announcement: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(result.DetectionID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "match_action", Value: []byte(result.Action)},
			{Key: "match_time", Value: []byte(result.MatchTime.Format(time.RFC3339))},
		},
	}, nil
}
