// Package kafka publishes fetch-provenance events so downstream consumers
// can react to refreshed station-year files without polling the mirror tree.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/climate-mirror/internal/domain"
)

// Announcer produces one message per successful fetch to a Kafka topic.
// It implements mirror.Announcer.
type Announcer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewAnnouncer creates a producer for the given brokers and topic.
func NewAnnouncer(brokers []string, topic string, logger *slog.Logger) *Announcer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Announcer{writer: w, logger: logger}
}

// Announce publishes one fetch record, keyed by the unit's local path so a
// compacted topic retains only the latest refresh per unit.
func (a *Announcer) Announce(ctx context.Context, rec domain.FetchRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("serialize fetch record: %w", err)
	}
	msg := kafkago.Message{
		Key:   []byte(rec.Path),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "station_id", Value: []byte(strconv.Itoa(rec.StationID))},
			{Key: "refreshed_at", Value: []byte(rec.RefreshedAt.Format(time.RFC3339))},
		},
	}
	return a.writer.WriteMessages(ctx, msg)
}

func (a *Announcer) Close() error {
	return a.writer.Close()
}
