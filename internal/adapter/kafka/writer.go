package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/county-data-pipeline/internal/config"
	"github.com/couchcryptid/county-data-pipeline/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// View kinds carried in the view_kind header.
const (
	KindChoropleth = "choropleth"
	KindScatter    = "scatter"
	KindTrend      = "trend"
)

// Writer publishes snapshot views to a Kafka topic.
// It implements pipeline.SnapshotPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes one message per view, keyed by view name, in a single
// WriteMessages call. Keying by name keeps every version of a view on one
// partition.
func (w *Writer) Publish(ctx context.Context, snap *domain.Snapshot) error {
	msgs, err := snapshotMessages(snap)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish snapshot %s: %w", snap.ID, err)
	}
	w.logger.Debug("snapshot published", "snapshot_id", snap.ID, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func snapshotMessages(snap *domain.Snapshot) ([]kafkago.Message, error) {
	msgs := make([]kafkago.Message, 0, len(snap.Choropleths)+len(snap.Scatters)+len(snap.Trends))
	for _, v := range snap.Choropleths {
		msg, err := serializeToMessage(snap, KindChoropleth, v.Name, v)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	for _, v := range snap.Scatters {
		msg, err := serializeToMessage(snap, KindScatter, v.Name, v)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	for _, v := range snap.Trends {
		msg, err := serializeToMessage(snap, KindTrend, v.Name, v)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// serializeToMessage marshals one view into a Kafka message.
func serializeToMessage(snap *domain.Snapshot, kind, name string, view any) (kafkago.Message, error) {
	data, err := json.Marshal(view)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s %s: %w", kind, name, err)
	}
	return kafkago.Message{
		Key:   []byte(name),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "snapshot_id", Value: []byte(snap.ID)},
			{Key: "view_kind", Value: []byte(kind)},
			{Key: "loaded_at", Value: []byte(snap.LoadedAt.Format(time.RFC3339))},
		},
	}, nil
}
