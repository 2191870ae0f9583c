// Package kafkasink publishes classified drift vectors to a Kafka topic for
// downstream consumers. The sink is optional; it is wired only when brokers
// are configured.
package kafkasink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/BG-NOAA/sar-drift-converter/internal/config"
	"github.com/BG-NOAA/sar-drift-converter/internal/domain"
)

// Writer produces classified vectors to the configured topic.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes one file's classified observations and writes them in a
// single WriteMessages call. product is the file's output base name; it
// namespaces the message keys.
func (w *Writer) Publish(ctx context.Context, product string, obs []domain.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(obs))
	for i := range obs {
		msg, err := serializeToMessage(product, &obs[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %s: %w", product, err)
	}
	w.logger.Debug("published classified vectors", "product", product, "count", len(obs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// vectorMessage is the wire form of one classified drift vector.
type vectorMessage struct {
	ID         string    `json:"id"`
	File1      string    `json:"file1"`
	File2      string    `json:"file2"`
	Sat1       string    `json:"sat1"`
	Sat2       string    `json:"sat2"`
	Date1      time.Time `json:"date1"`
	Date2      time.Time `json:"date2"`
	Lon1       float64   `json:"lon1"`
	Lat1       float64   `json:"lat1"`
	Lon2       float64   `json:"lon2"`
	Lat2       float64   `json:"lat2"`
	UKmDay     float64   `json:"u_kmday"`
	VKmDay     float64   `json:"v_kmday"`
	DistanceKm float64   `json:"dist_km"`
	BearingDeg float64   `json:"bear_deg"`
	Scene      int       `json:"scene"`
	Neighbors  int       `json:"neighbors"`
	DistanceZ  *float64  `json:"dist_z"`
	BearingZ   *float64  `json:"bear_z"`
	Category   string    `json:"category"`

	ProcessedAt time.Time `json:"processed_at"`
}

// serializeToMessage marshals an observation into a Kafka message keyed by
// its product-scoped id.
func serializeToMessage(product string, o *domain.Observation) (kafkago.Message, error) {
	id := fmt.Sprintf("%s:%d", product, o.Index)
	m := vectorMessage{
		ID:    id,
		File1: o.File1, File2: o.File2,
		Sat1: o.Sat1, Sat2: o.Sat2,
		Date1: o.Date1, Date2: o.Date2,
		Lon1: o.Lon1, Lat1: o.Lat1,
		Lon2: o.Lon2, Lat2: o.Lat2,
		UKmDay: o.UKmDay, VKmDay: o.VKmDay,
		DistanceKm: o.DistanceKm, BearingDeg: o.BearingDeg,
		Scene:     o.SceneID,
		Neighbors: o.NeighborCount,
		DistanceZ: jsonFloat(o.DistanceZ),
		BearingZ:  jsonFloat(o.BearingZ),
		Category:  o.Category.Code(),

		ProcessedAt: domain.Now(),
	}

	data, err := json.Marshal(m)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize vector %s: %w", id, err)
	}
	return kafkago.Message{
		Key:   []byte(id),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "scene", Value: []byte(fmt.Sprintf("%d", o.SceneID))},
			{Key: "category", Value: []byte(o.Category.Code())},
			{Key: "processed_at", Value: []byte(m.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}

// jsonFloat maps NaN to null; NaN is not representable in JSON.
func jsonFloat(v float64) *float64 {
	if v != v {
		return nil
	}
	return &v
}
