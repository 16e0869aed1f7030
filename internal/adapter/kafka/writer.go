package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/covid-state-tracker/internal/config"
	"github.com/couchcryptid/covid-state-tracker/internal/domain"
	"github.com/couchcryptid/covid-state-tracker/internal/observability"
	"github.com/couchcryptid/covid-state-tracker/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
)

// Record types carried in the record_type header.
const (
	RecordComparisonRow = "comparison_row"
	RecordOutbreak      = "outbreak"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes report records to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, metrics: metrics, logger: logger}
}

// ComparisonMessage is the value of a comparison_row record.
type ComparisonMessage struct {
	RunID   string            `json:"run_id"`
	AsOf    time.Time         `json:"as_of"`
	XMetric domain.MetricKind `json:"x_metric"`
	YMetric domain.MetricKind `json:"y_metric"`
	XLabel  string            `json:"x_label"`
	YLabel  string            `json:"y_label"`
	domain.ComparisonRow
}

// OutbreakMessage is the value of an outbreak record.
type OutbreakMessage struct {
	RunID  string `json:"run_id"`
	Region string `json:"region"`
	domain.OutbreakRecord
}

// Load publishes one message per snapshot row and one per region outbreak
// record in a single WriteMessages call. Messages are keyed by region.
func (w *Writer) Load(ctx context.Context, report *pipeline.Report) error {
	msgs, err := reportMessages(report)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	w.metrics.MessagesPublished.Add(float64(len(msgs)))
	w.logger.Info("report published", "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func reportMessages(report *pipeline.Report) ([]kafkago.Message, error) {
	runID := report.RunID.String()
	msgs := make([]kafkago.Message, 0, len(report.Snapshot.Rows)+len(report.Results.Regions))

	for _, row := range report.Snapshot.Rows {
		msg, err := serializeToMessage(RecordComparisonRow, row.Region, report, ComparisonMessage{
			RunID:         runID,
			AsOf:          report.Snapshot.AsOf,
			XMetric:       report.Snapshot.XMetric,
			YMetric:       report.Snapshot.YMetric,
			XLabel:        report.Snapshot.XLabel,
			YLabel:        report.Snapshot.YLabel,
			ComparisonRow: row,
		})
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}

	for _, region := range report.Results.Regions {
		msg, err := serializeToMessage(RecordOutbreak, region, report, OutbreakMessage{
			RunID:          runID,
			Region:         region,
			OutbreakRecord: report.Results.Outbreaks[region],
		})
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// serializeToMessage marshals v into a Kafka message keyed by region.
func serializeToMessage(recordType, region string, report *pipeline.Report, v any) (kafkago.Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s %s: %w", recordType, region, err)
	}
	return kafkago.Message{
		Key:   []byte(region),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "record_type", Value: []byte(recordType)},
			{Key: "run_id", Value: []byte(report.RunID.String())},
			{Key: "generated_at", Value: []byte(report.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
