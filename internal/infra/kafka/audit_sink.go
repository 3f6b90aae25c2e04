package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/core/port"
	"github.com/hiveiam/hive/internal/infra/config"
)

const schemaVersion = "1.0"

// AuditSink implements port.AuditSink by mirroring every accepted
// AuditLog entry onto a Kafka topic for downstream consumers; PostgreSQL
// (internal/repository/postgres.AuditRepository) remains the durable
// record of truth, this is a best-effort fan-out.
type AuditSink struct {
	producer *Producer
	appCfg   config.AppSettings
	logger   *zap.Logger
}

// NewAuditSink constructs a Kafka-backed audit sink.
func NewAuditSink(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *AuditSink {
	return &AuditSink{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type auditEnvelope struct {
	EventID    string           `json:"event_id"`
	EventType  string           `json:"event_type"`
	TargetKind string           `json:"target_kind"`
	TargetID   string           `json:"target_id"`
	Actor      string           `json:"actor"`
	Timestamp  time.Time        `json:"timestamp"`
	Version    string           `json:"version"`
	Details    json.RawMessage  `json:"details,omitempty"`
	Metadata   envelopeMetadata `json:"metadata,omitempty"`
}

// Append publishes entry onto the "hive.audit" topic.
func (s *AuditSink) Append(ctx context.Context, entry domain.AuditLog) error {
	metadata := envelopeMetadata{
		"service":     s.appCfg.Name,
		"environment": s.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := auditEnvelope{
		EventID:    entry.ID,
		EventType:  "audit." + string(entry.Action),
		TargetKind: string(entry.TargetKind),
		TargetID:   entry.TargetID,
		Actor:      entry.Actor,
		Timestamp:  entry.Stamp.UTC(),
		Version:    schemaVersion,
		Details:    entry.Details,
		Metadata:   metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal audit envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: s.producer.TopicName("audit"),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case s.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ port.AuditSink = (*AuditSink)(nil)
