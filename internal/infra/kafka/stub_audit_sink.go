package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/core/port"
)

// StubAuditSink logs audit entries instead of sending them to Kafka.
// Useful for development environments without a broker.
type StubAuditSink struct {
	logger *zap.Logger
}

// NewStubAuditSink constructs a development-friendly audit sink.
func NewStubAuditSink(logger *zap.Logger) *StubAuditSink {
	return &StubAuditSink{logger: logger}
}

// Append logs entry instead of publishing it.
func (s *StubAuditSink) Append(_ context.Context, entry domain.AuditLog) error {
	s.logger.Info("stub audit entry appended",
		zap.String("action", string(entry.Action)),
		zap.String("target_kind", string(entry.TargetKind)),
		zap.String("target_id", entry.TargetID),
		zap.String("actor", entry.Actor),
		zap.Time("stamp", entry.Stamp),
	)
	return nil
}

var _ port.AuditSink = (*StubAuditSink)(nil)
