// Package audit composes the durable and mirrored audit sinks behind a
// single port.AuditSink so usecases never need to know there is more
// than one collaborator accepting entries.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/core/port"
)

// CompositeSink writes to a required durable sink (PostgreSQL) and a
// best-effort set of mirrors (Kafka). A mirror failure is logged and
// swallowed — Append must never drop an entry the durable sink accepted,
// but it also must never fail a request because a mirror lagged (§1).
type CompositeSink struct {
	Durable port.AuditSink
	Mirrors []port.AuditSink
	Logger  *zap.Logger
}

// NewCompositeSink constructs a CompositeSink.
func NewCompositeSink(durable port.AuditSink, logger *zap.Logger, mirrors ...port.AuditSink) *CompositeSink {
	return &CompositeSink{Durable: durable, Mirrors: mirrors, Logger: logger}
}

// Append writes to the durable sink first; only on its success does it
// fan out to the mirrors.
func (s *CompositeSink) Append(ctx context.Context, entry domain.AuditLog) error {
	if err := s.Durable.Append(ctx, entry); err != nil {
		return err
	}

	for _, mirror := range s.Mirrors {
		if err := mirror.Append(ctx, entry); err != nil && s.Logger != nil {
			s.Logger.Warn("audit mirror append failed", zap.String("audit_id", entry.ID), zap.Error(err))
		}
	}

	return nil
}

var _ port.AuditSink = (*CompositeSink)(nil)
