package port

import (
	"context"

	"github.com/hiveiam/hive/internal/core/domain"
)

// AuditSink is a write-only append contract for audit history (§1, §3).
// It is a collaborator out of core scope: a durable implementation may
// buffer and batch, but Append must never silently drop an entry it has
// accepted.
type AuditSink interface {
	Append(ctx context.Context, entry domain.AuditLog) error
}
