package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/core/port"
)

// now is a seam so tests can stub the audit timestamp without touching
// the real clock inside resolvers (which never need one).
var now = func() time.Time { return time.Now().UTC() }

// audit appends an entry to sink, swallowing a nil sink and marshal
// failures: the write that triggered it has already succeeded, and a
// missing audit row must never surface as a failed request (§1).
func audit(ctx context.Context, sink port.AuditSink, action domain.ActionKind, target domain.TargetKind, targetID, actor string, details map[string]any) {
	if sink == nil {
		return
	}

	var raw json.RawMessage
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			raw = b
		}
	}

	_ = sink.Append(ctx, domain.AuditLog{
		ID:         uuid.NewString(),
		Action:     action,
		TargetKind: target,
		TargetID:   targetID,
		Actor:      actor,
		Stamp:      now(),
		Details:    raw,
	})
}
