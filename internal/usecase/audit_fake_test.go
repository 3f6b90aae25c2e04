package usecase

import (
	"context"

	"github.com/hiveiam/hive/internal/core/domain"
)

// fakeAuditSink records every appended entry for assertions; it never
// fails, matching the teacher's in-memory test doubles for write-only
// collaborators.
type fakeAuditSink struct {
	entries []domain.AuditLog
}

func (f *fakeAuditSink) Append(ctx context.Context, entry domain.AuditLog) error {
	f.entries = append(f.entries, entry)
	return nil
}
