package domain

import "time"

// IntegrationRun is one execution of a scheduled task for a system (§4.5).
// A run is the sole holder of "in progress" state for its
// (IntegrationID, TaskID) pair — enforced at the storage layer by a
// uniqueness constraint treating NULL EndStamp as equal.
type IntegrationRun struct {
	ID            string
	IntegrationID string
	TaskID        string
	StartStamp    time.Time
	EndStamp      *time.Time
	Succeeded     *bool
}

// Running reports whether the run has not yet finished.
func (r IntegrationRun) Running() bool {
	return r.EndStamp == nil
}

// Finish transitions the run to Finished(succeeded, end_stamp=at).
// Returns false if the run was already finished.
func (r *IntegrationRun) Finish(at time.Time, succeeded bool) bool {
	if r.EndStamp != nil {
		return false
	}
	r.EndStamp = &at
	r.Succeeded = &succeeded
	return true
}

// IntegrationLogKind enumerates the severities a run can append during
// Running (§4.5).
type IntegrationLogKind string

const (
	IntegrationLogError   IntegrationLogKind = "error"
	IntegrationLogWarning IntegrationLogKind = "warning"
	IntegrationLogInfo    IntegrationLogKind = "info"
)

// IntegrationLogEntry is one line appended to a run's log while Running.
type IntegrationLogEntry struct {
	ID     string
	RunID  string
	Kind   IntegrationLogKind
	At     time.Time
	Detail string
}
