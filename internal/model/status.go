package model

import (
	"encoding/json"
	"fmt"
)

// JobStatus is the lifecycle state of a Job.
//
// Design decision: We use iota-based constants with String/Marshal methods,
// the same way severities were modelled, so comparisons stay cheap while the
// ledger and API still see readable names.
type JobStatus int

const (
	// JobQueued means the job was accepted but has not started.
	JobQueued JobStatus = iota

	// JobRunning means the pipeline is executing.
	JobRunning

	// JobSucceeded means the compact document was delivered.
	JobSucceeded

	// JobFailed means a job-level step failed (synthesis, reduction or delivery).
	JobFailed
)

// String returns the lowercase status name.
func (s JobStatus) String() string {
	switch s {
	case JobQueued:
		return "queued"
	case JobRunning:
		return "running"
	case JobSucceeded:
		return "succeeded"
	case JobFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// ParseJobStatus converts a status name back into a JobStatus.
func ParseJobStatus(name string) (JobStatus, error) {
	switch name {
	case "queued":
		return JobQueued, nil
	case "running":
		return JobRunning, nil
	case "succeeded":
		return JobSucceeded, nil
	case "failed":
		return JobFailed, nil
	default:
		return JobQueued, fmt.Errorf("unknown job status %q", name)
	}
}

// MarshalJSON encodes the status as its name.
func (s JobStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status name.
func (s *JobStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseJobStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
