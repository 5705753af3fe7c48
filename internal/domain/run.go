package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// NormalizeRunStatus maps free-form status values to canonical run states.
func NormalizeRunStatus(value string) RunStatus {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(RunStatusRunning), "started":
		return RunStatusRunning
	case string(RunStatusSucceeded), "success", "ok":
		return RunStatusSucceeded
	case string(RunStatusFailed), "failure", "error":
		return RunStatusFailed
	default:
		return ""
	}
}

// StepError describes why a command halted.
type StepError struct {
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func (e *StepError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *StepError) Clone() *StepError {
	if e == nil {
		return nil
	}
	out := &StepError{Message: e.Message}
	if e.Details != nil {
		out.Details = make(map[string]string, len(e.Details))
		for k, v := range e.Details {
			out.Details[k] = v
		}
	}
	return out
}

// StepRecord is the immutable telemetry entry for one command invocation.
type StepRecord struct {
	Name            string            `json:"name"`
	InputRowCount   int               `json:"input_row_count"`
	OutputRowCount  int               `json:"output_row_count"`
	DurationSeconds float64           `json:"duration_seconds"`
	StartTime       time.Time         `json:"start_time"`
	EndTime         time.Time         `json:"end_time"`
	Parameters      map[string]string `json:"parameters"`
	StatusCode      int               `json:"status_code"`
	Error           *StepError        `json:"error,omitempty"`
}

// RunRecord is the telemetry of one full pipeline execution.
type RunRecord struct {
	RunID          string          `json:"run_id"`
	PipelineName   string          `json:"pipeline_name"`
	Status         RunStatus       `json:"status"`
	Error          *StepError      `json:"error,omitempty"`
	StartTime      time.Time       `json:"start_time"`
	EndTime        time.Time       `json:"end_time"`
	InputRowCount  int             `json:"input_row_count"`
	OutputRowCount int             `json:"output_row_count"`
	Steps          []StepRecord    `json:"steps"`
	ContextFiles   PipelineContext `json:"context_files"`
	Extra          RunExtra        `json:"extra"`
}

// TotalDuration is derived from the run timestamps and never stored.
func (r RunRecord) TotalDuration() time.Duration {
	if r.EndTime.IsZero() || r.StartTime.IsZero() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// MarshalJSON adds the derived total_duration (seconds) to the document.
// It is ignored when decoding.
func (r RunRecord) MarshalJSON() ([]byte, error) {
	type plain RunRecord
	return json.Marshal(struct {
		plain
		TotalDuration float64 `json:"total_duration"`
	}{
		plain:         plain(r),
		TotalDuration: r.TotalDuration().Seconds(),
	})
}

// Clone returns a deep copy of the run.
func (r RunRecord) Clone() RunRecord {
	out := r
	out.Error = r.Error.Clone()
	if r.Steps != nil {
		out.Steps = make([]StepRecord, len(r.Steps))
		for i, step := range r.Steps {
			out.Steps[i] = step.Clone()
		}
	}
	if r.ContextFiles != nil {
		out.ContextFiles = r.ContextFiles.Clone()
	}
	out.Extra = r.Extra.Clone()
	return out
}

func (s StepRecord) Clone() StepRecord {
	out := s
	if s.Parameters != nil {
		out.Parameters = make(map[string]string, len(s.Parameters))
		for k, v := range s.Parameters {
			out.Parameters[k] = v
		}
	}
	out.Error = s.Error.Clone()
	return out
}
