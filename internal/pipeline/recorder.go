package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/m-rossini/balance-category-pipeline/internal/domain"
)

// Recorder accumulates the telemetry of a single run. Use it as a scoped
// resource:
//
//	rec.Start()
//	defer rec.End()
//
// so the run always gets an end time, even when a command panics.
type Recorder struct {
	pipelineName string
	run          *domain.RunRecord
	ended        bool

	now   func() time.Time
	newID func() string
}

func NewRecorder(pipelineName string) *Recorder {
	return &Recorder{
		pipelineName: pipelineName,
		now:          time.Now,
		newID:        newRunID,
	}
}

// Start creates the run record. Calling Start on a started recorder is a no-op.
func (r *Recorder) Start() {
	if r.run != nil {
		return
	}
	r.run = &domain.RunRecord{
		RunID:        r.newID(),
		PipelineName: r.pipelineName,
		Status:       domain.RunStatusRunning,
		StartTime:    r.now().UTC(),
		Steps:        []domain.StepRecord{},
		ContextFiles: domain.PipelineContext{},
	}
}

// End sets the end time once; later calls keep the first value.
func (r *Recorder) End() {
	if r.run == nil || r.ended {
		return
	}
	r.run.EndTime = r.now().UTC()
	r.ended = true
}

func (r *Recorder) Started() bool { return r.run != nil }
func (r *Recorder) Ended() bool   { return r.ended }

// TrackStep appends a step and moves the run's row counts along with it.
func (r *Recorder) TrackStep(step domain.StepRecord) {
	if r.run == nil {
		return
	}
	if len(r.run.Steps) == 0 {
		r.run.InputRowCount = step.InputRowCount
	}
	r.run.Steps = append(r.run.Steps, step.Clone())
	r.run.OutputRowCount = step.OutputRowCount
}

// Fail marks the run failed with the halting step's error.
func (r *Recorder) Fail(err *domain.StepError) {
	if r.run == nil {
		return
	}
	r.run.Status = domain.RunStatusFailed
	r.run.Error = err.Clone()
}

// Succeed marks a run that was not failed as succeeded.
func (r *Recorder) Succeed() {
	if r.run == nil || r.run.Status == domain.RunStatusFailed {
		return
	}
	r.run.Status = domain.RunStatusSucceeded
}

func (r *Recorder) MergeExtra(update *domain.RunExtra) {
	if r.run == nil {
		return
	}
	r.run.Extra.Merge(update)
}

// SetContextFiles snapshots the pipeline context into the run.
func (r *Recorder) SetContextFiles(pc domain.PipelineContext) {
	if r.run == nil {
		return
	}
	r.run.ContextFiles = pc.Clone()
}

// Run returns a copy of the current record, or nil before Start.
func (r *Recorder) Run() *domain.RunRecord {
	if r.run == nil {
		return nil
	}
	out := r.run.Clone()
	return &out
}

// newRunID prefers time-ordered v7 ids so stored runs list chronologically.
func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
