package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m-rossini/balance-category-pipeline/internal/domain"
	"github.com/m-rossini/balance-category-pipeline/internal/repo"
)

var ErrNoCommands = errors.New("pipeline has no commands")

// Pipeline runs commands strictly in sequence, threading the dataset and the
// pipeline context through them and recording telemetry for each step.
type Pipeline struct {
	name     string
	commands []Command
	context  domain.PipelineContext
	repo     repo.RunRepository
	logger   *slog.Logger
	recorder *Recorder
	now      func() time.Time

	lastRun *domain.RunRecord
}

type Option func(*Pipeline)

// WithContext seeds the pipeline context (e.g. reference data locations).
func WithContext(pc domain.PipelineContext) Option {
	return func(p *Pipeline) { p.context = pc.Clone() }
}

// WithRepository persists the run record at the end of every run.
func WithRepository(r repo.RunRepository) Option {
	return func(p *Pipeline) { p.repo = r }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRecorder uses the given recorder for the next run instead of a fresh one.
func WithRecorder(rec *Recorder) Option {
	return func(p *Pipeline) { p.recorder = rec }
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

func New(name string, commands []Command, opts ...Option) (*Pipeline, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("pipeline name is required")
	}
	if len(commands) == 0 {
		return nil, ErrNoCommands
	}
	for i, cmd := range commands {
		if cmd == nil {
			return nil, fmt.Errorf("pipeline %s: command %d is nil", name, i)
		}
	}
	p := &Pipeline{
		name:     name,
		commands: append([]Command(nil), commands...),
		context:  domain.PipelineContext{},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Pipeline) Name() string { return p.name }

// Context returns a copy of the context the next run starts from.
func (p *Pipeline) Context() domain.PipelineContext { return p.context.Clone() }

// Commands returns the step names in execution order.
func (p *Pipeline) Commands() []string {
	out := make([]string, 0, len(p.commands))
	for _, cmd := range p.commands {
		out = append(out, cmd.Name())
	}
	return out
}

// LastRun returns a copy of the most recent run record, or nil.
func (p *Pipeline) LastRun() *domain.RunRecord {
	if p.lastRun == nil {
		return nil
	}
	out := p.lastRun.Clone()
	return &out
}

// Run executes every command against initial (which may be nil for
// pipelines that start with a loader). A negative status code halts the run
// and Run returns an empty dataset; the halting step is still recorded and
// the run persisted as failed. The only error returned is a repository
// failure while saving the run.
func (p *Pipeline) Run(ctx context.Context, initial *domain.Dataset) (*domain.Dataset, error) {
	rec := p.recorder
	if rec == nil || rec.Started() {
		rec = NewRecorder(p.name)
		rec.now = p.now
	}
	p.recorder = nil

	rec.Start()
	defer rec.End()

	ds := initial
	pc := p.context.Clone()
	halted := false

	for _, cmd := range p.commands {
		name := cmd.Name()
		p.logger.Debug("running step", "pipeline", p.name, "step", name)

		inputRows := ds.Len()
		startedAt := p.now().UTC()
		timer := time.Now()

		outcome := cmd.Process(ctx, ds, pc.Clone())

		elapsed := time.Since(timer)
		endedAt := p.now().UTC()

		step := domain.StepRecord{
			Name:            name,
			InputRowCount:   inputRows,
			DurationSeconds: elapsed.Seconds(),
			StartTime:       startedAt,
			EndTime:         endedAt,
			Parameters:      map[string]string{},
			StatusCode:      outcome.StatusCode,
		}

		if outcome.Halted() {
			stepErr := outcome.Error.Clone()
			if stepErr == nil {
				stepErr = &domain.StepError{Message: fmt.Sprintf("step %s halted with status %d", name, outcome.StatusCode)}
			}
			step.Error = stepErr
			rec.TrackStep(step)
			rec.Fail(stepErr)
			p.logger.Error("step halted pipeline",
				"pipeline", p.name,
				"step", name,
				"status_code", outcome.StatusCode,
				"error", stepErr.Message,
			)
			ds = domain.EmptyDataset()
			halted = true
			break
		}

		if outcome.Warning() {
			p.logger.Warn("step finished with warning", "pipeline", p.name, "step", name, "status_code", outcome.StatusCode)
		}

		ds = outcome.Dataset
		pc = pc.Merge(outcome.ContextUpdates)

		step.OutputRowCount = ds.Len()
		if upd := outcome.TelemetryUpdates; upd != nil && upd.OutputFilePath != "" {
			step.Parameters[domain.ExtraOutputFilePath] = upd.OutputFilePath
		}
		rec.TrackStep(step)
		rec.MergeExtra(outcome.TelemetryUpdates)

		p.logger.Debug("step completed",
			"pipeline", p.name,
			"step", name,
			"input_rows", inputRows,
			"output_rows", step.OutputRowCount,
			"duration_seconds", step.DurationSeconds,
		)
	}

	rec.End()
	rec.SetContextFiles(pc)
	if !halted {
		rec.Succeed()
	}

	run := rec.Run()
	p.lastRun = run

	if ds == nil {
		ds = domain.EmptyDataset()
	}

	if p.repo != nil && run != nil {
		if _, err := p.repo.Save(ctx, *run); err != nil {
			return ds, fmt.Errorf("save run %s: %w", run.RunID, err)
		}
		p.logger.Info("run saved", "pipeline", p.name, "run_id", run.RunID, "status", string(run.Status))
	}

	return ds, nil
}
