package pipeline

import (
	"context"
	"fmt"

	"github.com/m-rossini/balance-category-pipeline/internal/domain"
)

// Status codes understood by the orchestrator. Any negative code halts the
// run and any positive code is a warning that continues like success.
const (
	StatusOK      = 0
	StatusWarning = 1
	StatusHalt    = -1
)

// Command is one pipeline step. Implementations must not mutate pc; they
// contribute to it through Outcome.ContextUpdates. ds is nil only for
// source commands that run first.
type Command interface {
	Name() string
	Process(ctx context.Context, ds *domain.Dataset, pc domain.PipelineContext) Outcome
}

// CommandFunc adapts a function to the Command interface.
type CommandFunc struct {
	StepName string
	Fn       func(ctx context.Context, ds *domain.Dataset, pc domain.PipelineContext) Outcome
}

func (c CommandFunc) Name() string { return c.StepName }

func (c CommandFunc) Process(ctx context.Context, ds *domain.Dataset, pc domain.PipelineContext) Outcome {
	if c.Fn == nil {
		return Halt("command function is nil", nil)
	}
	return c.Fn(ctx, ds, pc)
}

// Outcome is what a command reports back to the orchestrator.
type Outcome struct {
	StatusCode       int
	Dataset          *domain.Dataset
	Error            *domain.StepError
	ContextUpdates   domain.PipelineContext
	TelemetryUpdates *domain.RunExtra
}

func (o Outcome) Halted() bool  { return o.StatusCode < 0 }
func (o Outcome) Warning() bool { return o.StatusCode > 0 }

// WithContext returns a copy of o carrying the given context updates.
func (o Outcome) WithContext(updates domain.PipelineContext) Outcome {
	o.ContextUpdates = updates
	return o
}

// WithTelemetry returns a copy of o carrying the given telemetry updates.
func (o Outcome) WithTelemetry(updates *domain.RunExtra) Outcome {
	o.TelemetryUpdates = updates
	return o
}

func Success(ds *domain.Dataset) Outcome {
	return Outcome{StatusCode: StatusOK, Dataset: ds}
}

// Warn continues the run; code must be positive and is clamped to StatusWarning otherwise.
func Warn(code int, ds *domain.Dataset) Outcome {
	if code <= 0 {
		code = StatusWarning
	}
	return Outcome{StatusCode: code, Dataset: ds}
}

// Halt stops the run. The dataset is always nil.
func Halt(message string, details map[string]string) Outcome {
	return HaltWithCode(StatusHalt, message, details)
}

// Haltf is Halt with a formatted message.
func Haltf(format string, args ...any) Outcome {
	return Halt(fmt.Sprintf(format, args...), nil)
}

// HaltWithCode stops the run with a caller-chosen negative code.
func HaltWithCode(code int, message string, details map[string]string) Outcome {
	if code >= 0 {
		code = StatusHalt
	}
	return Outcome{
		StatusCode: code,
		Error:      &domain.StepError{Message: message, Details: details},
	}
}
