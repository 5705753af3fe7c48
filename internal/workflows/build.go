package workflows

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/m-rossini/balance-category-pipeline/internal/classifier"
	"github.com/m-rossini/balance-category-pipeline/internal/commands"
	"github.com/m-rossini/balance-category-pipeline/internal/domain"
	"github.com/m-rossini/balance-category-pipeline/internal/pipeline"
	"github.com/m-rossini/balance-category-pipeline/internal/quality"
	"github.com/m-rossini/balance-category-pipeline/internal/storage/objectstore"
	"github.com/m-rossini/balance-category-pipeline/internal/transform"
)

// Deps are the collaborators commands need at build time.
type Deps struct {
	Logger *slog.Logger

	// Objects and DatasetsBucket serve append_objects steps.
	Objects        objectstore.Store
	DatasetsBucket string

	// Classifier is the base configuration for ai_remote_categorization
	// steps; step fields override it. HTTPClient carries authentication.
	Classifier classifier.Config
	HTTPClient *http.Client
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d Deps) classifierConfig() classifier.Config {
	cfg := d.Classifier
	def := classifier.DefaultConfig()
	if strings.TrimSpace(cfg.ServiceURL) == "" {
		cfg.ServiceURL = def.ServiceURL
	}
	if strings.TrimSpace(cfg.Impl) == "" {
		cfg.Impl = def.Impl
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = def.MaxErrors
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return cfg
}

// Workflow is a built definition ready to run.
type Workflow struct {
	Name     string
	Context  domain.PipelineContext
	Commands []pipeline.Command
}

// Pipeline wraps the workflow in an orchestrator seeded with its context.
func (w *Workflow) Pipeline(opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	all := append([]pipeline.Option{pipeline.WithContext(w.Context)}, opts...)
	return pipeline.New(w.Name, w.Commands, all...)
}

// Run builds a pipeline and runs it from an empty dataset.
func (w *Workflow) Run(ctx context.Context, opts ...pipeline.Option) (*domain.Dataset, error) {
	p, err := w.Pipeline(opts...)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, nil)
}

// Build validates def and turns each step into its command.
func Build(def Definition, deps Deps) (*Workflow, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	wf := &Workflow{
		Name:     strings.TrimSpace(def.Name),
		Context:  domain.PipelineContext(def.Context).Clone(),
		Commands: make([]pipeline.Command, 0, len(def.Steps)),
	}
	for i, step := range def.Steps {
		cmd, err := buildStep(step, deps)
		if err != nil {
			return nil, fmt.Errorf("workflow %s step %d (%s): %w", wf.Name, i, step.Command, err)
		}
		wf.Commands = append(wf.Commands, cmd)
	}
	return wf, nil
}

func buildStep(step Step, deps Deps) (pipeline.Command, error) {
	logger := deps.logger()
	switch strings.TrimSpace(step.Command) {
	case commands.NameAppendFiles:
		return &commands.AppendFiles{
			Dir:    step.InputDir,
			Glob:   step.FileGlob,
			Files:  step.InputFiles,
			Logger: logger,
		}, nil

	case commands.NameAppendObjects:
		if deps.Objects == nil {
			return nil, fmt.Errorf("object store is not configured")
		}
		bucket := strings.TrimSpace(step.Bucket)
		if bucket == "" {
			bucket = deps.DatasetsBucket
		}
		if bucket == "" {
			return nil, fmt.Errorf("bucket is required")
		}
		return &commands.AppendObjects{
			Store:  deps.Objects,
			Bucket: bucket,
			Prefix: step.Prefix,
			Suffix: step.Suffix,
			Logger: logger,
		}, nil

	case commands.NameCleanData:
		fns := make([]transform.Func, 0, len(step.Functions))
		for _, name := range step.Functions {
			fn, err := transform.ByName(name)
			if err != nil {
				return nil, err
			}
			fns = append(fns, fn)
		}
		return &commands.CleanData{Functions: fns, Logger: logger}, nil

	case commands.NameMergeFiles:
		return &commands.MergeFiles{InputFile: step.InputFile, On: step.On, Logger: logger}, nil

	case commands.NameRemoteCategorization:
		cfg := deps.classifierConfig()
		if v := strings.TrimSpace(step.ServiceURL); v != "" {
			cfg.ServiceURL = v
		}
		if v := strings.TrimSpace(step.Impl); v != "" {
			cfg.Impl = v
		}
		if step.BatchSize > 0 {
			cfg.BatchSize = step.BatchSize
		}
		if step.MaxErrors > 0 {
			cfg.MaxErrors = step.MaxErrors
		}
		client, err := classifier.NewClient(cfg, deps.HTTPClient, logger)
		if err != nil {
			return nil, err
		}
		return &commands.RemoteCategorization{
			Client:    client,
			BatchSize: cfg.BatchSize,
			MaxErrors: cfg.MaxErrors,
			Logger:    logger,
		}, nil

	case commands.NameQualityAnalysis:
		weights := quality.Weights{}
		if step.Weights != nil {
			weights = *step.Weights
		}
		name := step.Calculator
		if strings.TrimSpace(name) == "" {
			name = quality.NameSimple
		}
		calc, err := quality.ByName(name, weights)
		if err != nil {
			return nil, err
		}
		return &commands.QualityAnalysis{Calculator: calc, Reporter: quality.NewLogReporter(logger)}, nil

	case commands.NameSaveFile:
		saveEmpty := true
		if step.SaveEmpty != nil {
			saveEmpty = *step.SaveEmpty
		}
		return &commands.SaveFile{OutputPath: step.OutputPath, SaveEmpty: saveEmpty, Logger: logger}, nil

	default:
		return nil, fmt.Errorf("unsupported command %q", step.Command)
	}
}
