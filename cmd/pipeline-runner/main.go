package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/m-rossini/balance-category-pipeline/internal/pipeline"
	"github.com/m-rossini/balance-category-pipeline/internal/workflows"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	workflow      string
	workflowFile  string
	logLevel      string
	metadataDir   string
	runStore      string
	listRuns      bool
	showRun       string
	listWorkflows bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("pipeline-runner", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.workflow, "workflow", envOr("PIPELINE_WORKFLOW", workflows.BankTransactionAnalysis), "Built-in workflow to run")
	fs.StringVar(&opts.workflowFile, "workflow-file", envOr("PIPELINE_WORKFLOW_FILE", ""), "YAML workflow definition (overrides --workflow)")
	fs.StringVar(&opts.logLevel, "log-level", envOr("PIPELINE_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	fs.StringVar(&opts.metadataDir, "metadata-dir", envOr("PIPELINE_METADATA_DIR", ""), "Run metadata directory for the file run store (default ~/.metadata/pipelines)")
	fs.StringVar(&opts.runStore, "run-store", envOr("PIPELINE_RUN_STORE", storeFile), "Run store: file, postgres or minio")
	fs.BoolVar(&opts.listRuns, "list-runs", false, "List stored run ids and exit")
	fs.StringVar(&opts.showRun, "show-run", "", "Print the stored run with this id and exit")
	fs.BoolVar(&opts.listWorkflows, "list-workflows", false, "List built-in workflows and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return opts, nil
}

func parseLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unsupported log level %q", value)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	level, err := parseLevel(opts.logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: level}))

	registry := workflows.NewRegistry()
	if opts.listWorkflows {
		for _, name := range registry.Names() {
			fmt.Fprintln(stdout, name)
		}
		return exitOK
	}

	store, closeStore, code, err := openRunStore(ctx, opts.runStore, opts.metadataDir, logger)
	if err != nil {
		logger.Error("run store unavailable", "run_store", opts.runStore, "error", err)
		return code
	}
	defer closeStore()

	switch {
	case opts.listRuns:
		ids, err := store.ListRuns(ctx)
		if err != nil {
			logger.Error("list runs failed", "error", err)
			return exitFailure
		}
		for _, id := range ids {
			fmt.Fprintln(stdout, id)
		}
		return exitOK
	case strings.TrimSpace(opts.showRun) != "":
		rec, err := store.Load(ctx, strings.TrimSpace(opts.showRun))
		if err != nil {
			logger.Error("load run failed", "run_id", opts.showRun, "error", err)
			return exitFailure
		}
		if rec == nil {
			logger.Error("run not found", "run_id", opts.showRun)
			return exitFailure
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rec); err != nil {
			logger.Error("encode run failed", "error", err)
			return exitFailure
		}
		return exitOK
	}

	def, code, err := loadDefinition(registry, opts)
	if err != nil {
		logger.Error("invalid workflow", "workflow", opts.workflow, "workflow_file", opts.workflowFile, "error", err)
		return code
	}
	deps, code, err := workflowDeps(ctx, def, logger)
	if err != nil {
		logger.Error("workflow dependencies unavailable", "workflow", def.Name, "error", err)
		return code
	}
	wf, err := workflows.Build(def, deps)
	if err != nil {
		logger.Error("invalid workflow", "workflow", def.Name, "error", err)
		return exitUsage
	}
	logger.Debug("workflow context", "workflow", wf.Name, "context", wf.Context)

	started := time.Now()
	ds, err := wf.Run(ctx, pipeline.WithRepository(store), pipeline.WithLogger(logger))
	elapsed := time.Since(started)
	if err != nil {
		logger.Error("workflow run not persisted", "workflow", wf.Name, "error", err)
		return exitFailure
	}
	if ds.Len() == 0 {
		logger.Warn("no data produced by workflow", "workflow", wf.Name)
		return exitOK
	}
	logger.Info("workflow completed", "workflow", wf.Name, "output_rows", ds.Len(), "elapsed_seconds", elapsed.Seconds())
	return exitOK
}

func loadDefinition(registry *workflows.Registry, opts options) (workflows.Definition, int, error) {
	if path := strings.TrimSpace(opts.workflowFile); path != "" {
		def, err := workflows.LoadFile(path)
		if err != nil {
			return workflows.Definition{}, exitUsage, err
		}
		return def, exitOK, nil
	}
	cfg, err := classifierConfig()
	if err != nil {
		return workflows.Definition{}, exitUsage, err
	}
	def, err := registry.Definition(opts.workflow, workflows.Deps{Classifier: cfg})
	if err != nil {
		return workflows.Definition{}, exitUsage, err
	}
	return def, exitOK, nil
}
