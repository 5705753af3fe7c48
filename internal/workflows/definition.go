package workflows

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/m-rossini/balance-category-pipeline/internal/commands"
	"github.com/m-rossini/balance-category-pipeline/internal/quality"
	"github.com/m-rossini/balance-category-pipeline/internal/transform"
)

const SchemaV1 = "balance.workflow.v1"

// Definition is a workflow described as data: a name, the seed pipeline
// context and the ordered steps. Built-in workflows and YAML files share it.
type Definition struct {
	Schema  string            `json:"schema" yaml:"schema"`
	Name    string            `json:"name" yaml:"name"`
	Context map[string]string `json:"context,omitempty" yaml:"context,omitempty"`
	Steps   []Step            `json:"steps" yaml:"steps"`
}

// Step configures one command. Only the fields of the named command apply.
type Step struct {
	Command string `json:"command" yaml:"command"`

	InputDir   string   `json:"input_dir,omitempty" yaml:"input_dir,omitempty"`
	FileGlob   string   `json:"file_glob,omitempty" yaml:"file_glob,omitempty"`
	InputFiles []string `json:"input_files,omitempty" yaml:"input_files,omitempty"`

	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Suffix string `json:"suffix,omitempty" yaml:"suffix,omitempty"`

	Functions []string `json:"functions,omitempty" yaml:"functions,omitempty"`

	InputFile string   `json:"input_file,omitempty" yaml:"input_file,omitempty"`
	On        []string `json:"on,omitempty" yaml:"on,omitempty"`

	ServiceURL string `json:"service_url,omitempty" yaml:"service_url,omitempty"`
	Impl       string `json:"impl,omitempty" yaml:"impl,omitempty"`
	BatchSize  int    `json:"batch_size,omitempty" yaml:"batch_size,omitempty"`
	MaxErrors  int    `json:"max_errors,omitempty" yaml:"max_errors,omitempty"`

	Calculator string           `json:"calculator,omitempty" yaml:"calculator,omitempty"`
	Weights    *quality.Weights `json:"weights,omitempty" yaml:"weights,omitempty"`

	OutputPath string `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	// SaveEmpty defaults to true when omitted.
	SaveEmpty *bool `json:"save_empty,omitempty" yaml:"save_empty,omitempty"`
}

func ParseDefinition(input []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(input, &def); err != nil {
		return Definition{}, fmt.Errorf("decode workflow: %w", err)
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

func LoadFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("read workflow file: %w", err)
	}
	def, err := ParseDefinition(data)
	if err != nil {
		return Definition{}, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

func (d Definition) Validate() error {
	if strings.TrimSpace(d.Schema) != SchemaV1 {
		return fmt.Errorf("workflow.schema must be %q", SchemaV1)
	}
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("workflow.name is required")
	}
	if len(d.Steps) == 0 {
		return errors.New("workflow.steps must be non-empty")
	}
	for key := range d.Context {
		if strings.TrimSpace(key) == "" {
			return errors.New("workflow.context keys must be non-empty")
		}
	}
	for i, step := range d.Steps {
		if err := step.validate(fmt.Sprintf("workflow.steps[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func (s Step) validate(prefix string) error {
	switch strings.TrimSpace(s.Command) {
	case "":
		return fmt.Errorf("%s.command is required", prefix)
	case commands.NameAppendFiles:
		if strings.TrimSpace(s.InputDir) == "" && len(s.InputFiles) == 0 {
			return fmt.Errorf("%s.input_dir or %s.input_files is required", prefix, prefix)
		}
	case commands.NameAppendObjects:
	case commands.NameCleanData:
		for i, name := range s.Functions {
			if _, err := transform.ByName(name); err != nil {
				return fmt.Errorf("%s.functions[%d]: %w", prefix, i, err)
			}
		}
	case commands.NameMergeFiles:
		if strings.TrimSpace(s.InputFile) == "" {
			return fmt.Errorf("%s.input_file is required", prefix)
		}
	case commands.NameRemoteCategorization:
		if s.BatchSize < 0 {
			return fmt.Errorf("%s.batch_size must not be negative", prefix)
		}
		if s.MaxErrors < 0 {
			return fmt.Errorf("%s.max_errors must not be negative", prefix)
		}
	case commands.NameQualityAnalysis:
		weights := quality.Weights{}
		if s.Weights != nil {
			weights = *s.Weights
		}
		if _, err := quality.ByName(s.Calculator, weights); err != nil {
			return fmt.Errorf("%s: %w", prefix, err)
		}
	case commands.NameSaveFile:
		if strings.TrimSpace(s.OutputPath) == "" {
			return fmt.Errorf("%s.output_path is required", prefix)
		}
	default:
		return fmt.Errorf("%s.command unsupported: %q", prefix, s.Command)
	}
	return nil
}
