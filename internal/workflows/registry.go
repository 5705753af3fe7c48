package workflows

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/m-rossini/balance-category-pipeline/internal/classifier"
	"github.com/m-rossini/balance-category-pipeline/internal/commands"
	"github.com/m-rossini/balance-category-pipeline/internal/domain"
	"github.com/m-rossini/balance-category-pipeline/internal/quality"
	"github.com/m-rossini/balance-category-pipeline/internal/transform"
)

var (
	ErrUnknownWorkflow   = errors.New("unknown workflow")
	ErrDuplicateWorkflow = errors.New("workflow already registered")
)

const (
	BankTransactionAnalysis = "bank_transaction_analysis"
	MinimalLoad             = "minimal_load"
	AICategorization        = "ai_categorization"
)

// DefinitionFunc produces a workflow definition. Some definitions depend on
// runtime configuration such as the classifier URL.
type DefinitionFunc func(deps Deps) Definition

// Registry maps workflow names to their definitions.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]DefinitionFunc
}

// NewRegistry returns a registry holding the built-in workflows.
func NewRegistry() *Registry {
	r := &Registry{defs: map[string]DefinitionFunc{}}
	r.defs[BankTransactionAnalysis] = bankTransactionAnalysis
	r.defs[MinimalLoad] = minimalLoad
	r.defs[AICategorization] = aiCategorization
	return r
}

func (r *Registry) Register(name string, fn DefinitionFunc) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return errors.New("workflow name and definition are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateWorkflow, name)
	}
	r.defs[name] = fn
	return nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.defs))
	for name := range r.defs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Definition(name string, deps Deps) (Definition, error) {
	r.mu.RLock()
	fn, ok := r.defs[strings.TrimSpace(name)]
	r.mu.RUnlock()
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownWorkflow, name, strings.Join(r.Names(), ", "))
	}
	return fn(deps), nil
}

func (r *Registry) Build(name string, deps Deps) (*Workflow, error) {
	def, err := r.Definition(name, deps)
	if err != nil {
		return nil, err
	}
	return Build(def, deps)
}

const (
	bankStatementsDir = "data/extratos/bank_bos"
	demoStatementsDir = "data/extratos/demo/"
	trainedFile       = "data/training/factoids.csv"
)

func referenceContext() map[string]string {
	return map[string]string{
		domain.ContextCategories: "context/candidate_categories.json",
		domain.ContextTypeCode:   "context/transaction_type_codes.json",
	}
}

func noEmpty() *bool {
	v := false
	return &v
}

func bankTransactionAnalysis(Deps) Definition {
	return Definition{
		Schema:  SchemaV1,
		Name:    BankTransactionAnalysis,
		Context: referenceContext(),
		Steps: []Step{
			{Command: commands.NameAppendFiles, InputDir: bankStatementsDir, FileGlob: "*.csv"},
			{Command: commands.NameCleanData, Functions: []string{transform.NameBankExtractClean}},
			{Command: commands.NameMergeFiles, InputFile: trainedFile, On: []string{transform.ColumnTransactionNumber}},
			{Command: commands.NameSaveFile, OutputPath: "data/output/annotated_bos.csv", SaveEmpty: noEmpty()},
		},
	}
}

func minimalLoad(Deps) Definition {
	return Definition{
		Schema: SchemaV1,
		Name:   MinimalLoad,
		Steps: []Step{
			{Command: commands.NameAppendFiles, InputDir: bankStatementsDir, FileGlob: "*.csv"},
			{Command: commands.NameSaveFile, OutputPath: "data/output/raw_bos.csv", SaveEmpty: noEmpty()},
		},
	}
}

// aiCategorization mirrors bank_transaction_analysis with remote
// categorization and scoring before the save. The output name embeds the
// service it was categorized by.
func aiCategorization(deps Deps) Definition {
	service := deps.classifierConfig().ServiceURL
	return Definition{
		Schema:  SchemaV1,
		Name:    AICategorization,
		Context: referenceContext(),
		Steps: []Step{
			{Command: commands.NameAppendFiles, InputDir: demoStatementsDir, FileGlob: "*.csv"},
			{Command: commands.NameCleanData, Functions: []string{transform.NameBankExtractClean}},
			{Command: commands.NameMergeFiles, InputFile: trainedFile, On: []string{transform.ColumnTransactionNumber}},
			{Command: commands.NameRemoteCategorization, ServiceURL: service},
			{Command: commands.NameQualityAnalysis, Calculator: quality.NameSimple},
			{
				Command:    commands.NameSaveFile,
				OutputPath: fmt.Sprintf("data/output/ai_categorized_%s_bos.csv", classifier.ServiceName(service)),
				SaveEmpty:  noEmpty(),
			},
		},
	}
}
