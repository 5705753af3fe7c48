package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/m-rossini/balance-category-pipeline/internal/classifier"
	"github.com/m-rossini/balance-category-pipeline/internal/domain"
	"github.com/m-rossini/balance-category-pipeline/internal/pipeline"
	"github.com/m-rossini/balance-category-pipeline/internal/transform"
)

const (
	columnDescription = "TransactionDescription"
	columnDate        = "TransactionDate"
	columnType        = "TransactionType"
)

// contextKeys are the pipeline context entries sent to the service, in order.
var contextKeys = []string{domain.ContextCategories, domain.ContextTypeCode}

// Categorizer is the remote classification call. *classifier.Client
// implements it.
type Categorizer interface {
	Categorize(ctx context.Context, req classifier.Request) (*classifier.Response, error)
}

// RemoteCategorization annotates the dataset through the classification
// service in batches. A failed batch is logged and counted; after MaxErrors
// failed batches no more batches are sent. The step always succeeds with the
// rows annotated so far.
type RemoteCategorization struct {
	Client    Categorizer
	BatchSize int
	MaxErrors int
	Logger    *slog.Logger
}

func (c *RemoteCategorization) Name() string { return NameRemoteCategorization }

func (c *RemoteCategorization) Process(ctx context.Context, ds *domain.Dataset, pc domain.PipelineContext) pipeline.Outcome {
	logger := loggerOr(c.Logger)
	if c.Client == nil {
		return pipeline.Halt("classification client is not configured", nil)
	}
	if ds.IsEmpty() {
		return pipeline.Success(orEmpty(ds))
	}
	batchSize := c.BatchSize
	if batchSize <= 0 {
		batchSize = classifier.DefaultBatchSize
	}
	maxErrors := c.MaxErrors
	if maxErrors <= 0 {
		maxErrors = classifier.DefaultMaxErrors
	}

	refs := loadContext(ctx, logger, pc)
	out := ds.Clone()
	for _, col := range []string{transform.ColumnCategory, transform.ColumnSubCategory, transform.ColumnConfidence} {
		out.EnsureColumn(col, "")
	}
	logger.InfoContext(ctx, "remote categorization", "rows", out.Len(), "batch_size", batchSize)

	failed, annotated := 0, 0
	for start := 0; start < out.Len() && failed < maxErrors; start += batchSize {
		if err := ctx.Err(); err != nil {
			logger.WarnContext(ctx, "remote categorization cancelled", "error", err)
			break
		}
		end := min(start+batchSize, out.Len())
		req := classifier.Request{Context: refs, Transactions: buildTransactions(out, start, end)}

		resp, err := c.Client.Categorize(ctx, req)
		if err != nil {
			failed++
			logger.ErrorContext(ctx, "batch failed", "from", start+1, "to", end, "error", err)
			continue
		}
		annotated += applyItems(out, resp.Items)
		logger.DebugContext(ctx, "batch categorized", "from", start+1, "to", end)
	}
	if failed >= maxErrors {
		logger.ErrorContext(ctx, "stopped after too many failed batches", "failed", failed, "max_errors", maxErrors)
	}
	logger.InfoContext(ctx, "remote categorization finished", "annotated", annotated, "failed_batches", failed)
	return pipeline.Success(out)
}

// loadContext reads every reference document named in pc. Missing or
// invalid documents are logged and left out.
func loadContext(ctx context.Context, logger *slog.Logger, pc domain.PipelineContext) []json.RawMessage {
	refs := []json.RawMessage{}
	for _, key := range contextKeys {
		path := strings.TrimSpace(pc[key])
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			logger.ErrorContext(ctx, "could not load context", "key", key, "path", path, "error", err)
			continue
		}
		if !json.Valid(data) {
			logger.ErrorContext(ctx, "could not load context", "key", key, "path", path, "error", "invalid json")
			continue
		}
		refs = append(refs, json.RawMessage(data))
		logger.DebugContext(ctx, "loaded context", "key", key, "path", path)
	}
	return refs
}

// buildTransactions uses the row position as the transaction id.
func buildTransactions(ds *domain.Dataset, start, end int) []classifier.Transaction {
	out := make([]classifier.Transaction, 0, end-start)
	for i := start; i < end; i++ {
		row := ds.Rows[i]
		amount, _ := strconv.ParseFloat(strings.TrimSpace(row[transform.ColumnTransactionValue]), 64)
		out = append(out, classifier.Transaction{
			ID:          strconv.Itoa(i),
			Description: row[columnDescription],
			Amount:      amount,
			Date:        row[columnDate],
			Type:        row[columnType],
		})
	}
	return out
}

func applyItems(ds *domain.Dataset, items []classifier.Item) int {
	applied := 0
	for _, item := range items {
		if item.Category == nil {
			continue
		}
		idx, err := item.ID.Index()
		if err != nil || idx < 0 || idx >= ds.Len() {
			continue
		}
		row := ds.Rows[idx]
		row[transform.ColumnCategory] = item.Category.Category
		row[transform.ColumnSubCategory] = item.Category.Subcategory
		row[transform.ColumnConfidence] = strconv.FormatFloat(item.Category.Confidence, 'f', -1, 64)
		if item.Category.TransactionNumber != nil {
			if !ds.HasColumn(transform.ColumnTransactionNumber) {
				ds.EnsureColumn(transform.ColumnTransactionNumber, "")
			}
			row[transform.ColumnTransactionNumber] = strconv.Itoa(*item.Category.TransactionNumber)
		}
		applied++
	}
	return applied
}
