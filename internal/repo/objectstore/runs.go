package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/m-rossini/balance-category-pipeline/internal/domain"
	"github.com/m-rossini/balance-category-pipeline/internal/repo"
	"github.com/m-rossini/balance-category-pipeline/internal/storage/objectstore"
)

const runObjectExt = ".json"

// RunStore keeps each run as <prefix>/<run_id>.json in one bucket.
type RunStore struct {
	store  objectstore.Store
	bucket string
	prefix string
}

var _ repo.RunRepository = (*RunStore)(nil)

func NewRunStore(store objectstore.Store, bucket, prefix string) (*RunStore, error) {
	if store == nil {
		return nil, errors.New("object store is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("bucket is required")
	}
	return &RunStore{
		store:  store,
		bucket: bucket,
		prefix: strings.Trim(strings.TrimSpace(prefix), "/"),
	}, nil
}

func (s *RunStore) Save(ctx context.Context, run domain.RunRecord) (string, error) {
	id, err := repo.ValidateRunID(run.RunID)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode run %s: %w", id, err)
	}
	if err := s.store.Put(ctx, s.bucket, s.key(id), bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return "", fmt.Errorf("put run %s: %w", id, err)
	}
	return id, nil
}

func (s *RunStore) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	id, err := repo.ValidateRunID(runID)
	if err != nil {
		return nil, err
	}
	rc, _, err := s.store.Get(ctx, s.bucket, s.key(id))
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read run %s: %w", id, err)
	}
	var run domain.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &run, nil
}

func (s *RunStore) ListRuns(ctx context.Context) ([]string, error) {
	listPrefix := ""
	if s.prefix != "" {
		listPrefix = s.prefix + "/"
	}
	objects, err := s.store.List(ctx, s.bucket, listPrefix)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	ids := make([]string, 0, len(objects))
	for _, obj := range objects {
		name := strings.TrimPrefix(obj.Key, listPrefix)
		if strings.Contains(name, "/") || !strings.HasSuffix(name, runObjectExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, runObjectExt))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *RunStore) key(id string) string {
	if s.prefix == "" {
		return id + runObjectExt
	}
	return path.Join(s.prefix, id+runObjectExt)
}
