package objectstore

import (
	"errors"
	"net/http"
	"testing"

	"github.com/minio/minio-go/v7"
)

func TestMapError(t *testing.T) {
	if mapError(nil) != nil {
		t.Fatalf("mapError(nil) must be nil")
	}
	missing := minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound, Key: "runs/x.json"}
	if err := mapError(missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("mapError(NoSuchKey)=%v, want ErrNotFound", err)
	}
	noBucket := minio.ErrorResponse{Code: "NoSuchBucket", StatusCode: http.StatusNotFound}
	if err := mapError(noBucket); errors.Is(err, ErrNotFound) {
		t.Fatalf("missing bucket must not look like a missing object")
	}
	denied := minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}
	if err := mapError(denied); errors.Is(err, ErrNotFound) {
		t.Fatalf("access denied must not map to ErrNotFound")
	}
}

func TestNewMinioStoreWithClientRequiresClient(t *testing.T) {
	if _, err := NewMinioStoreWithClient(nil); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
