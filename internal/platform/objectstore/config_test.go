package objectstore

import (
	"strings"
	"testing"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if cfg.BucketRuns != "pipeline-runs" || cfg.RunsPrefix != "runs" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("PIPELINE_MINIO_ENDPOINT", "minio.internal:9000")
	t.Setenv("PIPELINE_MINIO_USE_SSL", "true")
	t.Setenv("PIPELINE_MINIO_BUCKET_RUNS", "telemetry")
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if cfg.Endpoint != "minio.internal:9000" || !cfg.UseSSL || cfg.BucketRuns != "telemetry" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	base := Config{
		Endpoint:       "localhost:9000",
		AccessKey:      "a",
		SecretKey:      "s",
		Region:         "us-east-1",
		BucketRuns:     "runs",
		BucketDatasets: "datasets",
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}

	withScheme := base
	withScheme.Endpoint = "http://localhost:9000"
	if err := withScheme.Validate(); err == nil || !strings.Contains(err.Error(), "scheme") {
		t.Fatalf("Validate() err=%v, want scheme error", err)
	}

	noBucket := base
	noBucket.BucketRuns = " "
	if err := noBucket.Validate(); err == nil {
		t.Fatalf("Validate() expected error for empty runs bucket")
	}
}

func TestNewMinIOClient(t *testing.T) {
	cfg := Config{
		Endpoint:       "localhost:9000",
		AccessKey:      "a",
		SecretKey:      "s",
		Region:         "us-east-1",
		BucketRuns:     "runs",
		BucketDatasets: "datasets",
	}
	client, err := NewMinIOClient(cfg)
	if err != nil {
		t.Fatalf("NewMinIOClient() err=%v", err)
	}
	if client.EndpointURL().Host != "localhost:9000" {
		t.Fatalf("endpoint=%q", client.EndpointURL().Host)
	}

	cfg.AccessKey = ""
	if _, err := NewMinIOClient(cfg); err == nil {
		t.Fatalf("expected validation error")
	}
}
