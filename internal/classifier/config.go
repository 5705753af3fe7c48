package classifier

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/m-rossini/balance-category-pipeline/internal/platform/env"
)

const (
	DefaultServiceURL = "http://localhost:5000/balance/"
	DefaultImpl       = "fixed"
	DefaultBatchSize  = 50
	DefaultMaxErrors  = 10
	DefaultTimeout    = 30 * time.Second
)

type Config struct {
	ServiceURL string
	Impl       string
	BatchSize  int
	// MaxErrors is the number of failed batches after which a run stops
	// calling the service.
	MaxErrors int
	Timeout   time.Duration
}

func DefaultConfig() Config {
	return Config{
		ServiceURL: DefaultServiceURL,
		Impl:       DefaultImpl,
		BatchSize:  DefaultBatchSize,
		MaxErrors:  DefaultMaxErrors,
		Timeout:    DefaultTimeout,
	}
}

func ConfigFromEnv() (Config, error) {
	batch, err := env.Int("PIPELINE_CLASSIFIER_BATCH_SIZE", DefaultBatchSize)
	if err != nil {
		return Config{}, err
	}
	maxErrors, err := env.Int("PIPELINE_CLASSIFIER_MAX_ERRORS", DefaultMaxErrors)
	if err != nil {
		return Config{}, err
	}
	timeout, err := env.Duration("PIPELINE_CLASSIFIER_TIMEOUT", DefaultTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		ServiceURL: env.FirstString(DefaultServiceURL, "AI_SERVICE_URL", "PIPELINE_CLASSIFIER_URL"),
		Impl:       env.FirstString(DefaultImpl, "PIPELINE_CLASSIFIER_IMPL"),
		BatchSize:  batch,
		MaxErrors:  maxErrors,
		Timeout:    timeout,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	raw := strings.TrimSpace(c.ServiceURL)
	if raw == "" {
		return errors.New("AI_SERVICE_URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("AI_SERVICE_URL is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("AI_SERVICE_URL must be http or https (got %q)", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("AI_SERVICE_URL must include a host")
	}
	if strings.TrimSpace(c.Impl) == "" {
		return errors.New("PIPELINE_CLASSIFIER_IMPL is required")
	}
	if c.BatchSize <= 0 {
		return errors.New("PIPELINE_CLASSIFIER_BATCH_SIZE must be positive")
	}
	if c.MaxErrors <= 0 {
		return errors.New("PIPELINE_CLASSIFIER_MAX_ERRORS must be positive")
	}
	if c.Timeout <= 0 {
		return errors.New("PIPELINE_CLASSIFIER_TIMEOUT must be positive")
	}
	return nil
}

// ServiceName turns the service URL into a token safe for file names,
// e.g. "http://host:5000/balance/" becomes "host_5000_balance_".
func ServiceName(serviceURL string) string {
	s := strings.TrimSpace(serviceURL)
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "https://")
	return strings.NewReplacer("/", "_", ":", "_").Replace(s)
}
