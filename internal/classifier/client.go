package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrServiceFailure is returned when the service answers with code FAILURE.
	ErrServiceFailure = errors.New("classification service reported failure")
	ErrUnexpectedCode = errors.New("classification service returned unexpected code")
)

const maxResponseBytes = 8 << 20

type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("classification api error (status=%d)", e.StatusCode)
	}
	return fmt.Sprintf("classification api error (status=%d): %s", e.StatusCode, body)
}

// Client posts transaction batches to the remote classification service.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	logger   *slog.Logger
}

// NewClient builds a client for cfg. httpClient carries authentication
// (see platform/auth) and defaults to http.DefaultClient.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimSpace(cfg.ServiceURL))
	if err != nil {
		return nil, fmt.Errorf("parse service url: %w", err)
	}
	q := u.Query()
	q.Set("impl", strings.TrimSpace(cfg.Impl))
	u.RawQuery = q.Encode()

	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint: u.String(),
		timeout:  cfg.Timeout,
		http:     httpClient,
		logger:   logger,
	}, nil
}

func (c *Client) Endpoint() string { return c.endpoint }

// Categorize sends one batch. A FAILURE answer is returned together with
// an error wrapping ErrServiceFailure.
func (c *Client) Categorize(ctx context.Context, req Request) (*Response, error) {
	if req.Context == nil {
		req.Context = []json.RawMessage{}
	}
	if req.Transactions == nil {
		req.Transactions = []Transaction{}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	var out Response
	if err := c.do(httpReq, &out); err != nil {
		return nil, err
	}
	switch out.Code {
	case CodeSuccess:
		return &out, nil
	case CodeFailure:
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, e.String())
		}
		return &out, fmt.Errorf("%w: %s", ErrServiceFailure, strings.Join(msgs, "; "))
	default:
		return &out, fmt.Errorf("%w: %q", ErrUnexpectedCode, out.Code)
	}
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode classification response: %w", err)
	}
	c.logger.DebugContext(req.Context(), "classification response", "status", resp.StatusCode, "bytes", len(body))
	return nil
}
