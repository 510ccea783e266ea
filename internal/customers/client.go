// Package customers talks to the Fieldster customer directory.
package customers

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
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"pestbook/backend/internal/domain"
	"pestbook/backend/internal/observability/metrics"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxErrorBody       = 4 << 10
)

var ErrNotConfigured = errors.New("customers: directory base url not configured")

// UpstreamError is returned when the directory answers with a non-2xx status.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("customers: upstream status %d: %s", e.Status, e.Body)
}

type Config struct {
	UseMock bool
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type CreateInput struct {
	CustomerName string `json:"customer_name"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PrimaryPhone string `json:"primary_phone,omitempty"`
	PrimaryEmail string `json:"primary_email,omitempty"`
}

// Health reports which directory settings are present, never their values.
type Health struct {
	UseMock    bool `json:"useMock"`
	HasBaseURL bool `json:"hasBaseUrl"`
	HasAPIKey  bool `json:"hasApiKey"`
}

// Client reads and creates customers. In mock mode it serves an in-process list.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
	metrics    *metrics.BookingMetrics

	mu   sync.Mutex
	mock []domain.Customer
}

func NewClient(cfg Config, log *slog.Logger, m *metrics.BookingMetrics) *Client {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log:     log.With(slog.String("component", "customers")),
		metrics: m,
		mock:    mockCustomers(),
	}
}

// SetHTTPClient overrides the transport client (useful for testing).
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

func (c *Client) Health() Health {
	return Health{
		UseMock:    c.cfg.UseMock,
		HasBaseURL: c.cfg.BaseURL != "",
		HasAPIKey:  c.cfg.APIKey != "",
	}
}

func (c *Client) List(ctx context.Context, limit int) ([]domain.Customer, error) {
	if c.cfg.UseMock {
		c.mu.Lock()
		defer c.mu.Unlock()
		n := min(limit, len(c.mock))
		out := make([]domain.Customer, n)
		copy(out, c.mock[:n])
		c.metrics.ObserveCustomer("list", "mock")
		return out, nil
	}

	var out struct {
		Data []domain.Customer `json:"data"`
	}
	path := "/customers?limit=" + url.QueryEscape(strconv.Itoa(limit))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		c.metrics.ObserveCustomer("list", "error")
		return nil, err
	}
	c.metrics.ObserveCustomer("list", "ok")
	if out.Data == nil {
		out.Data = []domain.Customer{}
	}
	return out.Data, nil
}

func (c *Client) Create(ctx context.Context, in CreateInput) (domain.Customer, error) {
	if c.cfg.UseMock {
		c.mu.Lock()
		defer c.mu.Unlock()
		id := int64(len(c.mock) + 1)
		cust := domain.Customer{
			ID:             id,
			CustomerNumber: fmt.Sprintf("137-%08d", 10000+id),
			CustomerName:   in.CustomerName,
			City:           in.City,
			State:          in.State,
			PrimaryPhone:   in.PrimaryPhone,
			PrimaryEmail:   in.PrimaryEmail,
		}
		c.mock = append(c.mock, cust)
		c.metrics.ObserveCustomer("create", "mock")
		return cust, nil
	}

	body, err := json.Marshal(in)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("customers: marshal create request: %w", err)
	}
	var out domain.Customer
	if err := c.do(ctx, http.MethodPost, "/customers", body, &out); err != nil {
		c.metrics.ObserveCustomer("create", "error")
		return domain.Customer{}, err
	}
	c.metrics.ObserveCustomer("create", "ok")
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	if c.cfg.BaseURL == "" {
		return ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("customers: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("customers: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Warn("directory request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.Int64("duration_ms", time.Since(started).Milliseconds()),
		)
		return &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("customers: decode response: %w", err)
	}
	return nil
}

func mockCustomers() []domain.Customer {
	return []domain.Customer{
		{
			ID:             1,
			CustomerNumber: "137-00010001",
			CustomerName:   "Mickey Mouse",
			City:           "Birmingham",
			State:          "AL",
			PrimaryPhone:   "(573) 453-6553",
			PrimaryEmail:   "mickey@example.com",
		},
		{
			ID:             2,
			CustomerNumber: "137-00010002",
			CustomerName:   "Minnie Mouse",
			City:           "Birmingham",
			State:          "AL",
		},
	}
}
