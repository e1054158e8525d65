package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alareot-bit/coex-voltrally/internal/domain"
)

const defaultTimeout = 5 * time.Second

// Client fetches locale-scoped JSON resources from the upstream data
// service. Every fetch first attempts the primary /api path; on any
// transport failure or non-2xx status it retries the mock path derived
// by a fixed URL rewrite (swap /api/ for /mock/, append .json when
// absent). When that also fails the call resolves to nil rather than an
// error, so callers treat absence as "use defaults".
type Client struct {
	baseURL     string
	mockBaseURL string
	http        *http.Client
	logger      *zap.Logger
}

// Options configures a Client. An empty MockBaseURL falls back to
// BaseURL so the rewrite policy applies on the same host; with both
// empty every fetch is a miss, which keeps fully offline development
// working through the store's fallback synthesis.
type Options struct {
	BaseURL     string
	MockBaseURL string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// NewClient constructs the upstream client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	mockBaseURL := strings.TrimRight(strings.TrimSpace(opts.MockBaseURL), "/")
	if mockBaseURL == "" {
		mockBaseURL = baseURL
	}
	return &Client{
		baseURL:     baseURL,
		mockBaseURL: mockBaseURL,
		http:        httpClient,
		logger:      logger,
	}
}

// GeoResult is the best-effort country detection payload.
type GeoResult struct {
	Country  string `json:"country"`
	Language string `json:"language"`
	Currency string `json:"currency"`
}

// SessionPayload mirrors the session endpoint.
type SessionPayload struct {
	User       any `json:"user"`
	OrderCount int `json:"orderCount"`
}

// HomePayload carries per-country home page metadata.
type HomePayload struct {
	Categories []domain.Category `json:"categories"`
}

// BatchPayload carries the per-country batch summary.
type BatchPayload struct {
	Current *domain.Batch           `json:"current"`
	Batches map[string]domain.Batch `json:"batches"`
}

// CatalogPayload carries the per-country product catalog.
type CatalogPayload struct {
	Products []domain.Product `json:"products"`
}

// GeoResolve performs best-effort country detection. Nil means both
// paths failed; callers keep their defaults.
func (c *Client) GeoResolve(ctx context.Context) *GeoResult {
	var out GeoResult
	if !c.getJSON(ctx, "/api/geo-resolve", &out) {
		return nil
	}
	if strings.TrimSpace(out.Country) == "" {
		return nil
	}
	return &out
}

// Session fetches the visitor session summary.
func (c *Client) Session(ctx context.Context) *SessionPayload {
	var out SessionPayload
	if !c.getJSON(ctx, "/api/session", &out) {
		return nil
	}
	return &out
}

// Home fetches home/category metadata for a country code.
func (c *Client) Home(ctx context.Context, country string) *HomePayload {
	var out HomePayload
	if !c.getJSON(ctx, "/api/home-"+countrySlug(country), &out) {
		return nil
	}
	return &out
}

// BatchSummary fetches the batch summary for a country code.
func (c *Client) BatchSummary(ctx context.Context, country string) *BatchPayload {
	var out BatchPayload
	if !c.getJSON(ctx, "/api/batch-summary-"+countrySlug(country), &out) {
		return nil
	}
	if out.Current != nil {
		out.Current.Normalize()
	}
	for id, b := range out.Batches {
		b.Normalize()
		out.Batches[id] = b
	}
	return &out
}

// Products fetches the product catalog for a country code. Every batch
// snapshot is normalized on ingest so the documented invariants hold
// regardless of upstream data quality.
func (c *Client) Products(ctx context.Context, country string) *CatalogPayload {
	var out CatalogPayload
	if !c.getJSON(ctx, "/api/products-"+countrySlug(country), &out) {
		return nil
	}
	for i := range out.Products {
		out.Products[i].Batch.Normalize()
	}
	return &out
}

// getJSON runs the primary-then-mock fetch policy. It reports whether
// any path produced a decodable payload.
func (c *Client) getJSON(ctx context.Context, path string, out any) bool {
	if c.baseURL != "" {
		err := c.fetch(ctx, c.baseURL+path, out)
		if err == nil {
			return true
		}
		c.logger.Debug("feed: primary fetch failed, trying mock",
			zap.String("path", path), zap.Error(err))
	}
	if c.mockBaseURL == "" {
		return false
	}
	mockPath := mockRewrite(path)
	if err := c.fetch(ctx, c.mockBaseURL+mockPath, out); err != nil {
		c.logger.Debug("feed: mock fetch failed",
			zap.String("path", mockPath), zap.Error(err))
		return false
	}
	return true
}

func (c *Client) fetch(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("feed: status %d for %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// mockRewrite derives the secondary path: strip the /api prefix in
// favour of /mock and ensure the .json suffix.
func mockRewrite(path string) string {
	out := strings.Replace(path, "/api/", "/mock/", 1)
	out = strings.TrimRight(out, "/")
	if !strings.Contains(out, ".json") {
		out += ".json"
	}
	return out
}

func countrySlug(country string) string {
	return strings.ToLower(strings.TrimSpace(country))
}
