// Package amsclient talks to the AMS (Frappe) API: paginated reference
// fetches with disk and memory caching, and rate-limited concurrent policy
// uploads with bounded retry.
package amsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Options configures a Client.
type Options struct {
	BaseURL          string
	Token            string
	PageSize         int
	MaxRetries       int
	RetryDelay       time.Duration
	CacheDir         string
	UseDiskCache     bool
	CacheTTL         time.Duration
	UploadWorkers    int
	UploadsPerSecond float64
}

// Client is an AMS API client. It is safe for concurrent use.
type Client struct {
	baseURL      string
	token        string
	httpClient   *http.Client
	pageSize     int
	maxRetries   int
	retryDelay   time.Duration
	cacheDir     string
	useDiskCache bool
	memCache     *gocache.Cache
	limiter      *rate.Limiter
	workers      int
}

// New creates a client with sane fallbacks for zero-valued options.
func New(opts Options) *Client {
	if opts.PageSize <= 0 {
		opts.PageSize = 1000
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Minute
	}
	if opts.UploadWorkers <= 0 {
		opts.UploadWorkers = 8
	}
	if opts.UploadsPerSecond <= 0 {
		opts.UploadsPerSecond = 10
	}

	token := strings.TrimSpace(opts.Token)
	if token != "" && !strings.HasPrefix(token, "Token ") {
		token = "Token " + token
	}

	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		token:        token,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		pageSize:     opts.PageSize,
		maxRetries:   opts.MaxRetries,
		retryDelay:   opts.RetryDelay,
		cacheDir:     opts.CacheDir,
		useDiskCache: opts.UseDiskCache,
		memCache:     gocache.New(opts.CacheTTL, opts.CacheTTL),
		limiter:      rate.NewLimiter(rate.Limit(opts.UploadsPerSecond), opts.UploadWorkers),
		workers:      opts.UploadWorkers,
	}
}

type listRequest struct {
	Doctype         string   `json:"doctype"`
	Fields          []string `json:"fields"`
	LimitStart      int      `json:"limit_start"`
	LimitPageLength int      `json:"limit_page_length"`
}

type listResponse struct {
	Message json.RawMessage `json:"message"`
}

// fetchPages walks the paginated get_list endpoint, handing each raw page to
// decode. decode returns the number of items in the page; a short page ends
// the walk.
func (c *Client) fetchPages(ctx context.Context, doctype string, fields []string, decode func(json.RawMessage) (int, error)) error {
	start := 0
	for {
		payload := listRequest{
			Doctype:         doctype,
			Fields:          fields,
			LimitStart:      start,
			LimitPageLength: c.pageSize,
		}

		var resp listResponse
		if err := c.postWithRetry(ctx, "/frappe.client.get_list", payload, &resp); err != nil {
			return fmt.Errorf("failed to fetch %s list: %w", doctype, err)
		}

		count, err := decode(resp.Message)
		if err != nil {
			return fmt.Errorf("failed to decode %s page: %w", doctype, err)
		}

		if count < c.pageSize {
			return nil
		}
		start += c.pageSize
	}
}

// postWithRetry posts JSON with bounded retries and exponential backoff.
func (c *Client) postWithRetry(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		lastErr = c.postOnce(ctx, path, body, out)
		if lastErr == nil {
			return nil
		}

		if attempt < c.maxRetries {
			log.WithError(lastErr).WithFields(logrus.Fields{
				"path":    path,
				"attempt": attempt,
			}).Warn("AMS request failed, retrying")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
	}
	return lastErr
}

func (c *Client) postOnce(ctx context.Context, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.WithError(err).Warn("Failed to close response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("error decoding response: %w", err)
		}
	}
	return nil
}

// CarrierInfo is one carrier row from the AMS.
type CarrierInfo struct {
	Name        string          `csv:"name" json:"name"`
	CarrierName string          `csv:"carrier_name" json:"carrier_name"`
	Commission  decimal.Decimal `csv:"commission" json:"commission"`
}

// RateMap converts carrier rows to a lowercased carrier-name to commission
// percentage lookup.
func RateMap(carriers []CarrierInfo) map[string]decimal.Decimal {
	rates := make(map[string]decimal.Decimal, len(carriers))
	for _, carrier := range carriers {
		key := strings.ToLower(carrier.CarrierName)
		if key != "" {
			rates[key] = carrier.Commission
		}
	}
	return rates
}

// FetchCarriers returns all carrier rows, preferring the in-memory cache,
// then the disk cache, then the live API.
func (c *Client) FetchCarriers(ctx context.Context) ([]CarrierInfo, error) {
	const memKey = "carriers"
	if cached, found := c.memCache.Get(memKey); found {
		return cached.([]CarrierInfo), nil
	}

	var carriers []CarrierInfo
	if c.loadDiskCache(carriersCacheFile, &carriers) {
		log.WithField("count", len(carriers)).Info("Loaded carriers from cache")
		c.memCache.SetDefault(memKey, carriers)
		return carriers, nil
	}

	err := c.fetchPages(ctx, "Carrier", []string{"name", "carrier_name", "commission"}, func(data json.RawMessage) (int, error) {
		var page []CarrierInfo
		if err := json.Unmarshal(data, &page); err != nil {
			return 0, err
		}
		carriers = append(carriers, page...)
		return len(page), nil
	})
	if err != nil {
		return nil, err
	}

	log.WithField("count", len(carriers)).Info("Fetched carriers from AMS")
	c.saveDiskCache(carriersCacheFile, carriers)
	c.memCache.SetDefault(memKey, carriers)
	return carriers, nil
}

type policyKeyRow struct {
	PolicyNumber string `csv:"policy_number" json:"policy_number"`
}

// FetchExistingPolicyKeys returns the set of lowercased policy numbers
// already present in the AMS.
func (c *Client) FetchExistingPolicyKeys(ctx context.Context) (map[string]bool, error) {
	const memKey = "policies"
	if cached, found := c.memCache.Get(memKey); found {
		return cached.(map[string]bool), nil
	}

	var rows []policyKeyRow
	if !c.loadDiskCache(policiesCacheFile, &rows) {
		err := c.fetchPages(ctx, "Policy", []string{"policy_number"}, func(data json.RawMessage) (int, error) {
			var page []policyKeyRow
			if err := json.Unmarshal(data, &page); err != nil {
				return 0, err
			}
			rows = append(rows, page...)
			return len(page), nil
		})
		if err != nil {
			return nil, err
		}
		log.WithField("count", len(rows)).Info("Fetched existing policies from AMS")
		c.saveDiskCache(policiesCacheFile, rows)
	} else {
		log.WithField("count", len(rows)).Info("Loaded existing policies from cache")
	}

	keys := make(map[string]bool, len(rows))
	for _, row := range rows {
		if key := strings.ToLower(strings.TrimSpace(row.PolicyNumber)); key != "" {
			keys[key] = true
		}
	}
	c.memCache.SetDefault(memKey, keys)
	return keys, nil
}
