package mbta

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"stationboard.org/internal/logging"
)

const (
	DefaultBaseURL   = "https://api-v3.mbta.com"
	DefaultUserAgent = "stationboard/1.0"
	DefaultTimeout   = 10 * time.Second

	maxBodyBytes = 8 << 20
)

// Config configures a Client. Zero fields take the package defaults.
type Config struct {
	BaseURL    string
	APIKey     string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client issues read-only requests against the MBTA v3 API.
type Client struct {
	baseURL   string
	apiKey    string
	userAgent string
	timeout   time.Duration
	http      *http.Client
	logger    *slog.Logger
}

// NewClient creates a client from cfg.
func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		userAgent: cfg.UserAgent,
		timeout:   cfg.Timeout,
		http:      cfg.HTTPClient,
		logger:    cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Fetch performs GET {base}{path}?{params} and decodes the JSON:API document.
// Every failure to obtain a decodable document is a *FetchError.
func (c *Client) Fetch(ctx context.Context, path string, params url.Values) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Path: path, Err: errors.Wrap(err, "building request")}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/vnd.api+json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Path: path, Err: errors.Wrapf(err, "GET %s", path)}
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "mbta_fetch")

	c.logger.Debug("mbta_request",
		slog.String("path", path),
		slog.String("query", req.URL.RawQuery),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(started)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Path: path, StatusCode: resp.StatusCode, Err: errors.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Path: path, StatusCode: resp.StatusCode, Err: errors.Wrap(err, "reading body")}
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &FetchError{Path: path, StatusCode: resp.StatusCode, Err: errors.Wrap(err, "decoding body")}
	}
	return &doc, nil
}
