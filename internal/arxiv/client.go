package arxiv

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the arXiv query API endpoint.
	BaseURL = "https://export.arxiv.org/api/query"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RequestInterval is the spacing arXiv asks API clients to keep between calls.
	RequestInterval = 3 * time.Second

	// DefaultSearchLimit is the number of results returned by Search when limit <= 0.
	DefaultSearchLimit = 10

	// DefaultUserAgent identifies the client to arXiv.
	DefaultUserAgent = "bibref/dev (https://github.com/matsen/bibref)"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 8 << 20
)

// Client is a rate-limited HTTP client for the arXiv query API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	userAgent  string
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRateLimit overrides the request rate limit. Use rate.Inf to disable.
func WithRateLimit(limit rate.Limit) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, 1)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a new arXiv API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(RequestInterval), 1),
		baseURL:    BaseURL,
		userAgent:  DefaultUserAgent,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetPaper fetches a single paper by arXiv id. The id may carry a version suffix.
func (c *Client) GetPaper(ctx context.Context, id string) (*Entry, error) {
	params := url.Values{}
	params.Set("id_list", id)
	params.Set("max_results", "1")

	feed, err := c.query(ctx, params)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			apiErr.PaperID = id
		}
		return nil, err
	}

	if len(feed.Entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	entry := feed.Entries[0]
	// Unknown ids come back either as the error placeholder or as an empty entry.
	if entry.IsError() || entry.Title == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return &entry, nil
}

// Search runs a full-text query across all arXiv fields.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(limit))
	params.Set("sortBy", "relevance")

	feed, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		if e.IsError() {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// query performs a rate-limited GET against the query API and decodes the feed.
func (c *Client) query(ctx context.Context, params url.Values) (*Feed, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/atom+xml")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("arxiv request",
		zap.String("url", reqURL),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if err := checkHTTPErrors(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
	}

	var feed Feed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("%w: parsing feed: %v", ErrInvalidResponse, err)
	}
	return &feed, nil
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", ErrNotFound, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(msg)),
		}
	}
	return nil
}
