package boxoffice

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound is returned when upstream cannot find the requested movie.
var ErrNotFound = errors.New("boxoffice: not found")

// Result carries the upstream figures used to refresh a movie's collection.
type Result struct {
	Title       string
	Collection  int64
	Currency    string
	Source      string
	LastUpdated time.Time
}

// Client defines the contract for querying the upstream box office API.
type Client interface {
	Fetch(ctx context.Context, title string) (*Result, error)
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient builds a client for the box office API rooted at baseURL.
// Every request carries apiKey in the X-API-Key header and is bounded by timeout.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	root, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse box office url: %w", err)
	}
	if root.Scheme == "" || root.Host == "" {
		return nil, fmt.Errorf("box office url %q must be absolute", baseURL)
	}
	return &HTTPClient{
		baseURL: root,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout, Transport: newTransport(timeout)},
		logger:  logger.Named("boxoffice"),
	}, nil
}

func newTransport(timeout time.Duration) *http.Transport {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConnsPerHost:   4,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
	}
}

func (c *HTTPClient) endpointFor(title string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/boxoffice"
	u.RawQuery = url.Values{"title": {title}}.Encode()
	return u.String()
}

// Fetch looks up the worldwide gross of the movie called title. It returns
// ErrNotFound when upstream has no figures for it.
func (c *HTTPClient) Fetch(ctx context.Context, title string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpointFor(title), nil)
	if err != nil {
		return nil, fmt.Errorf("build box office request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call box office: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("unexpected upstream status", zap.Int("status", resp.StatusCode), zap.String("title", title))
		return nil, fmt.Errorf("boxoffice: upstream returned %d", resp.StatusCode)
	}

	var body grossPayload
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode box office response: %w", err)
	}
	result := convertToResult(body)
	if result.Title == "" {
		result.Title = title
	}
	c.logger.Debug("box office fetched",
		zap.String("title", title),
		zap.Int64("collection", result.Collection),
		zap.Duration("elapsed", time.Since(started)))
	return result, nil
}

// grossPayload is the subset of the upstream document we read.
type grossPayload struct {
	Title   string `json:"title"`
	Revenue struct {
		Worldwide int64 `json:"worldwide"`
	} `json:"revenue"`
	Currency    string     `json:"currency"`
	Source      string     `json:"source"`
	LastUpdated *time.Time `json:"lastUpdated"`
}

func convertToResult(body grossPayload) *Result {
	res := &Result{
		Title:       body.Title,
		Collection:  max(body.Revenue.Worldwide, 0),
		Currency:    cmp.Or(body.Currency, "USD"),
		Source:      cmp.Or(body.Source, "BoxOfficeAPI"),
		LastUpdated: time.Now().UTC(),
	}
	if body.LastUpdated != nil {
		res.LastUpdated = body.LastUpdated.UTC()
	}
	return res
}
