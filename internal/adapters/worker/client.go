package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"autostream-dashboard/internal/domain"
	"autostream-dashboard/internal/infra/metrics"
)

// ErrUnavailable возвращается, если воркер ответил не 2xx.
var ErrUnavailable = errors.New("worker unavailable")

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

var _ domain.Worker = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

type apiError struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "http"
	}
	client := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Health проверяет GET /health.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "health", "/health", nil, nil)
}

// AnalyticsSummary запрашивает GET /analytics/summary за окно tf.
func (c *Client) AnalyticsSummary(ctx context.Context, tf domain.TimeFrame) (domain.AnalyticsSummary, error) {
	query := url.Values{"time_frame": []string{string(tf)}}
	var summary domain.AnalyticsSummary
	if err := c.get(ctx, "analytics_summary", "/analytics/summary", query, &summary); err != nil {
		return domain.AnalyticsSummary{}, err
	}
	return summary, nil
}

// AuthURL возвращает адрес OAuth-входа площадки. Запрос не выполняется.
func (c *Client) AuthURL(platform domain.Platform) string {
	return c.resolve("/auth/"+url.PathEscape(string(platform))+"/login", nil)
}

func (c *Client) get(ctx context.Context, operation, endpoint string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(endpoint, query), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	start := time.Now()
	err = c.do(req, out)
	metrics.ObserveNetworkRequest("worker", operation, c.baseURL.Host, start, err)
	return err
}

func (c *Client) resolve(endpoint string, query url.Values) string {
	resolved := *c.baseURL
	basePath := strings.TrimSuffix(c.baseURL.Path, "/")
	resolved.Path = path.Clean(basePath + endpoint)
	resolved.RawPath = ""
	if query != nil {
		resolved.RawQuery = query.Encode()
	}
	return resolved.String()
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("worker request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr apiError
		data, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if readErr == nil && len(data) > 0 {
			_ = json.Unmarshal(data, &apiErr)
		}
		msg := apiErr.Error
		if msg == "" {
			msg = apiErr.Detail
		}
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		return fmt.Errorf("%w: status=%d message=%s", ErrUnavailable, resp.StatusCode, msg)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
