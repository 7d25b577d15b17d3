package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/dataloom/internal/analysis"
)

// DefaultTimeout bounds a single request when none is configured.
const DefaultTimeout = 30 * time.Second

const maxBodyBytes = 32 << 20

// Client performs single authenticated GET requests against a JSON API.
// It never retries.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// Result is a decoded response. Table is nil when the payload is not a
// JSON array of uniformly keyed objects; TableError then says why.
type Result struct {
	URL        string          `json:"url"`
	Status     int             `json:"status"`
	Raw        json.RawMessage `json:"raw"`
	Table      *analysis.Table `json:"-"`
	TableError string          `json:"table_error,omitempty"`
}

// New returns a client for baseURL. An empty apiKey sends no Authorization header.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Configured reports whether a base URL is set.
func (c *Client) Configured() bool { return c.baseURL != "" }

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// URL joins endpoint onto the base URL and encodes params as the query.
// Absolute endpoints are accepted only on the base URL's scheme and host.
func (c *Client) URL(endpoint string, params map[string]string) (string, error) {
	if c.baseURL == "" {
		return "", ErrNotConfigured
	}
	absolute := strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://")
	raw := endpoint
	if !absolute {
		raw = c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	if absolute && !c.sameOrigin(u) {
		return "", fmt.Errorf("%w: %s://%s", ErrForeignHost, u.Scheme, u.Host)
	}
	if len(params) > 0 {
		q := u.Query()
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			q.Set(k, params[k])
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Fetch issues one GET and decodes the JSON body. Failures are reported as
// *NetworkError, *HTTPError or *DecodeError.
func (c *Client) Fetch(ctx context.Context, endpoint string, params map[string]string) (*Result, error) {
	target, err := c.URL(endpoint, params)
	if err != nil {
		return nil, err
	}
	body, status, err := c.get(ctx, target)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		var v any
		derr := json.Unmarshal(body, &v)
		if derr == nil {
			derr = errors.New("invalid JSON")
		}
		return nil, &DecodeError{URL: target, Err: derr}
	}
	res := &Result{URL: target, Status: status, Raw: json.RawMessage(bytes.TrimSpace(body))}
	tbl, terr := Tabulate(body, tableName(endpoint))
	if terr != nil {
		res.TableError = terr.Error()
	} else {
		res.Table = tbl
	}
	return res, nil
}

// Health reports whether GET health answers {"status": "healthy"}.
func (c *Client) Health(ctx context.Context) bool {
	target, err := c.URL("health", nil)
	if err != nil {
		return false
	}
	body, _, err := c.get(ctx, target)
	if err != nil {
		return false
	}
	var out struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return false
	}
	return out.Status == "healthy"
}

func (c *Client) get(ctx context.Context, target string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	if c.apiKey != "" && c.sameOrigin(req.URL) {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &NetworkError{URL: target, Timeout: isTimeout(ctx, err), Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, resp.StatusCode, &HTTPError{
			URL:     target,
			Status:  resp.StatusCode,
			Message: errorMessage(body),
			Body:    string(body),
		}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, &NetworkError{URL: target, Timeout: isTimeout(ctx, err), Err: err}
	}
	return body, resp.StatusCode, nil
}

// sameOrigin reports whether u has the base URL's scheme and host.
func (c *Client) sameOrigin(u *url.URL) bool {
	base, err := url.Parse(c.baseURL)
	if err != nil || base.Host == "" {
		return false
	}
	return strings.EqualFold(u.Scheme, base.Scheme) && strings.EqualFold(u.Host, base.Host) && u.User == nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

// errorMessage pulls a message out of common error payload shapes.
func errorMessage(body []byte) string {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return ""
	}
	if v, ok := raw["error"].(map[string]any); ok {
		if msg, ok := v["message"].(string); ok {
			return msg
		}
	}
	for _, k := range []string{"message", "error", "detail"} {
		if msg, ok := raw[k].(string); ok {
			return msg
		}
	}
	return ""
}

func tableName(endpoint string) string {
	name := strings.Trim(endpoint, "/")
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		name = strings.Trim(u.Path, "/")
	}
	if name == "" {
		return "api"
	}
	return "api:" + name
}
