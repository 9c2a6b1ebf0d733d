// Package transport provides the HTTP client used for all communication with
// OGC API servers. It owns content negotiation, per-request timeouts and raw
// JSON decoding. It performs no retries; retry policy belongs to callers.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/geoapi-labs/ogcd/internal/errors"
)

const (
	headerAccept      = "Accept"
	headerContentType = "application/json"
	headerRequestID   = "X-Request-Id"
	userAgent         = "ogcd/0.1"

	// maxErrorBody bounds how much of an error response body is retained.
	maxErrorBody = 2048
)

// HTTPError is returned when the OGC server answers with a non-2xx status.
// It wraps errors.ErrHTTP so callers can match on the sentinel.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%v: status %d: %s", errors.ErrHTTP, e.Status, e.Body)
}

func (e *HTTPError) Unwrap() error {
	return errors.ErrHTTP
}

// Client issues requests against a single OGC API server base URL.
// It holds no session state beyond the base URL and default headers.
// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     hclog.Logger
}

// New creates a Client for the given base URL. A trailing slash on the base
// URL is tolerated and stripped.
func New(baseURL string, opt ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL (%s): %w", baseURL, err)
	}

	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, fmt.Errorf("invalid client options: %w", err)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     opts.Logger.Named("transport"),
	}, nil
}

// BaseURL returns the configured server base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET against a server-relative path.
// Query values may be strings, numbers, booleans, or anything else that
// json.Marshal can render (geometry literals are passed through as JSON).
func (c *Client) Get(ctx context.Context, path string, query map[string]any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, query, nil, nil)
}

// Post performs a POST with a JSON body against a server-relative path.
func (c *Client) Post(ctx context.Context, path string, body any, extraHeaders map[string]string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, nil, body, extraHeaders)
}

// Delete performs a DELETE against a server-relative path.
// An empty response body is permitted and returns a nil message.
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	query map[string]any,
	body any,
	extraHeaders map[string]string,
) (json.RawMessage, error) {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		vals := url.Values{}
		for k, v := range query {
			vals.Set(k, queryValue(v))
		}
		u += "?" + vals.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request for %s: %w", errors.ErrTransport, u, err)
	}

	requestID := uuid.NewString()
	req.Header.Set(headerAccept, headerContentType)
	req.Header.Set(headerRequestID, requestID)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", headerContentType)
	}
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	c.logger.Debug("OGC request", "method", method, "url", u, "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", errors.ErrTransport, method, u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response from %s: %w", errors.ErrTransport, u, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := strings.TrimSpace(string(data))
		if len(detail) > maxErrorBody {
			detail = detail[:maxErrorBody]
		}
		c.logger.Debug("OGC request failed", "method", method, "url", u, "status", resp.StatusCode, "request_id", requestID)
		return nil, &HTTPError{Status: resp.StatusCode, Body: detail}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: response from %s is not valid JSON", errors.ErrDecode, u)
	}

	return json.RawMessage(data), nil
}

// queryValue renders a query parameter value for the URL.
// Scalars are rendered plainly; structured values (e.g. coordinate lists)
// are rendered as compact JSON.
func queryValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(data)
	}
}
