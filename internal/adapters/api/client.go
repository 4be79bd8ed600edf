package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/waselni/waselni-cli/internal/domain"
	"github.com/waselni/waselni-cli/internal/ports"
	"golang.org/x/time/rate"
)

const (
	maxResponseBytes      = 4 << 20
	defaultRequestTimeout = 30 * time.Second
	RequestIDHeader       = "X-Request-ID"
)

var ErrBaseURLChanged = errors.New("api base url is already configured")

// Client sends JSON requests to the marketplace API. The base address is set
// once with Configure and cannot be changed afterwards.
type Client struct {
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	Limiter        *rate.Limiter
	UserAgent      string

	mu      sync.RWMutex
	baseURL *url.URL
}

var _ ports.Backend = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration, limiter *rate.Limiter) (*Client, error) {
	client := &Client{RequestTimeout: timeout, Limiter: limiter}
	if baseURL == "" {
		return client, nil
	}
	if err := client.Configure(baseURL); err != nil {
		return nil, err
	}
	return client, nil
}

// NewLimiter returns nil when perSecond is zero, which disables throttling.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (c *Client) Configure(baseURL string) error {
	parsed, err := parseBaseURL(baseURL)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.baseURL != nil {
		if c.baseURL.String() == parsed.String() {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrBaseURLChanged, c.baseURL)
	}

	c.baseURL = parsed
	return nil
}

func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.baseURL == nil {
		return ""
	}
	return c.baseURL.String()
}

func (c *Client) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return defaultRequestTimeout
	}
	return c.RequestTimeout
}

func (c *Client) Send(ctx context.Context, req ports.BackendRequest) (ports.BackendResponse, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	endpoint, err := c.endpoint(req.Path, req.Query)
	if err != nil {
		return ports.BackendResponse{}, err
	}

	var body io.Reader
	if req.Body != nil {
		encoded, err := encodeBody(req.Body)
		if err != nil {
			return ports.BackendResponse{}, fmt.Errorf("encode %s %s body: %w", method, req.Path, err)
		}
		body = bytes.NewReader(encoded)
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ports.BackendResponse{}, ctxErr
			}
			return ports.BackendResponse{}, fmt.Errorf("%w: %s %s: %w", domain.ErrUnreachable, method, req.Path, err)
		}
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, method, endpoint, body)
	if err != nil {
		return ports.BackendResponse{}, fmt.Errorf("create %s %s request: %w", method, req.Path, err)
	}

	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.BearerToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.BearerToken)
	}
	if httpReq.Header.Get(RequestIDHeader) == "" {
		httpReq.Header.Set(RequestIDHeader, uuid.NewString())
	}
	if c.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return ports.BackendResponse{}, fmt.Errorf("%w: %s %s: %w", domain.ErrUnreachable, method, req.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return ports.BackendResponse{}, fmt.Errorf("%w: read %s %s response: %w", domain.ErrUnreachable, method, req.Path, err)
	}

	response := ports.BackendResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: payload}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return response, domain.NewAPIError(method, req.Path, resp.StatusCode, decodeDetail(payload), payload)
	}

	return response, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, c.Timeout())
}

func (c *Client) endpoint(path string, query url.Values) (string, error) {
	c.mu.RLock()
	base := c.baseURL
	c.mu.RUnlock()

	if base == nil {
		return "", errors.New("api base url is not configured")
	}
	if path == "" {
		return "", errors.New("api path is required")
	}

	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return "", fmt.Errorf("api path %q must be relative", path)
	}

	endpoint := *base
	endpoint.Path = strings.TrimRight(base.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	endpoint.RawPath = ""

	values := ref.Query()
	for key, vals := range query {
		for _, val := range vals {
			values.Add(key, val)
		}
	}
	endpoint.RawQuery = values.Encode()

	return endpoint.String(), nil
}

func parseBaseURL(baseURL string) (*url.URL, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("api base url is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return nil, errors.New("api base url host is required")
	}

	parsed.Path = strings.TrimRight(parsed.Path, "/")
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed, nil
}

func encodeBody(body any) ([]byte, error) {
	switch typed := body.(type) {
	case json.RawMessage:
		return typed, nil
	case []byte:
		return typed, nil
	default:
		return json.Marshal(body)
	}
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationIssue struct {
	Msg string `json:"msg"`
	Loc []any  `json:"loc"`
}

// decodeDetail extracts the backend error message from {"detail": "..."} or a
// list of validation issues.
func decodeDetail(payload []byte) string {
	var parsed errorBody
	if err := json.Unmarshal(payload, &parsed); err != nil || len(parsed.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(parsed.Detail, &text); err == nil {
		return text
	}

	var issues []validationIssue
	if err := json.Unmarshal(parsed.Detail, &issues); err == nil {
		msgs := make([]string, 0, len(issues))
		for _, issue := range issues {
			if field := issueField(issue.Loc); field != "" {
				msgs = append(msgs, field+": "+issue.Msg)
				continue
			}
			msgs = append(msgs, issue.Msg)
		}
		return strings.Join(msgs, "; ")
	}

	return string(parsed.Detail)
}

func issueField(loc []any) string {
	parts := make([]string, 0, len(loc))
	for _, part := range loc {
		value := fmt.Sprint(part)
		if value == "body" || value == "query" || value == "path" {
			continue
		}
		parts = append(parts, value)
	}
	return strings.Join(parts, ".")
}
