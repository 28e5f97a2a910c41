package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aquadic/souq4u/domain"
	"github.com/aquadic/souq4u/internal/locale"
	"github.com/aquadic/souq4u/internal/logutil"
)

// DefaultTimeout bounds every request when no timeout is configured
const DefaultTimeout = 10 * time.Second

// Client is a JSON client for the commerce API. It attaches the bearer
// token and the locale to every request and normalizes failures into the
// domain error taxonomy.
type Client struct {
	baseURL string
	http    *http.Client
	locale  locale.Locale
	logger  *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLocale sets the Accept-Language locale
func WithLocale(l locale.Locale) Option {
	return func(c *Client) { c.locale = l }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client rooted at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		locale:  locale.Default,
		logger:  logutil.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Locale returns the locale sent with every request
func (c *Client) Locale() locale.Locale {
	return c.locale
}

// Request describes one API call
type Request struct {
	Method string
	Path   string
	Token  string
	Body   any
}

// Response is a successful (2xx) API response
type Response struct {
	Status int
	Body   []byte
}

// Decode unmarshals the body into v; an empty body decodes as an empty object
func (r *Response) Decode(v any) error {
	body := bytes.TrimSpace(r.Body)
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorBody is the error envelope returned by the commerce API
type errorBody struct {
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

// Do performs req. Non-2xx responses are returned as errors:
// domain.ErrUnauthorized for 401, *domain.ValidationError for 422 with
// field errors, *domain.ServerError otherwise. A request that received no
// response fails with *domain.NetworkError.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	op := req.Method + " " + req.Path
	defer logutil.NewTimingLogger(c.logger, time.Now(), "storefront request", "op", op)()

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Accept-Language", c.locale.AcceptLanguage())
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &Response{Status: resp.StatusCode, Body: data}, nil
	}
	return nil, classify(op, resp.StatusCode, data, c.logger)
}

func classify(op string, status int, data []byte, logger *slog.Logger) error {
	var eb errorBody
	// Bodies that are not JSON still classify by status
	_ = json.Unmarshal(data, &eb)
	msg := eb.Message
	if msg == "" {
		msg = eb.Error
	}

	switch {
	case status == http.StatusUnauthorized:
		logger.Debug("storefront rejected credential", "op", op)
		return fmt.Errorf("%s: %w", op, domain.ErrUnauthorized)
	case status == http.StatusUnprocessableEntity && len(eb.Errors) > 0:
		return &domain.ValidationError{Message: msg, Fields: eb.Errors}
	default:
		logger.Warn("storefront request failed", "op", op, "status", status, "message", msg)
		return &domain.ServerError{Status: status, Message: msg, Errors: eb.Errors}
	}
}
