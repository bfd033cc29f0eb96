package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/pkg/circuitbreaker"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const maxResponseBytes = 10 << 20 // 10MB

// TokenSource supplies the bearer token attached to every request.
// An empty token sends no Authorization header.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// validator is implemented by wire records that can check their own shape.
type validator interface {
	validate() error
}

type response struct {
	status int
	body   []byte
}

// Client talks to the ArtisanConnect REST backend.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[*response]
	log     *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithBreaker(cfg circuitbreaker.Config) Option {
	return func(c *Client) {
		cfg.IsSuccessful = func(err error) bool { return !countsAsFailure(err) }
		c.breaker = circuitbreaker.New[*response]("backend", cfg, c.log)
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		timeout: 10 * time.Second,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		WithBreaker(circuitbreaker.DefaultConfig())(c)
	}
	return c
}

// call sends in as JSON (when non-nil) and decodes the response into out (when non-nil).
func (c *Client) call(ctx context.Context, method, path string, in, out any, header http.Header) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s %s request: %w", method, path, err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, body, contentType, out, header)
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string, out any, header http.Header) error {
	caller := ctx
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if err := c.authorize(ctx, req); err != nil {
		return err
	}

	resp, err := c.breaker.Execute(func() (*response, error) {
		resp, err := c.roundTrip(req)
		if err != nil && KindOf(err) == KindNetwork && caller.Err() != nil {
			return nil, &APIError{Kind: KindNetwork, Method: method, Path: path, Err: caller.Err(), callerDone: true}
		}
		return resp, err
	})
	if err != nil {
		if circuitbreaker.IsOpen(err) {
			return &APIError{Kind: KindUnavailable, Method: method, Path: path, Err: err}
		}
		return err
	}

	if resp.status < 200 || resp.status > 299 {
		return &APIError{
			Kind:    kindForStatus(resp.status),
			Status:  resp.status,
			Method:  method,
			Path:    path,
			Message: errorMessage(resp.body, resp.status),
		}
	}

	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		if out != nil {
			return &APIError{Kind: KindShape, Status: resp.status, Method: method, Path: path, Message: "empty response body"}
		}
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return &APIError{Kind: KindShape, Status: resp.status, Method: method, Path: path, Err: err}
	}
	if v, ok := out.(validator); ok {
		if err := v.validate(); err != nil {
			return &APIError{Kind: KindShape, Status: resp.status, Method: method, Path: path, Err: err}
		}
	}
	return nil
}

// roundTrip returns an error only for failures that count against the breaker.
func (c *Client) roundTrip(req *http.Request) (*response, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, Method: req.Method, Path: req.URL.Path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, Status: resp.StatusCode, Method: req.Method, Path: req.URL.Path, Err: err}
	}

	c.log.Debug("backend call",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode >= 500 {
		return nil, &APIError{
			Kind:    kindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Method:  req.Method,
			Path:    req.URL.Path,
			Message: errorMessage(data, resp.StatusCode),
		}
	}
	return &response{status: resp.StatusCode, body: data}, nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	if c.tokens == nil {
		return nil
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("read auth token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

func errorMessage(body []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 {
		return text
	}
	return http.StatusText(status)
}

func requireID(name, id string) error {
	if strings.TrimSpace(id) == "" {
		return &APIError{Kind: KindValidation, Message: name + " is required"}
	}
	return nil
}
