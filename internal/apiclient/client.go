// Package apiclient talks to the Spring Boot API under the fixed demo
// credentials. The caller decides what to show the user; errors returned here
// carry the technical detail and are meant for logs only.
package apiclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	DefaultBaseURL = "http://localhost:8080"

	// Demo credentials, sent in the clear. The resulting header value is part
	// of the backend contract, so these are constants and not configuration.
	Username = "admin"
	Password = "password"

	PathHealth = "/api/health"
	PathHello  = "/api/hello"
)

var (
	ErrRequest = errors.New("apiclient: request failed")
	ErrDecode  = errors.New("apiclient: malformed response body")
)

type Endpoint string

const (
	EndpointHealth Endpoint = "health"
	EndpointHello  Endpoint = "hello"
)

func (e Endpoint) Path() string {
	switch e {
	case EndpointHealth:
		return PathHealth
	case EndpointHello:
		return PathHello
	default:
		return ""
	}
}

func ParseEndpoint(s string) (Endpoint, bool) {
	switch Endpoint(strings.ToLower(s)) {
	case EndpointHealth:
		return EndpointHealth, true
	case EndpointHello:
		return EndpointHello, true
	default:
		return "", false
	}
}

// Credential is base64("admin:password").
func Credential() string {
	return base64.StdEncoding.EncodeToString([]byte(Username + ":" + Password))
}

func AuthorizationHeader() string {
	return "Basic " + Credential()
}

// Result is what came back from one GET. StatusCode is kept for diagnostics
// only: a 404 with a JSON body is still a Result.
type Result struct {
	StatusCode int
	Response   Response
}

type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		// no Timeout: a hung server keeps the request open
		cfg.HTTPClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: cfg.HTTPClient,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// Get issues the authenticated GET for endpoint and decodes the body.
func (c *Client) Get(ctx context.Context, endpoint Endpoint) (Result, error) {
	path := endpoint.Path()
	if path == "" {
		return Result{}, fmt.Errorf("%w: unknown endpoint %q", ErrRequest, endpoint)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	req.Header.Set("Authorization", AuthorizationHeader())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{StatusCode: resp.StatusCode}, fmt.Errorf("%w: read body: %w", ErrRequest, err)
	}

	// a JSON null decodes without error, so go through a pointer to catch it
	var out *Response
	if err := json.Unmarshal(body, &out); err != nil {
		return Result{StatusCode: resp.StatusCode}, fmt.Errorf("%w (status %d): %w", ErrDecode, resp.StatusCode, err)
	}
	if out == nil {
		return Result{StatusCode: resp.StatusCode}, fmt.Errorf("%w (status %d): body is null", ErrDecode, resp.StatusCode)
	}
	return Result{StatusCode: resp.StatusCode, Response: *out}, nil
}
