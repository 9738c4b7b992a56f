package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTransportTimeout = 30 * time.Second
	defaultMaxBodyBytes     = 1 << 20
)

// BasicAuth holds HTTP basic credentials.
type BasicAuth struct {
	Username string
	Password string
}

// HTTPParameters describe the HTTP request built by a provider for a command.
type HTTPParameters struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   url.Values
	Body    []byte
	Auth    *BasicAuth
}

// HTTPResponse is the raw provider answer handed back to the provider's
// response parser.
type HTTPResponse struct {
	StatusCode int
	Reason     string
	Body       []byte
}

// Success reports whether the status code is 2xx.
func (r *HTTPResponse) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport performs a single HTTP exchange. Implementations return an error
// only when no response was received.
type Transport interface {
	Execute(ctx context.Context, params *HTTPParameters) (*HTTPResponse, error)
}

// HTTPClient abstracts the http.Client Do method for easier testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TransportOption customises an HTTPTransport.
type TransportOption func(*HTTPTransport)

// WithHTTPClient overrides the HTTP client used for outbound calls.
func WithHTTPClient(client HTTPClient) TransportOption {
	return func(t *HTTPTransport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithTimeout sets the timeout of the default client.
func WithTimeout(timeout time.Duration) TransportOption {
	return func(t *HTTPTransport) {
		if timeout > 0 {
			t.client = &http.Client{Timeout: timeout}
		}
	}
}

// WithBodyLimit adjusts how many bytes are read from a response body.
func WithBodyLimit(limit int64) TransportOption {
	return func(t *HTTPTransport) {
		if limit > 0 {
			t.maxBodyBytes = limit
		}
	}
}

// HTTPTransport is the net/http backed Transport.
type HTTPTransport struct {
	client       HTTPClient
	maxBodyBytes int64
}

// NewHTTPTransport constructs a transport with a 30s client timeout.
func NewHTTPTransport(opts ...TransportOption) *HTTPTransport {
	t := &HTTPTransport{
		client:       &http.Client{Timeout: defaultTransportTimeout},
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// Execute sends the request and reads at most maxBodyBytes of the body.
func (t *HTTPTransport) Execute(ctx context.Context, params *HTTPParameters) (*HTTPResponse, error) {
	if params == nil {
		return nil, fmt.Errorf("http transport: parameters are required")
	}
	target, err := url.Parse(params.URL)
	if err != nil {
		return nil, fmt.Errorf("http transport: parse url: %w", err)
	}
	if len(params.Query) > 0 {
		query := target.Query()
		for key, values := range params.Query {
			for _, v := range values {
				query.Add(key, v)
			}
		}
		target.RawQuery = query.Encode()
	}

	method := params.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if len(params.Body) > 0 {
		body = bytes.NewReader(params.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("http transport: new request: %w", err)
	}
	for key, value := range params.Headers {
		req.Header.Set(key, value)
	}
	if params.Auth != nil {
		req.SetBasicAuth(params.Auth.Username, params.Auth.Password)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("http transport: read body: %w", err)
	}

	return &HTTPResponse{
		StatusCode: resp.StatusCode,
		Reason:     reasonPhrase(resp),
		Body:       data,
	}, nil
}

func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}
