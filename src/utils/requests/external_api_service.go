package requests

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// ExternalAPIService is a rate limited HTTP helper shared by the external clients
type ExternalAPIService struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	headers    map[string]string
}

// Option configures the ExternalAPIService
type Option func(*ExternalAPIService)

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) Option {
	return func(s *ExternalAPIService) {
		if timeout > 0 {
			s.httpClient.Timeout = timeout
		}
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) Option {
	return func(s *ExternalAPIService) {
		if requestsPerSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithHeader sets a header sent on every request
func WithHeader(key, value string) Option {
	return func(s *ExternalAPIService) {
		if value != "" {
			s.headers[key] = value
		}
	}
}

// NewExternalAPIService creates a new instance of ExternalAPIService
func NewExternalAPIService(opts ...Option) *ExternalAPIService {
	s := &ExternalAPIService{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		headers:    map[string]string{"Accept": "application/json"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// makeRequest waits for the limiter and executes the request, supporting optional query parameters
func (s *ExternalAPIService) makeRequest(ctx context.Context, method, endpoint string, params url.Values) (*http.Response, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, err
	}

	for key, value := range s.headers {
		req.Header.Set(key, value)
	}

	return s.httpClient.Do(req)
}

// Get makes a GET request to the external service, accepting optional query parameters
func (s *ExternalAPIService) Get(ctx context.Context, endpoint string, params url.Values) (*http.Response, error) {
	return s.makeRequest(ctx, http.MethodGet, endpoint, params)
}
