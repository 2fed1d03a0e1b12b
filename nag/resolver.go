package nag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	cache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/pilacorp/go-certificate-sdk/common/config"
)

const (
	defaultResolveExpiration = 10 * time.Minute
	defaultResolveCleanup    = 20 * time.Minute
)

// ErrEmptyNetwork is returned when no network name is given.
var ErrEmptyNetwork = errors.New("network name is empty")

// Resolver maps a network name such as "testnet" to its gateway URL using
// the discovery endpoint. Answers are cached per network.
type Resolver struct {
	networkURL string
	httpClient *http.Client
	cache      *cache.Cache
	logger     *zap.Logger
}

type resolveResponse struct {
	Status  string `json:"status"`
	URL     string `json:"url"`
	Message string `json:"message"`
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverHTTPClient replaces the HTTP client.
func WithResolverHTTPClient(hc *http.Client) ResolverOption {
	return func(r *Resolver) {
		if hc != nil {
			r.httpClient = hc
		}
	}
}

// WithResolverLogger sets the logger.
func WithResolverLogger(l *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithCacheExpiration sets how long a resolved URL is reused.
func WithCacheExpiration(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.cache = cache.New(d, 2*d)
	}
}

// NewResolver creates a Resolver using the discovery endpoint of cfg.
func NewResolver(cfg *config.Config, opts ...ResolverOption) *Resolver {
	if cfg == nil {
		cfg = config.Default()
	}
	r := &Resolver{
		networkURL: cfg.NetworkURL,
		httpClient: &http.Client{
			Timeout:   cfg.HTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cache:  cache.New(defaultResolveExpiration, defaultResolveCleanup),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the gateway URL of network.
func (r *Resolver) Resolve(ctx context.Context, network string) (string, error) {
	if network == "" {
		return "", ErrEmptyNetwork
	}
	if cached, found := r.cache.Get(network); found {
		return cached.(string), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.networkURL+url.QueryEscape(network), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build network request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call network discovery endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("network discovery returned non-200 status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read network discovery response: %w", err)
	}

	var out resolveResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to unmarshal network discovery response: %w", err)
	}
	if out.Status == "error" {
		return "", fmt.Errorf("failed to resolve network %q: %s", network, out.Message)
	}
	if out.Status != "success" || out.URL == "" {
		return "", fmt.Errorf("invalid network discovery response for %q", network)
	}

	r.cache.SetDefault(network, out.URL)
	r.logger.Debug("resolved network", zap.String("network", network), zap.String("url", out.URL))
	return out.URL, nil
}

// Forget drops the cached URL of network.
func (r *Resolver) Forget(network string) {
	r.cache.Delete(network)
}
