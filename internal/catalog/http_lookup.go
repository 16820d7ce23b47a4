package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kaniobed28/campus-sell/basket-service/internal/domain"
)

// HTTPLookup queries the marketplace products API. Lookups run through a
// circuit breaker so a down catalog degrades baskets to "unavailable"
// items instead of hammering the endpoint on every sync.
type HTTPLookup struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[map[string]domain.ProductSnapshot]
}

func NewHTTPLookup(baseURL string, timeout time.Duration) *HTTPLookup {
	settings := gobreaker.Settings{
		Name:     "product-lookup",
		Interval: time.Minute,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &HTTPLookup{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[map[string]domain.ProductSnapshot](settings),
	}
}

func (l *HTTPLookup) GetMany(ctx context.Context, productIDs []string) (map[string]domain.ProductSnapshot, error) {
	if len(productIDs) == 0 {
		return map[string]domain.ProductSnapshot{}, nil
	}

	return l.breaker.Execute(func() (map[string]domain.ProductSnapshot, error) {
		return l.fetch(ctx, productIDs)
	})
}

func (l *HTTPLookup) fetch(ctx context.Context, productIDs []string) (map[string]domain.ProductSnapshot, error) {
	endpoint := fmt.Sprintf("%s/api/v1/products?ids=%s",
		l.baseURL, url.QueryEscape(strings.Join(productIDs, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build products request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("products request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("products request returned status %d", resp.StatusCode)
	}

	var payload struct {
		Products []domain.ProductSnapshot `json:"products"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode products response: %w", err)
	}

	out := make(map[string]domain.ProductSnapshot, len(payload.Products))
	for _, p := range payload.Products {
		out[p.ID] = p
	}
	return out, nil
}
