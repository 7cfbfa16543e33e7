// Package polymarket is the market source for the Polymarket Gamma API,
// which provides market discovery and metadata.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/polyarb/internal/domain"
)

// DefaultGammaHost is the public Gamma API root.
const DefaultGammaHost = "https://gamma-api.polymarket.com"

// rateLimitKey is the limiter bucket shared by every Gamma request.
const rateLimitKey = "gamma"

// GammaClient is the REST client for the Polymarket Gamma API.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    domain.RateLimiter
	logger     *slog.Logger
}

// GammaOption customises a GammaClient.
type GammaOption func(*GammaClient)

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) GammaOption {
	return func(g *GammaClient) {
		if d > 0 {
			g.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) GammaOption {
	return func(g *GammaClient) {
		if c != nil {
			g.httpClient = c
		}
	}
}

// WithRateLimiter makes every request wait for the shared limiter first.
func WithRateLimiter(rl domain.RateLimiter) GammaOption {
	return func(g *GammaClient) { g.limiter = rl }
}

// WithLogger sets the logger used for request tracing and rejected records.
func WithLogger(l *slog.Logger) GammaOption {
	return func(g *GammaClient) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string, opts ...GammaOption) *GammaClient {
	if baseURL == "" {
		baseURL = DefaultGammaHost
	}
	g := &GammaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(slog.String("component", "gamma_client"))
	return g
}

// ListMarkets returns one page of markets matching q. Records that fail
// validation are logged and dropped; the rest of the page is returned.
func (g *GammaClient) ListMarkets(ctx context.Context, q domain.MarketQuery) ([]domain.Market, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("offset", strconv.Itoa(q.Offset))
	params.Set("active", strconv.FormatBool(q.Active))
	params.Set("closed", strconv.FormatBool(q.Closed))
	if q.Category != "" {
		params.Set("category", q.Category)
	}

	body, err := g.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: list markets: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode markets: %w", err)
	}

	markets := make([]domain.Market, 0, len(raw))
	for i, elem := range raw {
		var am APIMarket
		if err := json.Unmarshal(elem, &am); err != nil {
			g.logger.WarnContext(ctx, "rejected undecodable market",
				slog.Int("index", i),
				slog.String("market_id", recordID(elem)),
				slog.String("error", err.Error()),
			)
			continue
		}
		m, err := am.ToDomainMarket()
		if err != nil {
			g.logger.WarnContext(ctx, "rejected malformed market",
				slog.String("market_id", string(am.ID)),
				slog.String("error", err.Error()),
			)
			continue
		}
		markets = append(markets, m)
	}

	return markets, nil
}

// recordID pulls the id out of a record that failed to decode as a whole.
func recordID(elem json.RawMessage) string {
	var rec struct {
		ID flexString `json:"id"`
	}
	if err := json.Unmarshal(elem, &rec); err != nil {
		return ""
	}
	return string(rec.ID)
}

// GetMarket returns a single market by its ID.
func (g *GammaClient) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	path := fmt.Sprintf("/markets/%s", url.PathEscape(id))

	body, err := g.doGet(ctx, path)
	if err != nil {
		return domain.Market{}, fmt.Errorf("polymarket/gamma: get market %s: %w", id, err)
	}

	var apiMarket APIMarket
	if err := json.Unmarshal(body, &apiMarket); err != nil {
		return domain.Market{}, fmt.Errorf("polymarket/gamma: decode market: %w", err)
	}

	m, err := apiMarket.ToDomainMarket()
	if err != nil {
		return domain.Market{}, fmt.Errorf("polymarket/gamma: get market %s: %w", id, err)
	}
	return m, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx, rateLimitKey); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	g.logger.DebugContext(ctx, "gamma request", slog.String("path", path))

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkHTTPStatus maps non-2xx responses onto domain sentinel errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}

// Compile-time interface check.
var _ domain.MarketSource = (*GammaClient)(nil)
