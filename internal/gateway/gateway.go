// Package gateway implements one authenticated HTTP client per exchange.
// Every operation takes the account credentials explicitly, so the
// gateway holds no account state and is safe to share across concurrent
// aggregation calls. Failures never escape unclassified: each method
// returns an *APIError carrying the shared taxonomy.
package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/TimofiiShkabrov/AirCapital/internal/entity"
	"github.com/TimofiiShkabrov/AirCapital/pkg/retrier"
)

const (
	defaultHTTPTimeout = 15 * time.Second
	defaultRecvWindow  = "5000"
)

var defaultBaseURLs = map[entity.Exchange]string{
	entity.ExchangeBinance: "https://api.binance.com",
	entity.ExchangeBybit:   "https://api.bybit.com",
	entity.ExchangeBingx:   "https://open-api.bingx.com",
	entity.ExchangeOkx:     "https://www.okx.com",
	entity.ExchangeGateio:  "https://api.gateio.ws",
}

// Gateway executes signed requests against the five supported exchanges.
type Gateway struct {
	httpClient *http.Client
	logger     *zap.Logger
	clock      func() time.Time
	retrier    *retrier.Retrier
	recvWindow string
	baseURLs   map[entity.Exchange]string
}

// Option configures optional Gateway behavior.
type Option func(*Gateway)

// WithHTTPTimeout overrides the per-call transport timeout.
func WithHTTPTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.httpClient.Timeout = d
	}
}

// WithBaseURL overrides one exchange's API host, used by tests and mock
// servers.
func WithBaseURL(exchange entity.Exchange, base string) Option {
	return func(g *Gateway) {
		g.baseURLs[exchange] = base
	}
}

// WithClock overrides the timestamp source, used by tests.
func WithClock(clock func() time.Time) Option {
	return func(g *Gateway) {
		g.clock = clock
	}
}

// WithTransientRetries sets how many extra attempts transient failures
// (transport errors, 429) get before the classification is surfaced.
// Zero disables retries.
func WithTransientRetries(n int) Option {
	return func(g *Gateway) {
		g.retrier = retrier.New(
			retrier.WithMaxRetries(n),
			retrier.WithInitialInterval(500*time.Millisecond),
			retrier.WithRetryIf(transient),
		)
	}
}

// New creates a Gateway.
func New(logger *zap.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     logger,
		clock:      time.Now,
		recvWindow: defaultRecvWindow,
		baseURLs:   map[entity.Exchange]string{},
	}
	for k, v := range defaultBaseURLs {
		g.baseURLs[k] = v
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.retrier == nil {
		g.retrier = retrier.New(
			retrier.WithMaxRetries(1),
			retrier.WithInitialInterval(500*time.Millisecond),
			retrier.WithRetryIf(transient),
		)
	}
	return g
}

func (g *Gateway) baseURL(exchange entity.Exchange) string {
	return g.baseURLs[exchange]
}

// timestampMillis returns the current unix timestamp in milliseconds as a
// string, the format Binance, Bybit and BingX sign over.
func (g *Gateway) timestampMillis() string {
	return strconv.FormatInt(g.clock().UnixMilli(), 10)
}

// doGet executes a prepared GET request and decodes the 2xx JSON body
// into out, translating every failure mode into the shared taxonomy.
// Transient failures are retried within the configured budget.
func (g *Gateway) doGet(ctx context.Context, exchange entity.Exchange, rawURL string, headers map[string]string, out any) error {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return newAPIError(exchange, ClassIncorrectURL, 0, err)
	}

	return g.retrier.Do(ctx, func(ctx context.Context) error {
		return g.getOnce(ctx, exchange, rawURL, headers, out)
	})
}

func (g *Gateway) getOnce(ctx context.Context, exchange entity.Exchange, rawURL string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return newAPIError(exchange, ClassIncorrectURL, 0, err)
	}
	req.Header.Set("Accept", "application/json")
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return newAPIError(exchange, ClassNoData, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return newAPIError(exchange, ClassNoData, resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		class := classifyStatus(resp.StatusCode)
		g.logger.Debug("exchange call failed",
			zap.String("exchange", exchange.String()),
			zap.Int("status", resp.StatusCode),
			zap.String("classification", string(class)))
		return newAPIError(exchange, class, resp.StatusCode, nil)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return newAPIError(exchange, ClassDecodingError, resp.StatusCode, errors.Wrap(err, "decode response"))
	}

	return nil
}
