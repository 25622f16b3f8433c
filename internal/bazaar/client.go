// Package bazaar fetches Hypixel SkyBlock bazaar quick-status prices.
package bazaar

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	DefaultURL  = "https://api.hypixel.net/v2/skyblock/bazaar"
	httpTimeout = 10 * time.Second
	maxRetries  = 3
	backoffBase = 500 * time.Millisecond
	maxErrBody  = 500
)

var ErrUnsuccessful = errors.New("bazaar api reported success=false")

type QuickStatus struct {
	ProductID      string  `json:"productId"`
	SellPrice      float64 `json:"sellPrice"`
	SellVolume     int64   `json:"sellVolume"`
	SellMovingWeek int64   `json:"sellMovingWeek"`
	SellOrders     int64   `json:"sellOrders"`
	BuyPrice       float64 `json:"buyPrice"`
	BuyVolume      int64   `json:"buyVolume"`
	BuyMovingWeek  int64   `json:"buyMovingWeek"`
	BuyOrders      int64   `json:"buyOrders"`
}

// Side picks which quick-status price a trade settles at.
type Side string

const (
	// SideSellPrice is the top buy order: what an insta-sell receives and
	// what a patient buy order pays.
	SideSellPrice Side = "sell_price"
	// SideBuyPrice is the lowest sell offer: what an insta-buy pays.
	SideBuyPrice Side = "buy_price"
)

func (q QuickStatus) Price(side Side) float64 {
	if side == SideBuyPrice {
		return q.BuyPrice
	}
	return q.SellPrice
}

type Client struct {
	url     string
	http    *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
	retries int
	backoff time.Duration
}

type Option func(*Client)

func WithURL(url string) Option { return func(c *Client) { c.url = url } }

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.log = l } }

// WithRateLimit caps outgoing requests per second. rps <= 0 disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.retries = attempts
		}
		if backoff >= 0 {
			c.backoff = backoff
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		url: DefaultURL,
		http: &http.Client{
			Transport: &http.Transport{
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   5 * time.Second,
				ResponseHeaderTimeout: 5 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		retries: maxRetries,
		backoff: backoffBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// FetchQuickStatus downloads the bazaar snapshot and returns the quick
// status of the requested products keyed by product ID. Products missing
// from the snapshot are omitted. An empty ids list returns every product.
func (c *Client) FetchQuickStatus(ctx context.Context, ids []string) (map[string]QuickStatus, error) {
	start := time.Now()
	body, err := c.fetchWithRetry(ctx)
	if err != nil {
		return nil, err
	}
	out, err := parseQuickStatus(body, ids)
	if err != nil {
		return nil, err
	}
	c.log.Debug("bazaar snapshot fetched", "products", len(out), "bytes", len(body), "took", time.Since(start))
	return out, nil
}

func parseQuickStatus(body []byte, ids []string) (map[string]QuickStatus, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("parsing bazaar json: invalid document (%d bytes)", len(body))
	}
	if !gjson.GetBytes(body, "success").Bool() {
		return nil, ErrUnsuccessful
	}

	var wanted map[string]bool
	if len(ids) > 0 {
		wanted = make(map[string]bool, len(ids))
		for _, id := range ids {
			wanted[id] = true
		}
	}

	out := make(map[string]QuickStatus)
	var decodeErr error
	gjson.GetBytes(body, "products").ForEach(func(key, product gjson.Result) bool {
		id := key.String()
		if wanted != nil && !wanted[id] {
			return true
		}
		raw := product.Get("quick_status")
		if !raw.Exists() {
			out[id] = QuickStatus{ProductID: id}
			return true
		}
		var qs QuickStatus
		if err := json.Unmarshal([]byte(raw.Raw), &qs); err != nil {
			decodeErr = fmt.Errorf("decoding quick_status for %s: %w", id, err)
			return false
		}
		if qs.ProductID == "" {
			qs.ProductID = id
		}
		out[id] = qs
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return out, nil
}

func (c *Client) fetchWithRetry(ctx context.Context) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			wait := c.backoff * time.Duration(1<<uint(attempt-1))
			c.log.Warn("bazaar fetch failed, retrying", "attempt", attempt, "wait", wait, "err", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for bazaar rate limit: %w", err)
		}

		data, err := c.fetchOnce(ctx)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("all %d bazaar attempts failed: %w", c.retries, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, httpTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating bazaar request for %s: %w", c.url, err)
	}
	req.Header.Set("Accept-Encoding", "gzip, br")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing bazaar GET %s: %w", c.url, err)
	}
	return handleResponse(resp)
}

func handleResponse(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	reader, err := decodedBody(resp)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	if resp.StatusCode != http.StatusOK {
		sample, _ := io.ReadAll(io.LimitReader(reader, maxErrBody))
		return nil, fmt.Errorf("bazaar returned status %d: %s", resp.StatusCode, sample)
	}
	data, err := io.ReadAll(bufio.NewReaderSize(reader, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("reading bazaar body: %w", err)
	}
	return data, nil
}

func decodedBody(resp *http.Response) (io.ReadCloser, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("opening gzip body: %w", err)
		}
		return gz, nil
	case "br":
		return newBrotliReadCloser(resp.Body), nil
	default:
		return io.NopCloser(resp.Body), nil
	}
}

type brotliReadCloser struct {
	br *brotli.Reader
	rc io.ReadCloser
}

func (b *brotliReadCloser) Read(p []byte) (int, error) {
	return b.br.Read(p)
}

func (b *brotliReadCloser) Close() error {
	return b.rc.Close()
}

func newBrotliReadCloser(r io.ReadCloser) io.ReadCloser {
	return &brotliReadCloser{br: brotli.NewReader(r), rc: r}
}
