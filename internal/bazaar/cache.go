package bazaar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/patrickmn/go-cache"
)

const (
	DefaultCacheTTL = 10 * time.Minute
	snapshotKey     = "bazaar:quick_status"
)

var ErrCacheMiss = errors.New("shared cache miss")

// PriceSource yields quick-status prices keyed by product ID.
type PriceSource interface {
	Prices(ctx context.Context) (map[string]QuickStatus, error)
}

type Fetcher interface {
	FetchQuickStatus(ctx context.Context, ids []string) (map[string]QuickStatus, error)
}

// SharedCache lets several processes reuse one bazaar snapshot.
type SharedCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr string) *RedisCache {
	return &RedisCache{client: redis.NewClient(&redis.Options{Addr: addr})}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

// CachedSource serves prices for a fixed product list from an in-process
// TTL cache, then an optional shared cache, then the upstream fetcher.
// Failed fetches are not cached.
type CachedSource struct {
	fetcher Fetcher
	ids     []string
	ttl     time.Duration
	local   *cache.Cache
	shared  SharedCache
	log     *slog.Logger

	mu sync.Mutex
}

type CacheOption func(*CachedSource)

func WithTTL(ttl time.Duration) CacheOption {
	return func(s *CachedSource) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithSharedCache(sc SharedCache) CacheOption {
	return func(s *CachedSource) { s.shared = sc }
}

func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(s *CachedSource) { s.log = l }
}

func NewCachedSource(f Fetcher, ids []string, opts ...CacheOption) *CachedSource {
	s := &CachedSource{
		fetcher: f,
		ids:     append([]string(nil), ids...),
		ttl:     DefaultCacheTTL,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.local = cache.New(s.ttl, 2*s.ttl)
	return s
}

// Prices returns the cached snapshot or refreshes it. When upstream fails
// and nothing is cached it returns an empty map together with the error,
// so callers can still render zero-priced results.
func (s *CachedSource) Prices(ctx context.Context) (map[string]QuickStatus, error) {
	if v, ok := s.local.Get(snapshotKey); ok {
		return v.(map[string]QuickStatus), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.local.Get(snapshotKey); ok {
		return v.(map[string]QuickStatus), nil
	}

	if prices, ok := s.fromShared(ctx); ok {
		s.local.Set(snapshotKey, prices, cache.DefaultExpiration)
		return prices, nil
	}

	prices, err := s.fetcher.FetchQuickStatus(ctx, s.ids)
	if err != nil {
		s.log.Error("bazaar refresh failed", "err", err)
		return map[string]QuickStatus{}, fmt.Errorf("refreshing bazaar prices: %w", err)
	}
	s.local.Set(snapshotKey, prices, cache.DefaultExpiration)
	s.toShared(ctx, prices)
	return prices, nil
}

// Invalidate drops the in-process snapshot.
func (s *CachedSource) Invalidate() {
	s.local.Delete(snapshotKey)
}

func (s *CachedSource) fromShared(ctx context.Context) (map[string]QuickStatus, bool) {
	if s.shared == nil {
		return nil, false
	}
	data, err := s.shared.Get(ctx, snapshotKey)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn("shared bazaar cache read failed", "err", err)
		}
		return nil, false
	}
	var prices map[string]QuickStatus
	if err := json.Unmarshal(data, &prices); err != nil {
		s.log.Warn("shared bazaar cache holds malformed snapshot", "err", err)
		return nil, false
	}
	s.log.Debug("bazaar snapshot loaded from shared cache", "products", len(prices))
	return prices, true
}

func (s *CachedSource) toShared(ctx context.Context, prices map[string]QuickStatus) {
	if s.shared == nil {
		return
	}
	data, err := json.Marshal(prices)
	if err != nil {
		s.log.Warn("encoding bazaar snapshot", "err", err)
		return
	}
	if err := s.shared.Set(ctx, snapshotKey, data, s.ttl); err != nil {
		s.log.Warn("shared bazaar cache write failed", "err", err)
	}
}

// StaticSource serves a fixed price map; used when no network is wanted.
type StaticSource map[string]QuickStatus

func (s StaticSource) Prices(context.Context) (map[string]QuickStatus, error) {
	return s, nil
}
