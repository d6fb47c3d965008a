package service

import (
	"context"
	"fmt"
	"time"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"
	"portfolio_tracker/internal/infrastructure/httpclient"
	"portfolio_tracker/internal/pkg/metrics"
	"portfolio_tracker/internal/pkg/retry"
	"portfolio_tracker/internal/pkg/utils"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// cachedQuotes is one cache entry: the quotes for an identifier set and
// the time the upstream fetch completed. Entries are stored without
// go-cache expiry so an expired value stays servable until a refresh
// replaces it.
type cachedQuotes struct {
	quotes    entity.PriceMap
	fetchedAt time.Time
}

// PriceServiceOptions configures NewPriceService.
type PriceServiceOptions struct {
	TTL          time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	RateLimit    rate.Limit
	FetchTimeout time.Duration
}

// priceServiceImpl implements port.PriceService: a TTL cache keyed by
// the sorted, deduplicated identifier set, with request coalescing,
// background refresh on expiry and stale fallback on upstream failure.
type priceServiceImpl struct {
	apiClient    httpclient.PriceAPIClient
	logger       *zap.Logger
	store        *cache.Cache
	group        singleflight.Group
	limiter      *rate.Limiter
	ttl          time.Duration
	retryCfg     retry.Config
	fetchTimeout time.Duration
}

// NewPriceService creates a new price cache service.
func NewPriceService(apiClient httpclient.PriceAPIClient, opts PriceServiceOptions, logger *zap.Logger) port.PriceService {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	fetchTimeout := opts.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = 15 * time.Second
	}
	limit := opts.RateLimit
	if limit <= 0 {
		limit = rate.Limit(0.5)
	}
	return &priceServiceImpl{
		apiClient: apiClient,
		logger:    logger.Named("PriceService"),
		store:     cache.New(cache.NoExpiration, 0),
		limiter:   rate.NewLimiter(limit, 1),
		ttl:       ttl,
		retryCfg: retry.Config{
			MaxRetries:   opts.MaxRetries,
			InitialDelay: opts.RetryDelay,
			Multiplier:   2.0,
		},
		fetchTimeout: fetchTimeout,
	}
}

// GetPrices implements port.PriceService.
func (s *priceServiceImpl) GetPrices(ctx context.Context, priceIDs []string) (entity.PriceMap, error) {
	idSet := utils.SortedUnique(priceIDs)
	if len(idSet) == 0 {
		return entity.PriceMap{}, nil
	}
	key := utils.CacheKey(idSet)

	if v, found := s.store.Get(key); found {
		entry := v.(*cachedQuotes)
		age := time.Since(entry.fetchedAt)
		if age < s.ttl {
			metrics.PriceCacheHits.WithLabelValues("fresh").Inc()
			return entry.quotes, nil
		}

		// Expired: serve the stale value immediately and refresh in the
		// background. The singleflight group guarantees at most one
		// in-flight refresh per cache key.
		metrics.PriceCacheHits.WithLabelValues("stale").Inc()
		s.logger.Debug("Serving stale quotes while revalidating",
			zap.String("key", key), zap.Duration("age", age))
		go s.refresh(key, idSet)
		return entry.quotes, nil
	}

	// Cold start for this identifier set: fetch synchronously. Concurrent
	// callers for the same key collapse into one upstream call.
	quotes, err := s.fetch(ctx, key, idSet)
	if err != nil {
		// A coalesced peer may have populated the cache between our miss
		// and the failed fetch.
		if v, found := s.store.Get(key); found {
			return v.(*cachedQuotes).quotes, nil
		}
		s.logger.Error("Price fetch failed with no cached fallback", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", entity.ErrNoQuoteData, err)
	}
	return quotes, nil
}

// refresh revalidates one cache key outside any caller's request
// lifecycle. Failures are logged and swallowed: the previous value
// remains servable.
func (s *priceServiceImpl) refresh(key string, idSet []string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.fetchTimeout)
	defer cancel()

	if _, err := s.fetch(ctx, key, idSet); err != nil {
		s.logger.Warn("Background price refresh failed, keeping stale quotes",
			zap.String("key", key), zap.Error(err))
	}
}

// fetch performs the coalesced, rate-limited, retried upstream call and
// stores the result.
func (s *priceServiceImpl) fetch(ctx context.Context, key string, idSet []string) (entity.PriceMap, error) {
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		var raw map[string]httpclient.SimplePrice

		fetchErr := retry.Do(ctx, s.retryCfg, entity.IsRetryable, func(ctx context.Context) error {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
			var err error
			raw, err = s.apiClient.GetSimplePrices(ctx, idSet)
			if err != nil {
				if entity.IsRetryable(err) {
					metrics.PriceUpstreamCalls.WithLabelValues("retryable_error").Inc()
				} else {
					metrics.PriceUpstreamCalls.WithLabelValues("rejected").Inc()
				}
			}
			return err
		})
		if fetchErr != nil {
			return nil, fetchErr
		}
		metrics.PriceUpstreamCalls.WithLabelValues("success").Inc()

		now := time.Now()
		quotes := make(entity.PriceMap, len(raw))
		for id, price := range raw {
			var change float64
			if price.USD24hChange != nil {
				change = *price.USD24hChange
			}
			quotes[id] = entity.PriceQuote{
				PriceID:      id,
				PriceUSD:     price.USD,
				Change24hPct: change,
				FetchedAt:    now,
			}
		}

		s.store.Set(key, &cachedQuotes{quotes: quotes, fetchedAt: now}, cache.NoExpiration)
		return quotes, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(entity.PriceMap), nil
}

// Invalidate implements port.PriceService.
func (s *priceServiceImpl) Invalidate() {
	s.store.Flush()
}
