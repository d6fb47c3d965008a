package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"portfolio_tracker/internal/domain/entity"
	"portfolio_tracker/internal/infrastructure/httpclient"
)

// fakePriceAPI counts upstream calls and delegates to a swappable
// response function.
type fakePriceAPI struct {
	calls   atomic.Int64
	respond atomic.Pointer[func(ids []string) (map[string]httpclient.SimplePrice, error)]
}

func newFakePriceAPI(fn func(ids []string) (map[string]httpclient.SimplePrice, error)) *fakePriceAPI {
	f := &fakePriceAPI{}
	f.respond.Store(&fn)
	return f
}

func (f *fakePriceAPI) set(fn func(ids []string) (map[string]httpclient.SimplePrice, error)) {
	f.respond.Store(&fn)
}

func (f *fakePriceAPI) GetSimplePrices(_ context.Context, ids []string) (map[string]httpclient.SimplePrice, error) {
	f.calls.Add(1)
	return (*f.respond.Load())(ids)
}

func fixedPrices(ids []string) (map[string]httpclient.SimplePrice, error) {
	change := 1.5
	out := make(map[string]httpclient.SimplePrice, len(ids))
	for _, id := range ids {
		out[id] = httpclient.SimplePrice{USD: 100, USD24hChange: &change}
	}
	return out, nil
}

func testOptions(ttl time.Duration) PriceServiceOptions {
	return PriceServiceOptions{
		TTL:          ttl,
		MaxRetries:   2,
		RetryDelay:   time.Millisecond,
		RateLimit:    rate.Limit(10000),
		FetchTimeout: time.Second,
	}
}

func TestPriceService_FreshHitSkipsUpstream(t *testing.T) {
	api := newFakePriceAPI(fixedPrices)
	svc := NewPriceService(api, testOptions(time.Hour), zap.NewNop())

	first, err := svc.GetPrices(context.Background(), []string{"ethereum", "tether"})
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := svc.GetPrices(context.Background(), []string{"ethereum", "tether"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), api.calls.Load(), "second call within TTL must be served from cache")
}

func TestPriceService_CacheKeyIgnoresOrderAndDuplicates(t *testing.T) {
	api := newFakePriceAPI(fixedPrices)
	svc := NewPriceService(api, testOptions(time.Hour), zap.NewNop())

	_, err := svc.GetPrices(context.Background(), []string{"tether", "ethereum", "ethereum"})
	require.NoError(t, err)

	_, err = svc.GetPrices(context.Background(), []string{"ethereum", "tether"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), api.calls.Load(), "equal identifier sets must share one cache entry")
}

func TestPriceService_StaleServedOnUpstreamFailure(t *testing.T) {
	api := newFakePriceAPI(fixedPrices)
	svc := NewPriceService(api, testOptions(10*time.Millisecond), zap.NewNop())

	first, err := svc.GetPrices(context.Background(), []string{"ethereum"})
	require.NoError(t, err)
	require.Equal(t, float64(100), first["ethereum"].PriceUSD)

	// Let the entry expire, then make the upstream unavailable.
	time.Sleep(25 * time.Millisecond)
	api.set(func([]string) (map[string]httpclient.SimplePrice, error) {
		return nil, &entity.UpstreamError{StatusCode: 503}
	})

	stale, err := svc.GetPrices(context.Background(), []string{"ethereum"})
	require.NoError(t, err, "expired entries must be served, never surfaced as errors")
	assert.Equal(t, first, stale)

	// The expired hit triggers a background revalidation attempt.
	assert.Eventually(t, func() bool {
		return api.calls.Load() > 1
	}, time.Second, 5*time.Millisecond)
}

func TestPriceService_ColdStartFailure(t *testing.T) {
	api := newFakePriceAPI(func([]string) (map[string]httpclient.SimplePrice, error) {
		return nil, &entity.UpstreamError{StatusCode: 500}
	})
	svc := NewPriceService(api, testOptions(time.Hour), zap.NewNop())

	_, err := svc.GetPrices(context.Background(), []string{"ethereum"})
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrNoQuoteData)
	// MaxRetries 2 means three attempts total.
	assert.Equal(t, int64(3), api.calls.Load())
}

func TestPriceService_ClientErrorsNotRetried(t *testing.T) {
	api := newFakePriceAPI(func([]string) (map[string]httpclient.SimplePrice, error) {
		return nil, &entity.UpstreamError{StatusCode: 400, Body: "bad id"}
	})
	svc := NewPriceService(api, testOptions(time.Hour), zap.NewNop())

	_, err := svc.GetPrices(context.Background(), []string{"no-such-coin"})
	require.Error(t, err)
	assert.Equal(t, int64(1), api.calls.Load(), "4xx responses must not be retried")
}

func TestPriceService_TransportErrorsRetried(t *testing.T) {
	transportErr := errors.New("connection reset")
	api := newFakePriceAPI(func([]string) (map[string]httpclient.SimplePrice, error) {
		return nil, transportErr
	})
	svc := NewPriceService(api, testOptions(time.Hour), zap.NewNop())

	_, err := svc.GetPrices(context.Background(), []string{"ethereum"})
	require.Error(t, err)
	assert.Equal(t, int64(3), api.calls.Load())
}

func TestPriceService_RetrySucceedsMidway(t *testing.T) {
	var attempt atomic.Int64
	api := newFakePriceAPI(nil)
	api.set(func(ids []string) (map[string]httpclient.SimplePrice, error) {
		if attempt.Add(1) == 1 {
			return nil, &entity.UpstreamError{StatusCode: 502}
		}
		return fixedPrices(ids)
	})
	svc := NewPriceService(api, testOptions(time.Hour), zap.NewNop())

	quotes, err := svc.GetPrices(context.Background(), []string{"ethereum"})
	require.NoError(t, err)
	assert.Equal(t, float64(100), quotes["ethereum"].PriceUSD)
	assert.Equal(t, int64(2), api.calls.Load())
}

func TestPriceService_InvalidateForcesRefetch(t *testing.T) {
	api := newFakePriceAPI(fixedPrices)
	svc := NewPriceService(api, testOptions(time.Hour), zap.NewNop())

	_, err := svc.GetPrices(context.Background(), []string{"ethereum"})
	require.NoError(t, err)

	svc.Invalidate()

	_, err = svc.GetPrices(context.Background(), []string{"ethereum"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), api.calls.Load())
}

func TestPriceService_EmptyIdentifierSet(t *testing.T) {
	api := newFakePriceAPI(fixedPrices)
	svc := NewPriceService(api, testOptions(time.Hour), zap.NewNop())

	quotes, err := svc.GetPrices(context.Background(), []string{"", ""})
	require.NoError(t, err)
	assert.Empty(t, quotes)
	assert.Equal(t, int64(0), api.calls.Load())
}
