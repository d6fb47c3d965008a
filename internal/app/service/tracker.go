package service

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"
	"portfolio_tracker/internal/pkg/metrics"

	"go.uber.org/zap"
)

// Tracker implements port.PortfolioService. It owns the refresh
// lifecycle: on a fixed interval (and on explicit Refresh calls) it
// fans out balance and price fetches, merges the results and publishes
// a new immutable PortfolioView. Readers always observe a complete,
// consistent snapshot; a refresh never mutates a published view.
type Tracker struct {
	catalog    port.CatalogProvider
	aggregator port.BalanceAggregator
	prices     port.PriceService
	logger     *zap.Logger

	owner    string
	interval time.Duration

	current  atomic.Pointer[entity.PortfolioView]
	inFlight atomic.Int32
	// publishMu orders publications so the supersession check and the
	// pointer swap are one step.
	publishMu sync.Mutex
}

// NewTracker creates a tracker for one owner address and publishes the
// initial all-pending view.
func NewTracker(
	catalog port.CatalogProvider,
	aggregator port.BalanceAggregator,
	prices port.PriceService,
	owner string,
	interval time.Duration,
	logger *zap.Logger,
) *Tracker {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	t := &Tracker{
		catalog:    catalog,
		aggregator: aggregator,
		prices:     prices,
		logger:     logger.Named("Tracker"),
		owner:      owner,
		interval:   interval,
	}
	initial := t.pendingView()
	t.current.Store(&initial)
	return t
}

// pendingView builds the placeholder view served before the first
// refresh cycle completes: one zero-quantity pending entry per catalog
// descriptor, so consumers can render immediately.
func (t *Tracker) pendingView() entity.PortfolioView {
	assets := t.catalog.Assets()
	balances := make([]entity.RawBalance, len(assets))
	for i, asset := range assets {
		balances[i] = entity.RawBalance{
			Asset:     asset,
			Amount:    big.NewInt(0),
			Formatted: "0",
			State:     entity.FetchStatePending,
		}
	}
	entries, summary := Merge(balances, nil)
	return entity.PortfolioView{
		OwnerAddress: t.owner,
		Entries:      entries,
		Summary:      summary,
		Loading:      true,
	}
}

// Run drives the polling loop until the context is cancelled. This is
// the sole source of background work; one refresh fires immediately.
func (t *Tracker) Run(ctx context.Context) {
	t.logger.Info("Starting portfolio refresh loop",
		zap.String("owner", t.owner), zap.Duration("interval", t.interval))

	t.Refresh(ctx)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Stopping portfolio refresh loop")
			return
		case <-ticker.C:
			t.Refresh(ctx)
		}
	}
}

// Snapshot implements port.PortfolioService. The returned view is a
// value copy; Loading additionally reflects refresh cycles that are
// still in flight (stale-while-revalidate for the visible state).
func (t *Tracker) Snapshot() entity.PortfolioView {
	view := *t.current.Load()
	if t.inFlight.Load() > 0 {
		view.Loading = true
	}
	return view
}

// Refresh implements port.PortfolioService. It returns immediately; the
// cycle runs in its own goroutine. Triggering a refresh while a
// previous one is outstanding does not cancel the in-flight calls;
// whichever cycle publishes later wins unless it has already been
// superseded by a fresher one.
func (t *Tracker) Refresh(ctx context.Context) {
	startedAt := time.Now()
	t.inFlight.Add(1)

	go func() {
		defer t.inFlight.Add(-1)

		view := t.collect(ctx, t.owner, startedAt)

		t.publishMu.Lock()
		defer t.publishMu.Unlock()

		if current := t.current.Load(); current.RefreshedAt.After(startedAt) {
			// A cycle that started later already published; this result
			// fulfills a superseded request.
			metrics.RefreshCycles.WithLabelValues("superseded").Inc()
			t.logger.Debug("Discarding superseded refresh result",
				zap.Time("startedAt", startedAt),
				zap.Time("currentRefreshedAt", current.RefreshedAt))
			return
		}
		t.current.Store(&view)
		metrics.RefreshCycles.WithLabelValues("published").Inc()
	}()
}

// Fetch implements port.PortfolioService: a one-shot aggregation for an
// explicit owner address, not published to the snapshot.
func (t *Tracker) Fetch(ctx context.Context, ownerAddress string) entity.PortfolioView {
	return t.collect(ctx, ownerAddress, time.Now())
}

// collect runs one full refresh cycle: balances and prices fetched
// concurrently, joined only at merge time.
func (t *Tracker) collect(ctx context.Context, ownerAddress string, startedAt time.Time) entity.PortfolioView {
	timer := time.Now()

	var (
		wg       sync.WaitGroup
		balances []entity.RawBalance
		quotes   entity.PriceMap
		priceErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		balances = t.aggregator.GetBalances(ctx, ownerAddress)
	}()
	go func() {
		defer wg.Done()
		quotes, priceErr = t.prices.GetPrices(ctx, t.catalog.PriceIDs())
	}()
	wg.Wait()

	if priceErr != nil {
		t.logger.Warn("Price data unavailable for refresh cycle",
			zap.String("owner", ownerAddress), zap.Error(priceErr))
	}

	entries, summary := Merge(balances, quotes)
	view := entity.PortfolioView{
		OwnerAddress: ownerAddress,
		Entries:      entries,
		Summary:      summary,
		Critical:     CriticallyFailed(balances, quotes),
		RefreshedAt:  startedAt,
	}

	metrics.RefreshDuration.Observe(time.Since(timer).Seconds())
	t.logger.Debug("Refresh cycle completed",
		zap.String("owner", ownerAddress),
		zap.Int("entries", len(entries)),
		zap.Float64("totalValueUsd", summary.TotalValueUSD),
		zap.Bool("critical", view.Critical),
		zap.Duration("took", time.Since(timer)))
	return view
}
