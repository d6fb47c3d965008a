package service

import (
	"context"
	"fmt"
	"math/big"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"
	"portfolio_tracker/internal/pkg/metrics"
	"portfolio_tracker/internal/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// balanceAggregatorImpl implements port.BalanceAggregator: it fans out
// one batched query per network and assembles a fixed-size RawBalance
// collection in catalog order.
type balanceAggregatorImpl struct {
	catalog       port.CatalogProvider
	provider      port.BalanceFetcherProvider
	logger        *zap.Logger
	maxConcurrent int
}

// NewBalanceAggregator creates a new balance aggregator.
func NewBalanceAggregator(
	catalog port.CatalogProvider,
	provider port.BalanceFetcherProvider,
	maxConcurrent int,
	logger *zap.Logger,
) port.BalanceAggregator {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &balanceAggregatorImpl{
		catalog:       catalog,
		provider:      provider,
		logger:        logger.Named("BalanceAggregator"),
		maxConcurrent: maxConcurrent,
	}
}

// GetBalances implements port.BalanceAggregator. The returned slice
// always has one entry per catalog descriptor; a failing query marks
// only its own entry failed. Repeated calls build a fresh collection
// each time, so re-querying never accumulates duplicates.
func (a *balanceAggregatorImpl) GetBalances(ctx context.Context, ownerAddress string) []entity.RawBalance {
	assets := a.catalog.Assets()
	results := make([]entity.RawBalance, len(assets))
	indexByAsset := make(map[uint64][]int, len(a.catalog.Networks()))

	for i, asset := range assets {
		results[i] = entity.RawBalance{
			Asset:     asset,
			Amount:    big.NewInt(0),
			Formatted: "0",
			State:     entity.FetchStatePending,
		}
		indexByAsset[asset.ChainID] = append(indexByAsset[asset.ChainID], i)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.maxConcurrent)

	// Each network's goroutine writes only to its own index set, so the
	// result slice needs no locking.
	for _, netDef := range a.catalog.Networks() {
		netDef := netDef
		indexes := indexByAsset[netDef.ChainID]
		if len(indexes) == 0 {
			continue
		}

		eg.Go(func() error {
			a.fetchNetwork(egCtx, ownerAddress, netDef, indexes, results)
			return nil
		})
	}

	// Per-asset failures are captured on the entries themselves; the
	// group never yields an error.
	_ = eg.Wait()

	return results
}

// fetchNetwork resolves every catalog asset of one network through a
// single batched call and writes the outcomes into results.
func (a *balanceAggregatorImpl) fetchNetwork(
	ctx context.Context,
	ownerAddress string,
	netDef entity.NetworkDefinition,
	indexes []int,
	results []entity.RawBalance,
) {
	failAll := func(err error) {
		for _, idx := range indexes {
			results[idx].State = entity.FetchStateFailed
			results[idx].Err = err
			metrics.BalanceFetchErrors.WithLabelValues(netDef.Identifier).Inc()
		}
	}

	fetcher, err := a.provider.GetFetcher(netDef)
	if err != nil {
		a.logger.Error("Failed to get balance fetcher for network",
			zap.String("network", netDef.Name), zap.Error(err))
		failAll(fmt.Errorf("no client for network %s: %w", netDef.Name, err))
		return
	}

	requests := make([]entity.BalanceRequestItem, len(indexes))
	for pos, idx := range indexes {
		asset := results[idx].Asset
		reqType := entity.TokenBalanceRequest
		if asset.IsNative() {
			reqType = entity.NativeBalanceRequest
		}
		requests[pos] = entity.BalanceRequestItem{
			Type:            reqType,
			OwnerAddress:    ownerAddress,
			ContractAddress: asset.ContractAddress,
			Symbol:          asset.Symbol,
			Decimals:        asset.Decimals,
		}
	}

	a.logger.Debug("Executing batch balance request",
		zap.String("owner", ownerAddress),
		zap.String("network", netDef.Name),
		zap.Int("request_count", len(requests)))

	batchResults, err := fetcher.GetBalances(ctx, requests)
	if err != nil {
		a.logger.Error("Batch balance call failed for network",
			zap.String("owner", ownerAddress),
			zap.String("network", netDef.Name),
			zap.Error(err))
		failAll(fmt.Errorf("batch balance fetch failed for %s: %w", netDef.Name, err))
		return
	}

	for pos, idx := range indexes {
		res := batchResults[pos]
		if res.Error != nil {
			a.logger.Warn("Error in batch balance sub-request",
				zap.String("owner", ownerAddress),
				zap.String("network", netDef.Name),
				zap.String("symbol", res.Symbol),
				zap.Error(res.Error))
			results[idx].State = entity.FetchStateFailed
			results[idx].Err = res.Error
			metrics.BalanceFetchErrors.WithLabelValues(netDef.Identifier).Inc()
			continue
		}

		amount := res.Balance
		if amount == nil {
			amount = big.NewInt(0)
		}
		formatted, err := utils.FormatBigInt(amount, results[idx].Asset.Decimals)
		if err != nil {
			results[idx].State = entity.FetchStateFailed
			results[idx].Err = fmt.Errorf("failed to format balance for %s: %w", res.Symbol, err)
			metrics.BalanceFetchErrors.WithLabelValues(netDef.Identifier).Inc()
			continue
		}

		results[idx].Amount = amount
		results[idx].Formatted = formatted
		results[idx].State = entity.FetchStateReady
	}
}
