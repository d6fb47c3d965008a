package port

import (
	"context"

	"portfolio_tracker/internal/domain/entity"
)

// BalanceFetcher executes balance queries against a single blockchain
// network. Implementations are specific to network types (e.g. EVM).
type BalanceFetcher interface {
	// GetBalances resolves a batch of native and token balance requests.
	// The returned slice is positionally aligned with the request slice;
	// each element carries its own result or error.
	GetBalances(ctx context.Context, requests []entity.BalanceRequestItem) ([]entity.BalanceResultItem, error)

	// Definition returns the network definition associated with this fetcher.
	Definition() entity.NetworkDefinition
}

// BalanceFetcherProvider hands out a fetcher per network, reusing
// established connections.
type BalanceFetcherProvider interface {
	GetFetcher(netDef entity.NetworkDefinition) (BalanceFetcher, error)
}

// BalanceAggregator fans out balance queries for one owner address
// across every asset in the catalog.
type BalanceAggregator interface {
	// GetBalances returns one RawBalance per catalog descriptor, in
	// catalog order. The collection is always complete: assets whose
	// query failed carry FetchStateFailed and their own error, without
	// affecting sibling entries.
	GetBalances(ctx context.Context, ownerAddress string) []entity.RawBalance
}
