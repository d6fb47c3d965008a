package port

import (
	"context"

	"portfolio_tracker/internal/domain/entity"
)

// PriceService serves market quotes for sets of price identifiers with
// bounded staleness. Implementations cache per identifier set, coalesce
// concurrent overlapping requests, and fall back to stale data when the
// upstream is unavailable.
type PriceService interface {
	// GetPrices returns quotes for the requested identifiers. Identifiers
	// with no market data are absent from the map; that is not an error.
	// An error is returned only when no cached value of any age exists.
	GetPrices(ctx context.Context, priceIDs []string) (entity.PriceMap, error)

	// Invalidate drops every cached quote. Intended for tests and
	// explicit operator resets.
	Invalidate()
}
