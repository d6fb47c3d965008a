package port

import "portfolio_tracker/internal/domain/entity"

// CatalogProvider exposes the static asset catalog loaded at startup.
type CatalogProvider interface {
	// Networks returns every configured network definition.
	Networks() []entity.NetworkDefinition

	// Assets returns every tracked asset descriptor (native coins first,
	// then tokens, in configuration order).
	Assets() []entity.AssetDescriptor

	// AssetsByChainID returns the descriptors for one network.
	AssetsByChainID(chainID uint64) []entity.AssetDescriptor

	// PriceIDs returns the deduplicated price identifiers of the whole
	// catalog.
	PriceIDs() []string
}
