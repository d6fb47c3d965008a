package entity

import "time"

// PortfolioEntry is one merged row of the portfolio view: a raw balance
// joined with its market quote. Entries are created fresh on every merge
// pass and never mutated afterwards.
type PortfolioEntry struct {
	Asset        AssetDescriptor `json:"asset"`
	Formatted    string          `json:"formattedBalance"`
	PriceUSD     float64         `json:"priceUsd"`
	Change24hPct float64         `json:"change24hPct"`
	ValueUSD     float64         `json:"valueUsd"`
	State        FetchState      `json:"state"`
	ErrorMessage string          `json:"error,omitempty"`
}

// PortfolioSummary aggregates the current entry collection. Derived
// purely from the entries; never persisted.
type PortfolioSummary struct {
	TotalValueUSD    float64 `json:"totalValueUsd"`
	WeightedChange24 float64 `json:"weightedChange24hPct"`
	TotalAssets      int     `json:"totalAssets"`
	ActiveAssets     int     `json:"activeAssets"`
	NativeAssets     int     `json:"nativeAssets"`
	TokenAssets      int     `json:"tokenAssets"`
	ActiveNetworks   int     `json:"activeNetworks"`
}

// PortfolioView is the immutable snapshot published after each refresh
// cycle. Loading reports whether any constituent query of the cycle is
// still outstanding; Critical is set only when no balance data and no
// cached price data exist at all.
type PortfolioView struct {
	OwnerAddress string           `json:"ownerAddress"`
	Entries      []PortfolioEntry `json:"entries"`
	Summary      PortfolioSummary `json:"summary"`
	Loading      bool             `json:"overallLoading"`
	Critical     bool             `json:"overallError"`
	RefreshedAt  time.Time        `json:"refreshedAt"`
}
