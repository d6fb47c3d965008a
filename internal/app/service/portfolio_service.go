package service

import (
	"sort"
	"strconv"

	"portfolio_tracker/internal/domain/entity"
	"portfolio_tracker/internal/pkg/utils"
)

// Merge joins a balance collection with a price map into the sorted
// portfolio entry list and its summary. Merge is a pure function of its
// inputs: the same (balances, prices) pair always yields equal output,
// and the inputs are never mutated.
func Merge(balances []entity.RawBalance, prices entity.PriceMap) ([]entity.PortfolioEntry, entity.PortfolioSummary) {
	entries := make([]entity.PortfolioEntry, 0, len(balances))

	for _, b := range balances {
		var priceUSD, change float64
		if quote, ok := prices[b.Asset.PriceID]; ok {
			priceUSD = quote.PriceUSD
			change = quote.Change24hPct
		}

		// A quantity of zero minor units always yields zero value,
		// regardless of price availability.
		var valueUSD float64
		if b.Amount != nil && b.Amount.Sign() > 0 && priceUSD > 0 {
			v, err := utils.CalculateValueUSD(b.Amount, b.Asset.Decimals, priceUSD)
			if err == nil {
				valueUSD = v
			}
		}

		formatted := b.Formatted
		if formatted == "" {
			formatted = "0"
		}

		e := entity.PortfolioEntry{
			Asset:        b.Asset,
			Formatted:    formatted,
			PriceUSD:     priceUSD,
			Change24hPct: change,
			ValueUSD:     valueUSD,
			State:        b.State,
		}
		if b.State == entity.FetchStateFailed && b.Err != nil {
			e.ErrorMessage = b.Err.Error()
		}
		entries = append(entries, e)
	}

	sortEntries(entries)
	return entries, Summarize(entries)
}

// sortEntries orders entries descending by USD value; ties break by
// symbol ascending so the ordering is deterministic.
func sortEntries(entries []entity.PortfolioEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ValueUSD != entries[j].ValueUSD {
			return entries[i].ValueUSD > entries[j].ValueUSD
		}
		return entries[i].Asset.Symbol < entries[j].Asset.Symbol
	})
}

// Summarize derives the portfolio summary from an entry collection.
func Summarize(entries []entity.PortfolioEntry) entity.PortfolioSummary {
	var summary entity.PortfolioSummary
	summary.TotalAssets = len(entries)

	activeNetworks := make(map[uint64]struct{})
	var weightedSum, valueSum float64

	for _, e := range entries {
		summary.TotalValueUSD += e.ValueUSD

		if e.Asset.IsNative() {
			summary.NativeAssets++
		} else {
			summary.TokenAssets++
		}

		if entryActive(e) {
			summary.ActiveAssets++
			activeNetworks[e.Asset.ChainID] = struct{}{}
		}

		if e.ValueUSD > 0 {
			valueSum += e.ValueUSD
			weightedSum += e.Change24hPct * e.ValueUSD
		}
	}

	if valueSum > 0 {
		summary.WeightedChange24 = weightedSum / valueSum
	}
	summary.ActiveNetworks = len(activeNetworks)

	return summary
}

// entryActive reports whether the entry holds a nonzero quantity.
func entryActive(e entity.PortfolioEntry) bool {
	qty, err := strconv.ParseFloat(e.Formatted, 64)
	return err == nil && qty > 0
}

// CriticallyFailed reports the first-load total failure condition: no
// balance query resolved and no cached price data exists at all.
// Individual per-asset failures never trigger it.
func CriticallyFailed(balances []entity.RawBalance, prices entity.PriceMap) bool {
	if len(prices) > 0 {
		return false
	}
	for _, b := range balances {
		if b.State == entity.FetchStateReady {
			return false
		}
	}
	return true
}
