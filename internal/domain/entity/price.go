package entity

import "time"

// PriceQuote holds the market data for one price identifier. Quotes are
// owned by the price service cache; consumers treat them as read-only.
type PriceQuote struct {
	PriceID      string    `json:"priceId"`
	PriceUSD     float64   `json:"priceUsd"`
	Change24hPct float64   `json:"change24hPct"`
	FetchedAt    time.Time `json:"fetchedAt"`
}

// PriceMap maps a price identifier to its quote. An identifier that was
// requested but has no market data is simply absent from the map.
type PriceMap map[string]PriceQuote
