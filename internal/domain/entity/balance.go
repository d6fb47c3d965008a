package entity

import (
	"fmt"
	"math/big"
)

// FetchState is the lifecycle state of one per-asset query. Terminal
// states are never transitioned in place; each refresh cycle produces
// fresh RawBalance values.
type FetchState int

const (
	// FetchStatePending means the query for this asset has not resolved yet.
	FetchStatePending FetchState = iota
	// FetchStateReady means the query resolved with a usable quantity.
	FetchStateReady
	// FetchStateFailed means the query resolved with an error.
	FetchStateFailed
)

// String returns the lowercase name of the state for logs and JSON.
func (s FetchState) String() string {
	switch s {
	case FetchStatePending:
		return "pending"
	case FetchStateReady:
		return "ready"
	case FetchStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the state as its string name.
func (s FetchState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes a state from its string name.
func (s *FetchState) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"pending"`:
		*s = FetchStatePending
	case `"ready"`:
		*s = FetchStateReady
	case `"failed"`:
		*s = FetchStateFailed
	default:
		return fmt.Errorf("unknown fetch state %s", data)
	}
	return nil
}

// RawBalance is one per-asset result produced by the balance aggregator.
// Amount is kept as an arbitrary-precision integer in the asset's minor
// units; Formatted is the decimal string derived from it exactly once at
// the aggregator boundary. Err is populated only when State is
// FetchStateFailed.
type RawBalance struct {
	Asset     AssetDescriptor
	Amount    *big.Int
	Formatted string
	State     FetchState
	Err       error
}

// BalanceRequestType defines the type of balance request.
type BalanceRequestType int

const (
	// NativeBalanceRequest requests the native coin balance of an owner.
	NativeBalanceRequest BalanceRequestType = iota
	// TokenBalanceRequest requests the balance of a token contract for an owner.
	TokenBalanceRequest
)

// BalanceRequestItem represents a single item in a batch request for balances.
type BalanceRequestItem struct {
	Type            BalanceRequestType
	OwnerAddress    string
	ContractAddress string
	Symbol          string
	Decimals        uint8
}

// BalanceResultItem represents the result of a single balance request
// from a batch. Balance and Error are mutually exclusive.
type BalanceResultItem struct {
	ContractAddress string
	Symbol          string
	Balance         *big.Int
	Error           error
}
