package entity

// ZeroAddress represents the Ethereum zero address.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// AssetDescriptor describes one asset tracked by the catalog: either a
// network's native coin (ContractAddress empty) or an ERC20-style token.
// Descriptors are loaded once at startup and never mutated.
type AssetDescriptor struct {
	ChainID         uint64 `yaml:"chainId" json:"chainId"`
	ContractAddress string `yaml:"address,omitempty" json:"address,omitempty"`
	Symbol          string `yaml:"symbol" json:"symbol"`
	Name            string `yaml:"name" json:"name"`
	Decimals        uint8  `yaml:"decimals" json:"decimals"`
	// PriceID is the catalog-stable identifier used to look up the market
	// price for this asset (a CoinGecko coin id).
	PriceID string `yaml:"priceId" json:"priceId"`
}

// IsNative reports whether the descriptor refers to a network's base coin.
func (a AssetDescriptor) IsNative() bool {
	return a.ContractAddress == "" || a.ContractAddress == ZeroAddress
}

// NetworkDefinition holds the configuration for a specific blockchain network.
type NetworkDefinition struct {
	ChainID         uint64   `yaml:"chainId" json:"chainId"`
	Name            string   `yaml:"name" json:"name"`
	Identifier      string   `yaml:"identifier" json:"identifier"`
	NativeSymbol    string   `yaml:"nativeSymbol" json:"nativeSymbol"`
	NativeName      string   `yaml:"nativeName" json:"nativeName"`
	NativeDecimals  uint8    `yaml:"nativeDecimals" json:"nativeDecimals"`
	NativePriceID   string   `yaml:"nativePriceId" json:"nativePriceId"`
	PrimaryRPCURL   string   `yaml:"primaryRpcUrl" json:"primaryRpcUrl"`
	FallbackRPCURLs []string `yaml:"fallbackRpcUrls,omitempty" json:"fallbackRpcUrls,omitempty"`
}

// NativeDescriptor returns the AssetDescriptor for the network's base coin.
func (n NetworkDefinition) NativeDescriptor() AssetDescriptor {
	decimals := n.NativeDecimals
	if decimals == 0 {
		decimals = 18
	}
	return AssetDescriptor{
		ChainID:  n.ChainID,
		Symbol:   n.NativeSymbol,
		Name:     n.NativeName,
		Decimals: decimals,
		PriceID:  n.NativePriceID,
	}
}
