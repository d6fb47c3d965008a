package catalogloader

import (
	"fmt"
	"os"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"
	"portfolio_tracker/internal/pkg/utils"

	"gopkg.in/yaml.v3"
)

// tokenConfig is the YAML shape of one token entry in the catalog file.
type tokenConfig struct {
	Address  string `yaml:"address"`
	Symbol   string `yaml:"symbol"`
	Name     string `yaml:"name"`
	Decimals uint8  `yaml:"decimals"`
	PriceID  string `yaml:"priceId"`
}

// networkConfig is the YAML shape of one network with its token set.
type networkConfig struct {
	entity.NetworkDefinition `yaml:",inline"`
	Tokens                   []tokenConfig `yaml:"tokens"`
}

type catalogFile struct {
	Networks []networkConfig `yaml:"networks"`
}

// Catalog implements port.CatalogProvider over a statically loaded asset
// table. The catalog is immutable after Load.
type Catalog struct {
	networks []entity.NetworkDefinition
	assets   []entity.AssetDescriptor
	byChain  map[uint64][]entity.AssetDescriptor
	priceIDs []string
}

// Load reads the catalog YAML file and builds the asset table: one
// native descriptor per network followed by its token descriptors, in
// file order.
func Load(path string, log port.Logger) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog data from %s: %w", path, err)
	}
	if len(file.Networks) == 0 {
		return nil, fmt.Errorf("catalog file %s defines no networks", path)
	}

	c := &Catalog{
		byChain: make(map[uint64][]entity.AssetDescriptor, len(file.Networks)),
	}
	var allPriceIDs []string

	for _, net := range file.Networks {
		if net.ChainID == 0 || net.Name == "" || net.NativeSymbol == "" {
			return nil, fmt.Errorf("invalid network entry in %s: chainId, name and nativeSymbol are required", path)
		}
		if net.PrimaryRPCURL == "" {
			return nil, fmt.Errorf("network %s has no primary RPC URL", net.Name)
		}

		c.networks = append(c.networks, net.NetworkDefinition)

		native := net.NativeDescriptor()
		c.assets = append(c.assets, native)
		c.byChain[net.ChainID] = append(c.byChain[net.ChainID], native)
		allPriceIDs = append(allPriceIDs, native.PriceID)

		for _, tok := range net.Tokens {
			if tok.Address == "" || tok.Symbol == "" {
				return nil, fmt.Errorf("invalid token entry for network %s: address and symbol are required", net.Name)
			}
			desc := entity.AssetDescriptor{
				ChainID:         net.ChainID,
				ContractAddress: tok.Address,
				Symbol:          tok.Symbol,
				Name:            tok.Name,
				Decimals:        tok.Decimals,
				PriceID:         tok.PriceID,
			}
			c.assets = append(c.assets, desc)
			c.byChain[net.ChainID] = append(c.byChain[net.ChainID], desc)
			allPriceIDs = append(allPriceIDs, tok.PriceID)
		}
	}

	c.priceIDs = utils.SortedUnique(allPriceIDs)

	log.Info("Asset catalog loaded",
		"networks", len(c.networks),
		"assets", len(c.assets),
		"priceIds", len(c.priceIDs))
	return c, nil
}

// Networks returns every configured network definition.
func (c *Catalog) Networks() []entity.NetworkDefinition {
	return c.networks
}

// Assets returns every tracked asset descriptor in catalog order.
func (c *Catalog) Assets() []entity.AssetDescriptor {
	return c.assets
}

// AssetsByChainID returns the descriptors for one network.
func (c *Catalog) AssetsByChainID(chainID uint64) []entity.AssetDescriptor {
	return c.byChain[chainID]
}

// PriceIDs returns the deduplicated price identifiers of the catalog.
func (c *Catalog) PriceIDs() []string {
	return c.priceIDs
}
