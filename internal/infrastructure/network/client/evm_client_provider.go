package client

import (
	"fmt"
	"sync"
	"time"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"
)

const defaultProviderConnectionTimeout = 10 * time.Second

// evmClientProvider implements port.BalanceFetcherProvider, caching one
// client per network so connections are dialed once.
type evmClientProvider struct {
	clients           map[uint64]port.BalanceFetcher
	mu                sync.Mutex
	logger            port.Logger
	connectionTimeout time.Duration
	rpcCallTimeout    time.Duration
}

// NewEVMClientProvider creates a new EVM client provider.
func NewEVMClientProvider(rpcCallTimeout time.Duration, logger port.Logger) port.BalanceFetcherProvider {
	return &evmClientProvider{
		clients:           make(map[uint64]port.BalanceFetcher),
		logger:            logger,
		connectionTimeout: defaultProviderConnectionTimeout,
		rpcCallTimeout:    rpcCallTimeout,
	}
}

// GetFetcher retrieves a balance fetcher for the given network
// definition, reusing a cached client when one exists.
func (p *evmClientProvider) GetFetcher(netDef entity.NetworkDefinition) (port.BalanceFetcher, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if client, exists := p.clients[netDef.ChainID]; exists {
		return client, nil
	}

	p.logger.Info("Creating new EVM client", "network", netDef.Name, "rpc_primary", netDef.PrimaryRPCURL)
	newClient, err := NewEVMClient(netDef, p.connectionTimeout, p.rpcCallTimeout)
	if err != nil {
		p.logger.Error("Failed to create EVM client", "network", netDef.Name, "error", err)
		return nil, fmt.Errorf("failed to create EVM client for %s: %w", netDef.Name, err)
	}

	p.clients[netDef.ChainID] = newClient
	p.logger.Info("Successfully created and cached new EVM client", "network", netDef.Name)
	return newClient, nil
}
