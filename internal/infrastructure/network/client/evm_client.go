package client

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// EVMClient implements port.BalanceFetcher for EVM-compatible chains.
type EVMClient struct {
	ethClient      *ethclient.Client
	netDef         entity.NetworkDefinition
	rpcCallTimeout time.Duration
}

// ERC20 ABI minimal part for balanceOf
const erc20ABI = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}]`

var (
	parsedERC20ABI  abi.ABI
	parsedERC20Once sync.Once
	erc20MethodID   []byte
)

func initParsedERC20ABI() {
	parsedERC20Once.Do(func() {
		var err error
		parsedERC20ABI, err = abi.JSON(strings.NewReader(erc20ABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse ERC20 ABI: %v", err))
		}
		balanceOfMethod, ok := parsedERC20ABI.Methods["balanceOf"]
		if !ok {
			panic("balanceOf method not found in parsed ERC20 ABI")
		}
		erc20MethodID = balanceOfMethod.ID
	})
}

// NewEVMClient creates a new EVM client for the given network
// definition, trying the primary RPC URL first and falling back to the
// configured alternates.
func NewEVMClient(netDef entity.NetworkDefinition, connectionTimeout time.Duration, rpcCallTimeout time.Duration) (port.BalanceFetcher, error) {
	initParsedERC20ABI()
	rpcURLs := append([]string{netDef.PrimaryRPCURL}, netDef.FallbackRPCURLs...)
	var lastErr error

	for _, rpcURL := range rpcURLs {
		ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
		client, err := ethclient.DialContext(ctx, rpcURL)
		cancel()

		if err == nil {
			return &EVMClient{ethClient: client, netDef: netDef, rpcCallTimeout: rpcCallTimeout}, nil
		}
		lastErr = fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}

	return nil, fmt.Errorf("all RPC connection attempts failed for network %s: %w", netDef.Name, lastErr)
}

// GetBalances fetches multiple balances with one JSON-RPC batch request.
// Each element of the batch resolves independently: a failing token
// contract call sets only that element's Error.
func (c *EVMClient) GetBalances(ctx context.Context, requests []entity.BalanceRequestItem) ([]entity.BalanceResultItem, error) {
	if len(requests) == 0 {
		return []entity.BalanceResultItem{}, nil
	}

	batchElems := make([]rpc.BatchElem, len(requests))
	results := make([]entity.BalanceResultItem, len(requests))

	for i, reqItem := range requests {
		results[i] = entity.BalanceResultItem{
			ContractAddress: reqItem.ContractAddress,
			Symbol:          reqItem.Symbol,
		}

		switch reqItem.Type {
		case entity.NativeBalanceRequest:
			batchElems[i] = rpc.BatchElem{
				Method: "eth_getBalance",
				Args:   []interface{}{common.HexToAddress(reqItem.OwnerAddress), "latest"},
				Result: new(*hexutil.Big),
			}
		case entity.TokenBalanceRequest:
			paddedOwnerAddress := common.LeftPadBytes(common.HexToAddress(reqItem.OwnerAddress).Bytes(), 32)
			callData := append(erc20MethodID, paddedOwnerAddress...)

			callArgs := map[string]interface{}{
				"to":   common.HexToAddress(reqItem.ContractAddress),
				"data": hexutil.Bytes(callData),
			}
			batchElems[i] = rpc.BatchElem{
				Method: "eth_call",
				Args:   []interface{}{callArgs, "latest"},
				Result: new(hexutil.Bytes),
			}
		default:
			results[i].Error = fmt.Errorf("unknown balance request type: %v for %s", reqItem.Type, reqItem.Symbol)
		}
	}

	rawRPCClient := c.ethClient.Client()

	rpcCallCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()

	if err := rawRPCClient.BatchCallContext(rpcCallCtx, batchElems); err != nil {
		return results, fmt.Errorf("RPC batch call failed: %w", err)
	}

	for i, elem := range batchElems {
		if results[i].Error != nil {
			continue
		}
		if elem.Error != nil {
			results[i].Error = fmt.Errorf("failed to fetch %s for %s (owner %s): %w",
				requests[i].Symbol, requests[i].ContractAddress, requests[i].OwnerAddress, elem.Error)
			continue
		}

		switch requests[i].Type {
		case entity.NativeBalanceRequest:
			if result, ok := elem.Result.(**hexutil.Big); ok && result != nil && *result != nil {
				results[i].Balance = (*big.Int)(*result)
			} else {
				results[i].Error = fmt.Errorf("failed to decode native balance for %s: unexpected type or nil result", requests[i].Symbol)
			}
		case entity.TokenBalanceRequest:
			result, ok := elem.Result.(*hexutil.Bytes)
			if !ok || result == nil {
				results[i].Error = fmt.Errorf("failed to decode token balance for %s: unexpected type or nil result", requests[i].Symbol)
				continue
			}
			if len(*result) == 0 {
				results[i].Balance = big.NewInt(0)
				continue
			}
			unpacked, err := parsedERC20ABI.Unpack("balanceOf", *result)
			if err != nil {
				results[i].Error = fmt.Errorf("failed to unpack balanceOf result for %s: %w. Raw: %s", requests[i].Symbol, err, hexutil.Encode(*result))
				continue
			}
			if len(unpacked) == 0 {
				results[i].Error = fmt.Errorf("balanceOf unpack returned no data for %s", requests[i].Symbol)
				continue
			}
			balanceVal, ok := unpacked[0].(*big.Int)
			if !ok {
				results[i].Error = fmt.Errorf("failed to assert unpacked balanceOf result to *big.Int for %s. Got: %T", requests[i].Symbol, unpacked[0])
				continue
			}
			results[i].Balance = balanceVal
		}

		if results[i].Error == nil && results[i].Balance == nil {
			results[i].Balance = big.NewInt(0)
		}
	}
	return results, nil
}

// Definition returns the network definition for this client.
func (c *EVMClient) Definition() entity.NetworkDefinition {
	return c.netDef
}
