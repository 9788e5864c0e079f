// Package clients provides the read-only blockchain clients the verifier
// queries for transaction evidence.
package clients

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/paygate-labs/paygate/types"
)

// TxReader is the single capability the verifier needs from a chain: fetch a
// transaction by hash. *ethclient.Client satisfies it directly.
type TxReader interface {
	TransactionByHash(ctx context.Context, hash common.Hash) (tx *ethtypes.Transaction, isPending bool, err error)
}

var (
	_ TxReader = (*ethclient.Client)(nil)
	_ TxReader = (*EVMClient)(nil)
)

// EVMClient wraps a dialed JSON-RPC client for one network.
type EVMClient struct {
	network types.Network
	rpcURL  string
	client  *ethclient.Client
}

func NewEVMClient(network types.Network, rpcURL string) (*EVMClient, error) {
	if !network.IsEVM() {
		return nil, &types.PaywallError{
			Code:    types.ErrUnsupportedNetwork,
			Message: fmt.Sprintf("network %s is not an EVM network", network),
		}
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s RPC: %w", network, err)
	}

	return &EVMClient{
		network: network,
		rpcURL:  rpcURL,
		client:  client,
	}, nil
}

// TransactionByHash implements TxReader.
func (e *EVMClient) TransactionByHash(ctx context.Context, hash common.Hash) (*ethtypes.Transaction, bool, error) {
	return e.client.TransactionByHash(ctx, hash)
}

func (e *EVMClient) Network() types.Network {
	return e.network
}

func (e *EVMClient) Close() {
	e.client.Close()
}
