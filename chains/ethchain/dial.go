package ethchain

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// rpcAdapter narrows *ethclient.Client to EthRPC. FilterLogs and
// CallContract are the only methods whose go-ethereum signatures
// differ from EthRPC's (ethereum.FilterQuery/CallMsg vs this
// package's trimmed FilterQuery/CallMsg); every other method is
// promoted unchanged through the embedded client.
type rpcAdapter struct {
	*ethclient.Client
}

func (a rpcAdapter) FilterLogs(ctx context.Context, q FilterQuery) ([]types.Log, error) {
	return a.Client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: q.FromBlock,
		ToBlock:   q.ToBlock,
		Addresses: q.Addresses,
	})
}

func (a rpcAdapter) CallContract(ctx context.Context, msg CallMsg, blockNumber *big.Int) ([]byte, error) {
	return a.Client.CallContract(ctx, ethereum.CallMsg{To: msg.To, Data: msg.Data}, blockNumber)
}

// Dial connects to an EVM JSON-RPC/WS endpoint and returns an EthRPC
// handle backed by go-ethereum's ethclient, the same transport the
// teacher's evmclient.NewEVMClient wraps.
func Dial(ctx context.Context, rpcURL string) (EthRPC, error) {
	c, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dialing EVM RPC endpoint %s: %w", rpcURL, err)
	}
	return rpcAdapter{c}, nil
}
