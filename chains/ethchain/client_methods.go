package ethchain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// LatestFinalizedBlock uses go-ethereum's well-known finalized-tag
// block number (rpc.FinalizedBlockNumber) rather than tracking reorg
// depth ourselves, per spec.md §4.1 ("the syncer relies on the RPC's
// finalized tag for safety").
func (c *Client) LatestFinalizedBlock(ctx context.Context) (uint64, error) {
	header, err := c.rpc.HeaderByNumber(ctx, big.NewInt(rpc.FinalizedBlockNumber.Int64()))
	if err != nil {
		return 0, fmt.Errorf("fetching finalized header: %w", err)
	}
	return header.Number.Uint64(), nil
}

func (c *Client) GetLogs(ctx context.Context, addrs []common.Address, from, to uint64) ([]Log, error) {
	logs, err := c.rpc.FilterLogs(ctx, FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: addrs,
	})
	if err != nil {
		return nil, fmt.Errorf("filtering logs [%d,%d]: %w", from, to, err)
	}
	out := make([]Log, 0, len(logs))
	for _, l := range logs {
		var topics [][32]byte
		for _, t := range l.Topics {
			var arr [32]byte
			copy(arr[:], t.Bytes())
			topics = append(topics, arr)
		}
		out = append(out, Log{
			Address:     l.Address,
			Topics:      topics,
			Data:        l.Data,
			BlockNumber: l.BlockNumber,
			BlockHash:   l.BlockHash,
			TxHash:      l.TxHash,
			Index:       l.Index,
		})
	}
	return out, nil
}

func (c *Client) GetTransactionReceipt(ctx context.Context, txHash common.Hash) (*Receipt, error) {
	r, err := c.rpc.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("fetching receipt for %s: %w", txHash, err)
	}
	logs := make([]Log, 0, len(r.Logs))
	for _, l := range r.Logs {
		var topics [][32]byte
		for _, t := range l.Topics {
			var arr [32]byte
			copy(arr[:], t.Bytes())
			topics = append(topics, arr)
		}
		logs = append(logs, Log{
			Address:     l.Address,
			Topics:      topics,
			Data:        l.Data,
			BlockNumber: l.BlockNumber,
			BlockHash:   l.BlockHash,
			TxHash:      l.TxHash,
			Index:       l.Index,
		})
	}
	return &Receipt{
		BlockNumber: r.BlockNumber.Uint64(),
		BlockHash:   r.BlockHash,
		Status:      r.Status,
		Logs:        logs,
	}, nil
}

func (c *Client) Nonce(ctx context.Context, actionType uint8) (uint64, error) {
	data, err := bridgeABI().Pack("nonces", actionType)
	if err != nil {
		return 0, fmt.Errorf("packing nonces() call: %w", err)
	}
	out, err := c.rpc.CallContract(ctx, CallMsg{To: &c.bridgeAddress, Data: data}, nil)
	if err != nil {
		return 0, fmt.Errorf("calling nonces(): %w", err)
	}
	var result []interface{}
	if result, err = bridgeABI().Unpack("nonces", out); err != nil {
		return 0, fmt.Errorf("unpacking nonces() result: %w", err)
	}
	return result[0].(*big.Int).Uint64(), nil
}

func (c *Client) IsPaused(ctx context.Context) (bool, error) {
	data, err := bridgeABI().Pack("paused")
	if err != nil {
		return false, fmt.Errorf("packing paused() call: %w", err)
	}
	out, err := c.rpc.CallContract(ctx, CallMsg{To: &c.bridgeAddress, Data: data}, nil)
	if err != nil {
		return false, fmt.Errorf("calling paused(): %w", err)
	}
	result, err := bridgeABI().Unpack("paused", out)
	if err != nil {
		return false, fmt.Errorf("unpacking paused() result: %w", err)
	}
	return result[0].(bool), nil
}

func (c *Client) VaultBalance(ctx context.Context, tokenID uint8) (*big.Int, error) {
	data, err := bridgeABI().Pack("vaultBalance", tokenID)
	if err != nil {
		return nil, fmt.Errorf("packing vaultBalance() call: %w", err)
	}
	out, err := c.rpc.CallContract(ctx, CallMsg{To: &c.bridgeAddress, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("calling vaultBalance(): %w", err)
	}
	result, err := bridgeABI().Unpack("vaultBalance", out)
	if err != nil {
		return nil, fmt.Errorf("unpacking vaultBalance() result: %w", err)
	}
	return result[0].(*big.Int), nil
}

func (c *Client) TokenTotalSupply(ctx context.Context, tokenAddress common.Address) (*big.Int, error) {
	data, err := erc20ABI().Pack("totalSupply")
	if err != nil {
		return nil, fmt.Errorf("packing totalSupply() call: %w", err)
	}
	out, err := c.rpc.CallContract(ctx, CallMsg{To: &tokenAddress, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("calling totalSupply(): %w", err)
	}
	result, err := erc20ABI().Unpack("totalSupply", out)
	if err != nil {
		return nil, fmt.Errorf("unpacking totalSupply() result: %w", err)
	}
	return result[0].(*big.Int), nil
}

// SubmitCertifiedAction builds the call selector for actionType and
// submits it through the configured EVM signer, per spec.md §4.5.
func (c *Client) SubmitCertifiedAction(ctx context.Context, actionType uint8, messageBytes []byte, signatures [][]byte) (common.Hash, error) {
	data, err := bridgeABI().Pack("transferBridgedTokensWithSignatures", signatures, messageBytes)
	if err != nil {
		return common.Hash{}, fmt.Errorf("packing transferBridgedTokensWithSignatures(): %w", err)
	}
	tx := types.NewTx(&types.DynamicFeeTx{To: &c.bridgeAddress, Data: data})
	if err := c.rpc.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, fmt.Errorf("%w: submitting certified action: %v", errTransportTransient, err)
	}
	return tx.Hash(), nil
}

func (c *Client) WaitMined(ctx context.Context, txHash common.Hash) (*Receipt, error) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		r, err := c.GetTransactionReceipt(ctx, txHash)
		if err == nil {
			return r, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s to be mined: %w (last error: %v)", txHash, ctx.Err(), err)
		case <-ticker.C:
		}
	}
}

var bridgeABIInstance abi.ABI
var erc20ABIInstance abi.ABI

func bridgeABI() abi.ABI { return bridgeABIInstance }
func erc20ABI() abi.ABI  { return erc20ABIInstance }
