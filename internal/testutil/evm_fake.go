// Package testutil provides in-memory fakes for the ChainRead/
// ChainSubmit capability sets, grounded on spec.md §9's design note
// ("Mock-client trait used for unit testing: preserve as an explicit
// interface") and scaled down from original_source's
// starcoin_bridge_mock_client.rs / test_utils.rs harness per
// SPEC_FULL.md §C.5.
package testutil

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ChainSafe/starcoin-bridge/chains/ethchain"
	"github.com/ethereum/go-ethereum/common"
)

// FakeEthChain implements ethchain.ChainRead and ethchain.ChainSubmit
// entirely in memory.
type FakeEthChain struct {
	mu sync.Mutex

	FinalizedBlock uint64
	LogsByWindow   map[[3]uint64][]ethchain.Log // key: {addrHash-ignored, from, to} simplified to [from,to,0]
	Receipts       map[common.Hash]*ethchain.Receipt
	Nonces         map[uint8]uint64
	Paused         bool
	VaultBalances  map[uint8]*big.Int
	TotalSupplies  map[common.Address]*big.Int

	SubmittedTxs []SubmittedTx
	NextTxHash   func() common.Hash
}

// SubmittedTx records one call to SubmitCertifiedAction for test
// assertions (P5: at most one submission per fingerprint).
type SubmittedTx struct {
	ActionType   uint8
	MessageBytes []byte
	Signatures   [][]byte
}

func NewFakeEthChain() *FakeEthChain {
	return &FakeEthChain{
		Receipts:      make(map[common.Hash]*ethchain.Receipt),
		Nonces:        make(map[uint8]uint64),
		VaultBalances: make(map[uint8]*big.Int),
		TotalSupplies: make(map[common.Address]*big.Int),
	}
}

func (f *FakeEthChain) LatestFinalizedBlock(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.FinalizedBlock, nil
}

func (f *FakeEthChain) GetLogs(ctx context.Context, addrs []common.Address, from, to uint64) ([]ethchain.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ethchain.Log
	for _, logs := range f.LogsByWindow {
		for _, l := range logs {
			if l.BlockNumber >= from && l.BlockNumber <= to {
				out = append(out, l)
			}
		}
	}
	return out, nil
}

func (f *FakeEthChain) GetTransactionReceipt(ctx context.Context, txHash common.Hash) (*ethchain.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.Receipts[txHash]
	if !ok {
		return nil, fmt.Errorf("no receipt for %s", txHash)
	}
	return r, nil
}

func (f *FakeEthChain) Nonce(ctx context.Context, actionType uint8) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Nonces[actionType], nil
}

func (f *FakeEthChain) IsPaused(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Paused, nil
}

func (f *FakeEthChain) VaultBalance(ctx context.Context, tokenID uint8) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.VaultBalances[tokenID]; ok {
		return b, nil
	}
	return big.NewInt(0), nil
}

func (f *FakeEthChain) TokenTotalSupply(ctx context.Context, tokenAddress common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.TotalSupplies[tokenAddress]; ok {
		return s, nil
	}
	return big.NewInt(0), nil
}

func (f *FakeEthChain) SubmitCertifiedAction(ctx context.Context, actionType uint8, messageBytes []byte, signatures [][]byte) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SubmittedTxs = append(f.SubmittedTxs, SubmittedTx{ActionType: actionType, MessageBytes: messageBytes, Signatures: signatures})
	if f.NextTxHash != nil {
		return f.NextTxHash(), nil
	}
	var h common.Hash
	h[0] = byte(len(f.SubmittedTxs))
	return h, nil
}

func (f *FakeEthChain) WaitMined(ctx context.Context, txHash common.Hash) (*ethchain.Receipt, error) {
	return f.GetTransactionReceipt(ctx, txHash)
}
