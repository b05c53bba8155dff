package server

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ChainSafe/starcoin-bridge/chains/ethchain"
	"github.com/ChainSafe/starcoin-bridge/events"
	"github.com/ChainSafe/starcoin-bridge/types"
)

// EthRequestKey identifies a request to sign an action observed at a
// specific position in an EVM transaction's receipt, per spec.md
// §4.3's absolute event_idx rule for EVM.
type EthRequestKey struct {
	TxHash   common.Hash
	EventIdx int
}

// EthActionVerifier resolves an EthRequestKey into the TokenTransfer
// BridgeAction the deposit at that position authorizes, grounded on
// original_source/bridge/src/server/handler.rs's eth action verifier
// and spec.md §4.3's EVM signing-request algorithm.
type EthActionVerifier struct {
	Chain           ethchain.ChainRead
	BridgeAddress   common.Address
}

func NewEthActionVerifier(chain ethchain.ChainRead, bridgeAddress common.Address) *EthActionVerifier {
	return &EthActionVerifier{Chain: chain, BridgeAddress: bridgeAddress}
}

func (v *EthActionVerifier) Verify(key EthRequestKey) (*types.BridgeAction, *types.SignerError) {
	ctx := context.Background()

	receipt, err := v.Chain.GetTransactionReceipt(ctx, key.TxHash)
	if err != nil {
		return nil, &types.SignerError{Kind: types.KindInvalidTxHash, Err: fmt.Errorf("fetching receipt for %s: %w", key.TxHash, err)}
	}

	finalized, err := v.Chain.LatestFinalizedBlock(ctx)
	if err != nil {
		return nil, &types.SignerError{Kind: types.KindTxNotFinalized, Err: fmt.Errorf("fetching finalized block: %w", err)}
	}
	if receipt.BlockNumber > finalized {
		return nil, &types.SignerError{Kind: types.KindTxNotFinalized, Err: fmt.Errorf("tx at block %d exceeds finalized block %d", receipt.BlockNumber, finalized)}
	}

	if key.EventIdx < 0 || key.EventIdx >= len(receipt.Logs) {
		return nil, &types.SignerError{Kind: types.KindNoBridgeEventsInTxPosition, Err: fmt.Errorf("event index %d out of range (%d logs)", key.EventIdx, len(receipt.Logs))}
	}
	l := receipt.Logs[key.EventIdx]

	if l.Address != v.BridgeAddress {
		return nil, &types.SignerError{Kind: types.KindBridgeEventInUnrecognizedPackage, Err: fmt.Errorf("log at index %d is from %s, not the bridge contract", key.EventIdx, l.Address)}
	}

	deposit, ok, err := ethchain.DecodeTokensDeposited(l)
	if err != nil {
		return nil, &types.SignerError{Kind: types.KindNoBridgeEventsInTxPosition, Err: fmt.Errorf("decoding log at index %d: %w", key.EventIdx, err)}
	}
	if !ok {
		return nil, &types.SignerError{Kind: types.KindNoBridgeEventsInTxPosition, Err: fmt.Errorf("log at index %d is not a TokensDeposited event", key.EventIdx)}
	}

	decoded, derr := events.DecodeEVMDeposit(&events.EVMTokensDeposited{
		SourceChainID:   types.ChainID(deposit.SourceChainID),
		Nonce:           deposit.Nonce,
		DestChainID:     types.ChainID(deposit.DestChainID),
		TokenID:         types.TokenID(deposit.TokenID),
		Amount:          deposit.Amount,
		SourceAddress:   deposit.SenderAddress.Bytes(),
		TargetAddrBytes: deposit.TargetAddress,
	})
	if derr != nil {
		return nil, &types.SignerError{Kind: types.KindBridgeEventNotActionable, Err: derr}
	}
	if decoded == nil {
		return nil, &types.SignerError{Kind: types.KindBridgeEventNotActionable, Err: fmt.Errorf("deposit at index %d failed validation", key.EventIdx)}
	}
	return decoded.Action, nil
}
