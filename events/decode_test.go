package events

import (
	"testing"

	"github.com/ChainSafe/starcoin-bridge/types"
	"github.com/stretchr/testify/require"
)

func TestDecodeEVMDepositHappyPath(t *testing.T) {
	target := make([]byte, 16)
	for i := range target {
		target[i] = byte(i)
	}
	decoded, err := DecodeEVMDeposit(&EVMTokensDeposited{
		SourceChainID:   types.ChainIDEthSepolia,
		Nonce:           16,
		DestChainID:     types.ChainIDMoveTestnet,
		TokenID:         3,
		Amount:          10_000_000,
		SourceAddress:   []byte{0xaa},
		TargetAddrBytes: target,
	})
	require.NoError(t, err)
	require.NotNil(t, decoded)
	require.Equal(t, uint64(16), decoded.Action.Nonce)
	require.Equal(t, uint64(10_000_000), decoded.Action.TokenTransfer.Amount)
}

func TestDecodeEVMDepositRejectsZeroAmount(t *testing.T) {
	decoded, err := DecodeEVMDeposit(&EVMTokensDeposited{
		SourceChainID:   types.ChainIDEthSepolia,
		DestChainID:     types.ChainIDMoveTestnet,
		Amount:          0,
		TargetAddrBytes: make([]byte, 16),
	})
	require.NoError(t, err)
	require.Nil(t, decoded, "zero-amount deposits are dropped, not erred")
}

func TestDecodeEVMDepositRejectsWrongTargetLength(t *testing.T) {
	decoded, err := DecodeEVMDeposit(&EVMTokensDeposited{
		SourceChainID:   types.ChainIDEthSepolia,
		DestChainID:     types.ChainIDMoveTestnet,
		Amount:          1,
		TargetAddrBytes: make([]byte, 20),
	})
	require.NoError(t, err)
	require.Nil(t, decoded)
}

func TestDecodeEVMDepositRejectsWrongDestChain(t *testing.T) {
	decoded, err := DecodeEVMDeposit(&EVMTokensDeposited{
		SourceChainID:   types.ChainIDEthSepolia,
		DestChainID:     types.ChainIDEthMainnet,
		Amount:          1,
		TargetAddrBytes: make([]byte, 16),
	})
	require.NoError(t, err)
	require.Nil(t, decoded)
}

func TestDecodeMoveDepositHappyPath(t *testing.T) {
	RegisterTokenType("0x1::usdc::USDC", 3)
	decoded, err := DecodeMoveDeposit(&MoveTokenDeposited{
		SeqNum:         7,
		SourceChainID:  types.ChainIDMoveTestnet,
		TargetChainID:  types.ChainIDEthSepolia,
		SenderAddr:     make([]byte, 16),
		TargetAddr:     make([]byte, 20),
		TokenType:      "0x1::usdc::USDC",
		AmountAdjusted: 500,
	})
	require.NoError(t, err)
	require.NotNil(t, decoded)
	require.Equal(t, types.TokenID(3), decoded.Action.TokenTransfer.TokenID)
}

func TestDecodeGovernanceEmergency(t *testing.T) {
	decoded, err := DecodeGovernanceEvent(&RawGovernanceEvent{
		Kind:    GovEventEmergencyOp,
		ChainID: types.ChainIDEthMainnet,
		Nonce:   1,
		Pause:   true,
	})
	require.NoError(t, err)
	require.Equal(t, types.ActionKindEmergency, decoded.Action.Kind)
	require.Equal(t, types.EmergencyOpPause, decoded.Action.Emergency.Op)
}
