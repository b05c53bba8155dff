package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChainSafe/starcoin-bridge/chains/movechain"
	"github.com/ChainSafe/starcoin-bridge/events"
	"github.com/ChainSafe/starcoin-bridge/internal/testutil"
	"github.com/ChainSafe/starcoin-bridge/types"
)

func TestMoveActionVerifierApprovesTrackedDeposit(t *testing.T) {
	fake := testutil.NewFakeMoveChain()

	dep := events.MoveTokenDeposited{
		SeqNum:         3,
		SourceChainID:  types.ChainIDMoveMainnet,
		SenderAddr:     []byte("sender-addr-bytes"),
		TargetChainID:  types.ChainIDEthMainnet,
		TargetAddr:     make([]byte, 20),
		TokenType:      "0x1::usdc::USDC",
		AmountAdjusted: 250,
	}
	data, err := json.Marshal(dep)
	require.NoError(t, err)

	fake.EventsByDigest["digest1"] = []movechain.EventRecord{
		{StructTag: "0x1::bridge::SomeUnrelatedEvent", Data: []byte(`{}`)},
		{StructTag: "0x1::bridge::TokenDepositedEvent", Data: data},
	}

	v := NewMoveActionVerifier(fake)
	action, serr := v.Verify(MoveRequestKey{TxDigest: "digest1", EventIdx: 0})
	require.Nil(t, serr)
	require.Equal(t, types.ActionKindTokenTransfer, action.Kind)
	require.EqualValues(t, 3, action.Nonce)
}

func TestMoveActionVerifierRejectsOutOfRangeIndex(t *testing.T) {
	fake := testutil.NewFakeMoveChain()
	fake.EventsByDigest["digest2"] = []movechain.EventRecord{
		{StructTag: "0x1::bridge::SomeUnrelatedEvent", Data: []byte(`{}`)},
	}

	v := NewMoveActionVerifier(fake)
	_, serr := v.Verify(MoveRequestKey{TxDigest: "digest2", EventIdx: 0})
	require.NotNil(t, serr)
	require.Equal(t, types.KindNoBridgeEventsInTxPosition, serr.Kind)
}

func TestMoveActionVerifierRejectsUnknownDigest(t *testing.T) {
	fake := testutil.NewFakeMoveChain()

	v := NewMoveActionVerifier(fake)
	_, serr := v.Verify(MoveRequestKey{TxDigest: "missing", EventIdx: 0})
	require.NotNil(t, serr)
	require.Equal(t, types.KindInvalidTxHash, serr.Kind)
}
