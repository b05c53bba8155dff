package server

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/ChainSafe/starcoin-bridge/chains/ethchain"
	"github.com/ChainSafe/starcoin-bridge/internal/testutil"
	"github.com/ChainSafe/starcoin-bridge/types"
)

const tokensDepositedABI = `[{"type":"event","name":"TokensDeposited","anonymous":false,"inputs":[
	{"name":"sourceChainID","type":"uint8","indexed":false},
	{"name":"nonce","type":"uint64","indexed":false},
	{"name":"destChainID","type":"uint8","indexed":false},
	{"name":"tokenID","type":"uint8","indexed":false},
	{"name":"amount","type":"uint64","indexed":false},
	{"name":"senderAddress","type":"address","indexed":true},
	{"name":"targetAddress","type":"bytes","indexed":false}
]}]`

func buildDepositLog(t *testing.T, bridgeAddr, sender common.Address) ethchain.Log {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(tokensDepositedABI))
	require.NoError(t, err)
	ev := parsed.Events["TokensDeposited"]

	data, err := ev.Inputs.NonIndexed().Pack(
		uint8(1), uint64(9), uint8(2), uint8(3), uint64(500_000), []byte("0123456789abcdef"),
	)
	require.NoError(t, err)

	var senderTopic [32]byte
	copy(senderTopic[12:], sender.Bytes())

	return ethchain.Log{
		Address:     bridgeAddr,
		Topics:      [][32]byte{ev.ID, senderTopic},
		Data:        data,
		BlockNumber: 100,
	}
}

func TestEthActionVerifierApprovesFinalizedDeposit(t *testing.T) {
	bridgeAddr := common.HexToAddress("0xBBBB000000000000000000000000000000bbbb")
	sender := common.HexToAddress("0x00000000000000000000000000000000001234")
	txHash := crypto.Keccak256Hash([]byte("tx1"))

	chain := testutil.NewFakeEthChain()
	chain.FinalizedBlock = 200
	chain.Receipts[txHash] = &ethchain.Receipt{
		BlockNumber: 100,
		Logs:        []ethchain.Log{buildDepositLog(t, bridgeAddr, sender)},
	}

	v := NewEthActionVerifier(chain, bridgeAddr)
	action, serr := v.Verify(EthRequestKey{TxHash: txHash, EventIdx: 0})
	require.Nil(t, serr)
	require.NotNil(t, action)
	require.Equal(t, types.ActionKindTokenTransfer, action.Kind)
	require.EqualValues(t, 9, action.Nonce)
}

func TestEthActionVerifierRejectsUnfinalized(t *testing.T) {
	bridgeAddr := common.HexToAddress("0xBBBB000000000000000000000000000000bbbb")
	sender := common.HexToAddress("0x00000000000000000000000000000000001234")
	txHash := crypto.Keccak256Hash([]byte("tx2"))

	chain := testutil.NewFakeEthChain()
	chain.FinalizedBlock = 50
	chain.Receipts[txHash] = &ethchain.Receipt{
		BlockNumber: 100,
		Logs:        []ethchain.Log{buildDepositLog(t, bridgeAddr, sender)},
	}

	v := NewEthActionVerifier(chain, bridgeAddr)
	_, serr := v.Verify(EthRequestKey{TxHash: txHash, EventIdx: 0})
	require.NotNil(t, serr)
	require.Equal(t, types.KindTxNotFinalized, serr.Kind)
	require.False(t, serr.Cacheable())
}

func TestEthActionVerifierRejectsWrongContract(t *testing.T) {
	bridgeAddr := common.HexToAddress("0xBBBB000000000000000000000000000000bbbb")
	otherAddr := common.HexToAddress("0xCCCC000000000000000000000000000000cccc")
	sender := common.HexToAddress("0x00000000000000000000000000000000001234")
	txHash := crypto.Keccak256Hash([]byte("tx3"))

	chain := testutil.NewFakeEthChain()
	chain.FinalizedBlock = 200
	chain.Receipts[txHash] = &ethchain.Receipt{
		BlockNumber: 100,
		Logs:        []ethchain.Log{buildDepositLog(t, otherAddr, sender)},
	}

	v := NewEthActionVerifier(chain, bridgeAddr)
	_, serr := v.Verify(EthRequestKey{TxHash: txHash, EventIdx: 0})
	require.NotNil(t, serr)
	require.Equal(t, types.KindBridgeEventInUnrecognizedPackage, serr.Kind)
	require.True(t, serr.Cacheable())
}

func TestEthActionVerifierRejectsOutOfRangeIndex(t *testing.T) {
	bridgeAddr := common.HexToAddress("0xBBBB000000000000000000000000000000bbbb")
	txHash := crypto.Keccak256Hash([]byte("tx4"))

	chain := testutil.NewFakeEthChain()
	chain.FinalizedBlock = 200
	chain.Receipts[txHash] = &ethchain.Receipt{BlockNumber: 100, Logs: nil}

	v := NewEthActionVerifier(chain, bridgeAddr)
	_, serr := v.Verify(EthRequestKey{TxHash: txHash, EventIdx: 0})
	require.NotNil(t, serr)
	require.Equal(t, types.KindNoBridgeEventsInTxPosition, serr.Kind)
}
