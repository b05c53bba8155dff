package ethchain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestDecodeTokensDepositedRoundTrip(t *testing.T) {
	sender := common.HexToAddress("0x00000000000000000000000000000000001234")
	target := []byte("0123456789abcdef") // 16-byte Move address

	data, err := bridgeABIInstance.Events["TokensDeposited"].Inputs.NonIndexed().Pack(
		uint8(1), uint64(42), uint8(2), uint8(7), uint64(1_000_000), target,
	)
	require.NoError(t, err)

	var senderTopic [32]byte
	copy(senderTopic[12:], sender.Bytes())

	l := Log{
		Topics: [][32]byte{tokensDepositedTopic, senderTopic},
		Data:   data,
	}

	decoded, ok, err := DecodeTokensDeposited(l)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint8(1), decoded.SourceChainID)
	require.Equal(t, uint64(42), decoded.Nonce)
	require.Equal(t, uint8(2), decoded.DestChainID)
	require.Equal(t, uint8(7), decoded.TokenID)
	require.Equal(t, uint64(1_000_000), decoded.Amount)
	require.Equal(t, sender, decoded.SenderAddress)
	require.Equal(t, target, decoded.TargetAddress)
}

func TestDecodeTokensDepositedIgnoresOtherEvents(t *testing.T) {
	l := Log{Topics: [][32]byte{{0xde, 0xad}}, Data: []byte{}}
	decoded, ok, err := DecodeTokensDeposited(l)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, decoded)
}
