package ethchain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// TokensDepositedLog is the unpacked shape of the contract's
// TokensDeposited event, before the position/block metadata the
// syncer attaches is known to this package.
type TokensDepositedLog struct {
	SourceChainID uint8
	Nonce         uint64
	DestChainID   uint8
	TokenID       uint8
	Amount        uint64
	SenderAddress common.Address
	TargetAddress []byte
}

// tokensDepositedTopic is the event signature hash. Since
// senderAddress is the only indexed field, Topics[0] is always the
// event signature hash and Topics[1] (if present) is the indexed
// sender. It is set by abi.go's init once the bridge ABI is parsed.
var tokensDepositedTopic common.Hash

// DecodeTokensDeposited unpacks a TokensDeposited log emitted by the
// bridge contract, per spec.md §6.2. It returns (nil, false, nil) for
// logs that are not this event, so callers can filter a mixed batch
// without treating mismatches as errors.
func DecodeTokensDeposited(l Log) (*TokensDepositedLog, bool, error) {
	if len(l.Topics) == 0 || l.Topics[0] != tokensDepositedTopic {
		return nil, false, nil
	}

	values, err := bridgeABIInstance.Events["TokensDeposited"].Inputs.NonIndexed().Unpack(l.Data)
	if err != nil {
		return nil, false, fmt.Errorf("unpacking TokensDeposited data: %w", err)
	}

	out := &TokensDepositedLog{
		SourceChainID: values[0].(uint8),
		Nonce:         values[1].(uint64),
		DestChainID:   values[2].(uint8),
		TokenID:       values[3].(uint8),
		Amount:        values[4].(uint64),
		TargetAddress: values[5].([]byte),
	}
	if len(l.Topics) > 1 {
		out.SenderAddress = common.BytesToAddress(l.Topics[1][:])
	}
	return out, true, nil
}
