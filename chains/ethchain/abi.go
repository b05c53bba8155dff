package ethchain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal ABI fragments for the StarcoinBridge contract family, per
// spec.md §6.2. Grounded on the teacher's
// chains/evm/calls/contracts/bridge/bridge.go pattern of parsing a
// packaged ABI JSON string with abi.JSON(strings.NewReader(...)).
const bridgeABIJSON = `[
	{"type":"function","name":"nonces","inputs":[{"name":"actionType","type":"uint8"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"paused","inputs":[],"outputs":[{"name":"","type":"bool"}],"stateMutability":"view"},
	{"type":"function","name":"vaultBalance","inputs":[{"name":"tokenId","type":"uint8"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"transferBridgedTokensWithSignatures","inputs":[{"name":"signatures","type":"bytes[]"},{"name":"message","type":"bytes"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"adminPauseTransfers","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"adminUnpauseTransfers","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"event","name":"TokensDeposited","anonymous":false,"inputs":[
		{"name":"sourceChainID","type":"uint8","indexed":false},
		{"name":"nonce","type":"uint64","indexed":false},
		{"name":"destChainID","type":"uint8","indexed":false},
		{"name":"tokenID","type":"uint8","indexed":false},
		{"name":"amount","type":"uint64","indexed":false},
		{"name":"senderAddress","type":"address","indexed":true},
		{"name":"targetAddress","type":"bytes","indexed":false}
	]}
]`

const erc20ABIJSON = `[
	{"type":"function","name":"totalSupply","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"}
]`

func init() {
	var err error
	bridgeABIInstance, err = abi.JSON(strings.NewReader(bridgeABIJSON))
	if err != nil {
		panic("ethchain: invalid embedded bridge ABI: " + err.Error())
	}
	tokensDepositedTopic = bridgeABIInstance.Events["TokensDeposited"].ID
	erc20ABIInstance, err = abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic("ethchain: invalid embedded erc20 ABI: " + err.Error())
	}
}
