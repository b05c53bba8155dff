// Package ethchain wraps the EVM RPC transport the committee observes
// deposits on and submits certified transfers to. Grounded on the
// teacher's app.go composition (evmclient.NewEVMClient,
// bridge.NewBridgeContract) and go-ethereum's ethclient/accounts/abi.
package ethchain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Log is the subset of an EVM event log the syncer and signer need.
type Log struct {
	Address     common.Address
	Topics      [][32]byte
	Data        []byte
	BlockNumber uint64
	BlockHash   common.Hash
	TxHash      common.Hash
	Index       uint
}

// Receipt is the subset of a transaction receipt the signer verifies
// against, per spec.md §4.3 ("fetch the transaction receipt, confirm
// the block is <= last finalized block").
type Receipt struct {
	BlockNumber uint64
	BlockHash   common.Hash
	Status      uint64
	Logs        []Log
}

// ChainRead is the read-only capability set an authority needs against
// the EVM side, per spec.md §9's capability-set design note: no
// runtime plugin loading, a fixed interface chosen at composition
// time, with a production (HTTP/WS RPC) and an in-memory test
// implementation (internal/testutil).
type ChainRead interface {
	// LatestFinalizedBlock returns the chain's current finalized block
	// number, per spec.md §4.1's EVM syncer algorithm.
	LatestFinalizedBlock(ctx context.Context) (uint64, error)

	// GetLogs returns logs from the given contract addresses in the
	// inclusive block range [from, to].
	GetLogs(ctx context.Context, addrs []common.Address, from, to uint64) ([]Log, error)

	// GetTransactionReceipt fetches a transaction's receipt.
	GetTransactionReceipt(ctx context.Context, txHash common.Hash) (*Receipt, error)

	// Nonce returns the destination contract's current nonce for the
	// given action type, used by the executor to detect already-landed
	// actions before submitting (spec.md §4.5).
	Nonce(ctx context.Context, actionType uint8) (uint64, error)

	// IsPaused reports the bridge contract's pause flag, used by the
	// watchdog (spec.md §4.7).
	IsPaused(ctx context.Context) (bool, error)

	// VaultBalance reports the vault's balance of a token, used by the
	// watchdog (spec.md §4.7).
	VaultBalance(ctx context.Context, tokenID uint8) (*big.Int, error)

	// TokenTotalSupply reports an ERC20 token's total supply, used by
	// the watchdog (spec.md §4.7).
	TokenTotalSupply(ctx context.Context, tokenAddress common.Address) (*big.Int, error)
}

// ChainSubmit is the write capability set: building and sending a
// transaction that carries a certified action to the destination
// contract, per spec.md §4.5's EVM submission algorithm.
type ChainSubmit interface {
	// SubmitCertifiedAction builds the appropriate contract call for
	// actionType, attaches signatures in committee order, signs with
	// the configured EVM signer, and submits it, returning the
	// resulting transaction hash.
	SubmitCertifiedAction(ctx context.Context, actionType uint8, messageBytes []byte, signatures [][]byte) (common.Hash, error)

	// WaitMined polls for the transaction's inclusion, returning its
	// receipt once mined or an error once the context is done.
	WaitMined(ctx context.Context, txHash common.Hash) (*Receipt, error)
}

// Client implements ChainRead and ChainSubmit against a live EVM RPC
// endpoint. Its concrete RPC plumbing (the ethclient.Client handle and
// the bridge contract ABI bindings) is the external collaborator
// spec.md §1 scopes out; this type exists to give the rest of the
// system a single, narrow surface to depend on.
type Client struct {
	rpc             EthRPC
	bridgeAddress   common.Address
	finalizedTag    string
}

// EthRPC is the minimal go-ethereum RPC surface Client depends on,
// narrowed from *ethclient.Client so it can be faked in tests.
type EthRPC interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	FilterLogs(ctx context.Context, q FilterQuery) ([]types.Log, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg CallMsg, blockNumber *big.Int) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// FilterQuery and CallMsg mirror the go-ethereum ethereum package
// shapes without importing the full package surface, keeping EthRPC
// easy to fake.
type FilterQuery struct {
	FromBlock *big.Int
	ToBlock   *big.Int
	Addresses []common.Address
}

type CallMsg struct {
	To   *common.Address
	Data []byte
}

// NewClient constructs a Client around an already-dialed RPC handle.
func NewClient(rpc EthRPC, bridgeAddress common.Address) *Client {
	return &Client{rpc: rpc, bridgeAddress: bridgeAddress, finalizedTag: "finalized"}
}
