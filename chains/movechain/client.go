// Package movechain wraps the Move (Starcoin) RPC transport. It
// mirrors the split in original_source/bridge/src/simple_starcoin_rpc.rs
// and starcoin_rpc_proxy_client.rs: a thin SimpleClient for read-only
// status/view-function calls (used by the watchdog) and a full Client
// that adds transaction submission (used by the executor), per
// SPEC_FULL.md §C.4.
package movechain

import (
	"context"

	"github.com/ChainSafe/starcoin-bridge/types"
)

// EventRecord is one decoded Move event, identified by its module
// struct tag, used by the syncer's module-name matching (spec.md
// §4.1, case-insensitive module comparison).
type EventRecord struct {
	StructTag   string
	BlockNumber uint64
	EventSeq    uint64
	TxDigest    string
	Data        []byte
}

// TransferStatus mirrors query_token_transfer_status's u8 result, per
// spec.md §6.2.
type TransferStatus uint8

const (
	TransferStatusNotFound TransferStatus = iota
	TransferStatusPending
	TransferStatusApproved
	TransferStatusClaimed
)

// SimpleClient is the read-only capability set used by the watchdog
// and by components that only need chain status, never submission.
type SimpleClient interface {
	// GetEvents returns events for modules matching filter in the
	// inclusive block range [from, to], per spec.md §4.1's Move
	// syncer algorithm (capped at a 32-block window by the caller).
	GetEvents(ctx context.Context, moduleFilter []string, from, to uint64, limit int) ([]EventRecord, error)

	// LatestBlock returns the current block height.
	LatestBlock(ctx context.Context) (uint64, error)

	// QueryTransferStatus simulates query_token_transfer_status.
	QueryTransferStatus(ctx context.Context, sourceChain types.ChainID, seqNum uint64) (TransferStatus, error)

	// QueryTransferSignatures simulates query_token_transfer_signatures.
	QueryTransferSignatures(ctx context.Context, sourceChain types.ChainID, seqNum uint64) ([][]byte, bool, error)

	// IsPaused reports the Move bridge module's pause flag, used by the
	// watchdog (spec.md §4.7).
	IsPaused(ctx context.Context) (bool, error)

	// TokenTotalSupply reports a registered token's total supply.
	TokenTotalSupply(ctx context.Context, tokenID types.TokenID) (uint64, error)
}

// Client extends SimpleClient with transaction construction/
// submission, per spec.md §4.5's Move submission algorithm.
type Client interface {
	SimpleClient

	// GetEventsByDigest fetches the events emitted by a specific
	// transaction, for the signer's bridge-event-relative lookup
	// (spec.md §4.3).
	GetEventsByDigest(ctx context.Context, txDigest string) ([]EventRecord, error)

	// SubmitCertifiedAction calls the bridge module's
	// execute_system_message / transfer entry function with the
	// already BCS-encoded action payload and its signatures (ordered by
	// signer public key, per types.CertifiedAction.SignatureBytes),
	// signs the transaction with the client's Move key, and submits,
	// returning the resulting sequence number to poll on.
	SubmitCertifiedAction(ctx context.Context, action *types.BridgeAction, actionPayload []byte, sigBytes [][]byte) (uint64, error)

	// WaitForSequenceNumber polls for the submitting account's sequence
	// number to advance past submittedSeq, per spec.md §4.5 (30s poll,
	// 500ms interval).
	WaitForSequenceNumber(ctx context.Context, submittedSeq uint64) error
}
