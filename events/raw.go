// Package events decodes raw on-chain event records into sanitized
// BridgeActions, per spec.md §4.2. Grounded on
// original_source/bridge/src/events.rs for the validation rules and
// on the teacher's chains/evm/listener/eventHandlers mock shape for
// the Go event-record conventions.
package events

import "github.com/ChainSafe/starcoin-bridge/types"

// EVMTokensDeposited mirrors the seven-argument TokensDeposited event
// emitted by the StarcoinBridge contract, per spec.md §4.2/§6.2.
type EVMTokensDeposited struct {
	SourceChainID   types.ChainID
	Nonce           uint64
	DestChainID     types.ChainID
	TokenID         types.TokenID
	Amount          uint64
	SourceAddress   []byte
	TargetAddrBytes []byte

	BlockNumber uint64
	BlockHash   [32]byte
	TxHash      [32]byte
	LogIndex    uint
}

// MoveTokenDeposited mirrors the Move TokenDepositedEvent, per
// spec.md §4.2/§6.2.
type MoveTokenDeposited struct {
	SeqNum          uint64
	SourceChainID   types.ChainID
	SenderAddr      []byte
	TargetChainID   types.ChainID
	TargetAddr      []byte
	TokenType       string
	AmountAdjusted  uint64

	BlockNumber uint64
	EventSeq    uint64
	TxDigest    string
}

// GovernanceEventKind enumerates the Move governance event types, per
// spec.md §6.2.
type GovernanceEventKind string

const (
	GovEventEmergencyOp          GovernanceEventKind = "EmergencyOpEvent"
	GovEventBlocklistValidator   GovernanceEventKind = "BlocklistValidatorEvent"
	GovEventUpdateRouteLimit     GovernanceEventKind = "UpdateRouteLimitEvent"
	GovEventTokenRegistration    GovernanceEventKind = "TokenRegistrationEvent"
	GovEventNewToken             GovernanceEventKind = "NewTokenEvent"
	GovEventUpdateTokenPrice     GovernanceEventKind = "UpdateTokenPriceEvent"
)

// RawGovernanceEvent is a decoded-but-not-yet-validated governance
// event, keyed by kind with kind-specific fields populated.
type RawGovernanceEvent struct {
	Kind    GovernanceEventKind
	ChainID types.ChainID
	Nonce   uint64

	// EmergencyOpEvent
	Pause bool

	// BlocklistValidatorEvent
	BlocklistAdd bool
	Members      [][]byte

	// UpdateRouteLimitEvent
	SendingChain types.ChainID
	USDLimit     uint64

	// TokenRegistrationEvent / NewTokenEvent (Move) or AddTokensOnEvm (EVM)
	TokenIDs    []types.TokenID
	TypeNames   []string
	Addresses   [][]byte
	Prices      []uint64
	Decimals    []uint8

	// UpdateTokenPriceEvent
	TokenID types.TokenID
	Price   uint64

	// EvmContractUpgrade governance, when the source is the config contract
	ProxyAddress []byte
	ImplAddress  []byte
	CallData     []byte

	BlockNumber uint64
}

// DecodedEvent is the stable, serializable shape an orchestrator or a
// hypothetical external indexer consumes downstream of decoding (an
// indexer's Postgres schema is out of scope per spec.md §1, but this
// shape is kept indexer-friendly per SPEC_FULL.md §C.2, grounded on
// original_source/bridge-indexer-alt/src/handlers).
type DecodedEvent struct {
	Action    *types.BridgeAction
	SourceTag string // "evm" or "move", for logging/metrics labels
}
