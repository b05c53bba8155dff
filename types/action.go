package types

import "fmt"

// ActionKind is the discriminant byte for a BridgeAction variant, with
// a fixed assignment shared with the destination contracts/modules so
// BCS encoding round-trips identically on both sides (spec.md §6.3).
type ActionKind uint8

const (
	ActionKindTokenTransfer     ActionKind = 0
	ActionKindEmergency         ActionKind = 1
	ActionKindBlocklistUpdate   ActionKind = 2
	ActionKindLimitUpdate       ActionKind = 3
	ActionKindAssetPriceUpdate  ActionKind = 4
	ActionKindAddTokensOnMove   ActionKind = 5
	ActionKindAddTokensOnEvm    ActionKind = 6
	ActionKindEvmContractUpgrade ActionKind = 7
)

func (k ActionKind) String() string {
	switch k {
	case ActionKindTokenTransfer:
		return "TokenTransfer"
	case ActionKindEmergency:
		return "Emergency"
	case ActionKindBlocklistUpdate:
		return "BlocklistUpdate"
	case ActionKindLimitUpdate:
		return "LimitUpdate"
	case ActionKindAssetPriceUpdate:
		return "AssetPriceUpdate"
	case ActionKindAddTokensOnMove:
		return "AddTokensOnMove"
	case ActionKindAddTokensOnEvm:
		return "AddTokensOnEvm"
	case ActionKindEvmContractUpgrade:
		return "EvmContractUpgrade"
	default:
		return fmt.Sprintf("ActionKind(%d)", uint8(k))
	}
}

// EmergencyOp distinguishes a pause from an unpause governance action.
type EmergencyOp uint8

const (
	EmergencyOpPause   EmergencyOp = 0
	EmergencyOpUnpause EmergencyOp = 1
)

// BlocklistOp distinguishes adding from removing committee members on
// the blocklist governance action.
type BlocklistOp uint8

const (
	BlocklistOpAdd    BlocklistOp = 0
	BlocklistOpRemove BlocklistOp = 1
)

// TokenTransferPayload carries the EVM<->Move transfer details of a
// TokenTransfer action, per spec.md §4.2 and §6.3's TransferMessage
// payload layout.
type TokenTransferPayload struct {
	SourceChain    ChainID
	DestChain      ChainID
	SenderAddress  []byte // source-chain-native sender bytes
	TargetAddress  []byte // dest-chain-native recipient bytes (16 bytes Move, 20 bytes EVM)
	TokenID        TokenID
	Amount         uint64 // little-endian u64 in Encode's BCS output; no big-endian encoding of it exists in this package
}

// EmergencyPayload carries an Emergency{pause,unpause} action.
type EmergencyPayload struct {
	Op EmergencyOp
}

// BlocklistUpdatePayload carries a BlocklistUpdate action.
type BlocklistUpdatePayload struct {
	Op      BlocklistOp
	Members [][]byte // 33-byte compressed secp256k1 pubkeys
}

// LimitUpdatePayload carries a LimitUpdate action.
type LimitUpdatePayload struct {
	SendingChain ChainID
	USDLimit     uint64
}

// AssetPriceUpdatePayload carries an AssetPriceUpdate action.
type AssetPriceUpdatePayload struct {
	TokenID TokenID
	Price   uint64
}

// AddTokensOnMovePayload carries an AddTokensOnMove governance action.
type AddTokensOnMovePayload struct {
	TokenIDs   []TokenID
	TypeNames  []string
	Prices     []uint64
}

// AddTokensOnEvmPayload carries an AddTokensOnEvm governance action.
type AddTokensOnEvmPayload struct {
	TokenIDs  []TokenID
	Addresses [][]byte // 20-byte EVM addresses
	Prices    []uint64
	Decimals  []uint8
}

// EvmContractUpgradePayload carries an EvmContractUpgrade governance
// action.
type EvmContractUpgradePayload struct {
	ProxyAddress    []byte
	ImplAddress     []byte
	CallData        []byte
}

// BridgeAction is the tagged union of every action the committee can
// observe and co-sign, per spec.md §3. Exactly one payload field is
// populated, selected by Kind; ChainID and Nonce are carried by every
// variant and together with Kind form the action's Fingerprint.
type BridgeAction struct {
	Kind    ActionKind
	ChainID ChainID
	Nonce   uint64

	TokenTransfer     *TokenTransferPayload
	Emergency         *EmergencyPayload
	BlocklistUpdate   *BlocklistUpdatePayload
	LimitUpdate       *LimitUpdatePayload
	AssetPriceUpdate  *AssetPriceUpdatePayload
	AddTokensOnMove   *AddTokensOnMovePayload
	AddTokensOnEvm    *AddTokensOnEvmPayload
	EvmContractUpgrade *EvmContractUpgradePayload
}

// NewTokenTransferAction constructs a TokenTransfer BridgeAction,
// grounded on original_source/bridge-cli/src/lib.rs's action builders
// (spec.md §6.5 CLI BCS round-trip contract).
func NewTokenTransferAction(chainID ChainID, nonce uint64, p TokenTransferPayload) *BridgeAction {
	return &BridgeAction{Kind: ActionKindTokenTransfer, ChainID: chainID, Nonce: nonce, TokenTransfer: &p}
}

// NewEmergencyAction constructs an Emergency pause/unpause action.
func NewEmergencyAction(chainID ChainID, nonce uint64, op EmergencyOp) *BridgeAction {
	return &BridgeAction{Kind: ActionKindEmergency, ChainID: chainID, Nonce: nonce, Emergency: &EmergencyPayload{Op: op}}
}

// NewBlocklistUpdateAction constructs a BlocklistUpdate action.
func NewBlocklistUpdateAction(chainID ChainID, nonce uint64, op BlocklistOp, members [][]byte) *BridgeAction {
	return &BridgeAction{Kind: ActionKindBlocklistUpdate, ChainID: chainID, Nonce: nonce, BlocklistUpdate: &BlocklistUpdatePayload{Op: op, Members: members}}
}

// NewLimitUpdateAction constructs a LimitUpdate action.
func NewLimitUpdateAction(chainID ChainID, nonce uint64, sendingChain ChainID, usdLimit uint64) *BridgeAction {
	return &BridgeAction{Kind: ActionKindLimitUpdate, ChainID: chainID, Nonce: nonce, LimitUpdate: &LimitUpdatePayload{SendingChain: sendingChain, USDLimit: usdLimit}}
}

// NewAssetPriceUpdateAction constructs an AssetPriceUpdate action.
func NewAssetPriceUpdateAction(chainID ChainID, nonce uint64, tokenID TokenID, price uint64) *BridgeAction {
	return &BridgeAction{Kind: ActionKindAssetPriceUpdate, ChainID: chainID, Nonce: nonce, AssetPriceUpdate: &AssetPriceUpdatePayload{TokenID: tokenID, Price: price}}
}

// NewAddTokensOnMoveAction constructs an AddTokensOnMove action.
func NewAddTokensOnMoveAction(chainID ChainID, nonce uint64, p AddTokensOnMovePayload) *BridgeAction {
	return &BridgeAction{Kind: ActionKindAddTokensOnMove, ChainID: chainID, Nonce: nonce, AddTokensOnMove: &p}
}

// NewAddTokensOnEvmAction constructs an AddTokensOnEvm action.
func NewAddTokensOnEvmAction(chainID ChainID, nonce uint64, p AddTokensOnEvmPayload) *BridgeAction {
	return &BridgeAction{Kind: ActionKindAddTokensOnEvm, ChainID: chainID, Nonce: nonce, AddTokensOnEvm: &p}
}

// NewEvmContractUpgradeAction constructs an EvmContractUpgrade action.
func NewEvmContractUpgradeAction(chainID ChainID, nonce uint64, p EvmContractUpgradePayload) *BridgeAction {
	return &BridgeAction{Kind: ActionKindEvmContractUpgrade, ChainID: chainID, Nonce: nonce, EvmContractUpgrade: &p}
}

// Fingerprint returns the action's canonical dedup key, per spec.md
// §3 (P3).
func (a *BridgeAction) Fingerprint() Fingerprint {
	return Fingerprint{Kind: a.Kind, ChainID: a.ChainID, Nonce: a.Nonce}
}

// Equal reports structural equality, used by the governance allow-list
// verifier (spec.md §4.3.1) which approves actions by exact equality.
func (a *BridgeAction) Equal(other *BridgeAction) bool {
	if a == nil || other == nil {
		return a == other
	}
	ab, err := Encode(a)
	if err != nil {
		return false
	}
	bb, err := Encode(other)
	if err != nil {
		return false
	}
	if len(ab) != len(bb) {
		return false
	}
	for i := range ab {
		if ab[i] != bb[i] {
			return false
		}
	}
	return true
}
