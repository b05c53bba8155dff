package server

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/ChainSafe/starcoin-bridge/types"
)

// DecodeGovernanceAction parses the same wire shape
// HandleSignGovernance accepts over POST /sign/governance, for the
// composition root to preload a GovernanceAllowList from
// config.Config.ApprovedGovernanceActions at startup.
func DecodeGovernanceAction(raw []byte) (*types.BridgeAction, error) {
	var j governanceActionJSON
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, fmt.Errorf("decoding governance action: %w", err)
	}
	return j.toAction(), nil
}

func encodeHexList(in [][]byte) []string {
	out := make([]string, len(in))
	for i, b := range in {
		out[i] = hex.EncodeToString(b)
	}
	return out
}

func encodeHexPtr(b []byte) *string {
	if b == nil {
		return nil
	}
	s := hex.EncodeToString(b)
	return &s
}

// governanceActionJSON is the wire shape of a POST /sign/governance
// body: a tagged union mirroring types.BridgeAction, with byte slices
// hex-encoded for JSON transport. Unused fields for a given kind are
// simply omitted by the caller.
type governanceActionJSON struct {
	Kind    types.ActionKind `json:"kind"`
	ChainID types.ChainID    `json:"chain_id"`
	Nonce   uint64           `json:"nonce"`

	// Emergency
	Op *types.EmergencyOp `json:"op,omitempty"`

	// BlocklistUpdate
	BlocklistOp *types.BlocklistOp `json:"blocklist_op,omitempty"`
	Members     []string           `json:"members,omitempty"` // hex

	// LimitUpdate
	SendingChain *types.ChainID `json:"sending_chain,omitempty"`
	USDLimit     *uint64        `json:"usd_limit,omitempty"`

	// AssetPriceUpdate
	TokenID *types.TokenID `json:"token_id,omitempty"`
	Price   *uint64        `json:"price,omitempty"`

	// AddTokensOnMove / AddTokensOnEvm
	TokenIDs  []types.TokenID `json:"token_ids,omitempty"`
	TypeNames []string        `json:"type_names,omitempty"`
	Addresses []string        `json:"addresses,omitempty"` // hex
	Prices    []uint64        `json:"prices,omitempty"`
	Decimals  []uint8         `json:"decimals,omitempty"`

	// EvmContractUpgrade
	ProxyAddress *string `json:"proxy_address,omitempty"` // hex
	ImplAddress  *string `json:"impl_address,omitempty"`  // hex
	CallData     *string `json:"call_data,omitempty"`     // hex
}

func decodeHexList(in []string) [][]byte {
	out := make([][]byte, 0, len(in))
	for _, s := range in {
		b, err := hex.DecodeString(s)
		if err != nil {
			continue
		}
		out = append(out, b)
	}
	return out
}

func decodeHexPtr(s *string) []byte {
	if s == nil {
		return nil
	}
	b, err := hex.DecodeString(*s)
	if err != nil {
		return nil
	}
	return b
}

// toAction converts the wire payload into the BridgeAction it claims
// to be; malformed hex fields decode to empty/nil slices, which will
// simply fail the allow-list's exact-equality check rather than
// panicking.
func (j governanceActionJSON) toAction() *types.BridgeAction {
	switch j.Kind {
	case types.ActionKindEmergency:
		op := types.EmergencyOpPause
		if j.Op != nil {
			op = *j.Op
		}
		return types.NewEmergencyAction(j.ChainID, j.Nonce, op)
	case types.ActionKindBlocklistUpdate:
		op := types.BlocklistOpAdd
		if j.BlocklistOp != nil {
			op = *j.BlocklistOp
		}
		return types.NewBlocklistUpdateAction(j.ChainID, j.Nonce, op, decodeHexList(j.Members))
	case types.ActionKindLimitUpdate:
		var sendingChain types.ChainID
		if j.SendingChain != nil {
			sendingChain = *j.SendingChain
		}
		var limit uint64
		if j.USDLimit != nil {
			limit = *j.USDLimit
		}
		return types.NewLimitUpdateAction(j.ChainID, j.Nonce, sendingChain, limit)
	case types.ActionKindAssetPriceUpdate:
		var tokenID types.TokenID
		if j.TokenID != nil {
			tokenID = *j.TokenID
		}
		var price uint64
		if j.Price != nil {
			price = *j.Price
		}
		return types.NewAssetPriceUpdateAction(j.ChainID, j.Nonce, tokenID, price)
	case types.ActionKindAddTokensOnMove:
		return types.NewAddTokensOnMoveAction(j.ChainID, j.Nonce, types.AddTokensOnMovePayload{
			TokenIDs:  j.TokenIDs,
			TypeNames: j.TypeNames,
			Prices:    j.Prices,
		})
	case types.ActionKindAddTokensOnEvm:
		return types.NewAddTokensOnEvmAction(j.ChainID, j.Nonce, types.AddTokensOnEvmPayload{
			TokenIDs:  j.TokenIDs,
			Addresses: decodeHexList(j.Addresses),
			Prices:    j.Prices,
			Decimals:  j.Decimals,
		})
	case types.ActionKindEvmContractUpgrade:
		return types.NewEvmContractUpgradeAction(j.ChainID, j.Nonce, types.EvmContractUpgradePayload{
			ProxyAddress: decodeHexPtr(j.ProxyAddress),
			ImplAddress:  decodeHexPtr(j.ImplAddress),
			CallData:     decodeHexPtr(j.CallData),
		})
	default:
		// Kind is unrecognized or is TokenTransfer (never a governance
		// action). GovernanceAllowList.Verify rejects TokenTransfer via
		// isGovernanceKind; an unrecognized kind has no matching
		// allow-list entry and is rejected as not approved.
		return &types.BridgeAction{Kind: j.Kind, ChainID: j.ChainID, Nonce: j.Nonce}
	}
}

// governanceActionJSONFrom is the inverse of toAction, used by
// HTTPSignerClient to serialize a candidate governance action into
// the same wire shape HandleSignGovernance decodes.
func governanceActionJSONFrom(a *types.BridgeAction) governanceActionJSON {
	j := governanceActionJSON{Kind: a.Kind, ChainID: a.ChainID, Nonce: a.Nonce}
	switch a.Kind {
	case types.ActionKindEmergency:
		j.Op = &a.Emergency.Op
	case types.ActionKindBlocklistUpdate:
		j.BlocklistOp = &a.BlocklistUpdate.Op
		j.Members = encodeHexList(a.BlocklistUpdate.Members)
	case types.ActionKindLimitUpdate:
		j.SendingChain = &a.LimitUpdate.SendingChain
		j.USDLimit = &a.LimitUpdate.USDLimit
	case types.ActionKindAssetPriceUpdate:
		j.TokenID = &a.AssetPriceUpdate.TokenID
		j.Price = &a.AssetPriceUpdate.Price
	case types.ActionKindAddTokensOnMove:
		j.TokenIDs = a.AddTokensOnMove.TokenIDs
		j.TypeNames = a.AddTokensOnMove.TypeNames
		j.Prices = a.AddTokensOnMove.Prices
	case types.ActionKindAddTokensOnEvm:
		j.TokenIDs = a.AddTokensOnEvm.TokenIDs
		j.Addresses = encodeHexList(a.AddTokensOnEvm.Addresses)
		j.Prices = a.AddTokensOnEvm.Prices
		j.Decimals = a.AddTokensOnEvm.Decimals
	case types.ActionKindEvmContractUpgrade:
		j.ProxyAddress = encodeHexPtr(a.EvmContractUpgrade.ProxyAddress)
		j.ImplAddress = encodeHexPtr(a.EvmContractUpgrade.ImplAddress)
		j.CallData = encodeHexPtr(a.EvmContractUpgrade.CallData)
	}
	return j
}
