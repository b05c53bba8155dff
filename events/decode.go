package events

import (
	"fmt"

	"github.com/ChainSafe/starcoin-bridge/types"
	"github.com/rs/zerolog/log"
)

// DecodeEVMDeposit validates and decodes a TokensDeposited event into
// a TokenTransfer BridgeAction, per spec.md §4.2's EVM rules. Rejected
// events return (nil, nil): they are logged and dropped, and the
// cursor still advances past them (spec.md §4.2, "do not advance any
// further pipeline state but the cursor still advances").
func DecodeEVMDeposit(ev *EVMTokensDeposited) (*DecodedEvent, error) {
	if !ev.SourceChainID.IsEVM() {
		log.Warn().Uint8("sourceChain", uint8(ev.SourceChainID)).Msg("rejecting deposit: source chain is not an EVM chain id")
		return nil, nil
	}
	if !ev.DestChainID.IsMove() {
		log.Warn().Uint8("destChain", uint8(ev.DestChainID)).Msg("rejecting deposit: dest chain is not a Move chain id")
		return nil, nil
	}
	if ev.Amount == 0 {
		log.Warn().Uint64("nonce", ev.Nonce).Msg("rejecting deposit: amount is zero")
		return nil, nil
	}
	if len(ev.TargetAddrBytes) != 16 {
		log.Warn().Int("len", len(ev.TargetAddrBytes)).Msg("rejecting deposit: target address is not a 16-byte Move address")
		return nil, nil
	}

	action := types.NewTokenTransferAction(ev.SourceChainID, ev.Nonce, types.TokenTransferPayload{
		SourceChain:   ev.SourceChainID,
		DestChain:     ev.DestChainID,
		SenderAddress: ev.SourceAddress,
		TargetAddress: ev.TargetAddrBytes,
		TokenID:       ev.TokenID,
		Amount:        ev.Amount,
	})
	return &DecodedEvent{Action: action, SourceTag: "evm"}, nil
}

// DecodeMoveDeposit validates and decodes a TokenDepositedEvent into a
// TokenTransfer BridgeAction, per spec.md §4.2's Move rules.
func DecodeMoveDeposit(ev *MoveTokenDeposited) (*DecodedEvent, error) {
	if !ev.SourceChainID.IsMove() {
		log.Warn().Uint8("sourceChain", uint8(ev.SourceChainID)).Msg("rejecting deposit: source chain is not a Move chain id")
		return nil, nil
	}
	if !ev.TargetChainID.IsEVM() {
		log.Warn().Uint8("destChain", uint8(ev.TargetChainID)).Msg("rejecting deposit: dest chain is not an EVM chain id")
		return nil, nil
	}
	if ev.AmountAdjusted == 0 {
		log.Warn().Uint64("seqNum", ev.SeqNum).Msg("rejecting deposit: amount_adjusted is zero")
		return nil, nil
	}
	if len(ev.TargetAddr) != 20 {
		log.Warn().Int("len", len(ev.TargetAddr)).Msg("rejecting deposit: target address is not a 20-byte EVM address")
		return nil, nil
	}

	action := types.NewTokenTransferAction(ev.SourceChainID, ev.SeqNum, types.TokenTransferPayload{
		SourceChain:   ev.SourceChainID,
		DestChain:     ev.TargetChainID,
		SenderAddress: ev.SenderAddr,
		TargetAddress: ev.TargetAddr,
		TokenID:       tokenIDForType(ev.TokenType),
		Amount:        ev.AmountAdjusted,
	})
	return &DecodedEvent{Action: action, SourceTag: "move"}, nil
}

// tokenIDForType resolves a Move struct tag (e.g. "0x1::usdc::USDC")
// to its registered numeric TokenID. The map is filled only through
// RegisterTokenType; no code in this module loads it from the chain,
// and a type that was never registered resolves to TokenID 0.
var tokenTypeRegistry = map[string]types.TokenID{}

// RegisterTokenType installs a struct-tag -> TokenID mapping. The
// composition root does not call it; within this module only the
// events package's own tests do.
func RegisterTokenType(typeName string, id types.TokenID) {
	tokenTypeRegistry[typeName] = id
}

func tokenIDForType(typeName string) types.TokenID {
	if id, ok := tokenTypeRegistry[typeName]; ok {
		return id
	}
	return 0
}

// DecodeGovernanceEvent decodes a raw governance event into its
// corresponding BridgeAction variant, per spec.md §4.2 ("Governance
// events produce their corresponding governance action variants").
func DecodeGovernanceEvent(ev *RawGovernanceEvent) (*DecodedEvent, error) {
	var action *types.BridgeAction
	switch ev.Kind {
	case GovEventEmergencyOp:
		op := types.EmergencyOpUnpause
		if ev.Pause {
			op = types.EmergencyOpPause
		}
		action = types.NewEmergencyAction(ev.ChainID, ev.Nonce, op)
	case GovEventBlocklistValidator:
		op := types.BlocklistOpRemove
		if ev.BlocklistAdd {
			op = types.BlocklistOpAdd
		}
		action = types.NewBlocklistUpdateAction(ev.ChainID, ev.Nonce, op, ev.Members)
	case GovEventUpdateRouteLimit:
		action = types.NewLimitUpdateAction(ev.ChainID, ev.Nonce, ev.SendingChain, ev.USDLimit)
	case GovEventUpdateTokenPrice:
		action = types.NewAssetPriceUpdateAction(ev.ChainID, ev.Nonce, ev.TokenID, ev.Price)
	case GovEventTokenRegistration, GovEventNewToken:
		if ev.ChainID.IsMove() {
			action = types.NewAddTokensOnMoveAction(ev.ChainID, ev.Nonce, types.AddTokensOnMovePayload{
				TokenIDs:  ev.TokenIDs,
				TypeNames: ev.TypeNames,
				Prices:    ev.Prices,
			})
		} else {
			action = types.NewAddTokensOnEvmAction(ev.ChainID, ev.Nonce, types.AddTokensOnEvmPayload{
				TokenIDs:  ev.TokenIDs,
				Addresses: ev.Addresses,
				Prices:    ev.Prices,
				Decimals:  ev.Decimals,
			})
		}
	default:
		return nil, fmt.Errorf("%w: unrecognized governance event kind %q", types.ErrNotActionable, ev.Kind)
	}
	return &DecodedEvent{Action: action, SourceTag: sourceTagFor(ev.ChainID)}, nil
}

func sourceTagFor(chainID types.ChainID) string {
	if chainID.IsMove() {
		return "move"
	}
	return "evm"
}
