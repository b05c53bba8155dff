package types

import (
	"encoding/binary"
	"fmt"
)

// This file implements a small BCS-compatible (Binary Canonical
// Serialization) encoder/decoder for BridgeAction: ULEB128-prefixed
// byte vectors, fixed-width little-endian integers, single-byte
// enums. No BCS library exists anywhere in the example pack or in
// go-ethereum's dependency tree, so this is written by hand in the
// same spirit as the teacher's own hand-rolled calldata encoders
// (chains/evm/calls/contracts/deposit's ConstructErc20DepositData and
// friends) — see DESIGN.md for the standard-library justification.

type bcsWriter struct {
	buf []byte
}

func (w *bcsWriter) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *bcsWriter) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *bcsWriter) uleb128(v uint64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.buf = append(w.buf, b)
		if v == 0 {
			return
		}
	}
}

func (w *bcsWriter) bytes(b []byte) {
	w.uleb128(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *bcsWriter) str(s string) { w.bytes([]byte(s)) }

type bcsReader struct {
	buf []byte
	pos int
}

func (r *bcsReader) u8() (uint8, error) {
	if r.pos >= len(r.buf) {
		return 0, fmt.Errorf("bcs: unexpected end of input reading u8")
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *bcsReader) u64() (uint64, error) {
	if r.pos+8 > len(r.buf) {
		return 0, fmt.Errorf("bcs: unexpected end of input reading u64")
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

func (r *bcsReader) uleb128() (uint64, error) {
	var result uint64
	var shift uint
	for {
		if r.pos >= len(r.buf) {
			return 0, fmt.Errorf("bcs: unexpected end of input reading uleb128")
		}
		b := r.buf[r.pos]
		r.pos++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

func (r *bcsReader) bytes() ([]byte, error) {
	n, err := r.uleb128()
	if err != nil {
		return nil, err
	}
	if r.pos+int(n) > len(r.buf) {
		return nil, fmt.Errorf("bcs: unexpected end of input reading %d bytes", n)
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return out, nil
}

func (r *bcsReader) str() (string, error) {
	b, err := r.bytes()
	return string(b), err
}

func (r *bcsReader) done() bool { return r.pos == len(r.buf) }

// Encode BCS-encodes a BridgeAction per the fixed per-variant layout
// referenced in spec.md §6.3: the destination contracts must use the
// identical encoding.
func Encode(a *BridgeAction) ([]byte, error) {
	w := &bcsWriter{}
	w.u8(uint8(a.Kind))
	w.u8(uint8(a.ChainID))
	w.u64(a.Nonce)

	switch a.Kind {
	case ActionKindTokenTransfer:
		p := a.TokenTransfer
		if p == nil {
			return nil, fmt.Errorf("bcs: TokenTransfer action missing payload")
		}
		w.u8(uint8(p.SourceChain))
		w.u8(uint8(p.DestChain))
		w.bytes(p.SenderAddress)
		w.bytes(p.TargetAddress)
		w.u8(uint8(p.TokenID))
		w.u64(p.Amount)
	case ActionKindEmergency:
		p := a.Emergency
		if p == nil {
			return nil, fmt.Errorf("bcs: Emergency action missing payload")
		}
		w.u8(uint8(p.Op))
	case ActionKindBlocklistUpdate:
		p := a.BlocklistUpdate
		if p == nil {
			return nil, fmt.Errorf("bcs: BlocklistUpdate action missing payload")
		}
		w.u8(uint8(p.Op))
		w.uleb128(uint64(len(p.Members)))
		for _, m := range p.Members {
			w.bytes(m)
		}
	case ActionKindLimitUpdate:
		p := a.LimitUpdate
		if p == nil {
			return nil, fmt.Errorf("bcs: LimitUpdate action missing payload")
		}
		w.u8(uint8(p.SendingChain))
		w.u64(p.USDLimit)
	case ActionKindAssetPriceUpdate:
		p := a.AssetPriceUpdate
		if p == nil {
			return nil, fmt.Errorf("bcs: AssetPriceUpdate action missing payload")
		}
		w.u8(uint8(p.TokenID))
		w.u64(p.Price)
	case ActionKindAddTokensOnMove:
		p := a.AddTokensOnMove
		if p == nil {
			return nil, fmt.Errorf("bcs: AddTokensOnMove action missing payload")
		}
		if len(p.TokenIDs) != len(p.TypeNames) || len(p.TokenIDs) != len(p.Prices) {
			return nil, fmt.Errorf("bcs: AddTokensOnMove arrays must be equal length")
		}
		w.uleb128(uint64(len(p.TokenIDs)))
		for _, id := range p.TokenIDs {
			w.u8(uint8(id))
		}
		w.uleb128(uint64(len(p.TypeNames)))
		for _, t := range p.TypeNames {
			w.str(t)
		}
		w.uleb128(uint64(len(p.Prices)))
		for _, pr := range p.Prices {
			w.u64(pr)
		}
	case ActionKindAddTokensOnEvm:
		p := a.AddTokensOnEvm
		if p == nil {
			return nil, fmt.Errorf("bcs: AddTokensOnEvm action missing payload")
		}
		if len(p.TokenIDs) != len(p.Addresses) || len(p.TokenIDs) != len(p.Prices) || len(p.TokenIDs) != len(p.Decimals) {
			return nil, fmt.Errorf("bcs: AddTokensOnEvm arrays must be equal length")
		}
		w.uleb128(uint64(len(p.TokenIDs)))
		for _, id := range p.TokenIDs {
			w.u8(uint8(id))
		}
		w.uleb128(uint64(len(p.Addresses)))
		for _, addr := range p.Addresses {
			w.bytes(addr)
		}
		w.uleb128(uint64(len(p.Prices)))
		for _, pr := range p.Prices {
			w.u64(pr)
		}
		w.uleb128(uint64(len(p.Decimals)))
		for _, d := range p.Decimals {
			w.u8(d)
		}
	case ActionKindEvmContractUpgrade:
		p := a.EvmContractUpgrade
		if p == nil {
			return nil, fmt.Errorf("bcs: EvmContractUpgrade action missing payload")
		}
		w.bytes(p.ProxyAddress)
		w.bytes(p.ImplAddress)
		w.bytes(p.CallData)
	default:
		return nil, fmt.Errorf("bcs: unknown action kind %d", a.Kind)
	}
	return w.buf, nil
}

// Decode BCS-decodes a BridgeAction, the inverse of Encode (P2).
func Decode(data []byte) (*BridgeAction, error) {
	r := &bcsReader{buf: data}
	kindByte, err := r.u8()
	if err != nil {
		return nil, err
	}
	chainByte, err := r.u8()
	if err != nil {
		return nil, err
	}
	nonce, err := r.u64()
	if err != nil {
		return nil, err
	}
	a := &BridgeAction{Kind: ActionKind(kindByte), ChainID: ChainID(chainByte), Nonce: nonce}

	switch a.Kind {
	case ActionKindTokenTransfer:
		p := &TokenTransferPayload{}
		srcChain, err := r.u8()
		if err != nil {
			return nil, err
		}
		dstChain, err := r.u8()
		if err != nil {
			return nil, err
		}
		p.SourceChain, p.DestChain = ChainID(srcChain), ChainID(dstChain)
		if p.SenderAddress, err = r.bytes(); err != nil {
			return nil, err
		}
		if p.TargetAddress, err = r.bytes(); err != nil {
			return nil, err
		}
		tokenID, err := r.u8()
		if err != nil {
			return nil, err
		}
		p.TokenID = TokenID(tokenID)
		if p.Amount, err = r.u64(); err != nil {
			return nil, err
		}
		a.TokenTransfer = p
	case ActionKindEmergency:
		op, err := r.u8()
		if err != nil {
			return nil, err
		}
		a.Emergency = &EmergencyPayload{Op: EmergencyOp(op)}
	case ActionKindBlocklistUpdate:
		op, err := r.u8()
		if err != nil {
			return nil, err
		}
		n, err := r.uleb128()
		if err != nil {
			return nil, err
		}
		members := make([][]byte, 0, n)
		for i := uint64(0); i < n; i++ {
			m, err := r.bytes()
			if err != nil {
				return nil, err
			}
			members = append(members, m)
		}
		a.BlocklistUpdate = &BlocklistUpdatePayload{Op: BlocklistOp(op), Members: members}
	case ActionKindLimitUpdate:
		sendingChain, err := r.u8()
		if err != nil {
			return nil, err
		}
		limit, err := r.u64()
		if err != nil {
			return nil, err
		}
		a.LimitUpdate = &LimitUpdatePayload{SendingChain: ChainID(sendingChain), USDLimit: limit}
	case ActionKindAssetPriceUpdate:
		tokenID, err := r.u8()
		if err != nil {
			return nil, err
		}
		price, err := r.u64()
		if err != nil {
			return nil, err
		}
		a.AssetPriceUpdate = &AssetPriceUpdatePayload{TokenID: TokenID(tokenID), Price: price}
	case ActionKindAddTokensOnMove:
		p := &AddTokensOnMovePayload{}
		n, err := r.uleb128()
		if err != nil {
			return nil, err
		}
		for i := uint64(0); i < n; i++ {
			id, err := r.u8()
			if err != nil {
				return nil, err
			}
			p.TokenIDs = append(p.TokenIDs, TokenID(id))
		}
		n2, err := r.uleb128()
		if err != nil {
			return nil, err
		}
		for i := uint64(0); i < n2; i++ {
			s, err := r.str()
			if err != nil {
				return nil, err
			}
			p.TypeNames = append(p.TypeNames, s)
		}
		n3, err := r.uleb128()
		if err != nil {
			return nil, err
		}
		for i := uint64(0); i < n3; i++ {
			v, err := r.u64()
			if err != nil {
				return nil, err
			}
			p.Prices = append(p.Prices, v)
		}
		a.AddTokensOnMove = p
	case ActionKindAddTokensOnEvm:
		p := &AddTokensOnEvmPayload{}
		n, err := r.uleb128()
		if err != nil {
			return nil, err
		}
		for i := uint64(0); i < n; i++ {
			id, err := r.u8()
			if err != nil {
				return nil, err
			}
			p.TokenIDs = append(p.TokenIDs, TokenID(id))
		}
		n2, err := r.uleb128()
		if err != nil {
			return nil, err
		}
		for i := uint64(0); i < n2; i++ {
			addr, err := r.bytes()
			if err != nil {
				return nil, err
			}
			p.Addresses = append(p.Addresses, addr)
		}
		n3, err := r.uleb128()
		if err != nil {
			return nil, err
		}
		for i := uint64(0); i < n3; i++ {
			v, err := r.u64()
			if err != nil {
				return nil, err
			}
			p.Prices = append(p.Prices, v)
		}
		n4, err := r.uleb128()
		if err != nil {
			return nil, err
		}
		for i := uint64(0); i < n4; i++ {
			d, err := r.u8()
			if err != nil {
				return nil, err
			}
			p.Decimals = append(p.Decimals, d)
		}
		a.AddTokensOnEvm = p
	case ActionKindEvmContractUpgrade:
		p := &EvmContractUpgradePayload{}
		var err error
		if p.ProxyAddress, err = r.bytes(); err != nil {
			return nil, err
		}
		if p.ImplAddress, err = r.bytes(); err != nil {
			return nil, err
		}
		if p.CallData, err = r.bytes(); err != nil {
			return nil, err
		}
		a.EvmContractUpgrade = p
	default:
		return nil, fmt.Errorf("bcs: unknown action kind %d", a.Kind)
	}
	if !r.done() {
		return nil, fmt.Errorf("bcs: %d trailing bytes after decoding action", len(r.buf)-r.pos)
	}
	return a, nil
}
