package server

import (
	"context"
	"fmt"

	"github.com/ChainSafe/starcoin-bridge/chains/movechain"
	"github.com/ChainSafe/starcoin-bridge/syncer/move"
	"github.com/ChainSafe/starcoin-bridge/types"
)

// MoveRequestKey identifies a request to sign an action observed at a
// specific position among a Move transaction's tracked bridge events,
// per spec.md §4.3's bridge-event-relative event_idx rule for Move
// (DESIGN.md Open Question decision #3).
type MoveRequestKey struct {
	TxDigest string
	EventIdx int
}

// MoveActionVerifier resolves a MoveRequestKey into the BridgeAction
// the tracked event at that position authorizes, grounded on
// original_source/bridge/src/server/handler.rs's move action verifier.
type MoveActionVerifier struct {
	Chain movechain.Client
}

func NewMoveActionVerifier(chain movechain.Client) *MoveActionVerifier {
	return &MoveActionVerifier{Chain: chain}
}

func (v *MoveActionVerifier) Verify(key MoveRequestKey) (*types.BridgeAction, *types.SignerError) {
	ctx := context.Background()

	records, err := v.Chain.GetEventsByDigest(ctx, key.TxDigest)
	if err != nil {
		return nil, &types.SignerError{Kind: types.KindInvalidTxHash, Err: fmt.Errorf("fetching events for digest %s: %w", key.TxDigest, err)}
	}

	var tracked []movechain.EventRecord
	for _, rec := range records {
		if move.IsTracked(rec.StructTag) {
			tracked = append(tracked, rec)
		}
	}

	if key.EventIdx < 0 || key.EventIdx >= len(tracked) {
		return nil, &types.SignerError{Kind: types.KindNoBridgeEventsInTxPosition, Err: fmt.Errorf("event index %d out of range (%d tracked events)", key.EventIdx, len(tracked))}
	}
	rec := tracked[key.EventIdx]

	decoded, err := move.Decode(rec)
	if err != nil {
		return nil, &types.SignerError{Kind: types.KindBridgeEventNotActionable, Err: err}
	}
	if decoded == nil {
		return nil, &types.SignerError{Kind: types.KindBridgeEventNotActionable, Err: fmt.Errorf("event at index %d failed validation", key.EventIdx)}
	}
	return decoded.Action, nil
}
