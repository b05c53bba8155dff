package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/ChainSafe/starcoin-bridge/chains/movechain"
	"github.com/ChainSafe/starcoin-bridge/types"
)

// FakeMoveChain implements movechain.Client entirely in memory.
type FakeMoveChain struct {
	mu sync.Mutex

	Events        []movechain.EventRecord
	EventsByDigest map[string][]movechain.EventRecord
	Head          uint64
	Statuses      map[types.Fingerprint]movechain.TransferStatus
	Paused        bool
	TotalSupplies map[types.TokenID]uint64

	SubmittedSeq uint64
	Submissions  []FakeMoveSubmission
}

// FakeMoveSubmission records one call to SubmitCertifiedAction.
type FakeMoveSubmission struct {
	Action *types.BridgeAction
}

func NewFakeMoveChain() *FakeMoveChain {
	return &FakeMoveChain{
		EventsByDigest: make(map[string][]movechain.EventRecord),
		Statuses:       make(map[types.Fingerprint]movechain.TransferStatus),
		TotalSupplies:  make(map[types.TokenID]uint64),
	}
}

func (f *FakeMoveChain) GetEvents(ctx context.Context, moduleFilter []string, from, to uint64, limit int) ([]movechain.EventRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []movechain.EventRecord
	for _, e := range f.Events {
		if e.BlockNumber < from || e.BlockNumber > to {
			continue
		}
		if len(moduleFilter) > 0 && !matchesAnyModule(e.StructTag, moduleFilter) {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func matchesAnyModule(structTag string, modules []string) bool {
	for _, m := range modules {
		if equalFoldModule(structTag, m) {
			return true
		}
	}
	return false
}

// equalFoldModule implements the case-insensitive module comparison
// spec.md §4.1 requires (on-chain modules are PascalCase, client
// identifiers are lowercase). Struct tags are fully qualified
// (e.g. "0x1::bridge::TokenDepositedEvent"), so the comparison is
// against the trailing segment, not the whole tag.
func equalFoldModule(structTag, module string) bool {
	name := structTag
	for i := len(structTag) - 1; i >= 1; i-- {
		if structTag[i-1] == ':' && structTag[i] == ':' {
			name = structTag[i+1:]
			break
		}
	}
	if len(name) != len(module) {
		return false
	}
	for i := 0; i < len(module); i++ {
		if toLower(name[i]) != toLower(module[i]) {
			return false
		}
	}
	return true
}

func toLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

func (f *FakeMoveChain) LatestBlock(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Head, nil
}

func (f *FakeMoveChain) QueryTransferStatus(ctx context.Context, sourceChain types.ChainID, seqNum uint64) (movechain.TransferStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fp := types.Fingerprint{Kind: types.ActionKindTokenTransfer, ChainID: sourceChain, Nonce: seqNum}
	if s, ok := f.Statuses[fp]; ok {
		return s, nil
	}
	return movechain.TransferStatusNotFound, nil
}

func (f *FakeMoveChain) QueryTransferSignatures(ctx context.Context, sourceChain types.ChainID, seqNum uint64) ([][]byte, bool, error) {
	return nil, false, nil
}

func (f *FakeMoveChain) IsPaused(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Paused, nil
}

func (f *FakeMoveChain) TokenTotalSupply(ctx context.Context, tokenID types.TokenID) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.TotalSupplies[tokenID], nil
}

func (f *FakeMoveChain) GetEventsByDigest(ctx context.Context, txDigest string) ([]movechain.EventRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	evs, ok := f.EventsByDigest[txDigest]
	if !ok {
		return nil, fmt.Errorf("no events for digest %s", txDigest)
	}
	return evs, nil
}

func (f *FakeMoveChain) SubmitCertifiedAction(ctx context.Context, action *types.BridgeAction, actionPayload []byte, sigBytes [][]byte) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SubmittedSeq++
	f.Submissions = append(f.Submissions, FakeMoveSubmission{Action: action})
	return f.SubmittedSeq, nil
}

func (f *FakeMoveChain) WaitForSequenceNumber(ctx context.Context, submittedSeq uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SubmittedSeq >= submittedSeq {
		return nil
	}
	return fmt.Errorf("sequence number %d not yet reached", submittedSeq)
}
