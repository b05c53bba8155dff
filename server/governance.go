package server

import (
	"fmt"
	"sync"

	"github.com/ChainSafe/starcoin-bridge/types"
)

// GovernanceAllowList is the set of governance actions an operator has
// approved for signing, keyed by fingerprint, per spec.md §4.3.1
// ("approves actions by exact structural equality against an
// operator-maintained allow-list"). Unlike the eth/move verifiers,
// approval requires no chain I/O, so it is not wrapped in
// SignerWithCache: the allow-list lookup itself is the cache.
type GovernanceAllowList struct {
	mu      sync.RWMutex
	entries map[types.Fingerprint]*types.BridgeAction
}

func NewGovernanceAllowList() *GovernanceAllowList {
	return &GovernanceAllowList{entries: make(map[types.Fingerprint]*types.BridgeAction)}
}

// Approve registers action as signable, replacing any prior entry
// sharing its fingerprint (an operator superseding a draft proposal
// with a corrected one, say).
func (l *GovernanceAllowList) Approve(action *types.BridgeAction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[action.Fingerprint()] = action
}

// Revoke removes a fingerprint from the allow-list.
func (l *GovernanceAllowList) Revoke(fp types.Fingerprint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, fp)
}

// Verify checks candidate against the allow-list entry sharing its
// fingerprint, requiring exact structural equality (spec.md §4.3.1):
// a governance action whose fingerprint is approved but whose payload
// differs from the approved one is rejected, not signed.
func (l *GovernanceAllowList) Verify(candidate *types.BridgeAction) (*types.BridgeAction, *types.SignerError) {
	if !isGovernanceKind(candidate.Kind) {
		return nil, &types.SignerError{Kind: types.KindActionIsNotGovernanceAction, Err: fmt.Errorf("action kind %s is not a governance action", candidate.Kind)}
	}

	l.mu.RLock()
	approved, ok := l.entries[candidate.Fingerprint()]
	l.mu.RUnlock()
	if !ok || !approved.Equal(candidate) {
		return nil, &types.SignerError{Kind: types.KindGovernanceActionIsNotApproved, Err: fmt.Errorf("action with fingerprint %+v is not on the allow-list", candidate.Fingerprint())}
	}
	return approved, nil
}

func isGovernanceKind(k types.ActionKind) bool {
	return k != types.ActionKindTokenTransfer
}
