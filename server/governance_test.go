package server

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChainSafe/starcoin-bridge/types"
)

func TestGovernanceAllowListApprovesExactMatch(t *testing.T) {
	l := NewGovernanceAllowList()
	action := types.NewEmergencyAction(types.ChainIDEthMainnet, 5, types.EmergencyOpPause)
	l.Approve(action)

	approved, serr := l.Verify(types.NewEmergencyAction(types.ChainIDEthMainnet, 5, types.EmergencyOpPause))
	require.Nil(t, serr)
	require.True(t, approved.Equal(action))
}

func TestGovernanceAllowListRejectsPayloadMismatch(t *testing.T) {
	l := NewGovernanceAllowList()
	l.Approve(types.NewEmergencyAction(types.ChainIDEthMainnet, 5, types.EmergencyOpPause))

	_, serr := l.Verify(types.NewEmergencyAction(types.ChainIDEthMainnet, 5, types.EmergencyOpUnpause))
	require.NotNil(t, serr)
	require.Equal(t, types.KindGovernanceActionIsNotApproved, serr.Kind)
}

func TestGovernanceAllowListRejectsUnapprovedFingerprint(t *testing.T) {
	l := NewGovernanceAllowList()
	_, serr := l.Verify(types.NewEmergencyAction(types.ChainIDEthMainnet, 9, types.EmergencyOpPause))
	require.NotNil(t, serr)
	require.Equal(t, types.KindGovernanceActionIsNotApproved, serr.Kind)
}

func TestGovernanceAllowListRejectsNonGovernanceKind(t *testing.T) {
	l := NewGovernanceAllowList()
	transfer := types.NewTokenTransferAction(types.ChainIDEthMainnet, 1, types.TokenTransferPayload{})
	l.Approve(transfer)

	_, serr := l.Verify(transfer)
	require.NotNil(t, serr)
	require.Equal(t, types.KindActionIsNotGovernanceAction, serr.Kind)
}

func TestGovernanceAllowListRevoke(t *testing.T) {
	l := NewGovernanceAllowList()
	action := types.NewEmergencyAction(types.ChainIDEthMainnet, 5, types.EmergencyOpPause)
	l.Approve(action)
	l.Revoke(action.Fingerprint())

	_, serr := l.Verify(action)
	require.NotNil(t, serr)
	require.Equal(t, types.KindGovernanceActionIsNotApproved, serr.Kind)
}
