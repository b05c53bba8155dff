package types

import (
	"testing"

	bridgecrypto "github.com/ChainSafe/starcoin-bridge/crypto"
	"github.com/stretchr/testify/require"
)

func TestSignVerify(t *testing.T) {
	kp, err := bridgecrypto.GenerateAuthorityKeyPair()
	require.NoError(t, err)

	action := NewEmergencyAction(ChainIDEthMainnet, 1, EmergencyOpPause)
	signed, err := Sign(action, kp)
	require.NoError(t, err)

	ok, err := signed.Verify()
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCertifiedActionVerifyQuorum(t *testing.T) {
	kp1, err := bridgecrypto.GenerateAuthorityKeyPair()
	require.NoError(t, err)
	kp2, err := bridgecrypto.GenerateAuthorityKeyPair()
	require.NoError(t, err)

	committee, err := NewCommittee(1, []AuthorityInfo{
		{PublicKey: kp1.PublicKey(), VotingPower: 6_667},
		{PublicKey: kp2.PublicKey(), VotingPower: 3_333},
	})
	require.NoError(t, err)

	action := NewEmergencyAction(ChainIDEthMainnet, 1, EmergencyOpPause)
	payload, err := Encode(action)
	require.NoError(t, err)
	sig1, err := kp1.Sign(payload)
	require.NoError(t, err)

	cert := &CertifiedAction{
		Action: action,
		Signatures: map[bridgecrypto.AuthorityPublicKey][]byte{
			kp1.PublicKey(): sig1,
		},
	}
	require.NoError(t, cert.VerifyQuorum(committee), "P7: quorum-power signer alone must certify")
}

func TestCertifiedActionRejectsSubQuorum(t *testing.T) {
	kp1, err := bridgecrypto.GenerateAuthorityKeyPair()
	require.NoError(t, err)
	kp2, err := bridgecrypto.GenerateAuthorityKeyPair()
	require.NoError(t, err)

	committee, err := NewCommittee(1, []AuthorityInfo{
		{PublicKey: kp1.PublicKey(), VotingPower: 5_000},
		{PublicKey: kp2.PublicKey(), VotingPower: 5_000},
	})
	require.NoError(t, err)

	action := NewEmergencyAction(ChainIDEthMainnet, 1, EmergencyOpPause)
	payload, err := Encode(action)
	require.NoError(t, err)
	sig1, err := kp1.Sign(payload)
	require.NoError(t, err)

	cert := &CertifiedAction{
		Action:     action,
		Signatures: map[bridgecrypto.AuthorityPublicKey][]byte{kp1.PublicKey(): sig1},
	}
	require.Error(t, cert.VerifyQuorum(committee))
}

func TestNewCommitteeRejectsWrongTotalPower(t *testing.T) {
	kp1, err := bridgecrypto.GenerateAuthorityKeyPair()
	require.NoError(t, err)
	_, err = NewCommittee(1, []AuthorityInfo{{PublicKey: kp1.PublicKey(), VotingPower: 9_000}})
	require.ErrorIs(t, err, ErrFatalConfig)
}
