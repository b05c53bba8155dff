package types

import (
	"fmt"

	bridgecrypto "github.com/ChainSafe/starcoin-bridge/crypto"
)

// SignedAction is (BridgeAction, authority_pubkey, signature), per
// spec.md §3. The signed payload is intent_prefix || bcs(action).
type SignedAction struct {
	Action    *BridgeAction
	Authority bridgecrypto.AuthorityPublicKey
	Signature []byte // 65-byte recoverable ECDSA
}

// Sign builds a SignedAction by BCS-encoding action and signing it
// with kp, per spec.md §4.3 ("Signing itself is deterministic").
func Sign(action *BridgeAction, kp *bridgecrypto.AuthorityKeyPair) (*SignedAction, error) {
	payload, err := Encode(action)
	if err != nil {
		return nil, fmt.Errorf("encoding action for signing: %w", err)
	}
	sig, err := kp.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("signing action: %w", err)
	}
	return &SignedAction{Action: action, Authority: kp.PublicKey(), Signature: sig}, nil
}

// Verify checks that Signature is a valid signature by Authority over
// the BCS encoding of Action (P1).
func (s *SignedAction) Verify() (bool, error) {
	payload, err := Encode(s.Action)
	if err != nil {
		return false, fmt.Errorf("encoding action for verification: %w", err)
	}
	return bridgecrypto.Verify(s.Authority, payload, s.Signature)
}
