package types

import (
	"fmt"

	bridgecrypto "github.com/ChainSafe/starcoin-bridge/crypto"
)

// CertifiedAction is (BridgeAction, map<authority_pubkey, signature>)
// such that the sum of voting power of non-blocklisted signers is at
// least QuorumThreshold, per spec.md §3 (P7).
type CertifiedAction struct {
	Action     *BridgeAction
	Signatures map[bridgecrypto.AuthorityPublicKey][]byte
}

// VerifyQuorum checks that the certificate's signatures are valid and
// that their combined voting power (excluding blocklisted members)
// meets QuorumThreshold against committee, per spec.md §3/§8 (P7).
func (c *CertifiedAction) VerifyQuorum(committee *Committee) error {
	payload, err := Encode(c.Action)
	if err != nil {
		return fmt.Errorf("encoding certified action: %w", err)
	}

	var power uint64
	for pub, sig := range c.Signatures {
		member, ok := committee.Member(pub)
		if !ok {
			return fmt.Errorf("%w: signer %s is not a committee member", ErrInputInvalid, pub)
		}
		if member.Blocklisted {
			continue
		}
		ok, err := bridgecrypto.Verify(pub, payload, sig)
		if err != nil {
			return fmt.Errorf("verifying signature from %s: %w", pub, err)
		}
		if !ok {
			return fmt.Errorf("%w: invalid signature from %s", ErrInputInvalid, pub)
		}
		power += member.VotingPower
	}
	if power < QuorumThreshold {
		return fmt.Errorf("%w: certified action has only %d of %d required voting power", ErrInputInvalid, power, QuorumThreshold)
	}
	return nil
}

// Fingerprint delegates to the underlying action.
func (c *CertifiedAction) Fingerprint() Fingerprint {
	return c.Action.Fingerprint()
}

// SignatureBytes returns signatures ordered by public key, the shape
// EVM contracts expect for their signature byte array argument
// (spec.md §4.5 EVM submission).
func (c *CertifiedAction) SignatureBytes() [][]byte {
	type pair struct {
		pub bridgecrypto.AuthorityPublicKey
		sig []byte
	}
	pairs := make([]pair, 0, len(c.Signatures))
	for pub, sig := range c.Signatures {
		pairs = append(pairs, pair{pub, sig})
	}
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && lessPubKey(pairs[j].pub, pairs[j-1].pub); j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
	out := make([][]byte, len(pairs))
	for i, p := range pairs {
		out[i] = p.sig
	}
	return out
}

func lessPubKey(a, b bridgecrypto.AuthorityPublicKey) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
