package crypto

import (
	"bytes"
	"fmt"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// IntentPrefix is the fixed three-byte domain tag prepended to every
// signed payload: message purpose, intent version, app id. Per
// spec.md §6.3.
var IntentPrefix = [3]byte{0x00, 0x00, 0x00}

// SignatureLen is the length of a 65-byte recoverable ECDSA signature
// (R || S || V), per spec.md §3 (SignedAction).
const SignatureLen = 65

// Sign produces a 65-byte recoverable ECDSA signature over
// intent_prefix || payload, where payload is the caller-supplied
// BCS-encoded BridgeAction bytes. This is the only signing primitive
// in the system: it is deterministic and total, never failing on
// well-formed input (P1, P6).
func (k *AuthorityKeyPair) Sign(payload []byte) ([]byte, error) {
	msg := IntentMessage(payload)
	digest := gethcrypto.Keccak256(msg)
	sig, err := gethcrypto.Sign(digest, k.raw())
	if err != nil {
		return nil, fmt.Errorf("signing intent message: %w", err)
	}
	if len(sig) != SignatureLen {
		return nil, fmt.Errorf("unexpected signature length %d", len(sig))
	}
	return sig, nil
}

// IntentMessage prepends IntentPrefix to a BCS-encoded payload,
// producing the exact bytes that are hashed and signed.
func IntentMessage(payload []byte) []byte {
	out := make([]byte, 0, len(IntentPrefix)+len(payload))
	out = append(out, IntentPrefix[:]...)
	out = append(out, payload...)
	return out
}

// Verify checks a 65-byte recoverable ECDSA signature against a
// payload and the claimed signer public key. Used by components that
// verify other authorities' signatures (aggregator, executor) rather
// than trusting the claimed signer blindly.
func Verify(pub AuthorityPublicKey, payload []byte, sig []byte) (bool, error) {
	if len(sig) != SignatureLen {
		return false, fmt.Errorf("signature must be %d bytes, got %d", SignatureLen, len(sig))
	}
	digest := gethcrypto.Keccak256(IntentMessage(payload))
	// The recovery byte (sig[64]) is dropped for recovery-less
	// verification against a known public key.
	ok := gethcrypto.VerifySignature(pub[:], digest, sig[:64])
	if !ok {
		return false, nil
	}
	recovered, err := RecoverPublicKey(payload, sig)
	if err != nil {
		return false, err
	}
	return bytes.Equal(recovered[:], pub[:]), nil
}

// RecoverPublicKey recovers the 33-byte compressed public key that
// produced sig over payload, the primitive EVM contracts use to
// authenticate committee signatures on-chain.
func RecoverPublicKey(payload []byte, sig []byte) (AuthorityPublicKey, error) {
	var out AuthorityPublicKey
	if len(sig) != SignatureLen {
		return out, fmt.Errorf("signature must be %d bytes, got %d", SignatureLen, len(sig))
	}
	digest := gethcrypto.Keccak256(IntentMessage(payload))
	pub, err := gethcrypto.SigToPub(digest, sig)
	if err != nil {
		return out, fmt.Errorf("recovering public key: %w", err)
	}
	return ParseAuthorityPublicKey(gethcrypto.CompressPubkey(pub))
}
