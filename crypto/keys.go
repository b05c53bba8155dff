// Package crypto implements authority keypair management and the
// signature primitives the bridge committee uses to co-sign actions.
package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// PublicKeyLen is the length of a committee member's serialized
// secp256k1 public key, per spec.md §3 (Committee entity).
const PublicKeyLen = 33

// AuthorityPublicKey is the 33-byte compressed secp256k1 public key
// identifying a committee member.
type AuthorityPublicKey [PublicKeyLen]byte

func (k AuthorityPublicKey) String() string {
	return fmt.Sprintf("%x", k[:])
}

// ParseAuthorityPublicKey validates and wraps a 33-byte compressed
// secp256k1 public key as received over config or the wire.
func ParseAuthorityPublicKey(b []byte) (AuthorityPublicKey, error) {
	var pub AuthorityPublicKey
	if len(b) != PublicKeyLen {
		return pub, fmt.Errorf("authority public key must be %d bytes, got %d", PublicKeyLen, len(b))
	}
	if _, err := btcec.ParsePubKey(b); err != nil {
		return pub, fmt.Errorf("invalid secp256k1 public key: %w", err)
	}
	copy(pub[:], b)
	return pub, nil
}

// AuthorityKeyPair wraps a secp256k1 private key used by an authority
// to co-sign BridgeActions.
type AuthorityKeyPair struct {
	priv *ecdsa.PrivateKey
	pub  AuthorityPublicKey
}

// GenerateAuthorityKeyPair creates a fresh authority keypair. Used by
// tests and by key-generation tooling; production deployments load the
// private key from a key file (out of scope, per spec.md §1).
func GenerateAuthorityKeyPair() (*AuthorityKeyPair, error) {
	priv, err := ecdsa.GenerateKey(btcec.S256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating authority key: %w", err)
	}
	return NewAuthorityKeyPair(priv)
}

// ParseAuthorityKeyPairHex parses a hex-encoded secp256k1 private key,
// the in-memory form the composition root loads from config (key file
// I/O itself is out of scope per spec.md §1; the key material is
// assumed already resolved into config by the time it reaches here).
func ParseAuthorityKeyPairHex(hexKey string) (*AuthorityKeyPair, error) {
	hexKey = strings.TrimPrefix(hexKey, "0x")
	priv, err := gethcrypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parsing authority private key: %w", err)
	}
	return NewAuthorityKeyPair(priv)
}

// NewAuthorityKeyPair wraps an already-loaded secp256k1 private key.
func NewAuthorityKeyPair(priv *ecdsa.PrivateKey) (*AuthorityKeyPair, error) {
	compressed := gethcrypto.CompressPubkey(&priv.PublicKey)
	pub, err := ParseAuthorityPublicKey(compressed)
	if err != nil {
		return nil, err
	}
	return &AuthorityKeyPair{priv: priv, pub: pub}, nil
}

// PublicKey returns the authority's 33-byte compressed public key.
func (k *AuthorityKeyPair) PublicKey() AuthorityPublicKey {
	return k.pub
}

// EVMAddress derives the Ethereum-style address recoverable from
// signatures produced by this keypair, per spec.md §3 (SignedAction
// uses 65-byte recoverable ECDSA so EVM contracts can recover it).
func (k *AuthorityKeyPair) EVMAddress() [20]byte {
	addr := gethcrypto.PubkeyToAddress(k.priv.PublicKey)
	var out [20]byte
	copy(out[:], addr.Bytes())
	return out
}

// raw exposes the underlying private key for the Sign primitive in
// this package; it is never serialized or logged.
func (k *AuthorityKeyPair) raw() *ecdsa.PrivateKey {
	return k.priv
}
