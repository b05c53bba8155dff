// Package aggregator implements Byzantine fault-tolerant quorum
// collection over committee signatures for one BridgeAction, per
// spec.md §4.4. Grounded on
// original_source/bridge/src/client/bridge_authority_aggregator.rs,
// generalized from its single-member simplification back to the full
// multi-member algorithm (DESIGN.md, Open Question decision #2). The
// preferred-ordering fanout is adapted from the teacher's
// comm/elector package (static.go's deterministic peer ordering).
package aggregator

import (
	"context"

	bridgecrypto "github.com/ChainSafe/starcoin-bridge/crypto"
	"github.com/ChainSafe/starcoin-bridge/types"
)

// SignerClient requests one authority's signature over a BridgeAction,
// per spec.md §6.1's signing HTTP API. The production implementation
// lives in server/signerclient.go (HTTP); tests use an in-memory fake.
type SignerClient interface {
	RequestSign(ctx context.Context, action *types.BridgeAction) (*types.SignedAction, error)
}

// SignerClientFactory resolves a committee member to the client used
// to request its signature, keeping the aggregator itself transport-
// agnostic per spec.md §9's capability-set design note.
type SignerClientFactory interface {
	ClientFor(authority types.AuthorityInfo) SignerClient
}

// SignerClientFactoryFunc adapts a plain function to SignerClientFactory.
type SignerClientFactoryFunc func(types.AuthorityInfo) SignerClient

func (f SignerClientFactoryFunc) ClientFor(a types.AuthorityInfo) SignerClient { return f(a) }

// pubKeyOf is a small helper kept local to avoid importing
// bridgecrypto into call sites that only need the aggregator's public
// surface.
func pubKeyOf(a types.AuthorityInfo) bridgecrypto.AuthorityPublicKey { return a.PublicKey }
