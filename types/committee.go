package types

import (
	"fmt"

	bridgecrypto "github.com/ChainSafe/starcoin-bridge/crypto"
)

// Voting power constants, per spec.md §3.
const (
	TotalVotingPower   uint64 = 10_000
	QuorumThreshold    uint64 = 6_667
	ValidityThreshold  uint64 = 3_334
)

// AuthorityInfo describes one committee member, per spec.md §3.
type AuthorityInfo struct {
	PublicKey    bridgecrypto.AuthorityPublicKey
	MoveAddress  [16]byte // account address on the Move chain, derived from PublicKey
	VotingPower  uint64
	BaseURL      string
	Blocklisted  bool
}

// Committee is an ordered, immutable set of authorities for an epoch,
// per spec.md §3. It is never mutated in place. The composition root
// builds it once at startup from configuration
// (config.CommitteeConfig.ToCommittee); no code in this module loads it
// from the Move chain or replaces it on an epoch change.
type Committee struct {
	Epoch   uint64
	Members []AuthorityInfo
}

// NewCommittee validates that total voting power equals
// TotalVotingPower before returning a usable committee, per spec.md
// §3's invariant.
func NewCommittee(epoch uint64, members []AuthorityInfo) (*Committee, error) {
	var total uint64
	for _, m := range members {
		total += m.VotingPower
	}
	if total != TotalVotingPower {
		return nil, fmt.Errorf("%w: committee voting power %d != %d", ErrFatalConfig, total, TotalVotingPower)
	}
	cp := make([]AuthorityInfo, len(members))
	copy(cp, members)
	return &Committee{Epoch: epoch, Members: cp}, nil
}

// Member looks up a committee member by public key.
func (c *Committee) Member(pub bridgecrypto.AuthorityPublicKey) (*AuthorityInfo, bool) {
	for i := range c.Members {
		if c.Members[i].PublicKey == pub {
			return &c.Members[i], true
		}
	}
	return nil, false
}

// NonBlocklistedPower returns the sum of voting power of every member
// not on the blocklist, the denominator the aggregator measures
// quorum against.
func (c *Committee) NonBlocklistedPower() uint64 {
	var total uint64
	for _, m := range c.Members {
		if !m.Blocklisted {
			total += m.VotingPower
		}
	}
	return total
}
