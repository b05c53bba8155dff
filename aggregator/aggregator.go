package aggregator

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	bridgecrypto "github.com/ChainSafe/starcoin-bridge/crypto"
	"github.com/ChainSafe/starcoin-bridge/metrics"
	"github.com/ChainSafe/starcoin-bridge/types"
)

// Budget bounds the aggregator's total time spent chasing quorum for
// one action, per spec.md §4.4.
const (
	TotalBudget   = 5 * time.Second
	RetryInterval = 500 * time.Millisecond
)

// Aggregator drives one BridgeAction to a CertifiedAction by fanning
// out signature requests to committee members and accumulating voting
// power, per spec.md §4.4. Grounded on
// original_source/bridge/src/client/bridge_authority_aggregator.rs,
// generalized to the multi-member case (DESIGN.md Open Question
// decision #2).
type Aggregator struct {
	committee *types.Committee
	clients   SignerClientFactory
}

func New(committee *types.Committee, clients SignerClientFactory) *Aggregator {
	return &Aggregator{committee: committee, clients: clients}
}

// CertifyAction runs the quorum-collection algorithm for action and
// returns a CertifiedAction once accumulated non-blocklisted voting
// power reaches QuorumThreshold. It aborts early with
// ErrUnreachableQuorum once bad_power exceeds TOTAL-Q, and with
// ErrAggregatorTimeout once TotalBudget elapses without quorum.
func (a *Aggregator) CertifyAction(ctx context.Context, action *types.BridgeAction) (*types.CertifiedAction, error) {
	ctx, cancel := context.WithTimeout(ctx, TotalBudget)
	defer cancel()

	// Blocklisted authorities are skipped up front, per spec.md §4.4
	// step 2: no sign RPC is ever issued to one, and its voting power
	// counts as bad immediately rather than waiting on a response that
	// would never arrive from a well-behaved signer anyway. badPower
	// starts at TOTAL minus the committee's NonBlocklistedPower, the
	// denominator the aggregator measures quorum against.
	badPower := types.TotalVotingPower - a.committee.NonBlocklistedPower()
	var active []types.AuthorityInfo
	for _, m := range a.committee.Members {
		if !m.Blocklisted {
			active = append(active, m)
		}
	}

	order := preferredOrder(active, action.Fingerprint().Key())

	var mu sync.Mutex
	signatures := make(map[bridgecrypto.AuthorityPublicKey][]byte, len(order))
	var accumPower uint64
	done := make(chan struct{})

	if badPower > types.TotalVotingPower-types.QuorumThreshold {
		metrics.AggregatorBadPower.Add(float64(badPower))
		metrics.AggregatorOutcome.WithLabelValues("unreachable_quorum").Inc()
		return nil, fmt.Errorf("%w: bad power %d exceeds tolerance", types.ErrUnreachableQuorum, badPower)
	}

	type outcome struct {
		member types.AuthorityInfo
		signed *types.SignedAction
		err    error
	}
	results := make(chan outcome, len(order))

	var wg sync.WaitGroup
	for _, member := range order {
		member := member
		wg.Add(1)
		go func() {
			defer wg.Done()
			signed, err := a.requestWithRetry(ctx, member, action)
			results <- outcome{member: member, signed: signed, err: err}
		}()
	}
	go func() { wg.Wait(); close(results) }()

	var lastErr error
	for res := range results {
		mu.Lock()
		if res.signed != nil {
			ok, verr := res.signed.Verify()
			if verr == nil && ok {
				signatures[res.member.PublicKey] = res.signed.Signature
				accumPower += res.member.VotingPower
			} else {
				badPower += res.member.VotingPower
			}
		} else {
			// A member still pending when the budget ran out is not bad
			// power; the attempt ends as ErrAggregatorTimeout instead.
			if ctx.Err() == nil || !errors.Is(res.err, ctx.Err()) {
				badPower += res.member.VotingPower
			}
			lastErr = res.err
		}
		reachedQuorum := accumPower >= types.QuorumThreshold
		unreachable := badPower > types.TotalVotingPower-types.QuorumThreshold
		mu.Unlock()

		if reachedQuorum || unreachable {
			select {
			case <-done:
			default:
				close(done)
			}
			break
		}
	}

	mu.Lock()
	defer mu.Unlock()
	metrics.AggregatorBadPower.Add(float64(badPower))

	if accumPower >= types.QuorumThreshold {
		metrics.AggregatorOutcome.WithLabelValues("certified").Inc()
		return &types.CertifiedAction{Action: action, Signatures: signatures}, nil
	}
	if badPower > types.TotalVotingPower-types.QuorumThreshold {
		metrics.AggregatorOutcome.WithLabelValues("unreachable_quorum").Inc()
		return nil, fmt.Errorf("%w: bad power %d exceeds tolerance", types.ErrUnreachableQuorum, badPower)
	}
	metrics.AggregatorOutcome.WithLabelValues("timeout").Inc()
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: accumulated %d of %d, last error: %v", types.ErrAggregatorTimeout, accumPower, types.QuorumThreshold, lastErr)
	}
	return nil, fmt.Errorf("%w: accumulated %d of %d", types.ErrAggregatorTimeout, accumPower, types.QuorumThreshold)
}

// requestWithRetry retries a single authority's signature request on
// ErrTxNotFinalized at RetryInterval until ctx is done, per spec.md
// §4.4 ("an authority reporting TxNotFinalized is retried, not treated
// as bad power, until the aggregator's overall budget elapses").
func (a *Aggregator) requestWithRetry(ctx context.Context, member types.AuthorityInfo, action *types.BridgeAction) (*types.SignedAction, error) {
	client := a.clients.ClientFor(member)
	ticker := time.NewTicker(RetryInterval)
	defer ticker.Stop()

	for {
		signed, err := client.RequestSign(ctx, action)
		if err == nil {
			return signed, nil
		}
		if !errors.Is(err, types.ErrTxNotFinalized) {
			log.Debug().Err(err).Str("authority", fmt.Sprintf("%x", member.PublicKey[:4])).Msg("signature request failed")
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// preferredOrder returns committee members in a deterministic order
// derived from seed, so repeated certification attempts for the same
// fingerprint fan out consistently while different fingerprints spread
// load across the committee. Adapted from the teacher's
// comm/elector.staticCoordinatorElector, which sorts peers by a
// session-derived hash rather than always starting from index zero.
func preferredOrder(members []types.AuthorityInfo, seed []byte) []types.AuthorityInfo {
	type scored struct {
		member types.AuthorityInfo
		score  [32]byte
	}
	scoredMembers := make([]scored, len(members))
	for i, m := range members {
		h := sha256.New()
		h.Write(seed)
		h.Write(m.PublicKey[:])
		var sum [32]byte
		copy(sum[:], h.Sum(nil))
		scoredMembers[i] = scored{member: m, score: sum}
	}
	sort.Slice(scoredMembers, func(i, j int) bool {
		for k := range scoredMembers[i].score {
			if scoredMembers[i].score[k] != scoredMembers[j].score[k] {
				return scoredMembers[i].score[k] < scoredMembers[j].score[k]
			}
		}
		return false
	})
	out := make([]types.AuthorityInfo, len(scoredMembers))
	for i, s := range scoredMembers {
		out[i] = s.member
	}
	return out
}
