// Package executor implements the action state machine that turns a
// certified action into a landed on-chain outcome exactly once per
// fingerprint, per spec.md §4.5. Grounded on
// original_source/bridge/src/node.rs's BridgeActionExecutor wiring
// (committee/aggregator/store/chain-client composition) — the type
// itself is not in the retrieval pack, so the state machine body
// follows spec.md §4.5's prose directly.
package executor

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ChainSafe/starcoin-bridge/aggregator"
	"github.com/ChainSafe/starcoin-bridge/chains/ethchain"
	"github.com/ChainSafe/starcoin-bridge/chains/movechain"
	bridgecrypto "github.com/ChainSafe/starcoin-bridge/crypto"
	"github.com/ChainSafe/starcoin-bridge/storage"
	"github.com/ChainSafe/starcoin-bridge/types"
)

// evmChain is the combined read/submit capability the executor needs
// against the EVM side: Nonce (already-landed detection) from
// ChainRead plus submission from ChainSubmit.
type evmChain interface {
	ethchain.ChainRead
	ethchain.ChainSubmit
}

// Executor drives each fingerprint's PendingRecord through
// Pending->Certified->InFlight->Done, per spec.md §4.5. At most one
// goroutine processes a given fingerprint at a time (a per-fingerprint
// mutex, spec.md §5's "per-fingerprint mutex" ordering guarantee).
type Executor struct {
	pending    *storage.PendingActions
	aggregator *aggregator.Aggregator
	ethChain   evmChain
	moveChain  movechain.Client

	locksMu sync.Mutex
	locks   map[types.Fingerprint]*sync.Mutex
}

func New(pending *storage.PendingActions, agg *aggregator.Aggregator, ethChain evmChain, moveChain movechain.Client) *Executor {
	return &Executor{
		pending:    pending,
		aggregator: agg,
		ethChain:   ethChain,
		moveChain:  moveChain,
		locks:      make(map[types.Fingerprint]*sync.Mutex),
	}
}

func (e *Executor) lockFor(fp types.Fingerprint) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	m, ok := e.locks[fp]
	if !ok {
		m = &sync.Mutex{}
		e.locks[fp] = m
	}
	return m
}

// Process drives one fingerprint's PendingRecord one state transition
// forward (or to a terminal state). Callers re-invoke it (directly, or
// via the orchestrator's work queue) until no more progress is
// possible, per spec.md §4.6's "hand off to the executor" step.
func (e *Executor) Process(ctx context.Context, fp types.Fingerprint) error {
	lock := e.lockFor(fp)
	lock.Lock()
	defer lock.Unlock()

	rec, err := e.pending.Get(fp)
	if err != nil {
		return fmt.Errorf("loading pending record for %s: %w", fp, err)
	}

	switch rec.Status {
	case storage.StatusPending:
		return e.certify(ctx, rec)
	case storage.StatusCertified:
		return e.submit(ctx, rec)
	case storage.StatusInFlight:
		return e.observe(ctx, rec)
	case storage.StatusDone, storage.StatusAbandoned:
		return nil
	default:
		return fmt.Errorf("fingerprint %s has unknown status %q", fp, rec.Status)
	}
}

// certify aggregates committee signatures for a Pending action. The
// Certified status (and the certificate bytes that justify it) are
// persisted together in one CompareAndSetStatus call, so a crash
// between aggregation and persistence simply leaves the row Pending
// for the next Process call to redo (spec.md §4.5: "a later state is
// persisted only after the work that justifies it durably completes").
func (e *Executor) certify(ctx context.Context, rec storage.PendingRecord) error {
	action, err := types.Decode(rec.ActionBytes)
	if err != nil {
		return e.abandon(rec.Fingerprint, fmt.Errorf("decoding pending action: %w", err))
	}

	certified, err := e.aggregator.CertifyAction(ctx, action)
	if err != nil {
		log.Warn().Str("fingerprint", rec.Fingerprint.String()).Err(err).Msg("certification failed, retrying later")
		return e.pending.RetryToPending(rec.Fingerprint, err)
	}

	certBytes, err := encodeCertificate(certified)
	if err != nil {
		return fmt.Errorf("encoding certified action: %w", err)
	}

	return e.pending.CompareAndSetStatus(rec.Fingerprint, storage.StatusPending, storage.StatusCertified, func(r *storage.PendingRecord) {
		r.CertifiedBytes = certBytes
	})
}

// submit builds and sends the destination-chain transaction for a
// Certified action, re-querying the destination's own record of the
// action's nonce first so an already-landed action is recognized
// without resubmission (spec.md §4.5: "before submitting, re-query the
// destination chain to detect an action that already landed").
func (e *Executor) submit(ctx context.Context, rec storage.PendingRecord) error {
	certified, err := decodeCertificate(rec.CertifiedBytes)
	if err != nil {
		return e.abandon(rec.Fingerprint, fmt.Errorf("decoding certified action: %w", err))
	}
	dest := destinationChain(certified.Action)

	switch {
	case dest.IsMove():
		return e.submitMove(ctx, rec, certified)
	case dest.IsEVM():
		return e.submitEVM(ctx, rec, certified)
	default:
		return e.abandon(rec.Fingerprint, fmt.Errorf("action targets unrecognized chain id %d", uint8(dest)))
	}
}

func (e *Executor) submitEVM(ctx context.Context, rec storage.PendingRecord, certified *types.CertifiedAction) error {
	actionType := uint8(certified.Action.Kind)

	landedNonce, err := e.ethChain.Nonce(ctx, actionType)
	if err == nil && landedNonce > certified.Action.Nonce {
		log.Info().Str("fingerprint", rec.Fingerprint.String()).Msg("action already landed on EVM destination, marking done")
		return e.pending.CompareAndSetStatus(rec.Fingerprint, storage.StatusCertified, storage.StatusDone, nil)
	}

	payload, err := types.Encode(certified.Action)
	if err != nil {
		return fmt.Errorf("encoding action payload: %w", err)
	}

	txHash, err := e.ethChain.SubmitCertifiedAction(ctx, actionType, payload, certified.SignatureBytes())
	if err != nil {
		log.Warn().Str("fingerprint", rec.Fingerprint.String()).Err(err).Msg("EVM submission failed, retrying")
		return e.pending.RetryToPending(rec.Fingerprint, err)
	}

	if err := e.pending.CompareAndSetStatus(rec.Fingerprint, storage.StatusCertified, storage.StatusInFlight, func(r *storage.PendingRecord) {
		r.LastError = ""
	}); err != nil {
		return err
	}

	if _, err := e.ethChain.WaitMined(ctx, txHash); err != nil {
		return e.pending.RetryToPending(rec.Fingerprint, err)
	}
	return e.pending.CompareAndSetStatus(rec.Fingerprint, storage.StatusInFlight, storage.StatusDone, nil)
}

func (e *Executor) submitMove(ctx context.Context, rec storage.PendingRecord, certified *types.CertifiedAction) error {
	payload, err := types.Encode(certified.Action)
	if err != nil {
		return fmt.Errorf("encoding action payload: %w", err)
	}

	seq, err := e.moveChain.SubmitCertifiedAction(ctx, certified.Action, payload, certified.SignatureBytes())
	if err != nil {
		log.Warn().Str("fingerprint", rec.Fingerprint.String()).Err(err).Msg("Move submission failed, retrying")
		return e.pending.RetryToPending(rec.Fingerprint, err)
	}

	if err := e.pending.CompareAndSetStatus(rec.Fingerprint, storage.StatusCertified, storage.StatusInFlight, nil); err != nil {
		return err
	}

	if err := e.moveChain.WaitForSequenceNumber(ctx, seq); err != nil {
		return e.pending.RetryToPending(rec.Fingerprint, err)
	}
	return e.pending.CompareAndSetStatus(rec.Fingerprint, storage.StatusInFlight, storage.StatusDone, nil)
}

// observe re-checks an InFlight action's landed status. Under normal
// operation submit() already advances InFlight to Done once its wait
// call returns; this path only matters after a process restart replays
// an InFlight row left over from a crash (spec.md §4.5, "the durable
// PendingAction is replayed from storage on startup").
func (e *Executor) observe(ctx context.Context, rec storage.PendingRecord) error {
	certified, err := decodeCertificate(rec.CertifiedBytes)
	if err != nil {
		return e.abandon(rec.Fingerprint, fmt.Errorf("decoding certified action: %w", err))
	}
	dest := destinationChain(certified.Action)

	if dest.IsMove() {
		status, err := e.moveChain.QueryTransferStatus(ctx, certified.Action.ChainID, certified.Action.Nonce)
		if err != nil {
			return e.pending.RetryToPending(rec.Fingerprint, err)
		}
		if status == movechain.TransferStatusClaimed || status == movechain.TransferStatusApproved {
			return e.pending.CompareAndSetStatus(rec.Fingerprint, storage.StatusInFlight, storage.StatusDone, nil)
		}
		return e.pending.RetryToPending(rec.Fingerprint, fmt.Errorf("transfer not yet claimed after restart, status=%d", status))
	}

	landedNonce, err := e.ethChain.Nonce(ctx, uint8(certified.Action.Kind))
	if err != nil {
		return e.pending.RetryToPending(rec.Fingerprint, err)
	}
	if landedNonce > certified.Action.Nonce {
		return e.pending.CompareAndSetStatus(rec.Fingerprint, storage.StatusInFlight, storage.StatusDone, nil)
	}
	return e.pending.RetryToPending(rec.Fingerprint, fmt.Errorf("restarted mid-flight, resubmitting"))
}

func (e *Executor) abandon(fp types.Fingerprint, cause error) error {
	log.Error().Str("fingerprint", fp.String()).Err(cause).Msg("abandoning action: non-retryable error")
	if err := e.pending.MarkAbandoned(fp, cause.Error()); err != nil {
		return err
	}
	return cause
}

// destinationChain returns the chain a certified action must be
// submitted to: a TokenTransfer action crosses chains (its payload
// names the destination explicitly), every other action kind applies
// directly to the chain named by the action's own ChainID field.
func destinationChain(action *types.BridgeAction) types.ChainID {
	if action.Kind == types.ActionKindTokenTransfer {
		return action.TokenTransfer.DestChain
	}
	return action.ChainID
}

// certificateWire is the durable encoding of a CertifiedAction: the
// BCS-encoded action plus its signatures keyed by authority public
// key. Stored as JSON (matching PendingRecord's own JSON encoding in
// storage/pending.go) rather than through SignatureBytes' sorted,
// unkeyed order, since the executor needs the signer identity back on
// replay to run VerifyQuorum again after a restart.
type certificateWire struct {
	ActionBytes []byte            `json:"action"`
	Signatures  map[string][]byte `json:"signatures"` // hex-encoded pubkey -> signature
}

func encodeCertificate(c *types.CertifiedAction) ([]byte, error) {
	actionBytes, err := types.Encode(c.Action)
	if err != nil {
		return nil, err
	}
	wire := certificateWire{
		ActionBytes: actionBytes,
		Signatures:  make(map[string][]byte, len(c.Signatures)),
	}
	for pub, sig := range c.Signatures {
		wire.Signatures[pub.String()] = sig
	}
	return json.Marshal(wire)
}

func decodeCertificate(data []byte) (*types.CertifiedAction, error) {
	var wire certificateWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decoding certificate wire shape: %w", err)
	}
	action, err := types.Decode(wire.ActionBytes)
	if err != nil {
		return nil, fmt.Errorf("decoding certified action payload: %w", err)
	}
	sigs := make(map[bridgecrypto.AuthorityPublicKey][]byte, len(wire.Signatures))
	for hexPub, sig := range wire.Signatures {
		pub, err := parsePubKeyHex(hexPub)
		if err != nil {
			return nil, fmt.Errorf("decoding signer public key %q: %w", hexPub, err)
		}
		sigs[pub] = sig
	}
	return &types.CertifiedAction{Action: action, Signatures: sigs}, nil
}

func parsePubKeyHex(s string) (bridgecrypto.AuthorityPublicKey, error) {
	var pub bridgecrypto.AuthorityPublicKey
	b, err := hex.DecodeString(s)
	if err != nil {
		return pub, err
	}
	return bridgecrypto.ParseAuthorityPublicKey(b)
}
