package storage

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ChainSafe/starcoin-bridge/types"
)

// Status is a PendingAction's lifecycle state, per spec.md §3.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCertified Status = "Certified"
	StatusInFlight  Status = "InFlight"
	StatusDone      Status = "Done"
	StatusAbandoned Status = "Abandoned"
)

// PendingRecord is the durable shape of a PendingAction, per spec.md
// §3/§6.4.
type PendingRecord struct {
	Fingerprint    types.Fingerprint
	ActionBytes    []byte // BCS-encoded BridgeAction
	CertifiedBytes []byte // BCS-encoded CertifiedAction payload, set once Certified
	Status         Status
	Attempts       int
	LastError      string
}

// PendingActions is the pending_actions table: key = fingerprint, per
// spec.md §6.4. Writes use compare-and-set on (fingerprint, status),
// per spec.md §5, implemented here with an in-process mutex since a
// single node process is the only writer to its own leveldb handle.
type PendingActions struct {
	db *DB
	mu sync.Mutex
}

func NewPendingActions(db *DB) *PendingActions { return &PendingActions{db: db} }

// Get returns the current record for fingerprint, or ErrNotFound.
func (p *PendingActions) Get(fp types.Fingerprint) (PendingRecord, error) {
	var rec PendingRecord
	raw, err := p.db.get(fp.Key())
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("decoding pending record for %s: %w", fp, err)
	}
	return rec, nil
}

// Has reports whether a pending row already exists for fingerprint.
// The orchestrator's at-most-once insert (P3) goes through
// InsertIfAbsent, which makes the same check under the table's mutex.
func (p *PendingActions) Has(fp types.Fingerprint) (bool, error) {
	return p.db.has(fp.Key())
}

// InsertIfAbsent inserts a new Pending row for fingerprint if one does
// not already exist, returning whether it inserted. This is the
// orchestrator's at-most-once dedup point (spec.md §4.6, P3).
func (p *PendingActions) InsertIfAbsent(fp types.Fingerprint, actionBytes []byte) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	exists, err := p.db.has(fp.Key())
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	rec := PendingRecord{Fingerprint: fp, ActionBytes: actionBytes, Status: StatusPending}
	raw, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("encoding pending record: %w", err)
	}
	if err := p.db.put(fp.Key(), raw); err != nil {
		return false, err
	}
	return true, nil
}

// CompareAndSetStatus transitions a row from expectedStatus to
// newStatus, applying mutate to the record before persisting. It
// returns an error if the current status does not match
// expectedStatus, implementing the compare-and-set discipline of
// spec.md §5.
func (p *PendingActions) CompareAndSetStatus(fp types.Fingerprint, expectedStatus, newStatus Status, mutate func(*PendingRecord)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, err := p.db.get(fp.Key())
	if err != nil {
		return err
	}
	var rec PendingRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return fmt.Errorf("decoding pending record for %s: %w", fp, err)
	}
	if rec.Status != expectedStatus {
		return fmt.Errorf("storage: cas failed for %s: expected status %s, got %s", fp, expectedStatus, rec.Status)
	}
	rec.Status = newStatus
	if mutate != nil {
		mutate(&rec)
	}
	out, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding pending record: %w", err)
	}
	return p.db.put(fp.Key(), out)
}

// MarkAbandoned is the one transition an operator, not the executor,
// performs (spec.md §3: "Abandoned is set only by an operator").
func (p *PendingActions) MarkAbandoned(fp types.Fingerprint, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, err := p.db.get(fp.Key())
	if err != nil {
		return err
	}
	var rec PendingRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return fmt.Errorf("decoding pending record for %s: %w", fp, err)
	}
	rec.Status = StatusAbandoned
	rec.LastError = reason
	out, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding pending record: %w", err)
	}
	return p.db.put(fp.Key(), out)
}

// RetryToPending transitions any non-terminal state back to Pending
// with incremented attempts, per spec.md §3 ("any state can transition
// to Pending with incremented attempts on retryable error").
func (p *PendingActions) RetryToPending(fp types.Fingerprint, lastErr error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, err := p.db.get(fp.Key())
	if err != nil {
		return err
	}
	var rec PendingRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return fmt.Errorf("decoding pending record for %s: %w", fp, err)
	}
	if rec.Status == StatusDone || rec.Status == StatusAbandoned {
		return fmt.Errorf("storage: cannot retry terminal status %s for %s", rec.Status, fp)
	}
	rec.Status = StatusPending
	rec.Attempts++
	if lastErr != nil {
		rec.LastError = lastErr.Error()
	}
	out, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding pending record: %w", err)
	}
	return p.db.put(fp.Key(), out)
}

// ListByStatus scans every pending row with the given status. Used on
// startup to replay in-flight work (spec.md §4.5, "the durable
// PendingAction is replayed from storage on startup") and by
// operator tooling.
func (p *PendingActions) ListByStatus(status Status) ([]PendingRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	iter := p.db.ldb.NewIterator(nil, nil)
	defer iter.Release()

	var out []PendingRecord
	for iter.Next() {
		key := iter.Key()
		if len(key) < 3 || string(key[:3]) != "fp:" {
			continue
		}
		var rec PendingRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, fmt.Errorf("decoding pending record at %s: %w", key, err)
		}
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterating pending actions: %w", err)
	}
	return out, nil
}
