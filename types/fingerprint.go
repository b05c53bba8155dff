package types

import "fmt"

// Fingerprint is the canonical dedup key (action_type_tag, chain_id,
// nonce), per spec.md §3 (P3). It is comparable and usable as a map
// key so storage and the executor can index pending actions by it
// directly.
type Fingerprint struct {
	Kind    ActionKind
	ChainID ChainID
	Nonce   uint64
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("%s/%d/%d", f.Kind, f.ChainID, f.Nonce)
}

// Key returns a storage-table key encoding, stable across process
// restarts (spec.md §6.4 pending_actions key = fingerprint).
func (f Fingerprint) Key() []byte {
	return []byte(fmt.Sprintf("fp:%02x:%02x:%020d", uint8(f.Kind), uint8(f.ChainID), f.Nonce))
}
