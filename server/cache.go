// Package server implements the per-authority signing HTTP service,
// per spec.md §6.1/§4.3. Grounded on
// original_source/bridge/src/server/handler.rs: a verifier per action
// kind decides whether a requested action is actionable, and a result
// cache avoids re-verifying the same request while a transient error
// (not-yet-finalized, RPC hiccup) keeps retrying underneath it.
package server

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/ChainSafe/starcoin-bridge/types"
)

// cacheSize matches the original's SignerWithCache capacity.
const cacheSize = 1000

// ActionVerifier resolves a request key K (an EVM tx hash + event
// index, a Move tx digest + event index, or a governance action) into
// the BridgeAction it authorizes signing, or a *types.SignerError
// explaining why it does not.
type ActionVerifier[K comparable] interface {
	Verify(key K) (*types.BridgeAction, *types.SignerError)
}

// cacheEntry lazily computes its result exactly once, mirroring the
// original's Arc<Mutex<Option<Result<...>>>> per-key slot: concurrent
// requests for the same key block on the same computation instead of
// running it twice.
type cacheEntry struct {
	once   sync.Once
	action *types.BridgeAction
	err    *types.SignerError
}

// SignerWithCache wraps an ActionVerifier with an LRU cache of
// results, keyed by K. Successful results and results carrying a
// cacheable error (per types.SignerError.Cacheable) are retained; transient failures
// (not-finalized, transport errors) are evicted immediately so the
// next request re-verifies.
type SignerWithCache[K comparable] struct {
	verifier ActionVerifier[K]
	cache    *lru.Cache
	mu       sync.Mutex // guards cache.Get/Add pairs against races on the same key
}

// NewSignerWithCache constructs a cache-wrapped verifier.
func NewSignerWithCache[K comparable](verifier ActionVerifier[K]) (*SignerWithCache[K], error) {
	c, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &SignerWithCache[K]{verifier: verifier, cache: c}, nil
}

// Resolve returns the BridgeAction for key, verifying it at most once
// per key unless a prior verification was non-cacheable.
func (s *SignerWithCache[K]) Resolve(key K) (*types.BridgeAction, *types.SignerError) {
	s.mu.Lock()
	entryVal, ok := s.cache.Get(key)
	var entry *cacheEntry
	if ok {
		entry = entryVal.(*cacheEntry)
	} else {
		entry = &cacheEntry{}
		s.cache.Add(key, entry)
	}
	s.mu.Unlock()

	entry.once.Do(func() {
		entry.action, entry.err = s.verifier.Verify(key)
	})

	if entry.err != nil && !entry.err.Cacheable() {
		s.mu.Lock()
		s.cache.Remove(key)
		s.mu.Unlock()
	}

	return entry.action, entry.err
}
