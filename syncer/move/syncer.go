// Package move implements the finalized-event syncer for the Move
// (Starcoin) side of the bridge, per spec.md §4.1. Grounded
// conceptually on
// original_source/bridge/src/starcoin_bridge_syncer.rs, mirroring
// syncer/eth's shape with the Move-specific 32-block window cap and
// case-insensitive module matching (DESIGN.md Open Question decision
// #1: the cursor is block-scoped per module, not event-scoped).
package move

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ChainSafe/starcoin-bridge/chains/movechain"
	"github.com/ChainSafe/starcoin-bridge/events"
	"github.com/ChainSafe/starcoin-bridge/storage"
)

// WindowSize caps the number of blocks fetched per GetEvents call, per
// spec.md §4.1's Move-specific narrower window (32, vs EVM's 1000).
const WindowSize = 32

const PollInterval = 5 * time.Second

const (
	MinBackoff = 1 * time.Second
	MaxBackoff = 2 * time.Minute
)

// Sink receives one decoded event at a time; see syncer/eth.Sink.
type Sink interface {
	Accept(ctx context.Context, ev *events.DecodedEvent) error
}

// Syncer polls the Move chain's bridge module for finalized deposit
// and governance events, decodes them, and hands them to a Sink,
// advancing its persisted cursor only once a window's events have been
// durably accepted.
type Syncer struct {
	chain      movechain.SimpleClient
	cursors    *storage.Cursors
	moduleName string // identifies this syncer's cursor row, e.g. "bridge"
	sink       Sink
}

func New(chain movechain.SimpleClient, cursors *storage.Cursors, moduleName string, sink Sink) *Syncer {
	return &Syncer{chain: chain, cursors: cursors, moduleName: moduleName, sink: sink}
}

// Run drives the poll loop until ctx is cancelled.
func (s *Syncer) Run(ctx context.Context) error {
	backoff := MinBackoff

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		advanced, err := s.processNextWindow(ctx)
		if err != nil {
			log.Error().Err(err).Str("module", s.moduleName).Dur("backoff", backoff).Msg("move syncer iteration failed, backing off")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > MaxBackoff {
				backoff = MaxBackoff
			}
			continue
		}
		backoff = MinBackoff

		if !advanced {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(PollInterval):
			}
		}
	}
}

func (s *Syncer) processNextWindow(ctx context.Context) (bool, error) {
	head, err := s.chain.LatestBlock(ctx)
	if err != nil {
		return false, fmt.Errorf("fetching latest block: %w", err)
	}

	cursor, err := s.cursors.GetMove(s.moduleName)
	if err != nil && err != storage.ErrNotFound {
		return false, fmt.Errorf("loading cursor: %w", err)
	}
	from := cursor.BlockNumber + 1

	if from > head {
		return false, nil
	}

	to := from + WindowSize - 1
	if to > head {
		to = head
	}

	records, err := s.chain.GetEvents(ctx, trackedModules(), from, to, 0)
	if err != nil {
		return false, fmt.Errorf("fetching events [%d,%d]: %w", from, to, err)
	}

	for _, rec := range records {
		ev, err := Decode(rec)
		if err != nil {
			return false, fmt.Errorf("decoding event at block %d: %w", rec.BlockNumber, err)
		}
		if ev == nil {
			continue
		}
		if err := s.sink.Accept(ctx, ev); err != nil {
			return false, fmt.Errorf("enqueuing decoded event: %w", err)
		}
	}

	if err := s.cursors.PutMove(storage.MoveCursor{ModuleName: s.moduleName, BlockNumber: to}); err != nil {
		return false, fmt.Errorf("advancing cursor: %w", err)
	}
	return true, nil
}
