// Package eth implements the finalized-event syncer for the EVM side
// of the bridge, per spec.md §4.1. Grounded conceptually on
// original_source/bridge/src/starcoin_bridge_syncer.rs's windowed
// finalized-block poll loop, expressed in the teacher's shape of a
// supervised poll loop with a durable cursor
// (chains/evm/listener.EVMListener's FetchDeposits-per-window pattern,
// mocked in chains/evm/listener/eventHandlers/mock/listener.go).
package eth

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/ChainSafe/starcoin-bridge/chains/ethchain"
	"github.com/ChainSafe/starcoin-bridge/events"
	"github.com/ChainSafe/starcoin-bridge/storage"
	"github.com/ChainSafe/starcoin-bridge/types"
)

// WindowSize caps the number of blocks fetched per GetLogs call, per
// spec.md §4.1 ("process at most W=1000 blocks per iteration").
const WindowSize = 1000

// PollInterval is how long the syncer waits before re-checking the
// finalized tip once it has caught up.
const PollInterval = 12 * time.Second

// MinBackoff/MaxBackoff bound the exponential backoff applied after an
// RPC failure, per spec.md §4.1 ("transient transport errors back off
// exponentially, capped, and never advance the cursor").
const (
	MinBackoff = 1 * time.Second
	MaxBackoff = 2 * time.Minute
)

// Sink receives one decoded event at a time; the orchestrator
// implements this by inserting a PendingAction row keyed by the
// action's fingerprint (spec.md §4.6). The syncer never sees storage
// directly except for its own cursor.
type Sink interface {
	Accept(ctx context.Context, ev *events.DecodedEvent) error
}

// Syncer polls one EVM bridge contract for finalized TokensDeposited
// events, decodes them, and hands them to a Sink, advancing its
// persisted cursor only after a window's events have been durably
// accepted (spec.md §4.6, "advance the cursor only after the batch is
// durably enqueued").
type Syncer struct {
	chain           ethchain.ChainRead
	cursors         *storage.Cursors
	contractAddress common.Address
	sink            Sink
}

func New(chain ethchain.ChainRead, cursors *storage.Cursors, contractAddress common.Address, sink Sink) *Syncer {
	return &Syncer{chain: chain, cursors: cursors, contractAddress: contractAddress, sink: sink}
}

// Run drives the poll loop until ctx is cancelled. It is meant to be
// launched under an errgroup by the composition root, matching the
// teacher's supervised-goroutine convention in app.go.
func (s *Syncer) Run(ctx context.Context) error {
	backoff := MinBackoff
	addr := s.contractAddress.Hex()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		advanced, err := s.processNextWindow(ctx)
		if err != nil {
			log.Error().Err(err).Str("contract", addr).Dur("backoff", backoff).Msg("eth syncer iteration failed, backing off")
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

// processNextWindow fetches and processes one window's worth of
// blocks, returning whether it advanced the cursor (false means the
// syncer is caught up to the finalized tip and should wait).
func (s *Syncer) processNextWindow(ctx context.Context) (bool, error) {
	finalized, err := s.chain.LatestFinalizedBlock(ctx)
	if err != nil {
		return false, fmt.Errorf("fetching finalized block: %w", err)
	}

	cursor, err := s.cursors.GetEVM(s.contractAddress.Hex())
	if err != nil && err != storage.ErrNotFound {
		return false, fmt.Errorf("loading cursor: %w", err)
	}
	from := cursor.LastProcessedBlock + 1

	if from > finalized {
		return false, nil
	}

	to := from + WindowSize - 1
	if to > finalized {
		to = finalized
	}

	logs, err := s.chain.GetLogs(ctx, []common.Address{s.contractAddress}, from, to)
	if err != nil {
		return false, fmt.Errorf("fetching logs [%d,%d]: %w", from, to, err)
	}

	for _, l := range logs {
		decoded, ok, err := ethchain.DecodeTokensDeposited(l)
		if err != nil {
			log.Warn().Err(err).Uint64("block", l.BlockNumber).Msg("skipping malformed TokensDeposited log")
			continue
		}
		if !ok {
			continue
		}
		ev, err := events.DecodeEVMDeposit(&events.EVMTokensDeposited{
			SourceChainID:   types.ChainID(decoded.SourceChainID),
			Nonce:           decoded.Nonce,
			DestChainID:     types.ChainID(decoded.DestChainID),
			TokenID:         types.TokenID(decoded.TokenID),
			Amount:          decoded.Amount,
			SourceAddress:   decoded.SenderAddress.Bytes(),
			TargetAddrBytes: decoded.TargetAddress,
			BlockNumber:     l.BlockNumber,
			BlockHash:       l.BlockHash,
			TxHash:          l.TxHash,
			LogIndex:        l.Index,
		})
		if err != nil {
			return false, fmt.Errorf("decoding deposit event: %w", err)
		}
		if ev == nil {
			continue // rejected by validation rules; cursor still advances
		}
		if err := s.sink.Accept(ctx, ev); err != nil {
			return false, fmt.Errorf("enqueuing decoded event: %w", err)
		}
	}

	if err := s.cursors.PutEVM(storage.EVMCursor{ContractAddress: s.contractAddress.Hex(), LastProcessedBlock: to}); err != nil {
		return false, fmt.Errorf("advancing cursor: %w", err)
	}
	return true, nil
}
