// Package watchdog implements the periodic cross-system invariant
// observer of spec.md §4.7. Grounded on
// original_source/bridge/src/node.rs's start_watchdog
// (EthereumVaultBalance/EthBridgeStatus/StarcoinBridgeStatus Observable
// trait objects driven by a BridgeWatchDog::new(observables).run()
// loop) and canton-middleware's metrics.PendingTransfers gauge-set
// idiom (_examples/other_examples's relayer-engine.go) for the
// probe-to-gauge wiring itself.
package watchdog

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultInterval is how often every registered Observable is probed,
// absent an operator-configured override (spec.md §4.7, "every N
// seconds, configurable").
const DefaultInterval = 30 * time.Second

// Observable is one periodic health probe, translated from the
// original's `Observable` trait object (node.rs's
// `Vec<Box<dyn Observable + Send + Sync>>`). Each concrete probe owns
// its own chain-read capability and metric handle, so Observe needs no
// arguments beyond a context and reports its own name for logging.
type Observable interface {
	Name() string
	Observe(ctx context.Context) error
}

// WatchDog runs a fixed set of Observables on a shared interval. A
// single failing probe is logged and skipped, never aborting the
// others or the loop itself (spec.md §4.7: "failures of a single probe
// do not abort the watchdog").
type WatchDog struct {
	observables []Observable
	interval    time.Duration
}

func New(observables []Observable, interval time.Duration) *WatchDog {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &WatchDog{observables: observables, interval: interval}
}

// Run probes every Observable once immediately, then on every tick of
// interval, until ctx is cancelled.
func (w *WatchDog) Run(ctx context.Context) error {
	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *WatchDog) tick(ctx context.Context) {
	for _, ob := range w.observables {
		if err := ob.Observe(ctx); err != nil {
			log.Warn().Str("probe", ob.Name()).Err(err).Msg("watchdog probe failed, reading left stale")
		}
	}
}
