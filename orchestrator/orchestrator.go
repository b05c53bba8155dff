// Package orchestrator joins the chain syncers to the action executor,
// per spec.md §4.6. It implements both syncer/eth.Sink and
// syncer/move.Sink with the same method, since both already hand over
// a fully decoded, chain-agnostic *events.DecodedEvent.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ChainSafe/starcoin-bridge/events"
	"github.com/ChainSafe/starcoin-bridge/executor"
	"github.com/ChainSafe/starcoin-bridge/metrics"
	"github.com/ChainSafe/starcoin-bridge/storage"
	"github.com/ChainSafe/starcoin-bridge/types"
)

// QueueSize bounds the work channel between Accept and the worker
// pool that drives the executor, per spec.md §5's "bounded, metered
// inter-task channels (1,000-10,000) for backpressure."
const QueueSize = 4096

// Orchestrator is the shared Sink both syncers hand decoded events to.
// Accept enqueues the action's fingerprint for work at most once
// (spec.md §4.6, P3: "insert a PendingAction row keyed by fingerprint
// if absent") and returns as soon as the insert is durable, never
// blocking on the resulting executor run — the cursor advances once
// Accept returns, so the durable insert (not the executor's progress)
// is what must complete synchronously here.
type Orchestrator struct {
	pending  *storage.PendingActions
	executor *executor.Executor
	work     chan types.Fingerprint
}

func New(pending *storage.PendingActions, ex *executor.Executor) *Orchestrator {
	return &Orchestrator{
		pending:  pending,
		executor: ex,
		work:     make(chan types.Fingerprint, QueueSize),
	}
}

// Accept implements syncer/eth.Sink and syncer/move.Sink. A
// non-actionable or already-abandoned-by-governance event was already
// filtered out by the decoder (events.DecodeEVMDeposit et al. return a
// nil *DecodedEvent for those, per spec.md §4.2), so every call here
// carries a real action to enqueue.
func (o *Orchestrator) Accept(ctx context.Context, ev *events.DecodedEvent) error {
	actionBytes, err := types.Encode(ev.Action)
	if err != nil {
		return fmt.Errorf("encoding action for fingerprint %s: %w", ev.Action.Fingerprint(), err)
	}
	fp := ev.Action.Fingerprint()

	inserted, err := o.pending.InsertIfAbsent(fp, actionBytes)
	if err != nil {
		return fmt.Errorf("inserting pending action %s: %w", fp, err)
	}
	if !inserted {
		log.Debug().Str("fingerprint", fp.String()).Str("source", ev.SourceTag).Msg("duplicate event, fingerprint already pending")
		return nil
	}

	// Blocks when the queue is saturated so backpressure reaches the
	// calling syncer, per spec.md §4.1/§5 ("the sender blocks when
	// full — this is the system's primary backpressure path") and P8
	// ("a stalled executor stops the syncers from advancing cursors"):
	// the syncer only advances its cursor after Accept returns, so a
	// blocked send here is what keeps a saturated queue from silently
	// losing work between restarts.
	select {
	case o.work <- fp:
		metrics.OrchestratorQueueDepth.Set(float64(len(o.work)))
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Run drains the work queue with workerCount goroutines, driving each
// fingerprint's Executor.Process repeatedly until it reaches a
// terminal or still-Pending state, and separately sweeps storage on
// startup for rows a previous process left mid-flight (spec.md §4.5,
// "the durable PendingAction is replayed from storage on startup").
func (o *Orchestrator) Run(ctx context.Context, workerCount int) error {
	if err := o.replayUnterminated(ctx); err != nil {
		return fmt.Errorf("replaying pending actions on startup: %w", err)
	}

	done := make(chan struct{})
	for i := 0; i < workerCount; i++ {
		go o.worker(ctx, done)
	}

	<-ctx.Done()
	for i := 0; i < workerCount; i++ {
		<-done
	}
	return ctx.Err()
}

func (o *Orchestrator) worker(ctx context.Context, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()
	for {
		select {
		case <-ctx.Done():
			return
		case fp := <-o.work:
			metrics.OrchestratorQueueDepth.Set(float64(len(o.work)))
			o.drive(ctx, fp)
		}
	}
}

// drive repeatedly calls Executor.Process for fp until it stops making
// progress (the row reaches Done/Abandoned, or falls back to Pending
// to await a later retry pass rather than busy-looping in place).
func (o *Orchestrator) drive(ctx context.Context, fp types.Fingerprint) {
	for {
		rec, err := o.pending.Get(fp)
		if err != nil {
			log.Error().Str("fingerprint", fp.String()).Err(err).Msg("orchestrator: loading pending record failed")
			return
		}
		statusBefore := rec.Status

		if err := o.executor.Process(ctx, fp); err != nil {
			log.Debug().Str("fingerprint", fp.String()).Err(err).Msg("executor step did not complete")
		}

		rec, err = o.pending.Get(fp)
		if err != nil {
			log.Error().Str("fingerprint", fp.String()).Err(err).Msg("orchestrator: reloading pending record failed")
			return
		}
		if rec.Status == statusBefore || rec.Status == storage.StatusPending || rec.Status == storage.StatusDone || rec.Status == storage.StatusAbandoned {
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// replayUnterminated re-enqueues every Pending, Certified, and
// InFlight row found at startup, so work interrupted by a previous
// crash resumes without waiting for a fresh matching event.
func (o *Orchestrator) replayUnterminated(ctx context.Context) error {
	for _, status := range []storage.Status{storage.StatusPending, storage.StatusCertified, storage.StatusInFlight} {
		recs, err := o.pending.ListByStatus(status)
		if err != nil {
			return fmt.Errorf("listing %s rows: %w", status, err)
		}
		for _, rec := range recs {
			select {
			case o.work <- rec.Fingerprint:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}
