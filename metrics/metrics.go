// Package metrics defines the process-wide Prometheus registries,
// grounded on canton-middleware's internal/metrics package
// (metrics.PendingTransfers.WithLabelValues(...).Set(...), per
// _examples/other_examples's relayer-engine.go) and generalized to the
// gauges/counters spec.md §5/§4.7 names: queue depth, aggregator
// bad-power, and watchdog probe staleness.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrchestratorQueueDepth tracks the orchestrator's bounded work
	// channel occupancy, the observable side of spec.md §5's P8
	// backpressure property ("queue filling without progress").
	OrchestratorQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "bridge",
		Subsystem: "orchestrator",
		Name:      "queue_depth",
		Help:      "Number of fingerprints currently queued for the executor.",
	})

	// AggregatorBadPower accumulates, per certification attempt, the
	// voting power of authorities whose signature was rejected or who
	// failed to respond, per spec.md §4.4/§8 P7.
	AggregatorBadPower = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bridge",
		Subsystem: "aggregator",
		Name:      "bad_power_total",
		Help:      "Cumulative voting power seen as bad (rejected or unreachable) across certification attempts.",
	})

	// AggregatorOutcome counts certification attempts by outcome, for
	// tracking unreachable-quorum and timeout rates independently.
	AggregatorOutcome = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Subsystem: "aggregator",
		Name:      "certification_outcomes_total",
		Help:      "Certification attempts by outcome (certified, unreachable_quorum, timeout).",
	}, []string{"outcome"})

	// WatchdogProbeStaleness records, per probe name, the unix
	// timestamp of its last successful read, so a stalled probe is
	// visible as a gauge that stops advancing (spec.md §4.7, "failures
	// ... are recorded as stale readings").
	WatchdogProbeStaleness = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bridge",
		Subsystem: "watchdog",
		Name:      "probe_last_success_unixtime",
		Help:      "Unix timestamp of each watchdog probe's last successful read.",
	}, []string{"probe"})

	// WatchdogProbeFailures counts failed probe executions by name.
	WatchdogProbeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Subsystem: "watchdog",
		Name:      "probe_failures_total",
		Help:      "Count of failed watchdog probe executions, by probe name.",
	}, []string{"probe"})

	// VaultBalance reports an EVM vault's last-observed balance of a
	// token, as a float64 in the token's smallest unit (Prometheus
	// gauges are float64; large balances lose sub-wei precision, an
	// accepted tradeoff for an observability-only metric).
	VaultBalance = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bridge",
		Subsystem: "watchdog",
		Name:      "evm_vault_balance",
		Help:      "Last-observed EVM vault balance per token id.",
	}, []string{"token_id"})

	// TokenTotalSupply reports a token's last-observed total supply on
	// a given chain.
	TokenTotalSupply = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bridge",
		Subsystem: "watchdog",
		Name:      "token_total_supply",
		Help:      "Last-observed total supply per (chain, token id).",
	}, []string{"chain", "token_id"})

	// BridgePaused reports a chain's bridge pause flag as 0/1, per
	// spec.md §4.7.
	BridgePaused = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bridge",
		Subsystem: "watchdog",
		Name:      "paused",
		Help:      "Bridge pause flag per chain (1 = paused, 0 = not paused).",
	}, []string{"chain"})
)
