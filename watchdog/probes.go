package watchdog

import (
	"context"
	"fmt"
	"time"

	"github.com/ChainSafe/starcoin-bridge/chains/ethchain"
	"github.com/ChainSafe/starcoin-bridge/chains/movechain"
	"github.com/ChainSafe/starcoin-bridge/metrics"
	"github.com/ChainSafe/starcoin-bridge/types"
	"github.com/ethereum/go-ethereum/common"
)

// EVMVaultBalance reports one token's vault balance on the EVM side,
// adapted from node.rs's EthereumVaultBalance probe (there, one
// instance per watched asset: WETH/USDT/WBTC/LBTC).
type EVMVaultBalance struct {
	chain   ethchain.ChainRead
	tokenID uint8
	label   string
}

func NewEVMVaultBalance(chain ethchain.ChainRead, tokenID uint8, label string) *EVMVaultBalance {
	return &EVMVaultBalance{chain: chain, tokenID: tokenID, label: label}
}

func (p *EVMVaultBalance) Name() string { return "evm_vault_balance:" + p.label }

func (p *EVMVaultBalance) Observe(ctx context.Context) error {
	balance, err := p.chain.VaultBalance(ctx, p.tokenID)
	if err != nil {
		metrics.WatchdogProbeFailures.WithLabelValues(p.Name()).Inc()
		return fmt.Errorf("reading vault balance for %s: %w", p.label, err)
	}
	metrics.VaultBalance.WithLabelValues(fmt.Sprintf("%d", p.tokenID)).Set(bigIntToFloat(balance))
	metrics.WatchdogProbeStaleness.WithLabelValues(p.Name()).Set(float64(nowUnix()))
	return nil
}

// EVMBridgeStatus reports the EVM bridge contract's pause flag,
// adapted from node.rs's EthBridgeStatus probe.
type EVMBridgeStatus struct {
	chain ethchain.ChainRead
}

func NewEVMBridgeStatus(chain ethchain.ChainRead) *EVMBridgeStatus {
	return &EVMBridgeStatus{chain: chain}
}

func (p *EVMBridgeStatus) Name() string { return "evm_bridge_status" }

func (p *EVMBridgeStatus) Observe(ctx context.Context) error {
	paused, err := p.chain.IsPaused(ctx)
	if err != nil {
		metrics.WatchdogProbeFailures.WithLabelValues(p.Name()).Inc()
		return fmt.Errorf("reading EVM bridge pause flag: %w", err)
	}
	metrics.BridgePaused.WithLabelValues("evm").Set(boolToFloat(paused))
	metrics.WatchdogProbeStaleness.WithLabelValues(p.Name()).Set(float64(nowUnix()))
	return nil
}

// MoveBridgeStatus reports the Move bridge module's pause flag,
// adapted from node.rs's StarcoinBridgeStatus probe.
type MoveBridgeStatus struct {
	chain movechain.SimpleClient
}

func NewMoveBridgeStatus(chain movechain.SimpleClient) *MoveBridgeStatus {
	return &MoveBridgeStatus{chain: chain}
}

func (p *MoveBridgeStatus) Name() string { return "move_bridge_status" }

func (p *MoveBridgeStatus) Observe(ctx context.Context) error {
	paused, err := p.chain.IsPaused(ctx)
	if err != nil {
		metrics.WatchdogProbeFailures.WithLabelValues(p.Name()).Inc()
		return fmt.Errorf("reading Move bridge pause flag: %w", err)
	}
	metrics.BridgePaused.WithLabelValues("move").Set(boolToFloat(paused))
	metrics.WatchdogProbeStaleness.WithLabelValues(p.Name()).Set(float64(nowUnix()))
	return nil
}

// TokenTotalSupply reports one token's total supply on one chain.
// spec.md §4.7 lists "configured token total supplies" without pinning
// it to one side; the original left this path commented out pending a
// JSON-RPC `coin_read_api` it didn't yet have (node.rs's "Re-enable
// TotalSupplies" TODO) — this probe implements it against both chains
// via the already-available ChainRead/SimpleClient TokenTotalSupply
// calls, since both capability sets already expose one.
type TokenTotalSupply struct {
	chainLabel string
	tokenID    types.TokenID
	read       func(ctx context.Context) (uint64, error)
}

func NewEVMTokenTotalSupply(chain ethchain.ChainRead, tokenID types.TokenID, tokenAddress common.Address) *TokenTotalSupply {
	return &TokenTotalSupply{
		chainLabel: "evm",
		tokenID:    tokenID,
		read: func(ctx context.Context) (uint64, error) {
			supply, err := chain.TokenTotalSupply(ctx, tokenAddress)
			if err != nil {
				return 0, err
			}
			return supply.Uint64(), nil
		},
	}
}

func NewMoveTokenTotalSupply(chain movechain.SimpleClient, tokenID types.TokenID) *TokenTotalSupply {
	return &TokenTotalSupply{
		chainLabel: "move",
		tokenID:    tokenID,
		read: func(ctx context.Context) (uint64, error) {
			return chain.TokenTotalSupply(ctx, tokenID)
		},
	}
}

func (p *TokenTotalSupply) Name() string {
	return fmt.Sprintf("token_total_supply:%s:%d", p.chainLabel, p.tokenID)
}

func (p *TokenTotalSupply) Observe(ctx context.Context) error {
	supply, err := p.read(ctx)
	if err != nil {
		metrics.WatchdogProbeFailures.WithLabelValues(p.Name()).Inc()
		return fmt.Errorf("reading token total supply: %w", err)
	}
	metrics.TokenTotalSupply.WithLabelValues(p.chainLabel, fmt.Sprintf("%d", p.tokenID)).Set(float64(supply))
	metrics.WatchdogProbeStaleness.WithLabelValues(p.Name()).Set(float64(nowUnix()))
	return nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func bigIntToFloat(v interface{ Int64() int64 }) float64 {
	return float64(v.Int64())
}

// nowUnix is a thin indirection so tests can't accidentally depend on
// wall-clock ordering beyond "did staleness get touched at all".
var nowUnix = func() int64 { return time.Now().Unix() }
