// Copyright 2021 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

// Package app is the composition root, grounded on the teacher's own
// app.Run (config.GetConfig, per-chain client construction, the
// os/signal.Notify SIGTERM/SIGINT/SIGHUP/SIGQUIT shutdown pattern) and
// on original_source/bridge/src/config.rs's run_client split: every
// authority runs a signing server (RunSigningServer); only the node
// designated as the client also runs the syncers, executor,
// orchestrator, and watchdog (RunClient).
//
// The Move RPC transport is out of scope (spec.md §1, no ecosystem Go
// SDK for it exists in the retrieval pack), so both entry points take
// an already-constructed movechain.Client from their caller rather
// than dialing one themselves.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ChainSafe/starcoin-bridge/aggregator"
	"github.com/ChainSafe/starcoin-bridge/chains/ethchain"
	"github.com/ChainSafe/starcoin-bridge/chains/movechain"
	"github.com/ChainSafe/starcoin-bridge/config"
	bridgecrypto "github.com/ChainSafe/starcoin-bridge/crypto"
	"github.com/ChainSafe/starcoin-bridge/executor"
	"github.com/ChainSafe/starcoin-bridge/orchestrator"
	"github.com/ChainSafe/starcoin-bridge/server"
	"github.com/ChainSafe/starcoin-bridge/storage"
	syncereth "github.com/ChainSafe/starcoin-bridge/syncer/eth"
	syncermove "github.com/ChainSafe/starcoin-bridge/syncer/move"
	"github.com/ChainSafe/starcoin-bridge/types"
	"github.com/ChainSafe/starcoin-bridge/watchdog"
)

// dialEth connects to the configured EVM RPC endpoint and returns a
// ready-to-use Client plus its bridge contract address.
func dialEth(ctx context.Context, cfg config.EthConfig) (*ethchain.Client, common.Address, error) {
	rpc, err := ethchain.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("dialing eth rpc: %w", err)
	}
	bridgeAddress := common.HexToAddress(cfg.BridgeAddressHex)
	return ethchain.NewClient(rpc, bridgeAddress), bridgeAddress, nil
}

// buildAllowList decodes each operator-preapproved governance action
// via the same wire format HandleSignGovernance accepts, seeding a
// GovernanceAllowList before the HTTP server ever opens (spec.md
// §4.3.1).
func buildAllowList(raw []json.RawMessage) (*server.GovernanceAllowList, error) {
	allowList := server.NewGovernanceAllowList()
	for i, r := range raw {
		action, err := server.DecodeGovernanceAction(r)
		if err != nil {
			return nil, fmt.Errorf("approved-governance-actions[%d]: %w", i, err)
		}
		allowList.Approve(action)
	}
	return allowList, nil
}

// runHTTPServer starts srv and blocks until ctx is cancelled, shutting
// the server down gracefully. A bind/serve failure is returned as the
// function's error, which the caller's errgroup surfaces.
func runHTTPServer(ctx context.Context, name string, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("server", name).Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down %s server: %w", name, err)
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// waitForShutdownSignal cancels ctx once SIGTERM/SIGINT/SIGHUP/SIGQUIT
// is received, mirroring the teacher's sysErr select in app.Run.
func waitForShutdownSignal(ctx context.Context, cancel context.CancelFunc) {
	sysErr := make(chan os.Signal, 1)
	signal.Notify(sysErr, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP, syscall.SIGQUIT)
	select {
	case sig := <-sysErr:
		log.Info().Msgf("terminating got [%v] signal", sig)
		cancel()
	case <-ctx.Done():
	}
}

// RunSigningServer runs the signing HTTP API every committee member
// exposes (spec.md §6.1): it re-derives and re-verifies each signing
// request against the chains directly, never trusting the caller's
// claim about what an event decodes to. moveChain may be nil for an
// EVM-only deployment; ethVerifier is always wired since the bridge
// spans both chains by construction.
func RunSigningServer(ctx context.Context, cfg config.Config, moveChain movechain.Client) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	kp, err := bridgecrypto.ParseAuthorityKeyPairHex(cfg.AuthorityKeyHex)
	if err != nil {
		return fmt.Errorf("parsing authority key: %w", err)
	}

	ethClient, bridgeAddress, err := dialEth(ctx, cfg.Eth)
	if err != nil {
		return err
	}
	ethVerifier := server.NewEthActionVerifier(ethClient, bridgeAddress)

	var moveVerifier server.ActionVerifier[server.MoveRequestKey]
	if moveChain != nil {
		moveVerifier = server.NewMoveActionVerifier(moveChain)
	}

	allowList, err := buildAllowList(cfg.ApprovedGovernanceActions)
	if err != nil {
		return err
	}

	h, err := server.NewHandler(kp, ethVerifier, moveVerifier, allowList)
	if err != nil {
		return fmt.Errorf("building signing handler: %w", err)
	}

	httpSrv := &http.Server{Addr: cfg.Server.ListenAddr, Handler: server.NewRouter(h)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runHTTPServer(gctx, "signing", httpSrv) })

	if cfg.Server.MetricsListenAddr != "" {
		metricsSrv := &http.Server{Addr: cfg.Server.MetricsListenAddr, Handler: promhttp.Handler()}
		g.Go(func() error { return runHTTPServer(gctx, "metrics", metricsSrv) })
	}

	go waitForShutdownSignal(ctx, cancel)

	return g.Wait()
}

// orchestratorWorkers is the number of goroutines RunClient gives the
// orchestrator to drain its work queue into the executor.
const orchestratorWorkers = 4

// RunClient runs the client side of the bridge: the two chain
// syncers, the orchestrator that joins them to the executor, the
// aggregator's outbound signature fanout, and the watchdog. Only the
// node designated cfg.Client.RunClient == true should call this,
// mirroring original_source/bridge/src/config.rs's run_client split —
// every other authority only ever calls RunSigningServer.
func RunClient(ctx context.Context, cfg config.Config, moveChain movechain.Client) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	committee, err := cfg.Committee.ToCommittee()
	if err != nil {
		return fmt.Errorf("building committee: %w", err)
	}

	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening storage at %s: %w", cfg.Storage.Path, err)
	}
	defer db.Close()
	cursors := storage.NewCursors(db)
	pending := storage.NewPendingActions(db)

	ethClient, bridgeAddress, err := dialEth(ctx, cfg.Eth)
	if err != nil {
		return err
	}

	clients := aggregator.SignerClientFactoryFunc(func(a types.AuthorityInfo) aggregator.SignerClient {
		return server.NewHTTPSignerClient(a.BaseURL, nil)
	})
	agg := aggregator.New(committee, clients)

	ex := executor.New(pending, agg, ethClient, moveChain)
	orch := orchestrator.New(pending, ex)

	ethSyncer := syncereth.New(ethClient, cursors, bridgeAddress, orch)
	moveSyncer := syncermove.New(moveChain, cursors, cfg.Move.ModuleName, orch)

	observables := buildWatchdogProbes(cfg.Watchdog, ethClient, moveChain)
	wd := watchdog.New(observables, cfg.Watchdog.Interval)

	// Metrics are served by RunSigningServer, which every authority
	// (including this client node, which is also a committee member)
	// already runs; opening a second listener on the same address here
	// would just fail to bind.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return orch.Run(gctx, orchestratorWorkers) })
	g.Go(func() error { return ethSyncer.Run(gctx) })
	g.Go(func() error { return moveSyncer.Run(gctx) })
	g.Go(func() error { return wd.Run(gctx) })

	go waitForShutdownSignal(ctx, cancel)

	err = g.Wait()
	if err != nil && ctx.Err() != nil {
		// Context cancellation (shutdown signal) is the expected
		// terminal state for every goroutine above; only surface an
		// error that isn't just every watcher reacting to the signal.
		return nil
	}
	return err
}

// buildWatchdogProbes constructs one Observable per configured probe,
// per spec.md §4.7. TotalSupplyWatchConfig.EVMTokenAddress is only
// consulted for Chain == "evm"; a Move total-supply probe is keyed by
// token id alone.
func buildWatchdogProbes(cfg config.WatchdogConfig, ethChain ethchain.ChainRead, moveChain movechain.SimpleClient) []watchdog.Observable {
	var observables []watchdog.Observable

	observables = append(observables, watchdog.NewEVMBridgeStatus(ethChain))
	if moveChain != nil {
		observables = append(observables, watchdog.NewMoveBridgeStatus(moveChain))
	}

	for _, t := range cfg.VaultTokens {
		observables = append(observables, watchdog.NewEVMVaultBalance(ethChain, uint8(t.TokenID), t.Label))
	}

	for _, t := range cfg.TotalSupplies {
		switch t.Chain {
		case "evm":
			observables = append(observables, watchdog.NewEVMTokenTotalSupply(ethChain, t.TokenID, common.HexToAddress(t.EVMTokenAddress)))
		case "move":
			if moveChain != nil {
				observables = append(observables, watchdog.NewMoveTokenTotalSupply(moveChain, t.TokenID))
			}
		}
	}

	return observables
}
