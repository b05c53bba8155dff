// Copyright 2021 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

// Command authority runs a full committee member: the signing server
// every authority exposes, plus — when cfg.Client.RunClient is set —
// the syncers, executor, orchestrator, and watchdog of the one node
// designated to drive the bridge's client side, mirroring
// original_source/bridge/src/config.rs's run_client == true
// deployment shape (BridgeClientConfig, which is also an authority and
// so still serves signing requests of its own).
package main

import (
	"context"
	"flag"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ChainSafe/starcoin-bridge/app"
	"github.com/ChainSafe/starcoin-bridge/chains/movechain"
	"github.com/ChainSafe/starcoin-bridge/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the node config file")
	flag.Parse()

	cfg, err := config.GetConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}

	// See cmd/signer/main.go: a real movechain.Client is supplied by
	// the deployment once the Move RPC transport exists outside this
	// module's scope (spec.md §1).
	var moveChain movechain.Client

	ctx := context.Background()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return app.RunSigningServer(gctx, cfg, moveChain) })
	if cfg.Client.RunClient {
		g.Go(func() error { return app.RunClient(gctx, cfg, moveChain) })
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("authority node exited with error")
		os.Exit(1)
	}
}
