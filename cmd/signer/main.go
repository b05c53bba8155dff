// Copyright 2021 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

// Command signer runs a standalone signing-server-only node: it
// serves spec.md §6.1's three signing endpoints and never drives the
// syncers, executor, orchestrator, or watchdog, mirroring
// original_source/bridge/src/config.rs's run_client == false
// deployment shape (BridgeServerConfig).
package main

import (
	"context"
	"flag"
	"os"

	"github.com/rs/zerolog/log"

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

	// A real movechain.Client is the one external collaborator
	// spec.md §1 scopes out of this module (no ecosystem Go SDK for
	// the Move RPC transport exists in the retrieval pack); a
	// deployment that signs Move-side actions supplies one here. Until
	// then this binary still fully serves EVM signing requests, since
	// HandleSignMoveTx degrades to errNoMoveRoute when moveVerifier is
	// nil (server.NewHandler).
	var moveChain movechain.Client

	if err := app.RunSigningServer(context.Background(), cfg, moveChain); err != nil {
		log.Error().Err(err).Msg("signing server exited with error")
		os.Exit(1)
	}
}
