// Package config loads the typed configuration for an authority node
// or standalone signing server from a YAML/JSON file via viper,
// grounded on the teacher's composition root (app/app.go's
// `config.GetConfig(viper.GetString(flags.ConfigFlagName))`) and on
// original_source/bridge/src/config.rs's BridgeNodeConfig field shape
// (eth/starcoin sub-configs, server/metrics ports, watchdog config,
// approved governance actions). Key file I/O and CLI flag/subcommand
// wiring stay out of scope per spec.md §1; loading a path already
// resolved by the caller into typed structs is the only ambient
// concern this package owns.
package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/viper"

	bridgecrypto "github.com/ChainSafe/starcoin-bridge/crypto"
	"github.com/ChainSafe/starcoin-bridge/types"
)

// AuthorityMemberConfig is one committee member as read from a
// committee config file, mirroring types.AuthorityInfo field-for-field
// with wire-friendly hex strings in place of raw byte arrays.
type AuthorityMemberConfig struct {
	PublicKeyHex   string `mapstructure:"public-key"`
	MoveAddressHex string `mapstructure:"move-address"`
	VotingPower    uint64 `mapstructure:"voting-power"`
	BaseURL        string `mapstructure:"base-url"`
	Blocklisted    bool   `mapstructure:"blocklisted"`
}

// CommitteeConfig describes the committee for one epoch, loaded once
// at startup; hot-reload of membership within an epoch is a spec.md
// §1 non-goal.
type CommitteeConfig struct {
	Epoch   uint64                  `mapstructure:"epoch"`
	Members []AuthorityMemberConfig `mapstructure:"members"`
}

// ToCommittee decodes the hex-encoded member fields and constructs a
// validated types.Committee, rejecting any member whose public key or
// Move address is malformed before the voting-power invariant is even
// checked.
func (c CommitteeConfig) ToCommittee() (*types.Committee, error) {
	members := make([]types.AuthorityInfo, 0, len(c.Members))
	for i, m := range c.Members {
		pubBytes, err := hex.DecodeString(m.PublicKeyHex)
		if err != nil {
			return nil, fmt.Errorf("committee member %d: decoding public key: %w", i, err)
		}
		pub, err := bridgecrypto.ParseAuthorityPublicKey(pubBytes)
		if err != nil {
			return nil, fmt.Errorf("committee member %d: %w", i, err)
		}
		moveAddrBytes, err := hex.DecodeString(m.MoveAddressHex)
		if err != nil {
			return nil, fmt.Errorf("committee member %d: decoding move address: %w", i, err)
		}
		if len(moveAddrBytes) != 16 {
			return nil, fmt.Errorf("committee member %d: move address must be 16 bytes, got %d", i, len(moveAddrBytes))
		}
		var moveAddr [16]byte
		copy(moveAddr[:], moveAddrBytes)

		members = append(members, types.AuthorityInfo{
			PublicKey:   pub,
			MoveAddress: moveAddr,
			VotingPower: m.VotingPower,
			BaseURL:     m.BaseURL,
			Blocklisted: m.Blocklisted,
		})
	}
	return types.NewCommittee(c.Epoch, members)
}

// EthConfig is the Ethereum side of the bridge deployment, grounded on
// original_source/bridge/src/config.rs's EthConfig (eth_rpc_url,
// eth_bridge_proxy_address, eth_bridge_chain_id,
// eth_contracts_start_block_fallback/override).
type EthConfig struct {
	RPCURL             string        `mapstructure:"rpc-url"`
	BridgeAddressHex   string        `mapstructure:"bridge-address"`
	ChainID            types.ChainID `mapstructure:"chain-id"`
	StartBlockFallback uint64        `mapstructure:"start-block-fallback"`
	StartBlockOverride *uint64       `mapstructure:"start-block-override"`
}

// MoveConfig is the Move (Starcoin) side, grounded on
// original_source/bridge/src/config.rs's StarcoinConfig
// (starcoin_bridge_rpc_url, starcoin_bridge_chain_id, and the
// last-processed-event-id override used to rewind the syncer cursor).
type MoveConfig struct {
	RPCURL              string        `mapstructure:"rpc-url"`
	ModuleName          string        `mapstructure:"module-name"`
	ChainID             types.ChainID `mapstructure:"chain-id"`
	StartCursorOverride *uint64       `mapstructure:"start-cursor-override"`
}

// StorageConfig names the goleveldb directory shared by the cursor and
// pending-action tables (storage.Open).
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig is the standalone signing server's HTTP listen
// addresses (server.NewRouter's http.Server wiring, plus a Prometheus
// /metrics listener), grounded on
// original_source/bridge/src/config.rs's server_listen_port/
// metrics_port fields.
type ServerConfig struct {
	ListenAddr        string `mapstructure:"listen-addr"`
	MetricsListenAddr string `mapstructure:"metrics-listen-addr"`
}

// RunClient marks this node as the designated client (syncers,
// executor, orchestrator, watchdog), mirroring
// original_source/bridge/src/config.rs's run_client flag. Every
// authority runs a signing server; only one (or a small HA set) also
// runs the client side.
type ClientConfig struct {
	RunClient bool `mapstructure:"run-client"`
}

// TokenWatchConfig names one EVM vault token the watchdog should probe
// for balance, mirroring node.rs's per-asset EthereumVaultBalance
// construction (one instance per watched token).
type TokenWatchConfig struct {
	TokenID types.TokenID `mapstructure:"token-id"`
	Label   string        `mapstructure:"label"`
}

// TotalSupplyWatchConfig names one token whose total supply the
// watchdog should probe on a given chain, supplementing the TODO'd-out
// TotalSupplies probe in node.rs's start_watchdog.
type TotalSupplyWatchConfig struct {
	Chain           string        `mapstructure:"chain"` // "evm" or "move"
	TokenID         types.TokenID `mapstructure:"token-id"`
	EVMTokenAddress string        `mapstructure:"evm-token-address"` // only used when Chain == "evm"
}

// WatchdogConfig configures the periodic probe set of spec.md §4.7.
// Interval accepts a Go duration string ("30s"); a zero value leaves
// watchdog.New to fall back to watchdog.DefaultInterval.
type WatchdogConfig struct {
	Interval      time.Duration            `mapstructure:"interval"`
	VaultTokens   []TokenWatchConfig       `mapstructure:"vault-tokens"`
	TotalSupplies []TotalSupplyWatchConfig `mapstructure:"total-supplies"`
}

// Config is the full configuration for one process, loaded from a
// single YAML/JSON file. AuthorityKeyHex carries this node's own
// secp256k1 signing key directly (rather than a keystore file path):
// key file I/O is an explicit spec.md §1 non-goal, and embedding the
// key material inline sidesteps it while remaining a one-field change
// away from a keystore-backed loader if one is ever added outside this
// exercise's scope.
type Config struct {
	Committee CommitteeConfig `mapstructure:"committee"`
	Eth       EthConfig       `mapstructure:"eth"`
	Move      MoveConfig      `mapstructure:"move"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Server    ServerConfig    `mapstructure:"server"`
	Watchdog  WatchdogConfig  `mapstructure:"watchdog"`
	Client    ClientConfig    `mapstructure:"client"`

	AuthorityKeyHex string `mapstructure:"authority-key"`

	// ApprovedGovernanceActions holds operator-preapproved governance
	// actions in the same JSON wire shape HandleSignGovernance accepts
	// over POST /sign/governance (spec.md §4.3.1's allow-list), so the
	// composition root can feed them straight into a
	// server.GovernanceAllowList at startup via the same decode path a
	// live request would use.
	ApprovedGovernanceActions []json.RawMessage `mapstructure:"approved-governance-actions"`
}

// GetConfig reads and unmarshals the config file at path, mirroring
// the teacher's config.GetConfig(path) entry point. The file format is
// inferred from its extension by viper (YAML, JSON, or TOML).
func GetConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config file %s: %w", path, err)
	}
	return cfg, nil
}
