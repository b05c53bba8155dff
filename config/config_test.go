package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ChainSafe/starcoin-bridge/types"
)

const sampleYAML = `
committee:
  epoch: 1
  members:
    - public-key: "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
      move-address: "00000000000000000000000000000001"
      voting-power: 10000
      base-url: "https://authority-0.example.com"

eth:
  rpc-url: "https://eth.example.com"
  bridge-address: "0x1111111111111111111111111111111111111111"
  chain-id: 1
  start-block-fallback: 100

move:
  rpc-url: "https://move.example.com"
  module-name: "bridge"
  chain-id: 0

storage:
  path: "/var/lib/bridge/db"

server:
  listen-addr: ":9000"
  metrics-listen-addr: ":9001"

client:
  run-client: true

watchdog:
  interval: 30s
  vault-tokens:
    - token-id: 1
      label: "weth"

authority-key: "deadbeef"
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestGetConfigUnmarshalsAllSections(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)

	cfg, err := GetConfig(path)
	require.NoError(t, err)

	require.Equal(t, uint64(1), cfg.Committee.Epoch)
	require.Len(t, cfg.Committee.Members, 1)
	require.Equal(t, "https://eth.example.com", cfg.Eth.RPCURL)
	require.Equal(t, types.ChainID(1), cfg.Eth.ChainID)
	require.Equal(t, uint64(100), cfg.Eth.StartBlockFallback)
	require.Equal(t, "bridge", cfg.Move.ModuleName)
	require.Equal(t, "/var/lib/bridge/db", cfg.Storage.Path)
	require.Equal(t, ":9000", cfg.Server.ListenAddr)
	require.Equal(t, ":9001", cfg.Server.MetricsListenAddr)
	require.True(t, cfg.Client.RunClient)
	require.Equal(t, 30*time.Second, cfg.Watchdog.Interval)
	require.Len(t, cfg.Watchdog.VaultTokens, 1)
	require.Equal(t, "weth", cfg.Watchdog.VaultTokens[0].Label)
	require.Equal(t, "deadbeef", cfg.AuthorityKeyHex)
}

func TestGetConfigRejectsMissingFile(t *testing.T) {
	_, err := GetConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}

func TestCommitteeConfigToCommitteeValidatesVotingPower(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)
	cfg, err := GetConfig(path)
	require.NoError(t, err)

	committee, err := cfg.Committee.ToCommittee()
	require.NoError(t, err)
	require.Equal(t, uint64(1), committee.Epoch)
	require.Len(t, committee.Members, 1)
	require.Equal(t, types.TotalVotingPower, committee.Members[0].VotingPower)
}

func TestCommitteeConfigToCommitteeRejectsBadPublicKeyHex(t *testing.T) {
	bad := CommitteeConfig{
		Epoch: 1,
		Members: []AuthorityMemberConfig{
			{PublicKeyHex: "not-hex", MoveAddressHex: "00000000000000000000000000000001", VotingPower: types.TotalVotingPower},
		},
	}
	_, err := bad.ToCommittee()
	require.Error(t, err)
}
