package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_DefaultsWhenUnset(t *testing.T) {
	clearEnv(t, "DATA_DIR", "CHAINS", "GO_PORT", "BACKUP_ENABLED")
	t.Setenv("DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, []string{"ethereum", "base", "arbitrum", "solana"}, cfg.Chains)
	assert.False(t, cfg.BackupEnabled)
	assert.Equal(t, 30, cfg.ConfluenceMinutes)
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("CHAINS", "ethereum, base , ")
	t.Setenv("GO_PORT", "9100")
	t.Setenv("CONFLUENCE_MIN_WALLETS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"ethereum", "base"}, cfg.Chains, "splitCSV must trim whitespace and drop empty entries")
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, 5, cfg.ConfluenceMinWallets)
}

func TestLoad_ChainRPCURLsReadFromUppercaseEnvVar(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("CHAINS", "ethereum,base")
	t.Setenv("ETHEREUM_RPC_URL", "https://eth.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://eth.example", cfg.ChainRPCURLs["ethereum"])
	_, hasBase := cfg.ChainRPCURLs["base"]
	assert.False(t, hasBase, "a chain without an RPC env var must be absent from the map")
}

func TestLoad_BackupEnabledWithoutBucketFails(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("BACKUP_ENABLED", "true")
	t.Setenv("BACKUP_BUCKET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_BackupEnabledWithBucketSucceeds(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("BACKUP_ENABLED", "true")
	t.Setenv("BACKUP_BUCKET", "alpha-backups")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.BackupEnabled)
}

func TestConfig_PathHelpers(t *testing.T) {
	cfg := &Config{DataDir: "/data"}
	assert.Equal(t, "/data/entities.db", cfg.EntitiesDBPath())
	assert.Equal(t, "/data/papertrader.msgpack", cfg.PaperTraderDBPath())
	assert.Equal(t, "/data/meme_filter.yaml", cfg.MemeFilterPath())
}

func TestConfig_ValidateRequiresDataDirAndChains(t *testing.T) {
	cfg := &Config{DataDir: "", Chains: []string{"ethereum"}}
	assert.Error(t, cfg.Validate())

	cfg = &Config{DataDir: "/data", Chains: nil}
	assert.Error(t, cfg.Validate())

	cfg = &Config{DataDir: "/data", Chains: []string{"ethereum"}}
	assert.NoError(t, cfg.Validate())
}

func TestLoad_CreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	t.Setenv("DATA_DIR", dir)

	_, err := Load()
	require.NoError(t, err)

	require.DirExists(t, dir)
}
