package configloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
chain:
  primaryRpcUrl: http://127.0.0.1:8545
  contractAddress: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
`

func TestParseAppliesDefaults(t *testing.T) {
	t.Setenv(OperatorKeyEnv, "")

	cfg, err := Parse([]byte(minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "3030", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "ETH", cfg.Chain.NativeSymbol)
	assert.Equal(t, 10, cfg.Chain.ConnectTimeoutSeconds)
	assert.EqualValues(t, 500, cfg.Chain.ReceiptPollIntervalMillis)
	assert.Equal(t, 8, cfg.Performance.MaxConcurrentReads)
	assert.Equal(t, 100, cfg.RPCClient.MaxBatchSize)
	assert.Equal(t, "docs/swagger.yaml", cfg.Swagger.SpecFile)
	assert.Equal(t, "0x5FbDB2315678afecb367f032d93F642f64180aa3", cfg.ContractAddress().Hex())
}

func TestParseOperatorKeyFromEnv(t *testing.T) {
	t.Setenv(OperatorKeyEnv, "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")

	cfg, err := Parse([]byte(minimalConfig))
	require.NoError(t, err)
	assert.Equal(t, "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80", cfg.Chain.OperatorPrivateKey)
}

func TestParseRejectsMissingChainSettings(t *testing.T) {
	_, err := Parse([]byte("server:\n  port: \"8080\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chain.primaryRpcUrl is required")
	assert.Contains(t, err.Error(), "chain.contractAddress")
}

func TestLoadReadsFile(t *testing.T) {
	t.Setenv(OperatorKeyEnv, "")
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(minimalConfig+"server:\n  port: \"9000\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}
