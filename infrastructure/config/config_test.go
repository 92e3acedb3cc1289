package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/calico-network/calicod/domain/dagconfig"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigNetworks(t *testing.T) {
	tests := []struct {
		args         []string
		expectedName string
	}{
		{args: nil, expectedName: dagconfig.MainnetParams.Name},
		{args: []string{"--testnet"}, expectedName: dagconfig.TestnetParams.Name},
		{args: []string{"--testnet-11"}, expectedName: dagconfig.Testnet11Params.Name},
		{args: []string{"--simnet"}, expectedName: dagconfig.SimnetParams.Name},
		{args: []string{"--devnet"}, expectedName: dagconfig.DevnetParams.Name},
		{args: []string{"--testnet", "--netsuffix=3"}, expectedName: dagconfig.TestnetParams.Name + "-3"},
	}

	for _, test := range tests {
		cfg, err := loadConfig(append(test.args, "--appdir", t.TempDir(), "--logdir", t.TempDir()))
		require.NoError(t, err, "args %v", test.args)
		require.Equal(t, test.expectedName, cfg.NetParams().Name)
		require.Equal(t, test.expectedName, filepath.Base(cfg.AppDir))
	}

	// Suffixing must not leak into the package level parameters
	require.Equal(t, "calico-testnet", dagconfig.TestnetParams.Name)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig([]string{"--testnet", "--simnet"})
	require.Error(t, err)

	_, err = loadConfig([]string{"--simnet", "--netsuffix=1"})
	require.Error(t, err)

	_, err = loadConfig([]string{"--maxinpeers=-1"})
	require.Error(t, err)

	_, err = loadConfig([]string{"--loglevel=nonsense"})
	require.Error(t, err)

	_, err = loadConfig([]string{"--profile=80"})
	require.Error(t, err)

	_, err = loadConfig([]string{"--profile=notaport"})
	require.Error(t, err)
}

func TestOverrideDAGParams(t *testing.T) {
	paramsFile := filepath.Join(t.TempDir(), "params.json")
	err := os.WriteFile(paramsFile, []byte(`{"k": 5, "finalityDepth": 100, "pruningDepth": 250, "skipProofOfWork": true}`), 0600)
	require.NoError(t, err)

	_, err = loadConfig([]string{"--testnet", "--override-dag-params-file", paramsFile})
	require.Error(t, err)

	cfg, err := loadConfig([]string{"--devnet", "--override-dag-params-file", paramsFile,
		"--appdir", t.TempDir(), "--logdir", t.TempDir()})
	require.NoError(t, err)
	require.EqualValues(t, 5, cfg.NetParams().K)
	require.EqualValues(t, 100, cfg.NetParams().FinalityDepth)
	require.EqualValues(t, 250, cfg.NetParams().PruningDepth)
	require.True(t, cfg.NetParams().SkipProofOfWork)
	require.False(t, dagconfig.DevnetParams.SkipProofOfWork)
}
