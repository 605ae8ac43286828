package command_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/helmwallet/wallet-engine/internal/config"
	"github/helmwallet/wallet-engine/internal/util/command"
	"github/helmwallet/wallet-engine/internal/wallet"
)

const testRegistry = `networks:
  - chain_id: ethereum
    name: Ethereum
    family: evm
    coin_type: 60
    decimals: 18
    denom: wei
    endpoints:
      - http://127.0.0.1:1
    gas_price_hint: "20000000000"
    evm_chain_id: 1
    is_active: true
`

func testCommandConfig(t *testing.T, registryPath string) config.Engine {
	t.Helper()

	return config.Engine{
		Keystore:     config.Keystore{Dir: t.TempDir(), InMemory: true},
		Registry:     config.Registry{Path: registryPath},
		Net:          config.Net{AttemptTimeout: time.Second},
		AutoLock:     config.AutoLock{Minutes: 15, PollInterval: time.Second},
		AddressCache: config.AddressCache{TTL: time.Minute, CleanupInterval: time.Minute},
		Swap:         config.Swap{MaxHops: 3, RefreshAttempts: 1, RefreshInterval: time.Second},
		Logger:       config.Logger{Level: zerolog.Disabled},
	}
}

func TestWithEngine(t *testing.T) {
	registryPath := filepath.Join(t.TempDir(), "networks.yml")
	require.NoError(t, os.WriteFile(registryPath, []byte(testRegistry), 0o600))

	var testError = errors.New("test error")

	resultErr := command.WithEngine(t.Context(), testCommandConfig(t, registryPath), func(ctx context.Context, e *wallet.Engine) error {
		networks := e.Registry.GetActiveNetworks()
		require.Len(t, networks, 1)
		assert.Equal(t, "ethereum", networks[0].ChainID)
		assert.Equal(t, int64(1), networks[0].EVMChainID)

		exists, err := e.Keystore.HasWallet(ctx)
		require.NoError(t, err)
		assert.False(t, exists)

		return testError
	})

	assert.Equal(t, testError, resultErr)
}

func TestWithEngineMissingRegistry(t *testing.T) {
	cfg := testCommandConfig(t, filepath.Join(t.TempDir(), "nope.yml"))

	err := command.WithEngine(t.Context(), cfg, func(_ context.Context, _ *wallet.Engine) error {
		t.Error("callback must not run without a registry")
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read network registry")
}
