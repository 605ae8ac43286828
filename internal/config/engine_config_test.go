package config_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github/helmwallet/wallet-engine/internal/config"
)

func TestPrintEngineEnv(t *testing.T) {
	config := config.DefaultEngineConfigFromEnv()
	_, err := json.MarshalIndent(config, "", "  ")

	if err != nil {
		t.Fatal(err)
	}
}

func TestEngineConfigValidate(t *testing.T) {
	cfg := config.DefaultEngineConfigFromEnv()
	require.NoError(t, cfg.Validate())

	cfg.Keystore.Dir = ""
	require.Error(t, cfg.Validate())
}
