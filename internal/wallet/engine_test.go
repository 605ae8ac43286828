package wallet_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/helmwallet/wallet-engine/internal/config"
	"github/helmwallet/wallet-engine/internal/wallet"
	"github/helmwallet/wallet-engine/internal/wallet/chain"
)

//nolint:dupword // BIP39 test vector with repeated words
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// importedMnemonic is a second valid phrase, standing in for a foreign wallet.
const importedMnemonic = "legal winner thank year wave sausage worth useful legal winner thank yellow"

const testPassword = "correct horse battery staple"

// Addresses of testMnemonic at m/44'/60'/0'/0/{0,1}.
const (
	evmAddress0 = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
	evmAddress1 = "0x6Fac4D18c912343BF86fa7049364Dd4E424Ab9C0"
)

// unreachableEndpoint satisfies registry validation for tests that never
// touch the network.
const unreachableEndpoint = "http://127.0.0.1:1"

func testEngineConfig(t *testing.T) config.Engine {
	t.Helper()

	return config.Engine{
		Keystore:     config.Keystore{Dir: t.TempDir(), InMemory: true},
		Registry:     config.Registry{Path: "networks.yml"},
		Net:          config.Net{AttemptTimeout: 2 * time.Second},
		AutoLock:     config.AutoLock{Minutes: 15, PollInterval: 5 * time.Millisecond},
		AddressCache: config.AddressCache{TTL: time.Minute, CleanupInterval: time.Minute},
		Swap:         config.Swap{MaxHops: 3, RefreshAttempts: 3, RefreshInterval: 5 * time.Millisecond},
		Logger:       config.Logger{Level: zerolog.Disabled},
	}
}

func evmNetwork(endpoint string) chain.Network {
	return chain.Network{
		ChainID:      "ethereum",
		Name:         "Ethereum",
		Family:       chain.FamilyEVM,
		CoinType:     60,
		Decimals:     18,
		Denom:        "wei",
		Endpoints:    []string{endpoint},
		GasPriceHint: "20000000000",
		EVMChainID:   1,
		IsActive:     true,
	}
}

func cosmosNetwork(endpoint string) chain.Network {
	return chain.Network{
		ChainID:      "helmchain-1",
		Name:         "Helm Chain",
		Family:       chain.FamilyCosmos,
		CoinType:     118,
		Decimals:     6,
		Denom:        "uhelm",
		Bech32Prefix: "helm",
		Endpoints:    []string{endpoint},
		GasPriceHint: "0.025uhelm",
		IsActive:     true,
	}
}

func solanaNetwork(endpoint string) chain.Network {
	return chain.Network{
		ChainID:   "solana",
		Name:      "Solana",
		Family:    chain.FamilySolana,
		CoinType:  501,
		Decimals:  9,
		Denom:     "lamports",
		Endpoints: []string{endpoint},
		IsActive:  true,
	}
}

func utxoNetwork(endpoint string) chain.Network {
	return chain.Network{
		ChainID:       "bitcoin",
		Name:          "Bitcoin",
		Family:        chain.FamilyUTXO,
		CoinType:      0,
		Decimals:      8,
		Denom:         "sats",
		SegWit:        true,
		Endpoints:     []string{endpoint},
		FeeRateHint:   2,
		DustThreshold: 546,
		IsActive:      true,
	}
}

func newTestEngine(t *testing.T, cfg config.Engine, networks ...chain.Network) *wallet.Engine {
	t.Helper()

	zerolog.SetGlobalLevel(cfg.Logger.Level)

	engine, err := wallet.NewEngineWithNetworks(cfg, networks)
	require.NoError(t, err)

	return engine
}

// newUnlockedEngine builds an engine and creates the test wallet, leaving it
// unlocked with the first account of the first network registered.
func newUnlockedEngine(t *testing.T, networks ...chain.Network) *wallet.Engine {
	t.Helper()

	engine := newTestEngine(t, testEngineConfig(t), networks...)

	_, err := engine.CreateWallet(context.Background(), testMnemonic, testPassword)
	require.NoError(t, err)

	return engine
}

// rpcHandler dispatches JSON-RPC requests to per-method handlers.
func rpcHandler(t *testing.T, methods map[string]func(params []json.RawMessage) interface{}) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		handler, ok := methods[req.Method]
		if !ok {
			t.Errorf("unexpected rpc method %s", req.Method)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      1,
			"result":  handler(req.Params),
		}))
	}
}
