package wallet_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/helmwallet/wallet-engine/internal/wallet"
	"github/helmwallet/wallet-engine/internal/wallet/chain"
	"github/helmwallet/wallet-engine/internal/wallet/keystore"
	"github/helmwallet/wallet-engine/internal/wallet/walleterrors"
)

func TestCreateWalletUnlocksAndPinsVerificationAddress(t *testing.T) {
	engine := newTestEngine(t, testEngineConfig(t), evmNetwork(unreachableEndpoint))
	ctx := context.Background()

	account, err := engine.CreateWallet(ctx, testMnemonic, testPassword)
	require.NoError(t, err)

	assert.Equal(t, evmAddress0, account.Address)
	assert.Equal(t, "ethereum", account.ChainID)
	assert.True(t, engine.IsUnlocked())

	meta, err := engine.Keystore.LoadWalletMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, evmAddress0, meta.VerificationAddress)
	require.Len(t, meta.Accounts, 1)
	assert.Equal(t, uint32(0), meta.Accounts[0].AccountIndex)
	assert.False(t, meta.Accounts[0].Imported)
}

func TestCreateWalletRejectsInvalidMnemonic(t *testing.T) {
	engine := newTestEngine(t, testEngineConfig(t), evmNetwork(unreachableEndpoint))

	_, err := engine.CreateWallet(context.Background(), "definitely not a mnemonic", testPassword)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mnemonic")
	assert.False(t, engine.IsUnlocked())
}

func TestCreateWalletRejectsSecondWallet(t *testing.T) {
	engine := newUnlockedEngine(t, evmNetwork(unreachableEndpoint))

	_, err := engine.CreateWallet(context.Background(), testMnemonic, testPassword)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wallet already exists")
}

func TestUnlockWithWrongPassword(t *testing.T) {
	engine := newUnlockedEngine(t, evmNetwork(unreachableEndpoint))
	ctx := context.Background()

	engine.Lock(ctx)
	require.False(t, engine.IsUnlocked())

	_, err := engine.Unlock(ctx, "not the password")
	require.ErrorIs(t, err, walleterrors.ErrWrongPassword)
	assert.False(t, engine.IsUnlocked())
}

func TestUnlockWithoutWallet(t *testing.T) {
	engine := newTestEngine(t, testEngineConfig(t), evmNetwork(unreachableEndpoint))

	_, err := engine.Unlock(context.Background(), testPassword)
	require.ErrorIs(t, err, walleterrors.ErrNoWalletFound)
}

func TestUnlockRestoresDerivation(t *testing.T) {
	engine := newUnlockedEngine(t, evmNetwork(unreachableEndpoint))
	ctx := context.Background()

	engine.Lock(ctx)

	session, err := engine.Unlock(ctx, testPassword)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.NotEmpty(t, session.ID)
	assert.True(t, engine.IsUnlocked())

	account, err := engine.DeriveAccount(ctx, "ethereum", 1)
	require.NoError(t, err)
	assert.Equal(t, evmAddress1, account.Address)
}

func TestLockStopsDerivation(t *testing.T) {
	engine := newUnlockedEngine(t, evmNetwork(unreachableEndpoint))
	ctx := context.Background()

	engine.Lock(ctx)

	_, err := engine.DeriveAccount(ctx, "ethereum", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed not initialized")
}

func TestUnlockToleratesUnknownVerificationRecord(t *testing.T) {
	engine := newUnlockedEngine(t, evmNetwork(unreachableEndpoint))
	ctx := context.Background()

	// a pinned address no account record explains is skipped, not fatal,
	// matching records written before verification existed
	require.NoError(t, engine.Keystore.SetVerificationAddress(ctx, "0x000000000000000000000000000000000000dEaD"))

	engine.Lock(ctx)

	_, err := engine.Unlock(ctx, testPassword)
	require.NoError(t, err)
	assert.True(t, engine.IsUnlocked())
}

func TestDeriveAccountPersistsOnceAndCaches(t *testing.T) {
	engine := newUnlockedEngine(t, evmNetwork(unreachableEndpoint))
	ctx := context.Background()

	account, err := engine.DeriveAccount(ctx, "ethereum", 1)
	require.NoError(t, err)
	assert.Equal(t, evmAddress1, account.Address)
	assert.Equal(t, "m/44'/60'/0'/0/1", account.DerivationPath)

	again, err := engine.DeriveAccount(ctx, "ethereum", 1)
	require.NoError(t, err)
	assert.Equal(t, account, again)
	assert.GreaterOrEqual(t, testutil.ToFloat64(engine.Metrics.AddressCacheHits), float64(1))

	meta, err := engine.Keystore.LoadWalletMetadata(ctx)
	require.NoError(t, err)
	assert.Len(t, meta.Accounts, 2)
}

func TestDeriveAccountUnknownChain(t *testing.T) {
	engine := newUnlockedEngine(t, evmNetwork(unreachableEndpoint))

	_, err := engine.DeriveAccount(context.Background(), "dogecoin", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestImportAccount(t *testing.T) {
	engine := newUnlockedEngine(t, evmNetwork(unreachableEndpoint))
	ctx := context.Background()

	imported, err := engine.ImportAccount(ctx, "ethereum", importedMnemonic, "Cold storage", testPassword)
	require.NoError(t, err)
	assert.NotEqual(t, evmAddress0, imported.Address)
	assert.Equal(t, uint32(0), imported.AccountIndex)

	accounts, err := engine.Accounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	var record keystore.AccountRecord
	for _, rec := range accounts {
		if rec.Imported {
			record = rec
		}
	}

	assert.Equal(t, "Cold storage", record.Name)
	assert.Equal(t, imported.Address, record.Address)
	assert.NotEmpty(t, record.ID)
}

func TestImportAccountWithWrongPassword(t *testing.T) {
	engine := newUnlockedEngine(t, evmNetwork(unreachableEndpoint))

	_, err := engine.ImportAccount(context.Background(), "ethereum", importedMnemonic, "Cold storage", "not the password")
	require.ErrorIs(t, err, walleterrors.ErrWrongPassword)
}

func TestImportedAccountSurvivesRelock(t *testing.T) {
	engine := newUnlockedEngine(t, evmNetwork(unreachableEndpoint))
	ctx := context.Background()

	imported, err := engine.ImportAccount(ctx, "ethereum", importedMnemonic, "Cold storage", testPassword)
	require.NoError(t, err)

	engine.Lock(ctx)

	_, err = engine.Unlock(ctx, testPassword)
	require.NoError(t, err)

	accounts, err := engine.Accounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	found := false
	for _, rec := range accounts {
		if rec.Imported && rec.Address == imported.Address {
			found = true
		}
	}
	assert.True(t, found)
}

func TestPreferencesRoundTrip(t *testing.T) {
	engine := newUnlockedEngine(t, evmNetwork(unreachableEndpoint))
	ctx := context.Background()

	prefs, err := engine.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15, prefs.AutoLockMinutes)
	assert.Equal(t, "USD", prefs.FiatCurrency)

	prefs.AutoLockMinutes = 1
	prefs.FiatCurrency = "EUR"
	require.NoError(t, engine.UpdatePreferences(ctx, prefs))

	reloaded, err := engine.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.AutoLockMinutes)
	assert.Equal(t, "EUR", reloaded.FiatCurrency)
}

func TestAccountBalance(t *testing.T) {
	server := httptest.NewServer(rpcHandler(t, map[string]func(params []json.RawMessage) interface{}{
		"eth_getBalance": func(_ []json.RawMessage) interface{} { return "0xde0b6b3a7640000" },
	}))
	t.Cleanup(server.Close)

	engine := newUnlockedEngine(t, evmNetwork(server.URL))

	bal, err := engine.AccountBalance(context.Background(), "ethereum", 0)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", bal.Amount.String())
	assert.True(t, bal.Display.Equal(decimal.RequireFromString("1")))
	assert.Equal(t, "wei", bal.Denom)
}

func TestAccountBalanceUnknownAccount(t *testing.T) {
	engine := newUnlockedEngine(t, evmNetwork(unreachableEndpoint))

	_, err := engine.AccountBalance(context.Background(), "ethereum", 9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "derive it first")
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := testEngineConfig(t)
	cfg.Swap.MaxHops = 0

	_, err := wallet.NewEngineWithNetworks(cfg, []chain.Network{evmNetwork(unreachableEndpoint)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid engine configuration")
}

func TestNewEngineRejectsDuplicateNetworks(t *testing.T) {
	_, err := wallet.NewEngineWithNetworks(testEngineConfig(t), []chain.Network{
		evmNetwork(unreachableEndpoint),
		evmNetwork(unreachableEndpoint),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate network")
}
