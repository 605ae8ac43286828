package keystore_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/helmwallet/wallet-engine/internal/wallet/keystore"
	"github/helmwallet/wallet-engine/internal/wallet/walleterrors"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testPassword = "correct horse battery staple"
)

func newTestService(t *testing.T) (keystore.Service, *keystore.MemoryBackend) {
	t.Helper()

	backend := keystore.NewMemoryBackend()
	svc, err := keystore.NewService(backend)
	require.NoError(t, err)

	return svc, backend
}

func TestCreateAndLoadWalletRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	record, err := svc.CreateWallet(ctx, testMnemonic, testPassword)
	require.NoError(t, err)
	assert.Equal(t, keystore.WalletSchemaVersion, record.SchemaVersion)
	assert.NotEmpty(t, record.ID)

	mnemonic, loaded, err := svc.LoadWallet(ctx, testPassword)
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, mnemonic)
	assert.Equal(t, record.ID, loaded.ID)
}

func TestLoadWalletWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.CreateWallet(ctx, testMnemonic, testPassword)
	require.NoError(t, err)

	_, _, err = svc.LoadWallet(ctx, "not the password")
	require.Error(t, err)
	assert.True(t, errors.Is(err, walleterrors.ErrWrongPassword))
}

func TestLoadWalletAbsent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, _, err := svc.LoadWallet(ctx, testPassword)
	require.Error(t, err)
	assert.True(t, errors.Is(err, walleterrors.ErrNoWalletFound))

	_, err = svc.LoadWalletMetadata(ctx)
	assert.True(t, errors.Is(err, walleterrors.ErrNoWalletFound))
}

func TestCreateWalletTwice(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.CreateWallet(ctx, testMnemonic, testPassword)
	require.NoError(t, err)

	_, err = svc.CreateWallet(ctx, testMnemonic, testPassword)
	require.Error(t, err)
}

func TestLoadWalletMetadataWithoutPassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.CreateWallet(ctx, testMnemonic, testPassword)
	require.NoError(t, err)

	accounts := []keystore.AccountRecord{
		{
			ID:             "3a7c9d51-0000-4000-8000-000000000001",
			Name:           "Account 1",
			Address:        "helm1qqqsyqcyq5rqwzqfpg9scrgwpugpzysnrujsuw",
			PublicKey:      "02c6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5",
			Algorithm:      "secp256k1",
			DerivationPath: "m/44'/118'/0'/0/0",
			AccountIndex:   0,
			ChainID:        "helmchain-1",
		},
	}
	require.NoError(t, svc.SaveAccounts(ctx, accounts))
	require.NoError(t, svc.SetVerificationAddress(ctx, accounts[0].Address))

	metadata, err := svc.LoadWalletMetadata(ctx)
	require.NoError(t, err)
	require.Len(t, metadata.Accounts, 1)
	assert.Equal(t, accounts[0].Address, metadata.Accounts[0].Address)
	assert.Equal(t, accounts[0].Address, metadata.VerificationAddress)
}

// A record persisted before the schemaVersion field existed must still load.
func TestLegacyUnversionedRecordLoads(t *testing.T) {
	ctx := context.Background()
	svc, backend := newTestService(t)

	_, err := svc.CreateWallet(ctx, testMnemonic, testPassword)
	require.NoError(t, err)

	raw, err := backend.Get(ctx, "wallet")
	require.NoError(t, err)

	var asMap map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &asMap))
	delete(asMap, "schemaVersion")
	delete(asMap, "accounts")

	legacy, err := json.Marshal(asMap)
	require.NoError(t, err)
	require.NoError(t, backend.Set(ctx, "wallet", legacy))

	mnemonic, record, err := svc.LoadWallet(ctx, testPassword)
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, mnemonic)
	assert.Equal(t, keystore.WalletSchemaVersion, record.SchemaVersion)
	assert.NotNil(t, record.Accounts)

	metadata, err := svc.LoadWalletMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, keystore.WalletSchemaVersion, metadata.SchemaVersion)
}

func TestImportedAccountIndependentEncryption(t *testing.T) {
	ctx := context.Background()
	svc, backend := newTestService(t)

	_, err := svc.CreateWallet(ctx, testMnemonic, testPassword)
	require.NoError(t, err)

	importedMnemonic := "legal winner thank year wave sausage worth useful legal winner thank yellow"
	account := keystore.AccountRecord{
		ID:        "3a7c9d51-0000-4000-8000-000000000002",
		Name:      "Imported",
		Address:   "0x9858EfFD232B4033E47d90003D41EC34EcaEda94",
		Algorithm: "secp256k1",
		ChainID:   "ethereum",
	}

	require.NoError(t, svc.AddImportedAccount(ctx, account, importedMnemonic, testPassword))

	raw, err := backend.Get(ctx, "wallet")
	require.NoError(t, err)

	var record keystore.WalletRecord
	require.NoError(t, json.Unmarshal(raw, &record))
	require.Len(t, record.ImportedAccounts, 1)

	imported := record.ImportedAccounts[0]
	assert.True(t, imported.Account.Imported)
	assert.NotEqual(t, record.Crypto.Salt, imported.Crypto.Salt)
	assert.NotEqual(t, record.Crypto.Nonce, imported.Crypto.Nonce)
	assert.NotEqual(t, record.Crypto.Ciphertext, imported.Crypto.Ciphertext)

	got, err := svc.LoadImportedMnemonic(ctx, account.ID, testPassword)
	require.NoError(t, err)
	assert.Equal(t, importedMnemonic, got)

	_, err = svc.LoadImportedMnemonic(ctx, account.ID, "wrong")
	assert.True(t, errors.Is(err, walleterrors.ErrWrongPassword))

	_, err = svc.LoadImportedMnemonic(ctx, "unknown-id", testPassword)
	assert.Error(t, err)
}

func TestAddImportedAccountRejectsWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.CreateWallet(ctx, testMnemonic, testPassword)
	require.NoError(t, err)

	err = svc.AddImportedAccount(ctx, keystore.AccountRecord{ID: "x"}, testMnemonic, "typo")
	assert.True(t, errors.Is(err, walleterrors.ErrWrongPassword))
}

func TestPreferencesRoundTripAndDefaults(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	prefs, err := svc.LoadPreferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, keystore.PreferencesSchemaVersion, prefs.SchemaVersion)
	assert.Equal(t, 15, prefs.AutoLockMinutes)

	prefs.AutoLockMinutes = 5
	prefs.DefaultChainID = "helmchain-1"
	prefs.HiddenAssets = []string{"ujunk"}
	require.NoError(t, svc.SavePreferences(ctx, prefs))

	loaded, err := svc.LoadPreferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.AutoLockMinutes)
	assert.Equal(t, "helmchain-1", loaded.DefaultChainID)
	assert.Equal(t, []string{"ujunk"}, loaded.HiddenAssets)
}
