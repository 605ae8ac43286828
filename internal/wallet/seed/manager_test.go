package seed_test

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"
	"github/helmwallet/wallet-engine/internal/wallet/seed"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

	// BIP39 seed for testMnemonic with an empty passphrase.
	testSeedHex = "5eb00bbddcf069084889a8ab9155568165f5c453ccb85e70811aaed6f6da5fc19a5ac40b389cd370d086206dec8aa6c43daea6690f20ad3d8d48b2d2ce9e38e4"
)

func TestInitializeKnownVector(t *testing.T) {
	m := seed.NewManager()
	require.False(t, m.IsInitialized())

	require.NoError(t, m.Initialize(testMnemonic, ""))
	require.True(t, m.IsInitialized())

	assert.Equal(t, testSeedHex, hex.EncodeToString(m.GetSeed()))
}

func TestInitializeRejectsInvalidMnemonic(t *testing.T) {
	m := seed.NewManager()
	err := m.Initialize("definitely not a valid mnemonic phrase", "")
	require.Error(t, err)
	assert.False(t, m.IsInitialized())
}

func TestGetSeedReturnsCopy(t *testing.T) {
	m := seed.NewManager()
	require.NoError(t, m.Initialize(testMnemonic, ""))

	first := m.GetSeed()
	for i := range first {
		first[i] = 0xff
	}

	assert.Equal(t, testSeedHex, hex.EncodeToString(m.GetSeed()))
}

func TestClear(t *testing.T) {
	m := seed.NewManager()
	require.NoError(t, m.Initialize(testMnemonic, ""))

	m.Clear()
	assert.False(t, m.IsInitialized())
	assert.Nil(t, m.GetSeed())
}

func TestGenerateMnemonic(t *testing.T) {
	mnemonic, err := seed.GenerateMnemonic(256)
	require.NoError(t, err)

	assert.Len(t, strings.Fields(mnemonic), 24)
	assert.True(t, bip39.IsMnemonicValid(mnemonic))

	other, err := seed.GenerateMnemonic(256)
	require.NoError(t, err)
	assert.NotEqual(t, mnemonic, other)
}
