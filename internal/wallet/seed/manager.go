package seed

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
)

// manager implements seed management with thread-safe access
type manager struct {
	seed        []byte
	mu          sync.RWMutex
	initialized bool
}

// NewManager creates a new seed Manager
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewManager() Manager {
	return &manager{
		seed:        nil,
		initialized: false,
	}
}

// GenerateMnemonic creates a fresh mnemonic with the given entropy size in
// bits (128 for 12 words, 256 for 24 words).
func GenerateMnemonic(bits int) (string, error) {
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate entropy")
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate mnemonic")
	}

	return mnemonic, nil
}

// Initialize derives the BIP39 seed from the mnemonic and optional passphrase
// and holds it in memory until Clear is called.
func (m *manager) Initialize(mnemonic string, passphrase string) error {
	if !bip39.IsMnemonicValid(mnemonic) {
		return errors.New("invalid mnemonic")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seed = bip39.NewSeed(mnemonic, passphrase)
	m.initialized = true

	return nil
}

// GetSeed gets the seed (returns a copy to prevent external modification)
func (m *manager) GetSeed() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized || m.seed == nil {
		return nil
	}

	seedCopy := make([]byte, len(m.seed))
	copy(seedCopy, m.seed)
	return seedCopy
}

// IsInitialized checks if seed is initialized
func (m *manager) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.initialized
}

// Clear clears the seed from memory
func (m *manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.seed != nil {
		// Clear seed from memory
		for i := range m.seed {
			m.seed[i] = 0
		}
		m.seed = nil
	}
	m.initialized = false
}
