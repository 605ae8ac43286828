package seed

// Manager provides seed management functionality
type Manager interface {
	// Initialize derives and holds the seed for the given mnemonic (called on unlock)
	Initialize(mnemonic string, passphrase string) error

	// GetSeed gets the seed (from memory)
	GetSeed() []byte

	// IsInitialized checks if seed is initialized
	IsInitialized() bool

	// Clear clears the seed from memory
	Clear()
}
