package address

import (
	"context"

	"github/helmwallet/wallet-engine/internal/wallet/chain"
)

// Signature algorithms used by the supported chain families.
const (
	AlgorithmSecp256k1 = "secp256k1"
	AlgorithmEd25519   = "ed25519"
)

// Account is a derived account bound to a single network.
// 派生账户,与单条链绑定
type Account struct {
	Address        string `json:"address"`
	PublicKey      string `json:"publicKey"`
	Algorithm      string `json:"algorithm"`
	DerivationPath string `json:"derivationPath"`
	AccountIndex   uint32 `json:"accountIndex"`
	ChainID        string `json:"chainId"`
}

// Service provides address derivation for all supported chain families
type Service interface {
	// DeriveAccount derives the account for a network at the given index.
	// The same seed and index always yield the same account.
	DeriveAccount(ctx context.Context, seed []byte, accountIndex uint32, network chain.Network) (Account, error)

	// DerivePrivateKey derives a raw private key from seed and path.
	// For secp256k1 the result is the 32-byte scalar, for ed25519 the
	// 32-byte SLIP-0010 seed of the keypair.
	// WARNING: Private key should be cleared after use
	DerivePrivateKey(ctx context.Context, seed []byte, path string, algorithm string) ([]byte, error)

	// DerivationPath builds the derivation path for a network and account index
	DerivationPath(network chain.Network, accountIndex uint32) string
}
