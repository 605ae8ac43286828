package address

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip32"
	"github/helmwallet/wallet-engine/internal/wallet/chain"
	"github/helmwallet/wallet-engine/internal/wallet/walleterrors"
)

type service struct{}

// NewService creates a new AddressService
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService() (Service, error) {
	return &service{}, nil
}

// DeriveAccount derives the account for a network at the given index
func (s *service) DeriveAccount(ctx context.Context, seed []byte, accountIndex uint32, network chain.Network) (Account, error) {
	path := s.DerivationPath(network, accountIndex)

	var (
		addr      string
		publicKey string
		algorithm string
		err       error
	)

	switch network.Family {
	case chain.FamilyEVM:
		algorithm = AlgorithmSecp256k1
		addr, publicKey, err = s.deriveEVM(ctx, seed, path)
	case chain.FamilyUTXO:
		algorithm = AlgorithmSecp256k1
		addr, publicKey, err = s.deriveUTXO(ctx, seed, path, network)
	case chain.FamilyCosmos:
		algorithm = AlgorithmSecp256k1
		addr, publicKey, err = s.deriveCosmos(ctx, seed, path, network)
	case chain.FamilySolana:
		algorithm = AlgorithmEd25519
		addr, publicKey, err = s.deriveSolana(ctx, seed, path)
	default:
		return Account{}, errors.Wrapf(walleterrors.ErrUnsupportedChainFamily, "family %q", network.Family)
	}

	if err != nil {
		return Account{}, errors.Wrapf(err, "failed to derive account for %s", network.ChainID)
	}

	return Account{
		Address:        addr,
		PublicKey:      publicKey,
		Algorithm:      algorithm,
		DerivationPath: path,
		AccountIndex:   accountIndex,
		ChainID:        network.ChainID,
	}, nil
}

// DerivationPath builds the derivation path for a network and account index.
// Account-model chains share m/44'/{coin}'/0'/0/{index} so every EVM network
// resolves to the same address. SegWit UTXO networks use the BIP84 purpose,
// ed25519 networks the hardened-only SLIP-0010 layout.
func (s *service) DerivationPath(network chain.Network, accountIndex uint32) string {
	switch {
	case network.Family == chain.FamilySolana:
		return fmt.Sprintf("m/44'/%d'/%d'/0'", network.CoinType, accountIndex)
	case network.Family == chain.FamilyUTXO && network.SegWit:
		return fmt.Sprintf("m/84'/%d'/0'/0/%d", network.CoinType, accountIndex)
	default:
		return fmt.Sprintf("m/44'/%d'/0'/0/%d", network.CoinType, accountIndex)
	}
}

// DerivePrivateKey derives a raw private key from seed and path
// WARNING: Caller must clear the private key after use
func (s *service) DerivePrivateKey(_ context.Context, seed []byte, path string, algorithm string) ([]byte, error) {
	switch algorithm {
	case AlgorithmSecp256k1:
		// Create master key from seed
		masterKey, err := bip32.NewMasterKey(seed)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create master key")
		}

		// Derive key from path
		derivedKey, err := deriveKeyFromPath(masterKey, path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to derive key from path")
		}

		// Return private key (32 bytes)
		return derivedKey.Key, nil

	case AlgorithmEd25519:
		indices, err := parseBIP44Path(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse derivation path")
		}

		return deriveSLIP10Ed25519(seed, indices)

	default:
		return nil, errors.Errorf("unsupported signature algorithm: %s", algorithm)
	}
}

// deriveKeyFromPath derives a key from BIP44 path
// Path format: m/44'/60'/0'/0/{index}
func deriveKeyFromPath(masterKey *bip32.Key, path string) (*bip32.Key, error) {
	// Parse path
	indices, err := parseBIP44Path(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse BIP44 path")
	}

	// Derive key step by step
	key := masterKey
	for _, index := range indices {
		key, err = key.NewChildKey(index)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive child key at index %d", index)
		}
	}

	return key, nil
}

// parseBIP44Path parses a BIP44 path string into indices
// Example: "m/44'/60'/0'/0/0" -> [2147483692, 2147483708, 2147483648, 0, 0]
func parseBIP44Path(path string) ([]uint32, error) {
	if len(path) == 0 || path[0] != 'm' {
		return nil, fmt.Errorf("invalid BIP44 path: %s", path)
	}

	// Remove 'm/' prefix
	if len(path) > 2 && path[1] == '/' {
		path = path[2:]
	}

	// Split by '/'
	parts := []string{}
	current := ""
	for _, char := range path {
		if char == '/' {
			if current != "" {
				parts = append(parts, current)
				current = ""
			}
		} else {
			current += string(char)
		}
	}
	if current != "" {
		parts = append(parts, current)
	}

	// Parse each part
	indices := make([]uint32, 0, len(parts))
	for _, part := range parts {
		hardened := false
		if len(part) > 0 && part[len(part)-1] == '\'' {
			hardened = true
			part = part[:len(part)-1]
		}

		var index uint32
		_, err := fmt.Sscanf(part, "%d", &index)
		if err != nil {
			return nil, fmt.Errorf("invalid path segment: %s", part)
		}

		// Add hardened flag (0x80000000)
		if hardened {
			index += 0x80000000
		}

		indices = append(indices, index)
	}

	return indices, nil
}
