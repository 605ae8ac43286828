package address

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// deriveEVM derives an EVM address from seed and BIP44 path.
// The returned address carries the EIP-55 mixed-case checksum.
func (s *service) deriveEVM(ctx context.Context, seed []byte, path string) (string, string, error) {
	// Derive private key from seed and path
	privateKey, err := s.DerivePrivateKey(ctx, seed, path, AlgorithmSecp256k1)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to derive private key")
	}

	// Clear private key after use
	defer func() {
		for i := range privateKey {
			privateKey[i] = 0
		}
	}()

	// Convert to ECDSA private key
	ecdsaPrivateKey, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to convert to ECDSA private key")
	}

	// Get public key
	publicKey := ecdsaPrivateKey.Public()
	publicKeyECDSA, ok := publicKey.(*ecdsa.PublicKey)
	if !ok {
		return "", "", errors.New("failed to cast public key to ECDSA")
	}

	// Derive address from public key
	addr := crypto.PubkeyToAddress(*publicKeyECDSA)

	return addr.Hex(), hex.EncodeToString(crypto.CompressPubkey(publicKeyECDSA)), nil
}
