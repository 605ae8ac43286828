package address

import (
	"context"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/pkg/errors"
	"github/helmwallet/wallet-engine/internal/wallet/chain"
)

// deriveCosmos derives an account-ledger address from seed and path.
// The address is the bech32 encoding (network HRP) of the hash160 of
// the compressed secp256k1 public key.
func (s *service) deriveCosmos(ctx context.Context, seed []byte, path string, network chain.Network) (string, string, error) {
	if network.Bech32Prefix == "" {
		return "", "", errors.Errorf("network %s has no bech32 prefix", network.ChainID)
	}

	privateKey, err := s.DerivePrivateKey(ctx, seed, path, AlgorithmSecp256k1)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to derive private key")
	}

	defer func() {
		for i := range privateKey {
			privateKey[i] = 0
		}
	}()

	priv, _ := btcec.PrivKeyFromBytes(privateKey)
	compressed := priv.PubKey().SerializeCompressed()

	addr, err := EncodeBech32(network.Bech32Prefix, btcutil.Hash160(compressed))
	if err != nil {
		return "", "", err
	}

	return addr, hex.EncodeToString(compressed), nil
}

// EncodeBech32 encodes a 20-byte account hash as a bech32 address with
// the given human readable prefix.
func EncodeBech32(hrp string, accountHash []byte) (string, error) {
	converted, err := bech32.ConvertBits(accountHash, 8, 5, true)
	if err != nil {
		return "", errors.Wrap(err, "failed to convert address bits")
	}

	encoded, err := bech32.Encode(hrp, converted)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode bech32 address")
	}

	return encoded, nil
}
