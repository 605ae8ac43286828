package address

import (
	"context"
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

// slip10CurveKey is the HMAC key fixed by SLIP-0010 for the ed25519 curve.
const slip10CurveKey = "ed25519 seed"

// deriveSolana derives an ed25519 account from seed and path. The address
// is the base58 encoding of the public key itself.
func (s *service) deriveSolana(ctx context.Context, seed []byte, path string) (string, string, error) {
	keySeed, err := s.DerivePrivateKey(ctx, seed, path, AlgorithmEd25519)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to derive private key")
	}

	defer func() {
		for i := range keySeed {
			keySeed[i] = 0
		}
	}()

	priv := ed25519.NewKeyFromSeed(keySeed)
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return "", "", errors.New("failed to cast public key to ed25519")
	}

	pubKey := solana.PublicKeyFromBytes(pub)

	return pubKey.String(), pubKey.String(), nil
}

// deriveSLIP10Ed25519 derives an ed25519 key seed per SLIP-0010. The
// ed25519 scheme only defines hardened derivation, so every path index
// must carry the hardened flag.
func deriveSLIP10Ed25519(seed []byte, indices []uint32) ([]byte, error) {
	mac := hmac.New(sha512.New, []byte(slip10CurveKey))
	if _, err := mac.Write(seed); err != nil {
		return nil, errors.Wrap(err, "failed to hash seed")
	}
	sum := mac.Sum(nil)

	key := sum[:32]
	chainCode := sum[32:]

	for _, index := range indices {
		if index < 0x80000000 {
			return nil, errors.Errorf("ed25519 derivation requires hardened index, got %d", index)
		}

		data := make([]byte, 0, 1+len(key)+4)
		data = append(data, 0x00)
		data = append(data, key...)
		data = binary.BigEndian.AppendUint32(data, index)

		mac = hmac.New(sha512.New, chainCode)
		if _, err := mac.Write(data); err != nil {
			return nil, errors.Wrap(err, "failed to hash child data")
		}
		sum = mac.Sum(nil)

		key = sum[:32]
		chainCode = sum[32:]
	}

	return key, nil
}
