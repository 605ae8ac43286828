package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"

	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"
)

// encryptSecret seals the given secret with a key derived from the password
// and a fresh random salt. AES-256-GCM authenticates the ciphertext, so
// tampering and wrong passwords are indistinguishable on decrypt.
func encryptSecret(secret []byte, password string) (EncryptedBlob, error) {
	//nolint:mnd // 32 is the standard salt size for scrypt
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return EncryptedBlob{}, errors.Wrap(err, "failed to generate salt")
	}

	params := DefaultScryptParams()

	derivedKey, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, params.DKLen)
	if err != nil {
		return EncryptedBlob{}, errors.Wrap(err, "failed to derive key")
	}

	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return EncryptedBlob{}, errors.Wrap(err, "failed to create cipher")
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return EncryptedBlob{}, errors.Wrap(err, "failed to create GCM")
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return EncryptedBlob{}, errors.Wrap(err, "failed to generate nonce")
	}

	ciphertext := gcm.Seal(nil, nonce, secret, nil)

	return EncryptedBlob{
		Ciphertext: hex.EncodeToString(ciphertext),
		Salt:       hex.EncodeToString(salt),
		Nonce:      hex.EncodeToString(nonce),
		Cipher:     cipherAES256GCM,
		KDF:        kdfScrypt,
		KDFParams:  params,
	}, nil
}
