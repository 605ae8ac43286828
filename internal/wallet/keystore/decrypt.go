package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"

	"github.com/pkg/errors"
	"github/helmwallet/wallet-engine/internal/wallet/walleterrors"
	"golang.org/x/crypto/scrypt"
)

// decryptSecret opens an EncryptedBlob. Authentication failure surfaces as
// walleterrors.ErrWrongPassword; a malformed blob fails fast with a parse
// error instead, so corruption and bad credentials stay distinguishable.
func decryptSecret(blob EncryptedBlob, password string) ([]byte, error) {
	salt, err := hex.DecodeString(blob.Salt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode salt")
	}

	nonce, err := hex.DecodeString(blob.Nonce)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode nonce")
	}

	ciphertext, err := hex.DecodeString(blob.Ciphertext)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode ciphertext")
	}

	params := blob.KDFParams
	if params.N == 0 {
		// legacy blobs predate persisted KDF parameters
		params = DefaultScryptParams()
	}

	derivedKey, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, params.DKLen)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive key")
	}

	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GCM")
	}

	if len(nonce) != gcm.NonceSize() {
		return nil, errors.Errorf("unexpected nonce size %d", len(nonce))
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.Wrap(walleterrors.ErrWrongPassword, "failed to authenticate ciphertext")
	}

	return plaintext, nil
}
