// Package solana builds and signs System Program transfers offline. The
// caller supplies a recent blockhash, broadcasting happens elsewhere.
package solana

import (
	"crypto/ed25519"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/pkg/errors"
)

// TransferIntent describes a native SOL transfer.
type TransferIntent struct {
	From            string `json:"from"`
	To              string `json:"to"`
	Lamports        uint64 `json:"lamports"`
	RecentBlockhash string `json:"recentBlockhash"`
}

// SignedTx is a serialized signed transaction plus its first signature,
// which doubles as the transaction id.
type SignedTx struct {
	RawTx     []byte `json:"rawTx"`
	Signature string `json:"signature"`
}

// KeyFromSeed expands a 32-byte derivation seed into the 64-byte ed25519
// private key the SDK works with.
func KeyFromSeed(seed []byte) (solanago.PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, errors.Errorf("ed25519 seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}

	return solanago.PrivateKey(ed25519.NewKeyFromSeed(seed)), nil
}

// BuildTransfer builds and signs a System Program transfer.
// 构建并签名 SOL 转账
func BuildTransfer(priv solanago.PrivateKey, intent TransferIntent) (*SignedTx, error) {
	if intent.Lamports == 0 {
		return nil, errors.New("transfer amount must be positive")
	}

	fromPubkey, err := solanago.PublicKeyFromBase58(intent.From)
	if err != nil {
		return nil, errors.Wrap(err, "invalid from address")
	}
	toPubkey, err := solanago.PublicKeyFromBase58(intent.To)
	if err != nil {
		return nil, errors.Wrap(err, "invalid to address")
	}

	if !priv.PublicKey().Equals(fromPubkey) {
		return nil, errors.Errorf("private key does not control from address %s", intent.From)
	}

	blockhash, err := solanago.HashFromBase58(intent.RecentBlockhash)
	if err != nil {
		return nil, errors.Wrap(err, "invalid recent blockhash")
	}

	instruction := system.NewTransferInstruction(intent.Lamports, fromPubkey, toPubkey).Build()

	tx, err := solanago.NewTransaction(
		[]solanago.Instruction{instruction},
		blockhash,
		solanago.TransactionPayer(fromPubkey),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create transaction")
	}

	_, err = tx.Sign(func(key solanago.PublicKey) *solanago.PrivateKey {
		if priv.PublicKey().Equals(key) {
			return &priv
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	if len(tx.Signatures) == 0 {
		return nil, errors.New("transaction carries no signature")
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize transaction")
	}

	return &SignedTx{
		RawTx:     raw,
		Signature: tx.Signatures[0].String(),
	}, nil
}
