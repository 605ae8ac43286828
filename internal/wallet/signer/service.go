package signer

import (
	"context"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/pkg/errors"
	"github/helmwallet/wallet-engine/internal/wallet/address"
	"github/helmwallet/wallet-engine/internal/wallet/cosmos"
	"github/helmwallet/wallet-engine/internal/wallet/seed"
	"github/helmwallet/wallet-engine/internal/wallet/solana"
	"github/helmwallet/wallet-engine/internal/wallet/utxo"
)

type service struct {
	seedManager    seed.Manager
	addressService address.Service
}

// NewService creates a new SignerService
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(seedManager seed.Manager, addressService address.Service) (Service, error) {
	return &service{
		seedManager:    seedManager,
		addressService: addressService,
	}, nil
}

// derivePrivateKey resolves the in-memory seed and derives raw key material
// for the path. The caller owns the returned bytes and must wipe them.
func (s *service) derivePrivateKey(ctx context.Context, path, algorithm string) ([]byte, error) {
	// Get seed from memory
	walletSeed := s.seedManager.GetSeed()
	if walletSeed == nil {
		return nil, errors.New("seed not initialized")
	}

	privateKey, err := s.addressService.DerivePrivateKey(ctx, walletSeed, path, algorithm)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive private key")
	}

	return privateKey, nil
}

// SignEVMTransaction signs an EVM transaction (EIP-1559)
func (s *service) SignEVMTransaction(ctx context.Context, req *SignEVMRequest) (*SignEVMResponse, error) {
	privateKey, err := s.derivePrivateKey(ctx, req.DerivationPath, address.AlgorithmSecp256k1)
	if err != nil {
		return nil, err
	}

	// Clear private key after use
	defer func() {
		for i := range privateKey {
			privateKey[i] = 0
		}
	}()

	return s.signEIP1559Transaction(ctx, req, privateKey)
}

// SignCosmosTransaction builds and signs a SIGN_MODE_DIRECT transaction.
// 派生密钥、签名摘要并组装可广播的 TxRaw 字节
func (s *service) SignCosmosTransaction(ctx context.Context, req *SignCosmosRequest) (*SignCosmosResponse, error) {
	privateKey, err := s.derivePrivateKey(ctx, req.DerivationPath, address.AlgorithmSecp256k1)
	if err != nil {
		return nil, err
	}

	// Clear private key after use
	defer func() {
		for i := range privateKey {
			privateKey[i] = 0
		}
	}()

	priv, _ := btcec.PrivKeyFromBytes(privateKey)
	defer priv.Zero()

	rawTx, err := cosmos.BuildSignedTx(req.Input, priv.PubKey().SerializeCompressed(), func(digest []byte) ([]byte, error) {
		return SignDigestSecp256k1(priv, digest), nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build signed transaction")
	}

	return &SignCosmosResponse{RawTransaction: rawTx}, nil
}

// SignSolanaTransfer builds and signs a system transfer
func (s *service) SignSolanaTransfer(ctx context.Context, req *SignSolanaRequest) (*solana.SignedTx, error) {
	keySeed, err := s.derivePrivateKey(ctx, req.DerivationPath, address.AlgorithmEd25519)
	if err != nil {
		return nil, err
	}

	// Clear key seed after use
	defer func() {
		for i := range keySeed {
			keySeed[i] = 0
		}
	}()

	priv, err := solana.KeyFromSeed(keySeed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to expand signing key")
	}

	defer func() {
		for i := range priv {
			priv[i] = 0
		}
	}()

	return solana.BuildTransfer(priv, req.Intent)
}

// SignUTXOTransfer selects inputs and signs a transfer with change
func (s *service) SignUTXOTransfer(ctx context.Context, req *SignUTXORequest) (*utxo.SignedTx, error) {
	priv, err := s.utxoKey(ctx, req.DerivationPath)
	if err != nil {
		return nil, err
	}
	defer priv.Zero()

	return utxo.BuildTransfer(priv, req.Intent, req.Utxos, req.Network)
}

// SignUTXOSweep signs a transaction spending every confirmed input to one output
func (s *service) SignUTXOSweep(ctx context.Context, req *SignUTXOSweepRequest) (*utxo.SignedTx, error) {
	priv, err := s.utxoKey(ctx, req.DerivationPath)
	if err != nil {
		return nil, err
	}
	defer priv.Zero()

	return utxo.BuildSweep(priv, req.Destination, req.Utxos, req.FeeRate, req.Network)
}

func (s *service) utxoKey(ctx context.Context, path string) (*btcec.PrivateKey, error) {
	privateKey, err := s.derivePrivateKey(ctx, path, address.AlgorithmSecp256k1)
	if err != nil {
		return nil, err
	}

	// Clear raw key material after loading it into the curve type
	defer func() {
		for i := range privateKey {
			privateKey[i] = 0
		}
	}()

	priv, _ := btcec.PrivKeyFromBytes(privateKey)

	return priv, nil
}

// SignDigestSecp256k1 produces the 64-byte R||S signature account-ledger
// chains verify. SignCompact prepends a recovery byte the chain does not
// expect, so it is stripped.
func SignDigestSecp256k1(priv *btcec.PrivateKey, digest []byte) []byte {
	sig := btcecdsa.SignCompact(priv, digest, false)

	return sig[1:]
}
