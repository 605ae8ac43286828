package address

import (
	"context"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/pkg/errors"
	"github/helmwallet/wallet-engine/internal/wallet/chain"
	"github/helmwallet/wallet-engine/internal/wallet/utxo"
)

// deriveUTXO derives a UTXO address from seed and path. SegWit networks
// encode a P2WPKH (bech32) address, the rest a base58check P2PKH address.
// 根据网络类型派生隔离见证或传统地址
func (s *service) deriveUTXO(_ context.Context, seed []byte, path string, network chain.Network) (string, string, error) {
	params, err := utxo.ChainParams(network)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to resolve chain parameters")
	}

	key, err := deriveExtendedKey(seed, path, params)
	if err != nil {
		return "", "", err
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return "", "", errors.Wrap(err, "failed to extract EC private key")
	}
	defer priv.Zero()

	compressed := priv.PubKey().SerializeCompressed()
	pubKeyHash := btcutil.Hash160(compressed)

	var addr btcutil.Address
	if network.SegWit {
		addr, err = btcutil.NewAddressWitnessPubKeyHash(pubKeyHash, params)
	} else {
		addr, err = btcutil.NewAddressPubKeyHash(pubKeyHash, params)
	}
	if err != nil {
		return "", "", errors.Wrap(err, "failed to encode address")
	}

	return addr.EncodeAddress(), hex.EncodeToString(compressed), nil
}

// deriveExtendedKey walks a BIP44 path from the master key using hdkeychain.
// The result is the same secp256k1 scalar DerivePrivateKey produces, hdkeychain
// additionally carries the chain parameters needed for UTXO signing.
func deriveExtendedKey(seed []byte, path string, params *chaincfg.Params) (*hdkeychain.ExtendedKey, error) {
	masterKey, err := hdkeychain.NewMaster(seed, params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create master key")
	}

	indices, err := parseBIP44Path(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse BIP44 path")
	}

	key := masterKey
	for _, index := range indices {
		key, err = key.Derive(index)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive child key at index %d", index)
		}
	}

	return key, nil
}
