package utxo

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/pkg/errors"
	"github/helmwallet/wallet-engine/internal/wallet/chain"
	"github/helmwallet/wallet-engine/internal/wallet/walleterrors"
)

// ValidateAddress checks a destination address against the address kinds the
// network accepts. SegWit networks accept witness, legacy and script-hash
// outputs, legacy-only networks reject witness addresses.
// 校验目标地址类型是否被该网络接受
func ValidateAddress(addr string, network chain.Network) error {
	params, err := ChainParams(network)
	if err != nil {
		return errors.Wrap(err, "failed to resolve chain parameters")
	}

	decoded, err := btcutil.DecodeAddress(addr, params)
	if err != nil {
		return errors.Wrapf(walleterrors.ErrInvalidOutputAddress, "undecodable address %q: %v", addr, err)
	}

	if !decoded.IsForNet(params) {
		return errors.Wrapf(walleterrors.ErrInvalidOutputAddress, "address %q is for a different network", addr)
	}

	switch decoded.(type) {
	case *btcutil.AddressWitnessPubKeyHash, *btcutil.AddressWitnessScriptHash:
		if !network.SegWit {
			return errors.Wrapf(walleterrors.ErrInvalidOutputAddress,
				"witness address %q not accepted on legacy network %s", addr, network.ChainID)
		}
		return nil
	case *btcutil.AddressPubKeyHash, *btcutil.AddressScriptHash:
		return nil
	default:
		return errors.Wrapf(walleterrors.ErrInvalidOutputAddress,
			"unsupported address kind %T for network %s", decoded, network.ChainID)
	}
}
