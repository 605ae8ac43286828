package signer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// signEIP1559Transaction 组装并签名 DynamicFeeTx，返回可直接广播的 RLP 字节
func (s *service) signEIP1559Transaction(_ context.Context, req *SignEVMRequest, privateKey []byte) (*SignEVMResponse, error) {
	key, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load secp256k1 key")
	}

	if !common.IsHexAddress(req.To) {
		return nil, errors.Errorf("invalid recipient address: %s", req.To)
	}
	if !common.IsHexAddress(req.FromAddress) {
		return nil, errors.Errorf("invalid from address: %s", req.FromAddress)
	}

	// The derivation path decides the key. A mismatch with the caller's
	// expected sender means the account record is stale or corrupted.
	if derived := crypto.PubkeyToAddress(key.PublicKey); derived != common.HexToAddress(req.FromAddress) {
		return nil, errors.Errorf("derived address %s does not match account address %s", derived.Hex(), req.FromAddress)
	}

	value, err := parseWeiAmount("value", req.Value)
	if err != nil {
		return nil, err
	}

	feeCap, err := parseWeiAmount("maxFeePerGas", req.MaxFeePerGas)
	if err != nil {
		return nil, err
	}

	tipCap, err := parseWeiAmount("maxPriorityFeePerGas", req.MaxPriorityFeePerGas)
	if err != nil {
		return nil, err
	}

	to := common.HexToAddress(req.To)
	chainID := big.NewInt(req.ChainID)

	unsigned := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     req.Nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       req.GasLimit,
		To:        &to,
		Value:     value,
		Data:      req.Data,
	})

	signed, err := types.SignTx(unsigned, types.NewLondonSigner(chainID), key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode signed transaction")
	}

	return &SignEVMResponse{
		RawTransaction: raw,
		TxHash:         signed.Hash().Hex(),
	}, nil
}

// parseWeiAmount parses a base-10 wei quantity off the wire format used by
// the signing requests. Hex quantities are rejected on purpose, callers
// convert before handing values down.
func parseWeiAmount(field, s string) (*big.Int, error) {
	const base10 = 10

	amount, ok := new(big.Int).SetString(s, base10)
	if !ok {
		return nil, errors.Errorf("invalid %s format", field)
	}

	return amount, nil
}
