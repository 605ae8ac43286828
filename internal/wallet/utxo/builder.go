package utxo

import (
	"bytes"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
	"github/helmwallet/wallet-engine/internal/wallet/chain"
	"github/helmwallet/wallet-engine/internal/wallet/walleterrors"
)

// DefaultDustThreshold is applied when the network does not configure one.
//
//nolint:mnd
const DefaultDustThreshold = 546

// sweepFeeDivisor caps the sweep fee at 1/5 (20%) of the swept total.
const sweepFeeDivisor = 5

// transferOutputs is the output count fees are estimated against for an
// ordinary send: destination plus change.
const transferOutputs = 2

type output struct {
	addr  btcutil.Address
	value int64
}

// BuildTransfer selects coins, assembles and signs a single-destination
// transfer. Change below the network dust threshold is folded into the fee.
// 构建并签名转账交易
func BuildTransfer(priv *btcec.PrivateKey, intent TransferIntent, utxos []Utxo, network chain.Network) (*SignedTx, error) {
	params, err := ChainParams(network)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve chain parameters")
	}

	if intent.Amount <= 0 {
		return nil, errors.Errorf("transfer amount must be positive, got %d", intent.Amount)
	}
	if intent.FeeRate <= 0 {
		return nil, errors.Errorf("fee rate must be positive, got %d", intent.FeeRate)
	}

	ownAddr, err := fromAddress(priv, network, params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive source address")
	}
	if intent.From != "" && intent.From != ownAddr.EncodeAddress() {
		return nil, errors.Errorf("private key does not control from address %s", intent.From)
	}

	if err := ValidateAddress(intent.To, network); err != nil {
		return nil, err
	}
	destAddr, err := btcutil.DecodeAddress(intent.To, params)
	if err != nil {
		return nil, errors.Wrapf(walleterrors.ErrInvalidOutputAddress, "undecodable address %q: %v", intent.To, err)
	}

	selected, fee, err := SelectCoins(utxos, intent.Amount, intent.FeeRate, transferOutputs, network.SegWit)
	if err != nil {
		return nil, err
	}

	dust := network.DustThreshold
	if dust == 0 {
		dust = DefaultDustThreshold
	}

	outputs := []output{{addr: destAddr, value: intent.Amount}}

	change := sumValues(selected) - intent.Amount - fee
	if change >= dust {
		outputs = append(outputs, output{addr: ownAddr, value: change})
	} else {
		// sub-dust change is uneconomical to spend, fold it into the fee
		fee += change
	}

	return buildAndSign(priv, ownAddr, selected, outputs, fee, network.SegWit)
}

// BuildSweep spends every confirmed UTXO into a single destination output,
// destination receives the swept total minus fee. Rejects when the fee would
// exceed 20% of the swept value.
// 扫币：全部已确认输入归集到单一输出
func BuildSweep(priv *btcec.PrivateKey, dest string, utxos []Utxo, feeRate int64, network chain.Network) (*SignedTx, error) {
	params, err := ChainParams(network)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve chain parameters")
	}

	if feeRate <= 0 {
		return nil, errors.Errorf("fee rate must be positive, got %d", feeRate)
	}

	confirmed := make([]Utxo, 0, len(utxos))
	for _, u := range utxos {
		if u.Confirmed {
			confirmed = append(confirmed, u)
		}
	}
	if len(confirmed) == 0 {
		return nil, errors.Wrap(walleterrors.ErrNoConfirmedUtxos, "nothing to sweep")
	}

	if err := ValidateAddress(dest, network); err != nil {
		return nil, err
	}
	destAddr, err := btcutil.DecodeAddress(dest, params)
	if err != nil {
		return nil, errors.Wrapf(walleterrors.ErrInvalidOutputAddress, "undecodable address %q: %v", dest, err)
	}

	total := sumValues(confirmed)
	fee := EstimateFee(len(confirmed), 1, feeRate, network.SegWit)

	if fee*sweepFeeDivisor > total {
		return nil, errors.Wrapf(walleterrors.ErrFeeExceedsThreshold,
			"fee %d exceeds 20%% of swept value %d", fee, total)
	}

	ownAddr, err := fromAddress(priv, network, params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive source address")
	}

	outputs := []output{{addr: destAddr, value: total - fee}}

	return buildAndSign(priv, ownAddr, confirmed, outputs, fee, network.SegWit)
}

// fromAddress derives the address the private key controls on this network.
func fromAddress(priv *btcec.PrivateKey, network chain.Network, params *chaincfg.Params) (btcutil.Address, error) {
	pubKeyHash := btcutil.Hash160(priv.PubKey().SerializeCompressed())

	if network.SegWit {
		return btcutil.NewAddressWitnessPubKeyHash(pubKeyHash, params)
	}
	return btcutil.NewAddressPubKeyHash(pubKeyHash, params)
}

// buildAndSign assembles the wire transaction and signs every input. All
// inputs are assumed to be locked to the account's own address script.
func buildAndSign(priv *btcec.PrivateKey, own btcutil.Address, inputs []Utxo, outputs []output, fee int64, segwit bool) (*SignedTx, error) {
	ownScript, err := txscript.PayToAddrScript(own)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build input script")
	}

	tx := wire.NewMsgTx(wire.TxVersion)

	prevOuts := make(map[wire.OutPoint]*wire.TxOut, len(inputs))
	for _, u := range inputs {
		hash, err := chainhash.NewHashFromStr(u.TxID)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid txid %q", u.TxID)
		}

		op := wire.NewOutPoint(hash, u.OutputIndex)
		tx.AddTxIn(wire.NewTxIn(op, nil, nil))
		prevOuts[*op] = wire.NewTxOut(u.Value, ownScript)
	}

	for _, out := range outputs {
		script, err := txscript.PayToAddrScript(out.addr)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build output script")
		}
		tx.AddTxOut(wire.NewTxOut(out.value, script))
	}

	fetcher := txscript.NewMultiPrevOutFetcher(prevOuts)

	if segwit {
		sigHashes := txscript.NewTxSigHashes(tx, fetcher)
		for i, u := range inputs {
			witness, err := txscript.WitnessSignature(tx, sigHashes, i, u.Value, ownScript, txscript.SigHashAll, priv, true)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to sign input %d", i)
			}
			tx.TxIn[i].Witness = witness
		}
	} else {
		for i := range inputs {
			sigScript, err := txscript.SignatureScript(tx, i, ownScript, txscript.SigHashAll, priv, true)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to sign input %d", i)
			}
			tx.TxIn[i].SignatureScript = sigScript
		}
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, errors.Wrap(err, "failed to serialize transaction")
	}

	size := tx.SerializeSize()
	stripped := tx.SerializeSizeStripped()
	weight := stripped*(witnessScaleFactor-1) + size
	vsize := (weight + witnessScaleFactor - 1) / witnessScaleFactor

	return &SignedTx{
		RawTx: buf.Bytes(),
		TxID:  tx.TxHash().String(),
		Size:  size,
		VSize: vsize,
		Fee:   fee,
	}, nil
}
