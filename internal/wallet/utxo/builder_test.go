package utxo_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/helmwallet/wallet-engine/internal/wallet/chain"
	"github/helmwallet/wallet-engine/internal/wallet/utxo"
	"github/helmwallet/wallet-engine/internal/wallet/walleterrors"
)

func segwitNetwork() chain.Network {
	return chain.Network{
		ChainID:       "bitcoin",
		Name:          "Bitcoin",
		Family:        chain.FamilyUTXO,
		CoinType:      0,
		Decimals:      8,
		SegWit:        true,
		DustThreshold: 546,
		IsActive:      true,
	}
}

func legacyNetwork() chain.Network {
	n := segwitNetwork()
	n.SegWit = false
	return n
}

// testKey returns a fixed private key and the addresses it controls.
func testKey(t *testing.T) (*btcec.PrivateKey, string, string) {
	t.Helper()

	priv, _ := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{0x01}, 32))
	pubKeyHash := btcutil.Hash160(priv.PubKey().SerializeCompressed())

	segwitAddr, err := btcutil.NewAddressWitnessPubKeyHash(pubKeyHash, &chaincfg.MainNetParams)
	require.NoError(t, err)
	legacyAddr, err := btcutil.NewAddressPubKeyHash(pubKeyHash, &chaincfg.MainNetParams)
	require.NoError(t, err)

	return priv, segwitAddr.EncodeAddress(), legacyAddr.EncodeAddress()
}

func testUtxos(values ...int64) []utxo.Utxo {
	utxos := make([]utxo.Utxo, 0, len(values))
	for i, v := range values {
		utxos = append(utxos, utxo.Utxo{
			TxID:        fmt.Sprintf("%064x", i+1),
			OutputIndex: uint32(i),
			Value:       v,
			Confirmed:   true,
		})
	}
	return utxos
}

// assertValidSpend runs every input through the script engine against the
// prevout scripts, proving the signatures verify.
func assertValidSpend(t *testing.T, raw []byte, inputs []utxo.Utxo, ownScript []byte) *wire.MsgTx {
	t.Helper()

	var tx wire.MsgTx
	require.NoError(t, tx.Deserialize(bytes.NewReader(raw)))

	prevOuts := make(map[wire.OutPoint]*wire.TxOut, len(inputs))
	for _, u := range inputs {
		hash, err := chainhash.NewHashFromStr(u.TxID)
		require.NoError(t, err)
		prevOuts[*wire.NewOutPoint(hash, u.OutputIndex)] = wire.NewTxOut(u.Value, ownScript)
	}

	fetcher := txscript.NewMultiPrevOutFetcher(prevOuts)
	sigHashes := txscript.NewTxSigHashes(&tx, fetcher)

	for i := range tx.TxIn {
		prev, ok := prevOuts[tx.TxIn[i].PreviousOutPoint]
		require.True(t, ok, "input %d spends unknown outpoint", i)

		vm, err := txscript.NewEngine(prev.PkScript, &tx, i, txscript.StandardVerifyFlags, nil, sigHashes, prev.Value, fetcher)
		require.NoError(t, err)
		require.NoErrorf(t, vm.Execute(), "input %d failed script validation", i)
	}

	return &tx
}

func ownScript(t *testing.T, addr string) []byte {
	t.Helper()

	decoded, err := btcutil.DecodeAddress(addr, &chaincfg.MainNetParams)
	require.NoError(t, err)
	script, err := txscript.PayToAddrScript(decoded)
	require.NoError(t, err)

	return script
}

func TestEstimateFeeMatchesNetworkConvention(t *testing.T) {
	assert.Equal(t, int64(1410), utxo.EstimateFee(1, 2, 10, true))
	assert.Equal(t, int64(2260), utxo.EstimateFee(1, 2, 10, false))
	assert.Equal(t, int64(680), utxo.EstimateFee(2, 1, 10, true)-utxo.EstimateFee(1, 1, 10, true))

	assert.Equal(t, int64(141), utxo.VirtualSize(1, 2, true))
	assert.Equal(t, int64(226), utxo.VirtualSize(1, 2, false))
}

func TestSelectCoinsGreedyDescending(t *testing.T) {
	utxos := testUtxos(100_000, 50_000, 25_000)

	selected, fee, err := utxo.SelectCoins(utxos, 50_000, 10, 2, true)
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, int64(100_000), selected[0].Value)
	assert.Equal(t, int64(1410), fee)
}

func TestSelectCoinsAccumulates(t *testing.T) {
	utxos := testUtxos(30_000, 20_000, 10_000)

	// 30k alone does not cover 40k + fee, 30k+20k does
	selected, fee, err := utxo.SelectCoins(utxos, 40_000, 10, 2, true)
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, int64(30_000), selected[0].Value)
	assert.Equal(t, int64(20_000), selected[1].Value)
	assert.Equal(t, utxo.EstimateFee(2, 2, 10, true), fee)
}

func TestSelectCoinsInsufficientFunds(t *testing.T) {
	utxos := testUtxos(100_000, 50_000, 25_000)

	_, _, err := utxo.SelectCoins(utxos, 200_000, 10, 2, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, walleterrors.ErrInsufficientFunds)
}

func TestSelectCoinsSkipsUnconfirmed(t *testing.T) {
	utxos := testUtxos(100_000)
	utxos[0].Confirmed = false

	_, _, err := utxo.SelectCoins(utxos, 10_000, 10, 2, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, walleterrors.ErrNoConfirmedUtxos)

	// unconfirmed value must not count toward an otherwise short selection
	utxos = append(utxos, utxo.Utxo{TxID: fmt.Sprintf("%064x", 99), Value: 5_000, Confirmed: true})
	_, _, err = utxo.SelectCoins(utxos, 50_000, 10, 2, true)
	assert.ErrorIs(t, err, walleterrors.ErrInsufficientFunds)
}

func TestBuildTransferSegWit(t *testing.T) {
	priv, fromAddr, _ := testKey(t)
	utxos := testUtxos(100_000, 50_000)

	intent := utxo.TransferIntent{
		From:    fromAddr,
		To:      "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu",
		Amount:  50_000,
		FeeRate: 10,
	}

	signed, err := utxo.BuildTransfer(priv, intent, utxos, segwitNetwork())
	require.NoError(t, err)
	require.NotEmpty(t, signed.RawTx)
	assert.Equal(t, int64(1410), signed.Fee)
	assert.Positive(t, signed.VSize)
	assert.GreaterOrEqual(t, signed.Size, signed.VSize)

	tx := assertValidSpend(t, signed.RawTx, utxos[:1], ownScript(t, fromAddr))
	require.Len(t, tx.TxIn, 1)
	require.Len(t, tx.TxOut, 2)
	assert.Equal(t, int64(50_000), tx.TxOut[0].Value)
	assert.Equal(t, int64(100_000-50_000-1410), tx.TxOut[1].Value)
	assert.Equal(t, ownScript(t, fromAddr), tx.TxOut[1].PkScript)
	assert.NotEmpty(t, tx.TxIn[0].Witness)
	assert.Equal(t, tx.TxHash().String(), signed.TxID)
}

func TestBuildTransferLegacy(t *testing.T) {
	priv, _, fromAddr := testKey(t)
	utxos := testUtxos(100_000)

	intent := utxo.TransferIntent{
		From:    fromAddr,
		To:      "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa",
		Amount:  40_000,
		FeeRate: 10,
	}

	signed, err := utxo.BuildTransfer(priv, intent, utxos, legacyNetwork())
	require.NoError(t, err)
	assert.Equal(t, int64(2260), signed.Fee)

	tx := assertValidSpend(t, signed.RawTx, utxos, ownScript(t, fromAddr))
	require.Len(t, tx.TxOut, 2)
	assert.Equal(t, int64(40_000), tx.TxOut[0].Value)
	assert.Equal(t, int64(100_000-40_000-2260), tx.TxOut[1].Value)
	assert.Empty(t, tx.TxIn[0].Witness)
	assert.NotEmpty(t, tx.TxIn[0].SignatureScript)
}

func TestBuildTransferFoldsDustChange(t *testing.T) {
	priv, fromAddr, _ := testKey(t)
	utxos := testUtxos(60_000)

	// change = 60000 - 59500 - 1410 < dust, folded into the fee
	intent := utxo.TransferIntent{
		From:    fromAddr,
		To:      "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu",
		Amount:  59_500 - 1410,
		FeeRate: 10,
	}

	signed, err := utxo.BuildTransfer(priv, intent, utxos, segwitNetwork())
	require.NoError(t, err)

	tx := assertValidSpend(t, signed.RawTx, utxos, ownScript(t, fromAddr))
	require.Len(t, tx.TxOut, 1, "dust change must not become an output")
	assert.Equal(t, intent.Amount, tx.TxOut[0].Value)

	// realized fee absorbs the folded change
	assert.Equal(t, int64(60_000)-intent.Amount, signed.Fee)
}

func TestBuildTransferRejectsForeignKey(t *testing.T) {
	priv, _, _ := testKey(t)
	utxos := testUtxos(100_000)

	intent := utxo.TransferIntent{
		From:    "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu",
		To:      "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu",
		Amount:  10_000,
		FeeRate: 10,
	}

	_, err := utxo.BuildTransfer(priv, intent, utxos, segwitNetwork())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not control")
}

func TestBuildSweep(t *testing.T) {
	priv, fromAddr, _ := testKey(t)
	utxos := testUtxos(40_000, 30_000, 20_000)
	utxos = append(utxos, utxo.Utxo{TxID: fmt.Sprintf("%064x", 50), Value: 99_000, Confirmed: false})

	signed, err := utxo.BuildSweep(priv, "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", utxos, 10, segwitNetwork())
	require.NoError(t, err)

	wantFee := utxo.EstimateFee(3, 1, 10, true)
	assert.Equal(t, wantFee, signed.Fee)

	tx := assertValidSpend(t, signed.RawTx, utxos[:3], ownScript(t, fromAddr))
	require.Len(t, tx.TxIn, 3, "unconfirmed UTXO must be excluded")
	require.Len(t, tx.TxOut, 1)
	assert.Equal(t, int64(90_000)-wantFee, tx.TxOut[0].Value)
}

func TestBuildSweepFeeGuard(t *testing.T) {
	priv, _, _ := testKey(t)

	// ten small UTXOs at a punishing fee rate: fee far exceeds 20% of value
	values := make([]int64, 10)
	for i := range values {
		values[i] = 1_000
	}
	utxos := testUtxos(values...)

	_, err := utxo.BuildSweep(priv, "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", utxos, 50, segwitNetwork())
	require.Error(t, err)
	assert.ErrorIs(t, err, walleterrors.ErrFeeExceedsThreshold)
}

func TestBuildSweepAtThresholdSucceeds(t *testing.T) {
	priv, fromAddr, _ := testKey(t)

	// single segwit input sweep: fee = 110 vB * 10 = 1100, exactly 20% of 5500
	utxos := testUtxos(5_500)

	signed, err := utxo.BuildSweep(priv, "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", utxos, 10, segwitNetwork())
	require.NoError(t, err)
	assert.Equal(t, int64(1_100), signed.Fee)

	tx := assertValidSpend(t, signed.RawTx, utxos, ownScript(t, fromAddr))
	assert.Equal(t, int64(4_400), tx.TxOut[0].Value)
}

func TestBuildSweepNothingConfirmed(t *testing.T) {
	priv, _, _ := testKey(t)
	utxos := testUtxos(10_000)
	utxos[0].Confirmed = false

	_, err := utxo.BuildSweep(priv, "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu", utxos, 10, segwitNetwork())
	require.Error(t, err)
	assert.ErrorIs(t, err, walleterrors.ErrNoConfirmedUtxos)
}
