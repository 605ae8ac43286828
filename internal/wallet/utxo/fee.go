package utxo

// Transaction weight constants in weight units (BIP141),
// vsize = ceil(weight / 4). P2WPKH spends assume a 72-byte DER signature
// and compressed public key, P2PKH the standard 107-byte scriptSig.
//
//nolint:mnd
const (
	// non-witness fields count 4 WU per byte
	segwitOverheadWeight = 42  // version + counts + locktime (10 B) * 4 + marker/flag
	segwitInputWeight    = 272 // outpoint + empty scriptSig + sequence (41 B) * 4 + 108 WU witness
	segwitOutputWeight   = 124 // value + P2WPKH script (31 B) * 4

	legacyOverheadWeight = 40  // version + counts + locktime (10 B) * 4
	legacyInputWeight    = 592 // outpoint + scriptSig + sequence (148 B) * 4
	legacyOutputWeight   = 136 // value + P2PKH script (34 B) * 4

	witnessScaleFactor = 4
)

// txWeight estimates the weight of a transaction before it is built.
func txWeight(numInputs, numOutputs int, segwit bool) int64 {
	if segwit {
		return segwitOverheadWeight +
			int64(numInputs)*segwitInputWeight +
			int64(numOutputs)*segwitOutputWeight
	}

	return legacyOverheadWeight +
		int64(numInputs)*legacyInputWeight +
		int64(numOutputs)*legacyOutputWeight
}

// VirtualSize estimates the virtual size in vbytes of a transaction with the
// given shape, rounding the weight up to whole vbytes.
func VirtualSize(numInputs, numOutputs int, segwit bool) int64 {
	return (txWeight(numInputs, numOutputs, segwit) + witnessScaleFactor - 1) / witnessScaleFactor
}

// EstimateFee computes the fee in sats for a transaction with the given
// shape at feeRate sat/vB.
// 按交易形态估算手续费
func EstimateFee(numInputs, numOutputs int, feeRate int64, segwit bool) int64 {
	return VirtualSize(numInputs, numOutputs, segwit) * feeRate
}
