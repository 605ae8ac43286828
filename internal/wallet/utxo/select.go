package utxo

import (
	"sort"

	"github.com/pkg/errors"
	"github/helmwallet/wallet-engine/internal/wallet/walleterrors"
)

// SelectCoins picks confirmed UTXOs greedily by descending value until they
// cover amount plus the fee for the selection so far. The fee is
// re-estimated after every added input since each input enlarges the
// transaction. Returns the selected UTXOs and the fee the selection covers.
// 贪心选币：大额优先,边选边重新估算手续费
func SelectCoins(utxos []Utxo, amount int64, feeRate int64, numOutputs int, segwit bool) ([]Utxo, int64, error) {
	confirmed := make([]Utxo, 0, len(utxos))
	for _, u := range utxos {
		if u.Confirmed {
			confirmed = append(confirmed, u)
		}
	}

	if len(confirmed) == 0 {
		return nil, 0, errors.Wrap(walleterrors.ErrNoConfirmedUtxos, "no spendable inputs")
	}

	sort.Slice(confirmed, func(i, j int) bool {
		return confirmed[i].Value > confirmed[j].Value
	})

	var (
		selected []Utxo
		total    int64
	)

	for _, u := range confirmed {
		selected = append(selected, u)
		total += u.Value

		fee := EstimateFee(len(selected), numOutputs, feeRate, segwit)
		if total >= amount+fee {
			return selected, fee, nil
		}
	}

	return nil, 0, errors.Wrapf(walleterrors.ErrInsufficientFunds,
		"confirmed balance %d does not cover amount %d plus fee", total, amount)
}
