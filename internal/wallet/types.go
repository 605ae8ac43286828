package wallet

import "math/big"

// TransferIntent describes one native-asset transfer. The account is selected
// by (ChainID, AccountIndex) among derived accounts, or by AccountID when the
// record ID is known (required for imported accounts, whose index can collide
// with a derived one).
type TransferIntent struct {
	ChainID      string
	AccountIndex uint32

	// AccountID 非空时按记录 ID 选择账户（导入账户用）
	AccountID string

	Recipient string

	// Amount 基础单位金额（wei/uatom/lamports/sats）
	Amount *big.Int

	// Memo is carried on account-ledger chains only.
	Memo string

	// FeeRate overrides the registry fee-rate hint (UTXO chains, sat/vB).
	FeeRate int64

	// GasLimit overrides the default transfer gas limit (EVM chains).
	GasLimit uint64

	// GasFeeCap and GasTipCap override the registry gas-price hint (EVM
	// chains, wei).
	GasFeeCap *big.Int
	GasTipCap *big.Int
}

// SendReceipt is the result of a broadcast transfer or swap.
type SendReceipt struct {
	ChainID string
	TxID    string
	From    string

	// Fee 实际支付的手续费（仅 UTXO 链在签名时可知）
	Fee *big.Int
}
