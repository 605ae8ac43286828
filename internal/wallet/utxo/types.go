// Package utxo builds and signs transactions for unspent-output-ledger
// chains: coin selection, fee estimation, transfer and sweep assembly.
package utxo

// Utxo 候选输入（未花费输出）
type Utxo struct {
	TxID        string `json:"txid"`
	OutputIndex uint32 `json:"outputIndex"`
	Value       int64  `json:"value"`
	Confirmed   bool   `json:"confirmed"`
}

// TransferIntent describes a single-destination send. Change returns to From.
type TransferIntent struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Amount  int64  `json:"amount"`
	FeeRate int64  `json:"feeRate"`
}

// SignedTx is a fully signed transaction ready for broadcast.
type SignedTx struct {
	// RawTx 签名后的原始交易字节
	RawTx []byte `json:"rawTx"`

	// TxID 交易哈希（双 SHA-256,字节序按链惯例反转）
	TxID string `json:"txid"`

	// Size 序列化字节数（含见证）
	Size int `json:"size"`

	// VSize 虚拟字节数
	VSize int `json:"vsize"`

	// Fee 实际支付的手续费（聪）
	Fee int64 `json:"fee"`
}

// sumValues totals the value of a UTXO set.
func sumValues(utxos []Utxo) int64 {
	var total int64
	for _, u := range utxos {
		total += u.Value
	}
	return total
}
