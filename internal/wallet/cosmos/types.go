// Package cosmos assembles account-ledger transactions in both signing
// modes: the legacy amino-JSON sign document and the modern protobuf
// envelope (SIGN_MODE_DIRECT). Standard messages and the application's
// swap message are encoded by hand through txcodec.
package cosmos

// Coin 链上资产数量,Amount 为十进制整数字符串
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// Fee is the transaction fee: paid coins plus a gas limit.
type Fee struct {
	Amount []Coin `json:"amount"`
	Gas    uint64 `json:"gas"`
}

// Msg is a transaction message encodable in both signing modes.
type Msg interface {
	// AminoType is the legacy registered type name, e.g. "cosmos-sdk/MsgSend".
	AminoType() string

	// AminoValue returns the value struct whose JSON form is canonical
	// (fields declared in alphabetical key order, numbers as strings).
	AminoValue() interface{}

	// TypeURL is the protobuf Any type url, e.g. "/cosmos.bank.v1beta1.MsgSend".
	TypeURL() string

	// Marshal encodes the message body as protobuf bytes.
	Marshal() ([]byte, error)
}

// MsgSend is the standard bank transfer message.
type MsgSend struct {
	FromAddress string `json:"fromAddress"`
	ToAddress   string `json:"toAddress"`
	Amount      []Coin `json:"amount"`
}

// SwapRoute is one hop of a pool swap route.
type SwapRoute struct {
	PoolID        uint64 `json:"poolId"`
	TokenOutDenom string `json:"tokenOutDenom"`
}

// MsgSwapExactIn swaps an exact input amount along a pool route. The
// message has no standard schema, its wire form is assembled manually.
type MsgSwapExactIn struct {
	Sender            string      `json:"sender"`
	Routes            []SwapRoute `json:"routes"`
	TokenIn           Coin        `json:"tokenIn"`
	TokenOutMinAmount string      `json:"tokenOutMinAmount"`
}

// TxInput carries everything both signing modes need.
type TxInput struct {
	ChainID       string `json:"chainId"`
	AccountNumber uint64 `json:"accountNumber"`
	Sequence      uint64 `json:"sequence"`
	Fee           Fee    `json:"fee"`
	Memo          string `json:"memo"`
	Msgs          []Msg  `json:"msgs"`
}

// SignerFunc produces a 64-byte R||S secp256k1 signature over a 32-byte
// SHA-256 digest.
type SignerFunc func(digest []byte) ([]byte, error)
