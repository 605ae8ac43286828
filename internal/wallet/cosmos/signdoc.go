package cosmos

import (
	"crypto/sha256"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// Legacy amino-JSON signing: the signed bytes are the compact JSON of the
// sign document with all object keys in lexicographic order and every
// number rendered as a string. Go marshals struct fields in declaration
// order, so the structs below declare their fields alphabetically by key.

type aminoSignDoc struct {
	AccountNumber string     `json:"account_number"`
	ChainID       string     `json:"chain_id"`
	Fee           aminoFee   `json:"fee"`
	Memo          string     `json:"memo"`
	Msgs          []aminoMsg `json:"msgs"`
	Sequence      string     `json:"sequence"`
}

type aminoFee struct {
	Amount []aminoCoin `json:"amount"`
	Gas    string      `json:"gas"`
}

type aminoCoin struct {
	Amount string `json:"amount"`
	Denom  string `json:"denom"`
}

type aminoMsg struct {
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
}

type aminoMsgSend struct {
	Amount      []aminoCoin `json:"amount"`
	FromAddress string      `json:"from_address"`
	ToAddress   string      `json:"to_address"`
}

type aminoSwapRoute struct {
	PoolID        string `json:"pool_id"`
	TokenOutDenom string `json:"token_out_denom"`
}

type aminoMsgSwapExactIn struct {
	Routes            []aminoSwapRoute `json:"routes"`
	Sender            string           `json:"sender"`
	TokenIn           aminoCoin        `json:"token_in"`
	TokenOutMinAmount string           `json:"token_out_min_amount"`
}

func aminoCoins(coins []Coin) []aminoCoin {
	out := make([]aminoCoin, 0, len(coins))
	for _, c := range coins {
		out = append(out, aminoCoin{Amount: c.Amount, Denom: c.Denom})
	}
	return out
}

// AminoType implements Msg.
func (m MsgSend) AminoType() string { return "cosmos-sdk/MsgSend" }

// AminoValue implements Msg.
func (m MsgSend) AminoValue() interface{} {
	return aminoMsgSend{
		Amount:      aminoCoins(m.Amount),
		FromAddress: m.FromAddress,
		ToAddress:   m.ToAddress,
	}
}

// AminoType implements Msg.
func (m MsgSwapExactIn) AminoType() string { return "helmchain/amm/MsgSwapExactIn" }

// AminoValue implements Msg.
func (m MsgSwapExactIn) AminoValue() interface{} {
	routes := make([]aminoSwapRoute, 0, len(m.Routes))
	for _, r := range m.Routes {
		routes = append(routes, aminoSwapRoute{
			PoolID:        strconv.FormatUint(r.PoolID, 10),
			TokenOutDenom: r.TokenOutDenom,
		})
	}

	return aminoMsgSwapExactIn{
		Routes:            routes,
		Sender:            m.Sender,
		TokenIn:           aminoCoin{Amount: m.TokenIn.Amount, Denom: m.TokenIn.Denom},
		TokenOutMinAmount: m.TokenOutMinAmount,
	}
}

// SignBytesAmino renders the canonical amino-JSON sign document.
// 生成 legacy 签名文档的规范 JSON 字节
func SignBytesAmino(in TxInput) ([]byte, error) {
	msgs := make([]aminoMsg, 0, len(in.Msgs))
	for _, m := range in.Msgs {
		msgs = append(msgs, aminoMsg{Type: m.AminoType(), Value: m.AminoValue()})
	}

	doc := aminoSignDoc{
		AccountNumber: strconv.FormatUint(in.AccountNumber, 10),
		ChainID:       in.ChainID,
		Fee: aminoFee{
			Amount: aminoCoins(in.Fee.Amount),
			Gas:    strconv.FormatUint(in.Fee.Gas, 10),
		},
		Memo:     in.Memo,
		Msgs:     msgs,
		Sequence: strconv.FormatUint(in.Sequence, 10),
	}

	bz, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal sign doc")
	}

	return bz, nil
}

// DigestAmino is the SHA-256 digest the amino signing mode signs.
func DigestAmino(in TxInput) ([]byte, error) {
	bz, err := SignBytesAmino(in)
	if err != nil {
		return nil, err
	}

	digest := sha256.Sum256(bz)

	return digest[:], nil
}
