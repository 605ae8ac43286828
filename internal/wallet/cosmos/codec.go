package cosmos

import (
	"crypto/sha256"

	"github.com/pkg/errors"
	"github/helmwallet/wallet-engine/internal/wallet/txcodec"
)

// Signing mode enum values from the chain's signing.proto.
const (
	SignModeDirect          = 1
	SignModeLegacyAminoJSON = 127
)

// Protobuf Any type urls.
const (
	TypeURLMsgSend         = "/cosmos.bank.v1beta1.MsgSend"
	TypeURLMsgSwapExactIn  = "/helmchain.amm.v1beta1.MsgSwapExactIn"
	TypeURLSecp256k1PubKey = "/cosmos.crypto.secp256k1.PubKey"
)

const compressedPubKeyLen = 33

// Proto field numbers, fixed by the chain's tx.proto. A wrong number here
// produces a transaction the chain decodes into garbage, keep them in sync
// with the published schema.
//
//nolint:mnd
const (
	anyFieldTypeURL = 1
	anyFieldValue   = 2

	coinFieldDenom  = 1
	coinFieldAmount = 2

	msgSendFieldFrom   = 1
	msgSendFieldTo     = 2
	msgSendFieldAmount = 3

	msgSwapFieldSender       = 1
	msgSwapFieldRoutes       = 2
	msgSwapFieldTokenIn      = 3
	msgSwapFieldTokenOutMin  = 4
	swapRouteFieldPoolID     = 1
	swapRouteFieldTokenDenom = 2

	txBodyFieldMessages = 1
	txBodyFieldMemo     = 2

	signerInfoFieldPubKey   = 1
	signerInfoFieldModeInfo = 2
	signerInfoFieldSequence = 3
	modeInfoFieldSingle     = 1
	modeInfoSingleFieldMode = 1

	feeFieldAmount   = 1
	feeFieldGasLimit = 2

	authInfoFieldSignerInfos = 1
	authInfoFieldFee         = 2

	signDocFieldBodyBytes     = 1
	signDocFieldAuthInfoBytes = 2
	signDocFieldChainID       = 3
	signDocFieldAccountNumber = 4

	txRawFieldBodyBytes     = 1
	txRawFieldAuthInfoBytes = 2
	txRawFieldSignatures    = 3

	pubKeyFieldKey = 1
)

// signatureLen is the fixed length of a raw R||S secp256k1 signature.
const signatureLen = 64

func marshalCoin(c Coin) []byte {
	var b []byte
	if c.Denom != "" {
		b = txcodec.AppendString(b, coinFieldDenom, c.Denom)
	}
	if c.Amount != "" {
		b = txcodec.AppendString(b, coinFieldAmount, c.Amount)
	}
	return b
}

func marshalAny(typeURL string, value []byte) []byte {
	var b []byte
	b = txcodec.AppendString(b, anyFieldTypeURL, typeURL)
	if len(value) > 0 {
		b = txcodec.AppendBytes(b, anyFieldValue, value)
	}
	return b
}

// TypeURL implements Msg.
func (m MsgSend) TypeURL() string { return TypeURLMsgSend }

// Marshal implements Msg.
func (m MsgSend) Marshal() ([]byte, error) {
	var b []byte
	if m.FromAddress != "" {
		b = txcodec.AppendString(b, msgSendFieldFrom, m.FromAddress)
	}
	if m.ToAddress != "" {
		b = txcodec.AppendString(b, msgSendFieldTo, m.ToAddress)
	}
	for _, c := range m.Amount {
		b = txcodec.AppendMessage(b, msgSendFieldAmount, marshalCoin(c))
	}
	return b, nil
}

// TypeURL implements Msg.
func (m MsgSwapExactIn) TypeURL() string { return TypeURLMsgSwapExactIn }

// Marshal implements Msg. The message lacks a published Go binding, its
// wire layout is assembled field by field.
func (m MsgSwapExactIn) Marshal() ([]byte, error) {
	var b []byte
	if m.Sender != "" {
		b = txcodec.AppendString(b, msgSwapFieldSender, m.Sender)
	}
	for _, r := range m.Routes {
		var route []byte
		if r.PoolID > 0 {
			route = txcodec.AppendUint(route, swapRouteFieldPoolID, r.PoolID)
		}
		if r.TokenOutDenom != "" {
			route = txcodec.AppendString(route, swapRouteFieldTokenDenom, r.TokenOutDenom)
		}
		b = txcodec.AppendMessage(b, msgSwapFieldRoutes, route)
	}
	b = txcodec.AppendMessage(b, msgSwapFieldTokenIn, marshalCoin(m.TokenIn))
	if m.TokenOutMinAmount != "" {
		b = txcodec.AppendString(b, msgSwapFieldTokenOutMin, m.TokenOutMinAmount)
	}
	return b, nil
}

// BuildTxBody encodes the TxBody message: ordered message list plus memo.
func BuildTxBody(msgs []Msg, memo string) ([]byte, error) {
	if len(msgs) == 0 {
		return nil, errors.New("transaction requires at least one message")
	}

	var b []byte
	for _, m := range msgs {
		inner, err := m.Marshal()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to marshal %s", m.TypeURL())
		}
		b = txcodec.AppendMessage(b, txBodyFieldMessages, marshalAny(m.TypeURL(), inner))
	}
	if memo != "" {
		b = txcodec.AppendString(b, txBodyFieldMemo, memo)
	}

	return b, nil
}

// BuildAuthInfo encodes the AuthInfo message for a single signer using
// SIGN_MODE_DIRECT.
func BuildAuthInfo(pubKeyCompressed []byte, sequence uint64, fee Fee) ([]byte, error) {
	if len(pubKeyCompressed) != compressedPubKeyLen {
		return nil, errors.Errorf("compressed secp256k1 public key must be %d bytes, got %d",
			compressedPubKeyLen, len(pubKeyCompressed))
	}

	pubKey := txcodec.AppendBytes(nil, pubKeyFieldKey, pubKeyCompressed)

	single := txcodec.AppendUint(nil, modeInfoSingleFieldMode, SignModeDirect)
	modeInfo := txcodec.AppendMessage(nil, modeInfoFieldSingle, single)

	var signerInfo []byte
	signerInfo = txcodec.AppendMessage(signerInfo, signerInfoFieldPubKey, marshalAny(TypeURLSecp256k1PubKey, pubKey))
	signerInfo = txcodec.AppendMessage(signerInfo, signerInfoFieldModeInfo, modeInfo)
	if sequence > 0 {
		signerInfo = txcodec.AppendUint(signerInfo, signerInfoFieldSequence, sequence)
	}

	var feeBz []byte
	for _, c := range fee.Amount {
		feeBz = txcodec.AppendMessage(feeBz, feeFieldAmount, marshalCoin(c))
	}
	if fee.Gas > 0 {
		feeBz = txcodec.AppendUint(feeBz, feeFieldGasLimit, fee.Gas)
	}

	var b []byte
	b = txcodec.AppendMessage(b, authInfoFieldSignerInfos, signerInfo)
	b = txcodec.AppendMessage(b, authInfoFieldFee, feeBz)

	return b, nil
}

// BuildSignDocDirect encodes the SignDoc the direct signing mode signs.
func BuildSignDocDirect(bodyBytes, authInfoBytes []byte, chainID string, accountNumber uint64) []byte {
	var b []byte
	b = txcodec.AppendBytes(b, signDocFieldBodyBytes, bodyBytes)
	b = txcodec.AppendBytes(b, signDocFieldAuthInfoBytes, authInfoBytes)
	if chainID != "" {
		b = txcodec.AppendString(b, signDocFieldChainID, chainID)
	}
	if accountNumber > 0 {
		b = txcodec.AppendUint(b, signDocFieldAccountNumber, accountNumber)
	}
	return b
}

// DigestDirect is the SHA-256 digest of the direct-mode sign doc.
func DigestDirect(bodyBytes, authInfoBytes []byte, chainID string, accountNumber uint64) []byte {
	digest := sha256.Sum256(BuildSignDocDirect(bodyBytes, authInfoBytes, chainID, accountNumber))
	return digest[:]
}

// BuildTxRaw wraps the signed parts into the broadcastable TxRaw message.
func BuildTxRaw(bodyBytes, authInfoBytes []byte, signatures [][]byte) []byte {
	var b []byte
	b = txcodec.AppendBytes(b, txRawFieldBodyBytes, bodyBytes)
	b = txcodec.AppendBytes(b, txRawFieldAuthInfoBytes, authInfoBytes)
	for _, sig := range signatures {
		b = txcodec.AppendBytes(b, txRawFieldSignatures, sig)
	}
	return b
}

// BuildSignedTx assembles body and auth info, signs the direct-mode digest
// and returns the broadcastable TxRaw bytes.
// 组装并签名 SIGN_MODE_DIRECT 交易
func BuildSignedTx(in TxInput, pubKeyCompressed []byte, sign SignerFunc) ([]byte, error) {
	body, err := BuildTxBody(in.Msgs, in.Memo)
	if err != nil {
		return nil, err
	}

	authInfo, err := BuildAuthInfo(pubKeyCompressed, in.Sequence, in.Fee)
	if err != nil {
		return nil, err
	}

	sig, err := sign(DigestDirect(body, authInfo, in.ChainID, in.AccountNumber))
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}
	if len(sig) != signatureLen {
		return nil, errors.Errorf("signature must be %d bytes, got %d", signatureLen, len(sig))
	}

	return BuildTxRaw(body, authInfo, [][]byte{sig}), nil
}
