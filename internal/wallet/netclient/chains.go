package netclient

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github/helmwallet/wallet-engine/internal/wallet/utxo"
	"github/helmwallet/wallet-engine/internal/wallet/walleterrors"
)

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// CallRPC issues one JSON-RPC 2.0 call against the chain's endpoints.
func (c *Client) CallRPC(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	if params == nil {
		params = []interface{}{}
	}

	var resp rpcResponse
	if err := c.PostJSON(ctx, "", rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params}, &resp); err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, errors.Errorf("rpc %s failed with code %d: %s", method, resp.Error.Code, resp.Error.Message)
	}

	return resp.Result, nil
}

// rpcBroadcast is CallRPC with rejection semantics: a 4xx answer or an rpc
// error object means the chain saw the transaction and turned it down, and
// the diagnostic text is passed through verbatim.
func (c *Client) rpcBroadcast(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	resp, err := c.Do(ctx, http.MethodPost, "", rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, walleterrors.NewBroadcastRejected(c.chainID, strings.TrimSpace(string(resp.Body)))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(resp.Body, &rpcResp); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal broadcast response")
	}

	if rpcResp.Error != nil {
		return nil, walleterrors.NewBroadcastRejected(c.chainID, rpcResp.Error.Message)
	}

	return rpcResp.Result, nil
}

// EVMPendingNonce returns the account's next nonce including pending transactions.
func (c *Client) EVMPendingNonce(ctx context.Context, address string) (uint64, error) {
	result, err := c.CallRPC(ctx, "eth_getTransactionCount", address, "pending")
	if err != nil {
		return 0, err
	}

	var encoded string
	if err := json.Unmarshal(result, &encoded); err != nil {
		return 0, errors.Wrap(err, "failed to unmarshal nonce")
	}

	nonce, err := hexutil.DecodeUint64(encoded)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to decode nonce %q", encoded)
	}

	return nonce, nil
}

// EVMBalance returns the address balance in wei.
func (c *Client) EVMBalance(ctx context.Context, address string) (*big.Int, error) {
	result, err := c.CallRPC(ctx, "eth_getBalance", address, "latest")
	if err != nil {
		return nil, err
	}

	var encoded string
	if err := json.Unmarshal(result, &encoded); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal balance")
	}

	balance, err := hexutil.DecodeBig(encoded)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode balance %q", encoded)
	}

	return balance, nil
}

// EVMBroadcast submits a signed RLP-encoded transaction and returns its hash.
func (c *Client) EVMBroadcast(ctx context.Context, rawTx []byte) (string, error) {
	result, err := c.rpcBroadcast(ctx, "eth_sendRawTransaction", hexutil.Encode(rawTx))
	if err != nil {
		return "", err
	}

	var txHash string
	if err := json.Unmarshal(result, &txHash); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal transaction hash")
	}

	return txHash, nil
}

type cosmosAccountResponse struct {
	Account struct {
		AccountNumber string `json:"account_number"`
		Sequence      string `json:"sequence"`
	} `json:"account"`
}

// CosmosAccount returns the on-chain account number and sequence.
func (c *Client) CosmosAccount(ctx context.Context, address string) (accountNumber, sequence uint64, err error) {
	var resp cosmosAccountResponse
	if err := c.GetJSON(ctx, "/cosmos/auth/v1beta1/accounts/"+address, &resp); err != nil {
		return 0, 0, err
	}

	accountNumber, err = parseCosmosUint(resp.Account.AccountNumber)
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to parse account number")
	}

	sequence, err = parseCosmosUint(resp.Account.Sequence)
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to parse sequence")
	}

	return accountNumber, sequence, nil
}

// parseCosmosUint reads the string-encoded integers the REST gateway emits.
// A fresh account may omit the field entirely.
func parseCosmosUint(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}

	return strconv.ParseUint(s, 10, 64)
}

// CosmosBalance returns the balance of one denom.
func (c *Client) CosmosBalance(ctx context.Context, address, denom string) (*big.Int, error) {
	var resp struct {
		Balance struct {
			Denom  string `json:"denom"`
			Amount string `json:"amount"`
		} `json:"balance"`
	}

	path := "/cosmos/bank/v1beta1/balances/" + address + "/by_denom?denom=" + denom
	if err := c.GetJSON(ctx, path, &resp); err != nil {
		return nil, err
	}

	if resp.Balance.Amount == "" {
		return new(big.Int), nil
	}

	amount, ok := new(big.Int).SetString(resp.Balance.Amount, 10)
	if !ok {
		return nil, errors.Errorf("chain returned unparsable amount %q", resp.Balance.Amount)
	}

	return amount, nil
}

// CosmosBroadcast submits a signed TxRaw in sync mode and returns the tx hash.
// A non-zero tx_response code is a rejection; raw_log carries the reason.
func (c *Client) CosmosBroadcast(ctx context.Context, txRaw []byte) (string, error) {
	payload := map[string]string{
		"tx_bytes": base64.StdEncoding.EncodeToString(txRaw),
		"mode":     "BROADCAST_MODE_SYNC",
	}

	resp, err := c.Do(ctx, http.MethodPost, "/cosmos/tx/v1beta1/txs", payload)
	if err != nil {
		return "", err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return "", walleterrors.NewBroadcastRejected(c.chainID, strings.TrimSpace(string(resp.Body)))
	}

	var result struct {
		TxResponse struct {
			Code   uint32 `json:"code"`
			TxHash string `json:"txhash"`
			RawLog string `json:"raw_log"`
		} `json:"tx_response"`
	}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal broadcast response")
	}

	if result.TxResponse.Code != 0 {
		return "", walleterrors.NewBroadcastRejected(c.chainID, result.TxResponse.RawLog)
	}

	return result.TxResponse.TxHash, nil
}

// SolanaLatestBlockhash returns a recent blockhash usable for signing.
func (c *Client) SolanaLatestBlockhash(ctx context.Context) (string, error) {
	result, err := c.CallRPC(ctx, "getLatestBlockhash")
	if err != nil {
		return "", err
	}

	var resp struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	if err := json.Unmarshal(result, &resp); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal blockhash")
	}

	if resp.Value.Blockhash == "" {
		return "", errors.New("chain returned an empty blockhash")
	}

	return resp.Value.Blockhash, nil
}

// SolanaBalance returns the lamport balance of the address.
func (c *Client) SolanaBalance(ctx context.Context, address string) (*big.Int, error) {
	result, err := c.CallRPC(ctx, "getBalance", address)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Value uint64 `json:"value"`
	}
	if err := json.Unmarshal(result, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal balance")
	}

	return new(big.Int).SetUint64(resp.Value), nil
}

// SolanaBroadcast submits a signed transaction and returns its signature.
func (c *Client) SolanaBroadcast(ctx context.Context, rawTx []byte) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(rawTx)

	result, err := c.rpcBroadcast(ctx, "sendTransaction", encoded, map[string]string{"encoding": "base64"})
	if err != nil {
		return "", err
	}

	var signature string
	if err := json.Unmarshal(result, &signature); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal transaction signature")
	}

	return signature, nil
}

type utxoEntry struct {
	TxID   string `json:"txid"`
	Vout   uint32 `json:"vout"`
	Value  int64  `json:"value"`
	Status struct {
		Confirmed bool `json:"confirmed"`
	} `json:"status"`
}

// UTXOListUnspent returns the spendable outputs of an address.
func (c *Client) UTXOListUnspent(ctx context.Context, address string) ([]utxo.Utxo, error) {
	var entries []utxoEntry
	if err := c.GetJSON(ctx, "/address/"+address+"/utxo", &entries); err != nil {
		return nil, err
	}

	utxos := make([]utxo.Utxo, 0, len(entries))
	for _, e := range entries {
		utxos = append(utxos, utxo.Utxo{
			TxID:        e.TxID,
			OutputIndex: e.Vout,
			Value:       e.Value,
			Confirmed:   e.Status.Confirmed,
		})
	}

	return utxos, nil
}

// UTXOBalance returns confirmed funded minus spent value in sats.
func (c *Client) UTXOBalance(ctx context.Context, address string) (*big.Int, error) {
	var resp struct {
		ChainStats struct {
			FundedTxoSum int64 `json:"funded_txo_sum"`
			SpentTxoSum  int64 `json:"spent_txo_sum"`
		} `json:"chain_stats"`
	}

	if err := c.GetJSON(ctx, "/address/"+address, &resp); err != nil {
		return nil, err
	}

	return big.NewInt(resp.ChainStats.FundedTxoSum - resp.ChainStats.SpentTxoSum), nil
}

// UTXOBroadcast submits a raw transaction as hex text and returns the txid.
func (c *Client) UTXOBroadcast(ctx context.Context, rawTx []byte) (string, error) {
	resp, err := c.DoRaw(ctx, http.MethodPost, "/tx", []byte(hex.EncodeToString(rawTx)), "text/plain")
	if err != nil {
		return "", err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return "", walleterrors.NewBroadcastRejected(c.chainID, strings.TrimSpace(string(resp.Body)))
	}

	return strings.TrimSpace(string(resp.Body)), nil
}
