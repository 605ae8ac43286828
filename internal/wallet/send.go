package wallet

import (
	"context"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/ethereum/go-ethereum/common"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github/helmwallet/wallet-engine/internal/util"
	"github/helmwallet/wallet-engine/internal/wallet/chain"
	"github/helmwallet/wallet-engine/internal/wallet/cosmos"
	"github/helmwallet/wallet-engine/internal/wallet/keystore"
	"github/helmwallet/wallet-engine/internal/wallet/netclient"
	"github/helmwallet/wallet-engine/internal/wallet/signer"
	"github/helmwallet/wallet-engine/internal/wallet/solana"
	"github/helmwallet/wallet-engine/internal/wallet/utxo"
	"github/helmwallet/wallet-engine/internal/wallet/walleterrors"
)

const (
	// defaultEVMGasLimit covers a plain value transfer.
	defaultEVMGasLimit = 21000

	// defaultCosmosGasLimit covers a single MsgSend.
	defaultCosmosGasLimit = 200000
)

// Broadcast outcome labels for the broadcasts metric.
const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

// SendTokens signs and broadcasts a native-asset transfer. The sequence/nonce
// state is fetched under the account lock immediately before signing so two
// concurrent sends from one account cannot collide.
func (e *Engine) SendTokens(ctx context.Context, intent TransferIntent) (*SendReceipt, error) {
	log := util.LogFromContext(ctx)

	if intent.Amount == nil || intent.Amount.Sign() <= 0 {
		return nil, errors.New("transfer amount must be positive")
	}

	network, err := e.Registry.GetNetwork(intent.ChainID)
	if err != nil {
		return nil, err
	}

	if err := validateRecipient(network, intent.Recipient); err != nil {
		return nil, err
	}

	client, err := e.netClient(intent.ChainID)
	if err != nil {
		return nil, err
	}

	var record keystore.AccountRecord
	if intent.AccountID != "" {
		record, err = e.accountRecordByID(ctx, intent.AccountID)
	} else {
		record, err = e.accountRecord(ctx, intent.ChainID, intent.AccountIndex)
	}
	if err != nil {
		return nil, err
	}

	if record.ChainID != intent.ChainID {
		return nil, errors.Errorf("account %q belongs to chain %s, not %s", record.ID, record.ChainID, intent.ChainID)
	}

	accountSigner, err := e.signerFor(record)
	if err != nil {
		return nil, err
	}

	unlock := e.lockAccount(record)
	defer unlock()

	done := e.beginSigning()
	defer done()

	e.Sessions.Touch()

	var receipt *SendReceipt

	switch network.Family {
	case chain.FamilyEVM:
		receipt, err = e.sendEVM(ctx, client, accountSigner, network, record, intent)
	case chain.FamilyCosmos:
		receipt, err = e.sendCosmos(ctx, client, accountSigner, network, record, intent)
	case chain.FamilySolana:
		receipt, err = e.sendSolana(ctx, client, accountSigner, record, intent)
	case chain.FamilyUTXO:
		receipt, err = e.sendUTXO(ctx, client, accountSigner, network, record, intent)
	default:
		return nil, errors.Wrapf(walleterrors.ErrUnsupportedChainFamily, "family %q", network.Family)
	}

	if err != nil {
		return nil, err
	}

	log.Info().
		Str("chain_id", receipt.ChainID).
		Str("tx_id", receipt.TxID).
		Str("from", receipt.From).
		Msg("Transfer broadcast")

	return receipt, nil
}

// SweepUTXOs moves every confirmed output of a UTXO account into a single
// destination output.
func (e *Engine) SweepUTXOs(ctx context.Context, chainID string, accountIndex uint32, destination string, feeRate int64) (*SendReceipt, error) {
	network, err := e.Registry.GetNetwork(chainID)
	if err != nil {
		return nil, err
	}

	if network.Family != chain.FamilyUTXO {
		return nil, errors.Wrapf(walleterrors.ErrUnsupportedChainFamily, "sweep requires an unspent-output chain, got %q", network.Family)
	}

	if err := validateRecipient(network, destination); err != nil {
		return nil, err
	}

	client, err := e.netClient(chainID)
	if err != nil {
		return nil, err
	}

	record, err := e.accountRecord(ctx, chainID, accountIndex)
	if err != nil {
		return nil, err
	}

	accountSigner, err := e.signerFor(record)
	if err != nil {
		return nil, err
	}

	unlock := e.lockAccount(record)
	defer unlock()

	done := e.beginSigning()
	defer done()

	e.Sessions.Touch()

	utxos, err := client.UTXOListUnspent(ctx, record.Address)
	if err != nil {
		return nil, err
	}

	if feeRate <= 0 {
		feeRate = network.FeeRateHint
	}
	if feeRate <= 0 {
		return nil, errors.Errorf("no fee rate configured for chain %s", chainID)
	}

	signed, err := accountSigner.SignUTXOSweep(ctx, &signer.SignUTXOSweepRequest{
		DerivationPath: record.DerivationPath,
		Destination:    destination,
		Utxos:          utxos,
		FeeRate:        feeRate,
		Network:        network,
	})
	if err != nil {
		return nil, err
	}
	e.Metrics.SignaturesTotal.WithLabelValues(chainID).Inc()

	txID, err := client.UTXOBroadcast(ctx, signed.RawTx)
	e.recordBroadcast(chainID, err)
	if err != nil {
		return nil, err
	}

	return &SendReceipt{
		ChainID: chainID,
		TxID:    txID,
		From:    record.Address,
		Fee:     big.NewInt(signed.Fee),
	}, nil
}

func (e *Engine) sendEVM(ctx context.Context, client *netclient.Client, accountSigner signer.Service, network chain.Network, record keystore.AccountRecord, intent TransferIntent) (*SendReceipt, error) {
	nonce, err := client.EVMPendingNonce(ctx, record.Address)
	if err != nil {
		return nil, err
	}

	feeCap, tipCap, err := evmFeeCaps(intent, network)
	if err != nil {
		return nil, err
	}

	gasLimit := intent.GasLimit
	if gasLimit == 0 {
		gasLimit = defaultEVMGasLimit
	}

	resp, err := accountSigner.SignEVMTransaction(ctx, &signer.SignEVMRequest{
		ChainID:              network.EVMChainID,
		To:                   intent.Recipient,
		Value:                intent.Amount.String(),
		GasLimit:             gasLimit,
		MaxFeePerGas:         feeCap.String(),
		MaxPriorityFeePerGas: tipCap.String(),
		Nonce:                nonce,
		FromAddress:          record.Address,
		DerivationPath:       record.DerivationPath,
	})
	if err != nil {
		return nil, err
	}
	e.Metrics.SignaturesTotal.WithLabelValues(network.ChainID).Inc()

	txHash, err := client.EVMBroadcast(ctx, resp.RawTransaction)
	e.recordBroadcast(network.ChainID, err)
	if err != nil {
		return nil, err
	}

	return &SendReceipt{ChainID: network.ChainID, TxID: txHash, From: record.Address}, nil
}

func (e *Engine) sendCosmos(ctx context.Context, client *netclient.Client, accountSigner signer.Service, network chain.Network, record keystore.AccountRecord, intent TransferIntent) (*SendReceipt, error) {
	accountNumber, sequence, err := client.CosmosAccount(ctx, record.Address)
	if err != nil {
		return nil, err
	}

	fee, err := cosmosFee(network, defaultCosmosGasLimit)
	if err != nil {
		return nil, err
	}

	input := cosmos.TxInput{
		ChainID:       network.ChainID,
		AccountNumber: accountNumber,
		Sequence:      sequence,
		Fee:           fee,
		Memo:          intent.Memo,
		Msgs: []cosmos.Msg{
			&cosmos.MsgSend{
				FromAddress: record.Address,
				ToAddress:   intent.Recipient,
				Amount:      []cosmos.Coin{{Denom: network.Denom, Amount: intent.Amount.String()}},
			},
		},
	}

	resp, err := accountSigner.SignCosmosTransaction(ctx, &signer.SignCosmosRequest{
		DerivationPath: record.DerivationPath,
		Input:          input,
	})
	if err != nil {
		return nil, err
	}
	e.Metrics.SignaturesTotal.WithLabelValues(network.ChainID).Inc()

	txID, err := client.CosmosBroadcast(ctx, resp.RawTransaction)
	e.recordBroadcast(network.ChainID, err)
	if err != nil {
		return nil, err
	}

	return &SendReceipt{ChainID: network.ChainID, TxID: txID, From: record.Address}, nil
}

func (e *Engine) sendSolana(ctx context.Context, client *netclient.Client, accountSigner signer.Service, record keystore.AccountRecord, intent TransferIntent) (*SendReceipt, error) {
	if !intent.Amount.IsUint64() {
		return nil, errors.Errorf("amount %s does not fit in lamports", intent.Amount)
	}

	blockhash, err := client.SolanaLatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	signed, err := accountSigner.SignSolanaTransfer(ctx, &signer.SignSolanaRequest{
		DerivationPath: record.DerivationPath,
		Intent: solana.TransferIntent{
			From:            record.Address,
			To:              intent.Recipient,
			Lamports:        intent.Amount.Uint64(),
			RecentBlockhash: blockhash,
		},
	})
	if err != nil {
		return nil, err
	}
	e.Metrics.SignaturesTotal.WithLabelValues(record.ChainID).Inc()

	signature, err := client.SolanaBroadcast(ctx, signed.RawTx)
	e.recordBroadcast(record.ChainID, err)
	if err != nil {
		return nil, err
	}

	return &SendReceipt{ChainID: record.ChainID, TxID: signature, From: record.Address}, nil
}

func (e *Engine) sendUTXO(ctx context.Context, client *netclient.Client, accountSigner signer.Service, network chain.Network, record keystore.AccountRecord, intent TransferIntent) (*SendReceipt, error) {
	if !intent.Amount.IsInt64() {
		return nil, errors.Errorf("amount %s does not fit in sats", intent.Amount)
	}

	utxos, err := client.UTXOListUnspent(ctx, record.Address)
	if err != nil {
		return nil, err
	}

	feeRate := intent.FeeRate
	if feeRate <= 0 {
		feeRate = network.FeeRateHint
	}
	if feeRate <= 0 {
		return nil, errors.Errorf("no fee rate configured for chain %s", network.ChainID)
	}

	signed, err := accountSigner.SignUTXOTransfer(ctx, &signer.SignUTXORequest{
		DerivationPath: record.DerivationPath,
		Intent: utxo.TransferIntent{
			From:    record.Address,
			To:      intent.Recipient,
			Amount:  intent.Amount.Int64(),
			FeeRate: feeRate,
		},
		Utxos:   utxos,
		Network: network,
	})
	if err != nil {
		return nil, err
	}
	e.Metrics.SignaturesTotal.WithLabelValues(network.ChainID).Inc()

	txID, err := client.UTXOBroadcast(ctx, signed.RawTx)
	e.recordBroadcast(network.ChainID, err)
	if err != nil {
		return nil, err
	}

	return &SendReceipt{
		ChainID: network.ChainID,
		TxID:    txID,
		From:    record.Address,
		Fee:     big.NewInt(signed.Fee),
	}, nil
}

// recordBroadcast counts a broadcast attempt by outcome.
func (e *Engine) recordBroadcast(chainID string, err error) {
	outcome := outcomeAccepted
	if err != nil {
		if walleterrors.IsBroadcastRejected(err) {
			outcome = outcomeRejected
		} else {
			outcome = outcomeFailed
		}
	}

	e.Metrics.BroadcastsTotal.WithLabelValues(chainID, outcome).Inc()
}

// validateRecipient checks a destination address against the network's
// address format before anything is fetched or signed.
func validateRecipient(network chain.Network, recipient string) error {
	switch network.Family {
	case chain.FamilyEVM:
		if !common.IsHexAddress(recipient) {
			return errors.Wrapf(walleterrors.ErrInvalidOutputAddress, "%q is not a hex address", recipient)
		}
	case chain.FamilyCosmos:
		hrp, _, err := bech32.Decode(recipient)
		if err != nil {
			return errors.Wrapf(walleterrors.ErrInvalidOutputAddress, "%q: %v", recipient, err)
		}
		if hrp != network.Bech32Prefix {
			return errors.Wrapf(walleterrors.ErrInvalidOutputAddress, "%q has prefix %q, chain expects %q", recipient, hrp, network.Bech32Prefix)
		}
	case chain.FamilySolana:
		if _, err := solanago.PublicKeyFromBase58(recipient); err != nil {
			return errors.Wrapf(walleterrors.ErrInvalidOutputAddress, "%q: %v", recipient, err)
		}
	case chain.FamilyUTXO:
		if err := utxo.ValidateAddress(recipient, network); err != nil {
			return err
		}
	default:
		return errors.Wrapf(walleterrors.ErrUnsupportedChainFamily, "family %q", network.Family)
	}

	return nil
}

// evmFeeCaps resolves the EIP-1559 fee caps from the intent or the registry
// gas-price hint.
func evmFeeCaps(intent TransferIntent, network chain.Network) (*big.Int, *big.Int, error) {
	feeCap := intent.GasFeeCap
	if feeCap == nil {
		if network.GasPriceHint == "" {
			return nil, nil, errors.Errorf("no gas price hint configured for chain %s", network.ChainID)
		}

		parsed, ok := new(big.Int).SetString(network.GasPriceHint, 10)
		if !ok {
			return nil, nil, errors.Errorf("unparsable gas price hint %q for chain %s", network.GasPriceHint, network.ChainID)
		}
		feeCap = parsed
	}

	tipCap := intent.GasTipCap
	if tipCap == nil {
		tipCap = feeCap
	}

	return feeCap, tipCap, nil
}

// cosmosFee turns the registry gas-price hint (e.g. "0.025uhelm") into a
// concrete fee for the given gas limit, rounding the coin amount up.
func cosmosFee(network chain.Network, gasLimit uint64) (cosmos.Fee, error) {
	price, denom, err := parseGasPriceHint(network.GasPriceHint)
	if err != nil {
		return cosmos.Fee{}, errors.Wrapf(err, "chain %s", network.ChainID)
	}

	amount := price.Mul(decimal.NewFromInt(int64(gasLimit))).Ceil() //nolint:gosec // gas limits are far below int64 range

	return cosmos.Fee{
		Amount: []cosmos.Coin{{Denom: denom, Amount: amount.String()}},
		Gas:    gasLimit,
	}, nil
}

// parseGasPriceHint splits a decimal-plus-denom string like "0.025uhelm".
func parseGasPriceHint(hint string) (decimal.Decimal, string, error) {
	if hint == "" {
		return decimal.Decimal{}, "", errors.New("no gas price hint configured")
	}

	split := len(hint)
	for i, r := range hint {
		if (r < '0' || r > '9') && r != '.' {
			split = i
			break
		}
	}

	price, err := decimal.NewFromString(hint[:split])
	if err != nil {
		return decimal.Decimal{}, "", errors.Wrapf(err, "unparsable gas price hint %q", hint)
	}

	denom := strings.TrimSpace(hint[split:])
	if denom == "" {
		return decimal.Decimal{}, "", errors.Errorf("gas price hint %q is missing a denom", hint)
	}

	return price, denom, nil
}
