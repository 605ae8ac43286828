package wallet

import (
	"context"

	"github.com/pkg/errors"
	"github/helmwallet/wallet-engine/internal/util"
	"github/helmwallet/wallet-engine/internal/wallet/address"
	"github/helmwallet/wallet-engine/internal/wallet/chain"
	"github/helmwallet/wallet-engine/internal/wallet/keystore"
)

// VerificationAccountIndex is the account index pinned for unlock verification.
const VerificationAccountIndex = 0

// createVerificationAddress derives the wallet's first account on the
// verification network, persists it and pins its address in the wallet
// record. Later unlocks re-derive the same account and compare.
func (e *Engine) createVerificationAddress(ctx context.Context) (address.Account, error) {
	log := util.LogFromContext(ctx)

	network, err := e.verificationNetwork()
	if err != nil {
		return address.Account{}, err
	}

	account, err := e.deriveFromPrimarySeed(ctx, VerificationAccountIndex, network)
	if err != nil {
		return address.Account{}, err
	}

	if _, err := e.persistAccount(ctx, account); err != nil {
		return address.Account{}, err
	}

	if err := e.Keystore.SetVerificationAddress(ctx, account.Address); err != nil {
		return address.Account{}, err
	}

	log.Info().
		Str("chain_id", account.ChainID).
		Str("address", account.Address).
		Msg("Verification address pinned")

	return account, nil
}

// verifyUnlock re-derives the pinned verification account and compares it to
// the stored address. The ciphertext already authenticated under the entered
// password, so a mismatch means the record's account data does not belong to
// the decrypted seed.
func (e *Engine) verifyUnlock(ctx context.Context, record *keystore.WalletRecord) error {
	log := util.LogFromContext(ctx)

	if record.VerificationAddress == "" {
		// legacy records predate the pinned address
		log.Info().Msg("No verification address stored, skipping unlock verification")
		return nil
	}

	pinned, ok := findAccountByAddress(record.Accounts, record.VerificationAddress)
	if !ok {
		log.Warn().Msg("Verification address references no stored account, skipping unlock verification")
		return nil
	}

	network, err := e.Registry.GetNetwork(pinned.ChainID)
	if err != nil {
		return errors.Wrap(err, "verification network not registered")
	}

	derived, err := e.deriveFromPrimarySeed(ctx, pinned.AccountIndex, network)
	if err != nil {
		return errors.Wrap(err, "failed to derive verification address")
	}

	if derived.Address != record.VerificationAddress {
		log.Warn().
			Str("derived", derived.Address).
			Str("stored", record.VerificationAddress).
			Msg("Verification failed: addresses do not match")

		return errors.New("verification failed: derived address does not match stored verification address")
	}

	return nil
}

// verificationNetwork picks the network the verification account lives on:
// the configured default chain when set, otherwise the first active network.
func (e *Engine) verificationNetwork() (chain.Network, error) {
	if e.Config.Registry.DefaultChainID != "" {
		return e.Registry.GetNetwork(e.Config.Registry.DefaultChainID)
	}

	active := e.Registry.GetActiveNetworks()
	if len(active) == 0 {
		return chain.Network{}, errors.New("no active networks registered")
	}

	return active[0], nil
}

func findAccountByAddress(accounts []keystore.AccountRecord, addr string) (keystore.AccountRecord, bool) {
	for _, rec := range accounts {
		if rec.Address == addr {
			return rec, true
		}
	}

	return keystore.AccountRecord{}, false
}
