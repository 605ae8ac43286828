package wallet

import (
	"github.com/google/uuid"
	"github/helmwallet/wallet-engine/internal/wallet/address"
	"github/helmwallet/wallet-engine/internal/wallet/keystore"
)

// NewAccountRecord converts a derived account into its persisted form.
func NewAccountRecord(account address.Account, name string) keystore.AccountRecord {
	return keystore.AccountRecord{
		ID:             uuid.New().String(),
		Name:           name,
		Address:        account.Address,
		PublicKey:      account.PublicKey,
		Algorithm:      account.Algorithm,
		DerivationPath: account.DerivationPath,
		AccountIndex:   account.AccountIndex,
		ChainID:        account.ChainID,
	}
}
