package keystore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github/helmwallet/wallet-engine/internal/util"
	"github/helmwallet/wallet-engine/internal/wallet/walleterrors"
)

// Service provides versioned, encrypted persistence of wallet state.
type Service interface {
	// CreateWallet encrypts the mnemonic under the password and persists a
	// fresh wallet record. Fails if a wallet already exists.
	CreateWallet(ctx context.Context, mnemonic string, password string) (*WalletRecord, error)

	// HasWallet checks if a wallet record exists
	HasWallet(ctx context.Context) (bool, error)

	// LoadWallet decrypts and returns the mnemonic plus the full record
	LoadWallet(ctx context.Context, password string) (string, *WalletRecord, error)

	// LoadWalletMetadata returns the non-secret parts without a password
	LoadWalletMetadata(ctx context.Context) (*WalletMetadata, error)

	// SaveAccounts replaces the derived account list of the wallet record
	SaveAccounts(ctx context.Context, accounts []AccountRecord) error

	// SetVerificationAddress stores the address used to sanity-check unlocks
	SetVerificationAddress(ctx context.Context, address string) error

	// AddImportedAccount stores an account with its own independently
	// encrypted mnemonic (fresh salt and nonce under the same password)
	AddImportedAccount(ctx context.Context, account AccountRecord, mnemonic string, password string) error

	// LoadImportedMnemonic decrypts the secret of one imported account
	LoadImportedMnemonic(ctx context.Context, accountID string, password string) (string, error)

	// DeleteWallet removes the wallet record
	DeleteWallet(ctx context.Context) error

	// LoadPreferences returns persisted preferences or defaults
	LoadPreferences(ctx context.Context) (*PreferencesRecord, error)

	// SavePreferences persists the preferences record
	SavePreferences(ctx context.Context, prefs *PreferencesRecord) error
}

type service struct {
	backend Backend
	mu      sync.Mutex
}

// NewService creates a new keystore Service on top of the given backend
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(backend Backend) (Service, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}

	return &service{backend: backend}, nil
}

// CreateWallet encrypts the mnemonic and persists a fresh wallet record
func (s *service) CreateWallet(ctx context.Context, mnemonic string, password string) (*WalletRecord, error) {
	log := util.LogFromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.backend.Exists(ctx, walletKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check wallet existence")
	}
	if exists {
		return nil, errors.New("wallet already exists")
	}

	blob, err := encryptSecret([]byte(mnemonic), password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encrypt mnemonic")
		return nil, errors.Wrap(err, "failed to encrypt mnemonic")
	}

	record := &WalletRecord{
		SchemaVersion: WalletSchemaVersion,
		ID:            uuid.New().String(),
		Crypto:        blob,
		Accounts:      []AccountRecord{},
	}

	if err := s.saveWalletRecord(ctx, record); err != nil {
		return nil, err
	}

	return record, nil
}

// HasWallet checks if a wallet record exists
func (s *service) HasWallet(ctx context.Context) (bool, error) {
	exists, err := s.backend.Exists(ctx, walletKey)
	if err != nil {
		return false, errors.Wrap(err, "failed to check wallet existence")
	}

	return exists, nil
}

// LoadWallet decrypts and returns the mnemonic plus the full record
func (s *service) LoadWallet(ctx context.Context, password string) (string, *WalletRecord, error) {
	record, err := s.loadWalletRecord(ctx)
	if err != nil {
		return "", nil, err
	}

	secret, err := decryptSecret(record.Crypto, password)
	if err != nil {
		return "", nil, err
	}

	return string(secret), record, nil
}

// LoadWalletMetadata returns the non-secret parts without a password
func (s *service) LoadWalletMetadata(ctx context.Context) (*WalletMetadata, error) {
	record, err := s.loadWalletRecord(ctx)
	if err != nil {
		return nil, err
	}

	accounts := make([]AccountRecord, 0, len(record.Accounts)+len(record.ImportedAccounts))
	accounts = append(accounts, record.Accounts...)
	for _, imported := range record.ImportedAccounts {
		accounts = append(accounts, imported.Account)
	}

	return &WalletMetadata{
		SchemaVersion:       record.SchemaVersion,
		ID:                  record.ID,
		VerificationAddress: record.VerificationAddress,
		Accounts:            accounts,
	}, nil
}

// SaveAccounts replaces the derived account list of the wallet record
func (s *service) SaveAccounts(ctx context.Context, accounts []AccountRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.loadWalletRecord(ctx)
	if err != nil {
		return err
	}

	record.Accounts = accounts

	return s.saveWalletRecord(ctx, record)
}

// SetVerificationAddress stores the address used to sanity-check unlocks
func (s *service) SetVerificationAddress(ctx context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.loadWalletRecord(ctx)
	if err != nil {
		return err
	}

	record.VerificationAddress = address

	return s.saveWalletRecord(ctx, record)
}

// AddImportedAccount stores an account with its own independently encrypted mnemonic
func (s *service) AddImportedAccount(ctx context.Context, account AccountRecord, mnemonic string, password string) error {
	log := util.LogFromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.loadWalletRecord(ctx)
	if err != nil {
		return err
	}

	// the primary blob must open under this password before we add anything
	if _, err := decryptSecret(record.Crypto, password); err != nil {
		return err
	}

	blob, err := encryptSecret([]byte(mnemonic), password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encrypt imported mnemonic")
		return errors.Wrap(err, "failed to encrypt imported mnemonic")
	}

	account.Imported = true
	record.ImportedAccounts = append(record.ImportedAccounts, ImportedAccountRecord{
		Account: account,
		Crypto:  blob,
	})

	return s.saveWalletRecord(ctx, record)
}

// LoadImportedMnemonic decrypts the secret of one imported account
func (s *service) LoadImportedMnemonic(ctx context.Context, accountID string, password string) (string, error) {
	record, err := s.loadWalletRecord(ctx)
	if err != nil {
		return "", err
	}

	for _, imported := range record.ImportedAccounts {
		if imported.Account.ID != accountID {
			continue
		}

		secret, err := decryptSecret(imported.Crypto, password)
		if err != nil {
			return "", err
		}

		return string(secret), nil
	}

	return "", errors.Errorf("imported account %q not found", accountID)
}

// DeleteWallet removes the wallet record
func (s *service) DeleteWallet(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Delete(ctx, walletKey); err != nil {
		return errors.Wrap(err, "failed to delete wallet record")
	}

	return nil
}

// LoadPreferences returns persisted preferences or defaults
func (s *service) LoadPreferences(ctx context.Context) (*PreferencesRecord, error) {
	data, err := s.backend.Get(ctx, preferencesKey)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return DefaultPreferences(), nil
		}
		return nil, errors.Wrap(err, "failed to read preferences record")
	}

	var prefs PreferencesRecord
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal preferences record")
	}

	// legacy records predate the version field
	if prefs.SchemaVersion == 0 {
		prefs.SchemaVersion = PreferencesSchemaVersion
	}

	return &prefs, nil
}

// SavePreferences persists the preferences record
func (s *service) SavePreferences(ctx context.Context, prefs *PreferencesRecord) error {
	if prefs == nil {
		return errors.New("preferences record is required")
	}

	prefs.SchemaVersion = PreferencesSchemaVersion

	data, err := json.Marshal(prefs)
	if err != nil {
		return errors.Wrap(err, "failed to marshal preferences record")
	}

	if err := s.backend.Set(ctx, preferencesKey, data); err != nil {
		return errors.Wrap(err, "failed to write preferences record")
	}

	return nil
}

func (s *service) loadWalletRecord(ctx context.Context) (*WalletRecord, error) {
	data, err := s.backend.Get(ctx, walletKey)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, errors.Wrap(walleterrors.ErrNoWalletFound, "wallet record absent")
		}
		return nil, errors.Wrap(err, "failed to read wallet record")
	}

	var record WalletRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal wallet record")
	}

	normalizeWalletRecord(&record)

	return &record, nil
}

func (s *service) saveWalletRecord(ctx context.Context, record *WalletRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "failed to marshal wallet record")
	}

	if err := s.backend.Set(ctx, walletKey, data); err != nil {
		return errors.Wrap(err, "failed to write wallet record")
	}

	return nil
}

// normalizeWalletRecord upgrades a legacy (unversioned) record in memory so
// the rest of the engine only ever sees the current schema. The upgraded form
// is written back on the next mutation.
func normalizeWalletRecord(record *WalletRecord) {
	if record.SchemaVersion == 0 {
		record.SchemaVersion = WalletSchemaVersion
	}

	if record.Crypto.Cipher == "" {
		record.Crypto.Cipher = cipherAES256GCM
	}

	if record.Crypto.KDF == "" {
		record.Crypto.KDF = kdfScrypt
	}

	if record.Accounts == nil {
		record.Accounts = []AccountRecord{}
	}
}
