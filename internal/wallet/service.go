package wallet

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
	"github/helmwallet/wallet-engine/internal/config"
	"github/helmwallet/wallet-engine/internal/metrics"
	"github/helmwallet/wallet-engine/internal/util"
	"github/helmwallet/wallet-engine/internal/wallet/addrcache"
	"github/helmwallet/wallet-engine/internal/wallet/address"
	"github/helmwallet/wallet-engine/internal/wallet/balance"
	"github/helmwallet/wallet-engine/internal/wallet/chain"
	"github/helmwallet/wallet-engine/internal/wallet/keystore"
	"github/helmwallet/wallet-engine/internal/wallet/netclient"
	"github/helmwallet/wallet-engine/internal/wallet/seed"
	"github/helmwallet/wallet-engine/internal/wallet/signer"
)

// Engine is the central struct keeping all the dependencies of the wallet
// engine together: encrypted storage, the network registry, the seed manager,
// signers and one network client per active chain. The exported fields stay
// accessible so an embedding host or a test can swap single components after
// construction.
type Engine struct {
	Config    config.Engine
	Registry  chain.Service
	Keystore  keystore.Service
	Sessions  *keystore.SessionStore
	Seeds     seed.Manager
	Addresses address.Service
	Signer    signer.Service
	Balances  balance.Service
	Metrics   *metrics.Service
	AddrCache *addrcache.Cache
	Clock     keystore.Clock

	netClients map[string]*netclient.Client

	// accountLocks serializes fetch-sequence-then-sign per account so two
	// concurrent sends cannot reuse one nonce/sequence.
	accountLocks sync.Map

	// importedSeeds holds the decrypted seed of each imported account for the
	// lifetime of the unlock session. 导入账户的种子随会话解密、随锁清除
	mu            sync.RWMutex
	importedSeeds map[string]seed.Manager

	inflightSigning atomic.Int64
	autoLockMinutes atomic.Int32
}

// NewEngine wires an engine from configuration, loading the network registry
// from the configured path.
func NewEngine(cfg config.Engine) (*Engine, error) {
	networks, err := chain.LoadNetworks(cfg.Registry.Path)
	if err != nil {
		return nil, err
	}

	return NewEngineWithNetworks(cfg, networks)
}

// NewEngineWithNetworks wires an engine with an already-loaded registry.
func NewEngineWithNetworks(cfg config.Engine, networks []chain.Network) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid engine configuration")
	}

	registry, err := chain.NewService(networks)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build network registry")
	}

	var backend keystore.Backend
	if cfg.Keystore.InMemory {
		backend = keystore.NewMemoryBackend()
	} else {
		backend, err = keystore.NewFileBackend(cfg.Keystore.Dir)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open keystore directory")
		}
	}

	keystoreService, err := keystore.NewService(backend)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build keystore service")
	}

	addressService, err := address.NewService()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build address service")
	}

	seedManager := seed.NewManager()

	signerService, err := signer.NewService(seedManager, addressService)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build signer service")
	}

	metricsService := metrics.New()
	clock := time2.DefaultClock

	e := &Engine{
		Config:        cfg,
		Registry:      registry,
		Keystore:      keystoreService,
		Sessions:      keystore.NewSessionStore(clock),
		Seeds:         seedManager,
		Addresses:     addressService,
		Signer:        signerService,
		Balances:      balance.NewService(),
		Metrics:       metricsService,
		AddrCache:     addrcache.New(cfg.AddressCache.TTL, cfg.AddressCache.CleanupInterval, metricsService),
		Clock:         clock,
		netClients:    make(map[string]*netclient.Client),
		importedSeeds: make(map[string]seed.Manager),
	}
	e.autoLockMinutes.Store(int32(cfg.AutoLock.Minutes))

	for _, n := range registry.GetActiveNetworks() {
		client, err := netclient.New(n.ChainID, n.Endpoints, cfg.Net.AttemptTimeout, metricsService)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to build network client for chain %s", n.ChainID)
		}

		e.netClients[n.ChainID] = client
	}

	return e, nil
}

// CreateWallet encrypts a new wallet under the password, unlocks it and
// registers the first account on the verification network. The first account's
// address is pinned in the record so later unlocks can detect a record that
// does not belong to the entered seed.
func (e *Engine) CreateWallet(ctx context.Context, mnemonic string, password string) (address.Account, error) {
	log := util.LogFromContext(ctx)

	if !bip39.IsMnemonicValid(mnemonic) {
		return address.Account{}, errors.New("invalid mnemonic")
	}

	if _, err := e.Keystore.CreateWallet(ctx, mnemonic, password); err != nil {
		return address.Account{}, err
	}

	if err := e.Seeds.Initialize(mnemonic, ""); err != nil {
		return address.Account{}, errors.Wrap(err, "failed to initialize seed manager")
	}

	account, err := e.createVerificationAddress(ctx)
	if err != nil {
		e.Seeds.Clear()
		return address.Account{}, err
	}

	e.Sessions.SetSession()

	log.Info().
		Str("chain_id", account.ChainID).
		Str("address", account.Address).
		Msg("Wallet created and unlocked")

	return account, nil
}

// Unlock decrypts the wallet, verifies the pinned verification address and
// starts a session. Imported account seeds are decrypted alongside the
// primary one so sends from imported accounts need no further password entry.
func (e *Engine) Unlock(ctx context.Context, password string) (*keystore.Session, error) {
	log := util.LogFromContext(ctx)

	mnemonic, record, err := e.Keystore.LoadWallet(ctx, password)
	if err != nil {
		return nil, err
	}

	if err := e.Seeds.Initialize(mnemonic, ""); err != nil {
		return nil, errors.Wrap(err, "failed to initialize seed manager")
	}

	if err := e.verifyUnlock(ctx, record); err != nil {
		e.Seeds.Clear()
		return nil, err
	}

	if err := e.attachImportedSeeds(ctx, record, password); err != nil {
		e.Seeds.Clear()
		return nil, err
	}

	session := e.Sessions.SetSession()

	prefs, err := e.Keystore.LoadPreferences(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load preferences, keeping configured auto-lock window")
	} else {
		e.autoLockMinutes.Store(int32(prefs.AutoLockMinutes))
	}

	log.Info().Str("session_id", session.ID).Msg("Wallet unlocked")

	return session, nil
}

// Lock wipes the decrypted seeds and ends the session.
func (e *Engine) Lock(ctx context.Context) {
	log := util.LogFromContext(ctx)

	e.Seeds.Clear()

	e.mu.Lock()
	for _, manager := range e.importedSeeds {
		manager.Clear()
	}
	e.importedSeeds = make(map[string]seed.Manager)
	e.mu.Unlock()

	e.AddrCache.InvalidateAccounts()
	e.Sessions.ClearSession()

	log.Info().Msg("Wallet locked")
}

// IsUnlocked reports whether a seed is in memory and a session is active.
func (e *Engine) IsUnlocked() bool {
	return e.Seeds.IsInitialized() && e.Sessions.GetSession() != nil
}

// Accounts lists every account (derived and imported) from the wallet
// metadata. No password is needed, the list is not secret.
func (e *Engine) Accounts(ctx context.Context) ([]keystore.AccountRecord, error) {
	meta, err := e.Keystore.LoadWalletMetadata(ctx)
	if err != nil {
		return nil, err
	}

	return meta.Accounts, nil
}

// DeriveAccount returns the account at (chainID, accountIndex), deriving and
// persisting it when it is not part of the wallet yet. Repeated calls are
// served from the derived-address cache.
func (e *Engine) DeriveAccount(ctx context.Context, chainID string, accountIndex uint32) (address.Account, error) {
	log := util.LogFromContext(ctx)

	if cached, ok := e.AddrCache.Get(chainID, accountIndex); ok {
		return cached, nil
	}

	network, err := e.Registry.GetNetwork(chainID)
	if err != nil {
		return address.Account{}, err
	}

	account, err := e.deriveFromPrimarySeed(ctx, accountIndex, network)
	if err != nil {
		return address.Account{}, err
	}

	added, err := e.persistAccount(ctx, account)
	if err != nil {
		return address.Account{}, err
	}

	if added {
		// the account set changed, cached entries may be stale
		e.AddrCache.InvalidateAccounts()

		log.Info().
			Str("chain_id", chainID).
			Uint32("account_index", accountIndex).
			Str("address", account.Address).
			Msg("Account derived and registered")
	}

	e.AddrCache.Put(account)
	e.Sessions.Touch()

	return account, nil
}

// ImportAccount derives the first account of a foreign mnemonic on the given
// chain and stores the mnemonic under an independent encryption (same
// password, fresh salt and key).
func (e *Engine) ImportAccount(ctx context.Context, chainID string, mnemonic string, name string, password string) (address.Account, error) {
	log := util.LogFromContext(ctx)

	if !bip39.IsMnemonicValid(mnemonic) {
		return address.Account{}, errors.New("invalid mnemonic")
	}

	network, err := e.Registry.GetNetwork(chainID)
	if err != nil {
		return address.Account{}, err
	}

	manager := seed.NewManager()
	if err := manager.Initialize(mnemonic, ""); err != nil {
		return address.Account{}, errors.Wrap(err, "failed to initialize imported seed")
	}

	importedSeed := manager.GetSeed()
	account, err := e.Addresses.DeriveAccount(ctx, importedSeed, 0, network)
	for i := range importedSeed {
		importedSeed[i] = 0
	}
	if err != nil {
		manager.Clear()
		return address.Account{}, errors.Wrap(err, "failed to derive imported account")
	}

	record := NewAccountRecord(account, name)
	record.Imported = true

	if err := e.Keystore.AddImportedAccount(ctx, record, mnemonic, password); err != nil {
		manager.Clear()
		return address.Account{}, err
	}

	e.mu.Lock()
	e.importedSeeds[record.ID] = manager
	e.mu.Unlock()

	e.AddrCache.InvalidateAccounts()
	e.Sessions.Touch()

	log.Info().
		Str("chain_id", chainID).
		Str("address", account.Address).
		Msg("Account imported")

	return account, nil
}

// AccountBalance fetches the native balance of a registered account.
func (e *Engine) AccountBalance(ctx context.Context, chainID string, accountIndex uint32) (*balance.Balance, error) {
	network, err := e.Registry.GetNetwork(chainID)
	if err != nil {
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

	return e.Balances.NativeBalance(ctx, client, network, record.Address)
}

// Preferences returns the persisted preferences, or defaults when none exist.
func (e *Engine) Preferences(ctx context.Context) (*keystore.PreferencesRecord, error) {
	return e.Keystore.LoadPreferences(ctx)
}

// UpdatePreferences persists the preferences and applies the auto-lock window.
func (e *Engine) UpdatePreferences(ctx context.Context, prefs *keystore.PreferencesRecord) error {
	if err := e.Keystore.SavePreferences(ctx, prefs); err != nil {
		return err
	}

	e.autoLockMinutes.Store(int32(prefs.AutoLockMinutes))

	return nil
}

// deriveFromPrimarySeed derives one account from the in-memory primary seed.
func (e *Engine) deriveFromPrimarySeed(ctx context.Context, accountIndex uint32, network chain.Network) (address.Account, error) {
	seedBytes := e.Seeds.GetSeed()
	if seedBytes == nil {
		return address.Account{}, errors.New("seed not initialized")
	}

	defer func() {
		for i := range seedBytes {
			seedBytes[i] = 0
		}
	}()

	account, err := e.Addresses.DeriveAccount(ctx, seedBytes, accountIndex, network)
	if err != nil {
		return address.Account{}, errors.Wrap(err, "failed to derive account")
	}

	return account, nil
}

// persistAccount appends the account to the wallet record unless an account
// with the same chain and index is already registered.
func (e *Engine) persistAccount(ctx context.Context, account address.Account) (bool, error) {
	meta, err := e.Keystore.LoadWalletMetadata(ctx)
	if err != nil {
		return false, err
	}

	derived := make([]keystore.AccountRecord, 0, len(meta.Accounts)+1)
	for _, rec := range meta.Accounts {
		if rec.Imported {
			continue
		}
		if rec.ChainID == account.ChainID && rec.AccountIndex == account.AccountIndex {
			return false, nil
		}
		derived = append(derived, rec)
	}

	name := fmt.Sprintf("Account %d", account.AccountIndex)
	derived = append(derived, NewAccountRecord(account, name))

	if err := e.Keystore.SaveAccounts(ctx, derived); err != nil {
		return false, err
	}

	return true, nil
}

// accountRecord finds the persisted account at (chainID, accountIndex).
// Derived accounts win over imported ones on an index collision; imported
// accounts are addressed by record ID instead.
func (e *Engine) accountRecord(ctx context.Context, chainID string, accountIndex uint32) (keystore.AccountRecord, error) {
	meta, err := e.Keystore.LoadWalletMetadata(ctx)
	if err != nil {
		return keystore.AccountRecord{}, err
	}

	var imported *keystore.AccountRecord
	for i, rec := range meta.Accounts {
		if rec.ChainID != chainID || rec.AccountIndex != accountIndex {
			continue
		}
		if !rec.Imported {
			return rec, nil
		}
		if imported == nil {
			imported = &meta.Accounts[i]
		}
	}

	if imported != nil {
		return *imported, nil
	}

	return keystore.AccountRecord{}, errors.Errorf("no account at index %d on chain %s, derive it first", accountIndex, chainID)
}

// accountRecordByID finds the persisted account with the given record ID.
func (e *Engine) accountRecordByID(ctx context.Context, accountID string) (keystore.AccountRecord, error) {
	meta, err := e.Keystore.LoadWalletMetadata(ctx)
	if err != nil {
		return keystore.AccountRecord{}, err
	}

	for _, rec := range meta.Accounts {
		if rec.ID == accountID {
			return rec, nil
		}
	}

	return keystore.AccountRecord{}, errors.Errorf("no account with id %q", accountID)
}

// signerFor returns the signer bound to the seed that controls the account:
// the engine-wide signer for derived accounts, a per-account signer over the
// imported seed for imported ones.
//
//nolint:ireturn // 返回接口类型是预期的设计
func (e *Engine) signerFor(record keystore.AccountRecord) (signer.Service, error) {
	if !record.Imported {
		return e.Signer, nil
	}

	e.mu.RLock()
	manager, ok := e.importedSeeds[record.ID]
	e.mu.RUnlock()

	if !ok {
		return nil, errors.Errorf("imported account %q has no attached seed, unlock first", record.ID)
	}

	return signer.NewService(manager, e.Addresses)
}

// attachImportedSeeds decrypts every imported mnemonic for the session.
func (e *Engine) attachImportedSeeds(ctx context.Context, record *keystore.WalletRecord, password string) error {
	managers := make(map[string]seed.Manager, len(record.ImportedAccounts))

	for _, imported := range record.ImportedAccounts {
		mnemonic, err := e.Keystore.LoadImportedMnemonic(ctx, imported.Account.ID, password)
		if err != nil {
			return errors.Wrapf(err, "failed to decrypt imported account %q", imported.Account.ID)
		}

		manager := seed.NewManager()
		if err := manager.Initialize(mnemonic, ""); err != nil {
			return errors.Wrapf(err, "failed to initialize imported seed %q", imported.Account.ID)
		}

		managers[imported.Account.ID] = manager
	}

	e.mu.Lock()
	e.importedSeeds = managers
	e.mu.Unlock()

	return nil
}

// netClient returns the network client of an active chain.
func (e *Engine) netClient(chainID string) (*netclient.Client, error) {
	client, ok := e.netClients[chainID]
	if !ok {
		return nil, errors.Errorf("no network client for chain %s", chainID)
	}

	return client, nil
}

// lockAccount serializes operations on one account record. The returned
// function releases the lock.
func (e *Engine) lockAccount(record keystore.AccountRecord) func() {
	key := fmt.Sprintf("%s/%s", record.ChainID, record.ID)

	muIface, _ := e.accountLocks.LoadOrStore(key, &sync.Mutex{})
	mu := muIface.(*sync.Mutex) //nolint:forcetypeassert // map only ever holds mutexes

	mu.Lock()
	return mu.Unlock
}

// beginSigning marks a signing operation in flight so the auto-lock loop
// defers until it finished. The returned function ends the operation.
func (e *Engine) beginSigning() func() {
	e.inflightSigning.Add(1)
	return func() { e.inflightSigning.Add(-1) }
}
