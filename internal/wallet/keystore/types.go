package keystore

// Fixed storage keys. The whole wallet lives under one key, preferences under
// a second one; session state never reaches the backend.
const (
	walletKey      = "wallet"
	preferencesKey = "preferences"
)

// Schema versions are independent per record so either can migrate without
// touching the other. A record without a schemaVersion field is legacy (v0).
const (
	WalletSchemaVersion      = 2
	PreferencesSchemaVersion = 1
)

const (
	cipherAES256GCM = "aes-256-gcm"
	kdfScrypt       = "scrypt"
)

// EncryptedBlob is one authenticated encryption unit. Every blob carries its
// own salt and nonce so two blobs encrypted with the same password stay
// cryptographically independent.
type EncryptedBlob struct {
	Ciphertext string       `json:"ciphertext"`
	Salt       string       `json:"salt"`
	Nonce      string       `json:"nonce"`
	Cipher     string       `json:"cipher"`
	KDF        string       `json:"kdf"`
	KDFParams  ScryptParams `json:"kdfparams"`
}

// ScryptParams defines scrypt KDF parameters
type ScryptParams struct {
	DKLen int `json:"dklen"`
	N     int `json:"n"`
	R     int `json:"r"`
	P     int `json:"p"`
}

// DefaultScryptParams returns the engine's scrypt parameters
func DefaultScryptParams() ScryptParams {
	const (
		scryptDKLen = 32     // Derived key length (32 bytes, AES-256)
		scryptN     = 262144 // CPU/memory cost parameter (2^18)
		scryptR     = 8      // Block size parameter
		scryptP     = 1      // Parallelization parameter
	)

	return ScryptParams{
		DKLen: scryptDKLen,
		N:     scryptN,
		R:     scryptR,
		P:     scryptP,
	}
}

// AccountRecord is the persisted, non-secret description of one account.
type AccountRecord struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Address        string `json:"address"`
	PublicKey      string `json:"publicKey"`
	Algorithm      string `json:"algorithm"`
	DerivationPath string `json:"derivationPath"`
	AccountIndex   uint32 `json:"accountIndex"`
	ChainID        string `json:"chainId"`
	Imported       bool   `json:"imported,omitempty"`
}

// ImportedAccountRecord carries its own independently encrypted secret. The
// same wallet password decrypts it, but salt, nonce and derived key are
// unrelated to the primary blob.
type ImportedAccountRecord struct {
	Account AccountRecord `json:"account"`
	Crypto  EncryptedBlob `json:"crypto"`
}

// WalletRecord is the single persisted wallet blob under the fixed wallet key.
type WalletRecord struct {
	SchemaVersion       int                     `json:"schemaVersion,omitempty"`
	ID                  string                  `json:"id"`
	Crypto              EncryptedBlob           `json:"crypto"`
	VerificationAddress string                  `json:"verificationAddress,omitempty"`
	Accounts            []AccountRecord         `json:"accounts"`
	ImportedAccounts    []ImportedAccountRecord `json:"importedAccounts,omitempty"`
}

// WalletMetadata is the non-secret view of the wallet record, loadable without
// a password so a caller can render the account list before unlock.
type WalletMetadata struct {
	SchemaVersion       int
	ID                  string
	VerificationAddress string
	Accounts            []AccountRecord
}

// PreferencesRecord is persisted separately from the wallet record and is
// versioned independently.
type PreferencesRecord struct {
	SchemaVersion   int      `json:"schemaVersion,omitempty"`
	AutoLockMinutes int      `json:"autoLockMinutes"`
	DefaultChainID  string   `json:"defaultChainId,omitempty"`
	FiatCurrency    string   `json:"fiatCurrency,omitempty"`
	HiddenAssets    []string `json:"hiddenAssets,omitempty"`
}

// DefaultPreferences returns the preferences used when none were persisted yet.
func DefaultPreferences() *PreferencesRecord {
	const defaultAutoLockMinutes = 15

	return &PreferencesRecord{
		SchemaVersion:   PreferencesSchemaVersion,
		AutoLockMinutes: defaultAutoLockMinutes,
		FiatCurrency:    "USD",
	}
}
