package signer

import (
	"context"

	"github/helmwallet/wallet-engine/internal/wallet/chain"
	"github/helmwallet/wallet-engine/internal/wallet/cosmos"
	"github/helmwallet/wallet-engine/internal/wallet/solana"
	"github/helmwallet/wallet-engine/internal/wallet/utxo"
)

// Service provides transaction signing for every supported chain family.
// Private keys are derived from the in-memory seed per call and wiped before
// the call returns; they never cross this package boundary.
// 签名服务：私钥仅在单次调用内存活，用后立即清零
type Service interface {
	// SignEVMTransaction signs an EVM transaction (EIP-1559)
	SignEVMTransaction(ctx context.Context, req *SignEVMRequest) (*SignEVMResponse, error)

	// SignCosmosTransaction builds and signs a SIGN_MODE_DIRECT transaction
	SignCosmosTransaction(ctx context.Context, req *SignCosmosRequest) (*SignCosmosResponse, error)

	// SignSolanaTransfer builds and signs a system transfer
	SignSolanaTransfer(ctx context.Context, req *SignSolanaRequest) (*solana.SignedTx, error)

	// SignUTXOTransfer selects inputs and signs a transfer with change
	SignUTXOTransfer(ctx context.Context, req *SignUTXORequest) (*utxo.SignedTx, error)

	// SignUTXOSweep signs a transaction spending every confirmed input to one output
	SignUTXOSweep(ctx context.Context, req *SignUTXOSweepRequest) (*utxo.SignedTx, error)
}

// SignEVMRequest represents a request to sign an EVM transaction
type SignEVMRequest struct {
	ChainID              int64  // EIP-155 chain ID (1 for Ethereum mainnet, 137 for Polygon, etc.)
	To                   string // Recipient address (hex string with 0x prefix)
	Value                string // Amount in wei (as string to avoid precision loss)
	GasLimit             uint64 // Gas limit
	MaxFeePerGas         string // Max fee per gas (EIP-1559, in wei, as string)
	MaxPriorityFeePerGas string // Max priority fee per gas (EIP-1559, in wei, as string)
	Nonce                uint64 // Transaction nonce
	Data                 []byte // Transaction data (for contract calls)
	FromAddress          string // Address to sign from (hex string with 0x prefix)
	DerivationPath       string // BIP44 derivation path (e.g., "m/44'/60'/0'/0/0")
}

// SignEVMResponse represents a signed EVM transaction
type SignEVMResponse struct {
	RawTransaction []byte // RLP-encoded signed transaction
	TxHash         string // Transaction hash (hex string with 0x prefix)
}

// SignCosmosRequest represents a request to sign a cosmos transaction
type SignCosmosRequest struct {
	DerivationPath string         // BIP44 derivation path (e.g., "m/44'/118'/0'/0/0")
	Input          cosmos.TxInput // Chain context, fee and messages
}

// SignCosmosResponse represents a signed cosmos transaction
type SignCosmosResponse struct {
	RawTransaction []byte // Proto-encoded TxRaw, ready for broadcast
}

// SignSolanaRequest represents a request to sign a solana transfer
type SignSolanaRequest struct {
	DerivationPath string                // SLIP-0010 derivation path (e.g., "m/44'/501'/0'/0'")
	Intent         solana.TransferIntent // Transfer parameters including recent blockhash
}

// SignUTXORequest represents a request to sign a UTXO transfer
type SignUTXORequest struct {
	DerivationPath string              // BIP44/BIP84 derivation path
	Intent         utxo.TransferIntent // Transfer parameters
	Utxos          []utxo.Utxo         // Spendable outputs of the from address
	Network        chain.Network       // Network the transaction targets
}

// SignUTXOSweepRequest represents a request to sweep all confirmed outputs
type SignUTXOSweepRequest struct {
	DerivationPath string        // BIP44/BIP84 derivation path
	Destination    string        // Address receiving the swept value
	Utxos          []utxo.Utxo   // Spendable outputs of the swept address
	FeeRate        int64         // Fee rate in sat/vB
	Network        chain.Network // Network the transaction targets
}
