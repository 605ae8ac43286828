package wallet

import (
	"context"
	"fmt"
	"syscall"

	"github.com/pkg/errors"
	"github/helmwallet/wallet-engine/internal/util"
	"github/helmwallet/wallet-engine/internal/wallet/seed"
	"golang.org/x/term"
)

const (
	minPasswordLength = 8

	// mnemonicBits yields a 24-word phrase.
	mnemonicBits = 256
)

// InitializeWallet brings the engine into the unlocked state interactively:
// a missing wallet is created from a fresh mnemonic, an existing one is
// unlocked with the entered password.
func (e *Engine) InitializeWallet(ctx context.Context) error {
	log := util.LogFromContext(ctx)

	exists, err := e.Keystore.HasWallet(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check wallet existence")
	}

	if !exists {
		log.Info().Msg("No wallet found. Generating new mnemonic...")

		mnemonic, err := seed.GenerateMnemonic(mnemonicBits)
		if err != nil {
			return errors.Wrap(err, "failed to generate mnemonic")
		}

		password, err := promptPassword("Enter password for new wallet (min 8 characters): ")
		if err != nil {
			return errors.Wrap(err, "failed to read password")
		}

		if len(password) < minPasswordLength {
			return errors.New("password must be at least 8 characters")
		}

		passwordConfirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return errors.Wrap(err, "failed to read password confirmation")
		}

		if password != passwordConfirm {
			return errors.New("passwords do not match")
		}

		account, err := e.CreateWallet(ctx, mnemonic, password)
		if err != nil {
			return errors.Wrap(err, "failed to create wallet")
		}

		//nolint:forbidigo // The recovery phrase must reach the terminal, never the log
		fmt.Printf("\nYour recovery phrase (write it down, it is shown only once):\n\n  %s\n\nFirst address (%s): %s\n\n", mnemonic, account.ChainID, account.Address)

		return nil
	}

	log.Info().Msg("Wallet found. Please enter password to unlock...")

	password, err := promptPassword("Enter wallet password: ")
	if err != nil {
		return errors.Wrap(err, "failed to read password")
	}

	if _, err := e.Unlock(ctx, password); err != nil {
		return errors.Wrap(err, "failed to unlock wallet")
	}

	return nil
}

// promptPassword prompts for password input (hides input)
//
//nolint:forbidigo // Password input requires direct terminal I/O
func promptPassword(prompt string) (string, error) {
	//nolint:forbidigo // Password input requires direct terminal I/O
	fmt.Print(prompt)

	// Read password from terminal (hides input)
	passwordBytes, err := term.ReadPassword(syscall.Stdin)
	if err != nil {
		return "", errors.Wrap(err, "failed to read password from terminal")
	}

	//nolint:forbidigo // Password input requires direct terminal I/O
	fmt.Println() // New line after password input

	return string(passwordBytes), nil
}
