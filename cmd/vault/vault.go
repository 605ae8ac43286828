package vault

import (
	"github.com/spf13/cobra"
	"github/helmwallet/wallet-engine/internal/util/command"
)

// Flag names shared by the vault subcommands.
const (
	chainFlag  = "chain"
	indexFlag  = "index"
	toFlag     = "to"
	fromFlag   = "from"
	amountFlag = "amount"
	memoFlag   = "memo"
	poolsFlag  = "pools"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("vault",
		newInit(),
		newAccounts(),
		newReceive(),
		newBalance(),
		newSend(),
		newQuote(),
	)
}
