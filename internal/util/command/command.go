package command

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/helmwallet/wallet-engine/internal/config"
	"github/helmwallet/wallet-engine/internal/wallet"
)

// WithEngine builds a wallet engine from the configuration and hands it to f,
// running the auto-lock loop alongside until f returns.
func WithEngine(ctx context.Context, cfg config.Engine, f func(ctx context.Context, e *wallet.Engine) error) error {
	configureLogger(cfg.Logger)

	engine, err := wallet.NewEngine(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize wallet engine")
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go engine.RunAutoLock(ctx)

	defer engine.Lock(ctx)

	return f(ctx, engine)
}

func configureLogger(cfg config.Logger) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(cfg.Level)

	if cfg.PrettyPrintConsole {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
		})
	}
}

// NewSubcommandGroup combines the given subcommands into a parent command
// that prints its help when invoked without one of them.
func NewSubcommandGroup(use string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use: use,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				log.Fatal().Err(err).Msg("Failed to print help")
			}

			os.Exit(0)
		},
	}

	cmd.AddCommand(subcommands...)

	return cmd
}
