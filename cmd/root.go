package cmd

import (
	"fmt"
	"os"

	"github.com/chainvault/go-signer/cmd/env"
	"github.com/chainvault/go-signer/cmd/probe"
	"github.com/chainvault/go-signer/cmd/wallet"
	"github.com/chainvault/go-signer/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: config.GetFormattedBuildArgs(),
	Use:     "app",
	Short:   config.ModuleName,
	Long: fmt.Sprintf(`%v

A self-custodial multi-chain signing CLI written in Go.
Requires configuration through ENV.`, config.ModuleName),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if level, err := zerolog.ParseLevel(config.DefaultConfigFromEnv().LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	// attach the subcommands
	rootCmd.AddCommand(
		env.New(),
		probe.New(),
		wallet.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Failed to execute root command")
		os.Exit(1)
	}
}
