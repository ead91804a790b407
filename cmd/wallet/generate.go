package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/chainvault/go-signer/internal/config"
	"github.com/chainvault/go-signer/internal/wallet"
	"github.com/chainvault/go-signer/internal/wallet/chain"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newGenerate() *cobra.Command {
	var chainsFlag string
	var secretFlag string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generates encrypted wallets",
		Long:  "Generates one wallet per chain, encrypts the private keys under the device secret and prints the records as JSON.",
		Run: func(_ *cobra.Command, _ []string) {
			runGenerate(chainsFlag, secretFlag)
		},
	}

	cmd.Flags().StringVar(&chainsFlag, "chains", "", "comma-separated chain list (evm,bitcoin,solana,tron,ton); default all")
	cmd.Flags().StringVar(&secretFlag, "secret", "", "device secret (falls back to "+secretEnvVar+" or an interactive prompt)")

	return cmd
}

func runGenerate(chainsFlag, secretFlag string) {
	secret, err := resolveSecret(secretFlag)
	if err != nil {
		log.Error().Err(err).Msg("Failed to resolve device secret")
		os.Exit(1)
	}

	chainTypes, err := parseChains(chainsFlag)
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse chain list")
		os.Exit(1)
	}

	service, err := wallet.NewService(config.DefaultConfigFromEnv())
	if err != nil {
		log.Error().Err(err).Msg("Failed to build wallet service")
		os.Exit(1)
	}

	wallets, err := service.GenerateWallets(context.Background(), secret, chainTypes)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate wallets")
		os.Exit(1)
	}

	encoded, err := json.MarshalIndent(wallets, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode wallets")
		os.Exit(1)
	}

	fmt.Println(string(encoded)) //nolint:forbidigo
}

func parseChains(chainsFlag string) ([]chain.Type, error) {
	if chainsFlag == "" {
		return nil, nil
	}

	var chainTypes []chain.Type
	for _, name := range strings.Split(chainsFlag, ",") {
		chainType, err := chain.ParseType(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		chainTypes = append(chainTypes, chainType)
	}

	return chainTypes, nil
}
