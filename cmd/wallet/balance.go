package wallet

import (
	"context"
	"fmt"
	"os"

	"github.com/chainvault/go-signer/internal/config"
	"github.com/chainvault/go-signer/internal/wallet"
	"github.com/chainvault/go-signer/internal/wallet/balance"
	"github.com/chainvault/go-signer/internal/wallet/chain"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newBalance() *cobra.Command {
	var chainFlag string
	var addressFlag string
	var tokenFlag string
	var chainIDFlag int64

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Reads a chain balance",
		Long:  "Reads the native or token balance of an address, in the chain's smallest unit.",
		Run: func(_ *cobra.Command, _ []string) {
			runBalance(chainFlag, addressFlag, tokenFlag, chainIDFlag)
		},
	}

	cmd.Flags().StringVar(&chainFlag, "chain", "", "chain (evm, bitcoin, solana, tron, ton)")
	cmd.Flags().StringVar(&addressFlag, "address", "", "address to query")
	cmd.Flags().StringVar(&tokenFlag, "token", "", "token contract for ERC20/TRC20 balances")
	cmd.Flags().Int64Var(&chainIDFlag, "chain-id", 1, "EVM chain id")
	_ = cmd.MarkFlagRequired("chain")
	_ = cmd.MarkFlagRequired("address")

	return cmd
}

func runBalance(chainFlag, addressFlag, tokenFlag string, chainIDFlag int64) {
	chainType, err := chain.ParseType(chainFlag)
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse chain")
		os.Exit(1)
	}

	service, err := wallet.NewService(config.DefaultConfigFromEnv())
	if err != nil {
		log.Error().Err(err).Msg("Failed to build wallet service")
		os.Exit(1)
	}

	results := service.Balances().Snapshot(context.Background(), []balance.Query{{
		ChainType:     chainType,
		Address:       addressFlag,
		ChainID:       chainIDFlag,
		TokenContract: tokenFlag,
	}})

	for _, result := range results {
		fmt.Printf("%s %s: %s\n", result.ChainType, result.Address, result.Amount) //nolint:forbidigo
	}
}
