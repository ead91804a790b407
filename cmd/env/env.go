package env

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chainvault/go-signer/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Prints the effective configuration",
		Long:  "Resolves the configuration from the environment and prints it as JSON.",
		Run: func(_ *cobra.Command, _ []string) {
			cfg := config.DefaultConfigFromEnv()

			encoded, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				log.Error().Err(err).Msg("Failed to encode config")
				os.Exit(1)
			}

			fmt.Println(string(encoded)) //nolint:forbidigo
		},
	}
}
