package wallet

import (
	"fmt"
	"os"

	"github.com/chainvault/go-signer/internal/config"
	"github.com/chainvault/go-signer/internal/wallet"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newDecrypt() *cobra.Command {
	var secretFlag string
	var keyFlag string

	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypts an encrypted key record",
		Long:  "Decrypts an encrypted private key record with the device secret and prints the hex private key to stdout. Handle the output with care.",
		Run: func(_ *cobra.Command, _ []string) {
			runDecrypt(secretFlag, keyFlag)
		},
	}

	cmd.Flags().StringVar(&secretFlag, "secret", "", "device secret (falls back to "+secretEnvVar+" or an interactive prompt)")
	cmd.Flags().StringVar(&keyFlag, "key", "", "encrypted key record (hex)")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func runDecrypt(secretFlag, keyFlag string) {
	secret, err := resolveSecret(secretFlag)
	if err != nil {
		log.Error().Err(err).Msg("Failed to resolve device secret")
		os.Exit(1)
	}

	service, err := wallet.NewService(config.DefaultConfigFromEnv())
	if err != nil {
		log.Error().Err(err).Msg("Failed to build wallet service")
		os.Exit(1)
	}

	privateKeyHex, err := service.DecryptPrivateKey(secret, keyFlag)
	if err != nil {
		log.Error().Err(err).Msg("Failed to decrypt key record")
		os.Exit(1)
	}

	fmt.Println(privateKeyHex) //nolint:forbidigo
}
