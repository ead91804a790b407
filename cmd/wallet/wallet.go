package wallet

import (
	"fmt"
	"os"
	"syscall"

	"github.com/chainvault/go-signer/internal/util/command"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// secretEnvVar supplies the device secret non-interactively.
const secretEnvVar = "WALLET_DEVICE_SECRET"

func New() *cobra.Command {
	return command.NewSubcommandGroup("wallet",
		newGenerate(),
		newDecrypt(),
		newBalance(),
		newSign(),
	)
}

// resolveSecret takes the device secret from the flag, the environment or an
// interactive prompt, in that order.
func resolveSecret(flagValue string) ([]byte, error) {
	if flagValue != "" {
		return []byte(flagValue), nil
	}

	if env := os.Getenv(secretEnvVar); env != "" {
		return []byte(env), nil
	}

	secret, err := promptSecret("Enter device secret: ")
	if err != nil {
		return nil, err
	}

	if len(secret) == 0 {
		return nil, errors.New("device secret must not be empty")
	}

	return secret, nil
}

// promptSecret reads the secret from the terminal without echoing it.
//
//nolint:forbidigo // Secret input requires direct terminal I/O
func promptSecret(prompt string) ([]byte, error) {
	fmt.Print(prompt)

	secret, err := term.ReadPassword(syscall.Stdin)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read secret from terminal")
	}

	fmt.Println()

	return secret, nil
}
