package probe

import (
	"github.com/chainvault/go-signer/internal/util/command"
	"github.com/spf13/cobra"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("probe",
		newEndpoints(),
	)
}
