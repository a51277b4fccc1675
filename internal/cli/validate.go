package cli

import (
	"fmt"

	"github.com/hammal/lti/internal/netlist"
	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <netlist>",
		Short: "Check a netlist without building it",
		Long: `Check names, composition kinds and operand counts of a netlist and
reject cycles. Matrices are not assembled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(rootOpts, cmd); err != nil {
				return &ExitError{Code: ExitCommandError, Err: err}
			}
			n, err := netlist.Load(args[0])
			if err != nil {
				return &ExitError{Code: ExitCommandError, Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "netlist valid: %d systems, %d compositions, output %q\n",
				len(n.Systems), len(n.Compose), n.Output)
			return nil
		},
	}

	return cmd
}
