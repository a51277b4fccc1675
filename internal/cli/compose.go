package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hammal/lti/internal/config"
	"github.com/hammal/lti/internal/logging"
	"github.com/hammal/lti/internal/netlist"
	"github.com/hammal/lti/internal/render"
	"github.com/hammal/lti/pss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewComposeCommand creates the compose command.
func NewComposeCommand(rootOpts *RootOptions) *cobra.Command {
	var plotPath string

	cmd := &cobra.Command{
		Use:   "compose <netlist>",
		Short: "Build a netlist and write the resulting realization",
		Long: `Build the output of a YAML netlist and write its A, B, C and D
matrices as JSON or YAML. Logs go to stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompose(rootOpts, args[0], plotPath, cmd)
		},
	}

	cmd.Flags().StringVar(&plotPath, "plot", "", "also save a heat map of [A B; C D] to this image file")

	return cmd
}

func runCompose(opts *RootOptions, path, plotPath string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts, cmd)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Err: err}
	}
	logger := logging.New(cmd.ErrOrStderr(), logging.ProfileRuntime, cfg.LogLevel)

	n, err := netlist.Load(path)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Err: err}
	}
	logger.Debug().Str("netlist", path).Int("systems", len(n.Systems)).Int("compositions", len(n.Compose)).Msg("netlist loaded")

	sys, err := netlist.Build(cmd.Context(), n, logger, pss.WithTolerance(cfg.Tolerance))
	if err != nil {
		logger.Error().Err(err).Str("netlist", path).Msg("compose failed")
		return &ExitError{Code: ExitFailure, Err: err}
	}

	if plotPath != "" {
		if err := render.HeatMap(sys, n.Output, plotPath); err != nil {
			return &ExitError{Code: ExitCommandError, Err: err}
		}
		logger.Info().Str("plot", plotPath).Msg("structure rendered")
	}

	return writeRealization(cmd.OutOrStdout(), cfg.Format, netlist.Export(n.Output, sys))
}

func writeRealization(w io.Writer, format string, r netlist.Realization) error {
	switch format {
	case config.FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(r); err != nil {
			return err
		}
		return encoder.Close()
	case config.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(r)
	}
	return &ExitError{Code: ExitCommandError, Err: fmt.Errorf("invalid format %q", format)}
}
