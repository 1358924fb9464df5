package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gplace-dev/gplace/pkg/place"
)

// newInitialCmd creates the initial command, which runs the quadratic
// starting placement alone. Useful for inspecting the wirelength-only
// layout before the density loop reshapes it.
func newInitialCmd() *cobra.Command {
	var (
		output     string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "initial [design.toml]",
		Short: "Run the quadratic initial placement only",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInitial(cmd.Context(), args[0], output, configPath)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output design file (default <input>.placed.toml)")
	cmd.Flags().StringVar(&configPath, "config", "", "TOML configuration file")

	return cmd
}

func runInitial(ctx context.Context, input, output, configPath string) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	cfg.Logger = logger

	nl, err := loadDesign(input)
	if err != nil {
		return err
	}

	p, err := place.New(cfg, nl, nil, nil)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	if err := p.RunInitial(ctx); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Initially placed %d objects", nl.NumMovable()))

	if output == "" {
		output = defaultOutput(input)
	}
	if err := writeDesign(output, nl); err != nil {
		return err
	}

	printSuccess("Initial placement done")
	printStats(nl.NumMovable(), len(nl.Nets), false)
	printKeyValue("hpwl", fmt.Sprintf("%.1f", nl.HPWL()))
	printFile(output)
	return nil
}
