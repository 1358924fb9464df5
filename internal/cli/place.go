package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gplace-dev/gplace/pkg/place"
	"github.com/gplace-dev/gplace/pkg/route"
	"github.com/gplace-dev/gplace/pkg/timing"
)

// placeOpts holds the command-line flags for the place command.
type placeOpts struct {
	output         string  // output design path; default <input> with .placed.toml
	configPath     string  // optional TOML config file
	binsX          int     // bin grid columns, 0 = auto
	binsY          int     // bin grid rows, 0 = auto
	targetDensity  float64 // per-bin target density
	maxIter        int     // optimizer iteration cap
	congestionPath string  // router congestion dump; enables routability mode
	criticalPath   string  // timing criticality dump; enables timing mode
	serial         bool    // disable the parallel gradient kernel
	noCache        bool    // disable collaborator caching
}

// newPlaceCmd creates the place command for the full initial + iterative
// placement flow.
//
// Default settings:
//   - bin grid: auto-sized from the movable object count
//   - target density: 0.7
//   - routability/timing feedback: off unless a dump file is given
func newPlaceCmd() *cobra.Command {
	var opts placeOpts

	cmd := &cobra.Command{
		Use:   "place [design.toml]",
		Short: "Run global placement over a design file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlace(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output design file (default <input>.placed.toml)")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "TOML configuration file")
	cmd.Flags().IntVar(&opts.binsX, "bins-x", 0, "bin grid columns (0 = auto)")
	cmd.Flags().IntVar(&opts.binsY, "bins-y", 0, "bin grid rows (0 = auto)")
	cmd.Flags().Float64Var(&opts.targetDensity, "target-density", 0, "per-bin target density in (0, 1]")
	cmd.Flags().IntVar(&opts.maxIter, "max-iter", 0, "optimizer iteration cap")
	cmd.Flags().StringVar(&opts.congestionPath, "congestion", "", "router congestion dump (enables routability-driven mode)")
	cmd.Flags().StringVar(&opts.criticalPath, "criticality", "", "timing criticality dump (enables timing-driven mode)")
	cmd.Flags().BoolVar(&opts.serial, "serial", false, "disable the parallel gradient kernel")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable collaborator caching")

	return cmd
}

func runPlace(ctx context.Context, input string, opts *placeOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	applyPlaceFlags(&cfg, opts)
	cfg.Logger = logger

	nl, err := loadDesign(input)
	if err != nil {
		return err
	}

	var router route.Router
	if opts.congestionPath != "" {
		backend, err := newCache(opts.noCache)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		defer backend.Close()
		router = newCachedRouter(&fileRouter{path: opts.congestionPath}, backend, nil)
		cfg.Routability.Enabled = true
	}

	var engine timing.Engine
	if opts.criticalPath != "" {
		engine = &fileEngine{path: opts.criticalPath}
		cfg.Timing.Enabled = true
		if len(cfg.Timing.OverflowThresholds) == 0 {
			cfg.Timing.OverflowThresholds = []float64{0.79, 0.29, 0.21, 0.15}
		}
	}

	p, err := place.New(cfg, nl, router, engine)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	result, err := p.Run(ctx)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Placed %d objects", nl.NumMovable()))

	output := opts.output
	if output == "" {
		output = defaultOutput(input)
	}
	if err := writeDesign(output, nl); err != nil {
		return err
	}

	printSuccess("Global placement %s", result.Status)
	printStats(nl.NumMovable(), len(nl.Nets), false)
	printKeyValue("hpwl", fmt.Sprintf("%.1f", result.HPWL))
	printKeyValue("overflow", fmt.Sprintf("%.4f", result.Overflow))
	printKeyValue("iterations", fmt.Sprintf("%d", result.Iterations))
	printFile(output)
	return nil
}

// applyPlaceFlags overlays explicit flags onto a loaded config.
func applyPlaceFlags(cfg *place.Config, opts *placeOpts) {
	if opts.binsX > 0 {
		cfg.BinsX = opts.binsX
	}
	if opts.binsY > 0 {
		cfg.BinsY = opts.binsY
	}
	if opts.targetDensity > 0 {
		cfg.TargetDensity = opts.targetDensity
	}
	if opts.maxIter > 0 {
		cfg.Nesterov.MaxIter = opts.maxIter
	}
	if opts.serial {
		cfg.ForceSerial = true
	}
}

// defaultOutput derives the output path from the input path.
func defaultOutput(input string) string {
	const suffix = ".toml"
	if len(input) > len(suffix) && input[len(input)-len(suffix):] == suffix {
		return input[:len(input)-len(suffix)] + ".placed.toml"
	}
	return input + ".placed.toml"
}
