package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tofscope/tofscope/internal/geometry"
)

func newGeometryCommand(g *globalOptions) *cobra.Command {
	var (
		format     string
		paramsFile string
	)

	cmd := &cobra.Command{
		Use:   "geometry",
		Short: "Print the detector built from the configuration",
		Long: `Build the world, envelope and tracker layers and print every placement
with its material, size and world-frame center.

Examples:
  tofscope geometry
  tofscope geometry --format json
  tofscope geometry --params detector.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := g.cfg.Detector
			if paramsFile != "" {
				f, err := os.Open(paramsFile)
				if err != nil {
					return err
				}
				defer f.Close()
				if params, err = geometry.ReadParams(f); err != nil {
					return err
				}
			}

			det, err := geometry.NewBuilder(params, g.log).Build()
			if err != nil {
				return err
			}
			return geometry.WriteSummary(cmd.OutOrStdout(), det, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", geometry.FormatYAML, "Output format (yaml or json)")
	cmd.Flags().StringVar(&paramsFile, "params", "", "YAML file with detector parameters overriding the configuration")

	return cmd
}
