package main

import (
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/datacube"
	"github.com/spf13/cobra"
)

func newImportCommand(a *app) *cobra.Command {
	var (
		dimensions    []string
		metrics       []string
		missingAsZero bool
		appendRows    bool
	)

	cmd := &cobra.Command{
		Use:   "import NAME [FILE]",
		Short: "Build a cube from newline-delimited JSON rows",
		Long: `Read newline-delimited JSON objects from FILE (or stdin) and save the
aggregated cube under NAME in the configured store.

Example:
  datacube import --dimensions country,device --metrics visits visits events.ndjson`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.printStats()
			ctx := cmd.Context()

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			opts, err := a.cubeOptions()
			if err != nil {
				return err
			}
			if missingAsZero {
				opts = append(opts, datacube.WithMissingMetricsAsZero())
			}
			saveOpts, err := a.saveOptions()
			if err != nil {
				return err
			}

			var c *datacube.Cube
			if appendRows {
				c, err = datacube.Load(ctx, store, args[0], opts...)
			} else {
				c, err = datacube.New(dimensions, metrics, opts...)
			}
			if err != nil {
				return err
			}
			defer c.Close()

			var in io.Reader = cmd.InOrStdin()
			if len(args) == 2 && args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			n, err := c.Ingest(ctx, datacube.DecodeRows(in))
			if err != nil {
				return err
			}
			if err := c.Save(ctx, store, args[0], saveOpts...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows into %s (%d distinct)\n", n, args[0], c.Count())
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&dimensions, "dimensions", "d", nil, "Dimension field names")
	cmd.Flags().StringSliceVarP(&metrics, "metrics", "m", nil, "Metric field names")
	cmd.Flags().BoolVar(&missingAsZero, "missing-as-zero", false, "Treat missing metric fields as zero")
	cmd.Flags().BoolVar(&appendRows, "append", false, "Add rows to the existing cube NAME instead of creating a new one")
	cmd.MarkFlagsRequiredTogether("dimensions", "metrics")
	cmd.MarkFlagsMutuallyExclusive("append", "dimensions")
	return cmd
}
