package main

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/hupe1980/datacube"
	"github.com/hupe1980/datacube/blobstore"
	"github.com/hupe1980/datacube/internal/compress"
	"github.com/hupe1980/datacube/internal/manifest"
	"github.com/spf13/cobra"
)

func newInspectCommand(a *app) *cobra.Command {
	var showValues bool

	cmd := &cobra.Command{
		Use:   "inspect NAME",
		Short: "Show schema, row count and totals of a cube",
		Args:  cobra.ExactArgs(1),
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
			c, err := datacube.Load(ctx, store, args[0], opts...)
			if err != nil {
				return err
			}
			defer c.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "name:\t%s\n", args[0])
			fmt.Fprintf(w, "rows:\t%d\n", c.Count())
			fmt.Fprintf(w, "memory:\t%d bytes\n", c.MemoryUsage())
			fmt.Fprintln(w, "dimensions:")
			for _, dim := range c.Dimensions() {
				vals, err := c.DimensionValues(dim)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "  %s\t%d distinct\n", dim, len(vals))
				if showValues {
					for _, v := range vals {
						fmt.Fprintf(w, "    %s\n", v)
					}
				}
			}
			fmt.Fprintln(w, "artifacts:")
			artifacts, err := listArtifacts(ctx, store, args[0])
			if err != nil {
				return err
			}
			for _, name := range artifacts {
				fmt.Fprintf(w, "  %s\t%s\n", name, compress.FromName(name))
			}
			fmt.Fprintln(w, "totals:")
			totals := c.Totals()
			metrics := c.Metrics()
			slices.Sort(metrics)
			for _, m := range metrics {
				fmt.Fprintf(w, "  %s\t%g\n", m, totals[m])
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&showValues, "values", false, "List the distinct values of every dimension")
	return cmd
}

// listArtifacts returns the stored artifacts of the cube name, sorted.
func listArtifacts(ctx context.Context, store blobstore.BlobStore, name string) ([]string, error) {
	manifestName, dimensName, metricsName := manifest.Names(name)
	names, err := store.List(ctx, name+".")
	if err != nil {
		return nil, err
	}

	var out []string
	for _, n := range names {
		switch strings.TrimSuffix(n, compress.FromName(n).Suffix()) {
		case manifestName, dimensName, metricsName:
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return out, nil
}
