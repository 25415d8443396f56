package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/hupe1980/datacube"
	"github.com/hupe1980/datacube/value"
	"github.com/spf13/cobra"
)

func newQueryCommand(a *app) *cobra.Command {
	var (
		selectDims []string
		where      []string
		explode    string
		top        string
		limit      int
		format     string
		saveAs     string
	)

	cmd := &cobra.Command{
		Use:   "query NAME",
		Short: "Filter, group and pivot a cube",
		Long: `Load the cube NAME and apply, in order: --where, --top, --select and
--explode. The result is printed or, with --save-as, stored as a new cube.

Example:
  datacube query visits --where device=mobile,tablet --top country:10:other --select country`,
		Args: cobra.ExactArgs(1),
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
			p := newPipeline(c)
			defer p.Close()

			filters, err := parseFilters(where)
			if err != nil {
				return err
			}
			if err := p.apply(p.cube.Where(filters)); err != nil {
				return err
			}
			if top != "" {
				dim, n, placeholder, err := parseTop(top)
				if err != nil {
					return err
				}
				if err := p.apply(p.cube.AggregateTailValues(dim, nil, n, placeholder)); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("select") {
				if err := p.apply(p.cube.Select(selectDims...)); err != nil {
					return err
				}
			}
			if explode != "" {
				if err := p.apply(p.cube.ExplodeDimension(explode, nil)); err != nil {
					return err
				}
			}
			c = p.cube

			if saveAs != "" {
				saveOpts, err := a.saveOptions()
				if err != nil {
					return err
				}
				if err := c.Save(ctx, store, saveAs, saveOpts...); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %d rows as %s\n", c.Count(), saveAs)
				return nil
			}
			return printRows(cmd.OutOrStdout(), c, format, limit)
		},
	}

	cmd.Flags().StringSliceVar(&selectDims, "select", nil, "Group by these dimensions (empty for a grand total)")
	cmd.Flags().StringArrayVar(&where, "where", nil, "Filter as dim=value[,value...]; repeatable")
	cmd.Flags().StringVar(&explode, "explode", "", "Pivot this dimension into metric columns")
	cmd.Flags().StringVar(&top, "top", "", "Keep the n largest values of a dimension as dim:n[:placeholder]")
	cmd.Flags().IntVar(&limit, "limit", 0, "Print at most this many rows; 0 prints all")
	cmd.Flags().StringVar(&format, "format", "json", "Output format (json, table)")
	cmd.Flags().StringVar(&saveAs, "save-as", "", "Save the result as a new cube instead of printing it")
	return cmd
}

// pipeline chains cube transformations and closes every intermediate cube
// once the next step replaces it. The source cube is closed by Close.
type pipeline struct {
	source *datacube.Cube
	cube   *datacube.Cube
}

func newPipeline(source *datacube.Cube) *pipeline {
	return &pipeline{source: source, cube: source}
}

func (p *pipeline) apply(next *datacube.Cube, err error) error {
	if err != nil {
		return err
	}
	if p.cube != p.source && p.cube != next {
		_ = p.cube.Close()
	}
	p.cube = next
	return nil
}

// Close releases the current and the source cube.
func (p *pipeline) Close() error {
	var err error
	if p.cube != p.source {
		err = p.cube.Close()
	}
	return errors.Join(err, p.source.Close())
}

// parseValue reads a JSON scalar, falling back to a plain string.
func parseValue(s string) value.Value {
	data := []byte(s)
	if !json.Valid(data) {
		return value.String(s)
	}
	var v value.Value
	if err := v.UnmarshalJSON(data); err != nil {
		return value.String(s)
	}
	return v
}

func parseFilters(exprs []string) (datacube.Filters, error) {
	filters := make(datacube.Filters, len(exprs))
	for _, expr := range exprs {
		dim, vals, ok := strings.Cut(expr, "=")
		if !ok || dim == "" {
			return nil, fmt.Errorf("invalid filter %q: want dim=value[,value...]", expr)
		}
		parts := strings.Split(vals, ",")
		if len(parts) == 1 {
			filters[dim] = datacube.Equals(parseValue(parts[0]))
			continue
		}
		values := make([]value.Value, len(parts))
		for i, p := range parts {
			values[i] = parseValue(p)
		}
		filters[dim] = datacube.OneOf(values...)
	}
	return filters, nil
}

func parseTop(spec string) (string, int, value.Value, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) < 2 || parts[0] == "" {
		return "", 0, value.Value{}, fmt.Errorf("invalid --top %q: want dim:n[:placeholder]", spec)
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil || n < 0 {
		return "", 0, value.Value{}, fmt.Errorf("invalid --top count %q", parts[1])
	}
	placeholder := value.String("other")
	if len(parts) == 3 {
		placeholder = parseValue(parts[2])
	}
	return parts[0], n, placeholder, nil
}

func printRows(w io.Writer, c *datacube.Cube, format string, limit int) error {
	switch format {
	case "json":
		i := 0
		for row := range c.All() {
			if limit > 0 && i >= limit {
				break
			}
			data, err := row.MarshalJSON()
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(w, string(data)); err != nil {
				return err
			}
			i++
		}
		return nil
	case "table":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		header := append(c.Dimensions(), c.Metrics()...)
		fmt.Fprintln(tw, strings.Join(header, "\t"))
		i := 0
		for row := range c.All() {
			if limit > 0 && i >= limit {
				break
			}
			cells := make([]string, len(row))
			for k, f := range row {
				cells[k] = f.Value.String()
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
			i++
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
