package commands

import (
	"fmt"
	"sort"

	"github.com/dbsee/dbsee/internal/cli/output"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/spf13/cobra"
)

// NewResolveCommand creates the resolve command.
func NewResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <cig>",
		Short: "Merge every row carrying an identifier into one record",
		Long: `Resolve an identifier across every table that carries the identifier
column. Each contributing value is keyed as table_column; group identifiers
are resolved through their member rows.`,
		Example: `  dbsee resolve Z1A0000001
  dbsee resolve 8234567890 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := cc.Engine.ResolveIdentifier(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderResolution(cc.Renderer, res)
		},
	}
}

func renderResolution(r *output.Renderer, res *core.Resolution) error {
	if done, err := r.Structured(res); done {
		return err
	}
	if !res.Found {
		r.Println(r.Warning(fmt.Sprintf("No data for %s (%d tables searched)", res.Identifier, res.TablesSearched)))
		return nil
	}
	r.Section(1, "CIG "+res.Identifier)
	writeRecord(r, res)
	r.Println(r.Muted(fmt.Sprintf("%d fields from %d of %d tables", res.TotalFields, len(res.SourceTables), res.TablesSearched)))
	return nil
}

func writeRecord(r *output.Renderer, res *core.Resolution) {
	keys := make([]string, 0, len(res.Record))
	for k := range res.Record {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, map[string]any{
			"field":  k,
			"value":  res.Record[k],
			"source": res.FieldSources[k],
		})
	}
	r.Table([]string{"field", "value", "source"}, rows)
}
