package commands

import (
	"fmt"
	"strings"

	"github.com/dbsee/dbsee/internal/cli/output"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/spf13/cobra"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the target database",
		Example: `  dbsee tables
  dbsee tables --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			tables, err := cc.Engine.ListTables(cmd.Context())
			if err != nil {
				return err
			}
			return renderNames(cc.Renderer, "Tables", tables)
		},
	}
}

// NewIdentifierTablesCommand creates the cig-tables command.
func NewIdentifierTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cig-tables",
		Short: "List the tables carrying the identifier column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			tables, err := cc.Engine.FindIdentifierTables(cmd.Context())
			if err != nil {
				return err
			}
			title := fmt.Sprintf("Tables with %s", cc.Engine.SearchConfig().IdentifierColumn)
			return renderNames(cc.Renderer, title, tables)
		},
	}
}

func renderNames(r *output.Renderer, title string, names []string) error {
	if done, err := r.Structured(names); done {
		return err
	}
	r.Section(1, title)
	for _, n := range names {
		if r.EffectiveMode() == output.ModeMarkdown {
			r.Println("- " + n)
		} else {
			r.Println("  " + n)
		}
	}
	r.Println(r.Muted(fmt.Sprintf("(%d tables)", len(names))))
	return nil
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table>",
		Short: "Show the columns, keys and indexes of a table",
		Example: `  dbsee describe aggiudicatari_data
  dbsee describe orders --output yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			schema, err := cc.Engine.DescribeTable(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderSchema(cc.Renderer, schema)
		},
	}
}

func renderSchema(r *output.Renderer, schema *core.TableSchema) error {
	if done, err := r.Structured(schema); done {
		return err
	}

	r.Section(1, "Table: "+schema.Name)

	pk := make(map[string]bool, len(schema.PrimaryKey))
	for _, c := range schema.PrimaryKey {
		pk[c] = true
	}
	rows := make([]map[string]any, 0, len(schema.Columns))
	for _, c := range schema.Columns {
		row := map[string]any{
			"column":   c.Name,
			"type":     c.DeclaredType,
			"semantic": string(c.Type),
			"nullable": c.Nullable,
			"default":  "",
			"key":      "",
		}
		if c.Default != nil {
			row["default"] = *c.Default
		}
		if pk[c.Name] {
			row["key"] = "PK"
		}
		rows = append(rows, row)
	}
	r.Table([]string{"column", "type", "semantic", "nullable", "default", "key"}, rows)

	if len(schema.ForeignKeys) > 0 {
		r.Println("")
		r.Section(2, "Foreign keys")
		for _, fk := range schema.ForeignKeys {
			r.Printf("- (%s) -> %s(%s)\n",
				strings.Join(fk.Columns, ", "), fk.ReferencedTable, strings.Join(fk.ReferencedColumns, ", "))
		}
	}
	if len(schema.Indexes) > 0 {
		r.Println("")
		r.Section(2, "Indexes")
		for _, idx := range schema.Indexes {
			unique := ""
			if idx.Unique {
				unique = " unique"
			}
			r.Printf("- %s (%s)%s\n", idx.Name, strings.Join(idx.Columns, ", "), unique)
		}
	}
	return nil
}
