package commands

import (
	"fmt"

	"github.com/dbsee/dbsee/internal/fixtures"
	"github.com/spf13/cobra"
)

// NewDemoCommand creates the demo command.
func NewDemoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo <path>",
		Short: "Create a SQLite demo database",
		Long: `Create a SQLite database with a small procurement dataset: a primary
awards table, identifier detail tables and a group identifier. Point the
target at it to try every command.`,
		Example: `  dbsee demo demo.db
  dbsee --db-type sqlite --database demo.db direct "Acme"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContextWithoutEngine(cmd)
			if err := fixtures.CreateDemo(cmd.Context(), args[0], cc.Logger); err != nil {
				return err
			}
			r := cc.Renderer
			r.Println(r.Success(fmt.Sprintf("Demo database written to %s", args[0])))
			r.Println(r.Muted(fmt.Sprintf("Try: dbsee --db-type sqlite --database %s tables", args[0])))
			return nil
		},
	}
}
