package commands

import (
	"context"
	"fmt"
	"os"

	"orderlyflow/internal/importer"
	"orderlyflow/internal/optimistic"

	"github.com/spf13/cobra"
)

func newImportCommand(opts *options) *cobra.Command {
	return boardCommand(opts, &cobra.Command{
		Use:   "import FILE.xlsx",
		Short: "Merge a Monday-style spreadsheet export into the board",
		Args:  cobra.ExactArgs(1),
	}, func(ctx context.Context, s *session, e *optimistic.Engine, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		imp, err := importer.Parse(f)
		if err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}
		items := 0
		for _, g := range imp.Groups {
			items += len(g.Items)
		}
		s.log.Infow("Parsed spreadsheet", "file", args[0], "columns", len(imp.Columns), "groups", len(imp.Groups), "items", items)

		if err := e.Import(ctx, imp); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Imported %d groups and %d items\n", len(imp.Groups), items)
		return nil
	})
}
