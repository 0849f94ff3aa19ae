package main

import (
	"context"

	"github.com/davidhaslett/arcsum/pkg/arcsum/reconcile"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update <archive-path>",
	Short: "Fold archive changes into an existing manifest",
	Long: `Update reconciles the manifest with the live archive: new files are
added, changed files get their digest overwritten, and entries for
vanished files are removed. Unchanged entries are left untouched. The
mutated manifest is written back atomically.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(_ *cobra.Command, args []string) error {
	return runOperation(args[0], func(ctx context.Context, e *reconcile.Engine) (*reconcile.Report, error) {
		return e.Update(ctx)
	})
}
