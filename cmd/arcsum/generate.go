package main

import (
	"context"

	"github.com/davidhaslett/arcsum/pkg/arcsum/reconcile"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate <archive-path>",
	Short: "Generate a fresh manifest for an archive",
	Long: `Generate enumerates every regular file under the archive root, computes
SHA-256 digests in parallel, and writes a fresh manifest, replacing any
existing file at the manifest path. Files that cannot be read are logged
and excluded without aborting the run.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(_ *cobra.Command, args []string) error {
	return runOperation(args[0], func(ctx context.Context, e *reconcile.Engine) (*reconcile.Report, error) {
		return e.Generate(ctx)
	})
}
