package main

import (
	"context"

	"github.com/davidhaslett/arcsum/pkg/arcsum/reconcile"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <archive-path>",
	Short: "Verify an archive against its manifest",
	Long: `Verify recomputes the digest of every tracked file and classifies each
file as valid, invalid, new, or missing. The command exits non-zero when
any file is invalid or missing; new untracked files are reported as a
warning only. The full report is always produced before failing.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(_ *cobra.Command, args []string) error {
	return runOperation(args[0], func(ctx context.Context, e *reconcile.Engine) (*reconcile.Report, error) {
		return e.Verify(ctx)
	})
}
