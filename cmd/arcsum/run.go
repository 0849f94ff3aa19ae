package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/davidhaslett/arcsum/pkg/arcsum/config"
	"github.com/davidhaslett/arcsum/pkg/arcsum/output"
	"github.com/davidhaslett/arcsum/pkg/arcsum/progress"
	"github.com/davidhaslett/arcsum/pkg/arcsum/reconcile"
	"github.com/davidhaslett/arcsum/pkg/arcsum/types"
	"github.com/spf13/viper"
)

// resolveArchive validates the archive path argument and returns it as
// an absolute path. A bad archive path is a structural error that aborts
// the run before any hashing starts.
func resolveArchive(arg string) (string, error) {
	expandedPath, err := config.ExpandPath(arg)
	if err != nil {
		return "", fmt.Errorf("failed to expand path: %w", err)
	}

	absPath, err := filepath.Abs(expandedPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("archive path does not exist: %s", absPath)
		}
		return "", fmt.Errorf("cannot access archive path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("archive path is not a directory: %s", absPath)
	}

	return absPath, nil
}

// buildOptions assembles engine options from flags and config. The
// archive label is resolved here, once per invocation, and flows into
// every canonicalization unchanged.
func buildOptions(root string) (reconcile.Options, error) {
	bufferSizeStr := viper.GetString("buffer_size")
	bufferSize, err := types.ParseSize(bufferSizeStr)
	if err != nil {
		return reconcile.Options{}, fmt.Errorf("invalid buffer size %q: %w", bufferSizeStr, err)
	}

	return reconcile.Options{
		Root:         root,
		Label:        viper.GetString("archive_name"),
		ManifestPath: viper.GetString("manifest_name"),
		BufferSize:   int(bufferSize),
		Workers:      viper.GetInt("workers"),
	}, nil
}

// runOperation wires one reconciliation operation: archive resolution,
// progress rendering, the run itself, and the report. The returned error
// is non-nil for structural failures and for a failed verification, in
// both cases producing a non-zero process exit.
func runOperation(arg string, op func(context.Context, *reconcile.Engine) (*reconcile.Report, error)) error {
	root, err := resolveArchive(arg)
	if err != nil {
		return err
	}

	opts, err := buildOptions(root)
	if err != nil {
		return err
	}

	var renderer *progress.Renderer
	if viper.GetBool("progress") {
		renderer = progress.NewRenderer(os.Stderr)
		opts.OnProgress = renderer.Update
	}

	engine, err := reconcile.New(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, runErr := op(ctx, engine)
	if renderer != nil {
		renderer.Finish()
	}

	// A failed verification still carries a complete report; print it
	// before surfacing the failure.
	if report != nil && (runErr == nil || errors.Is(runErr, reconcile.ErrVerificationFailed)) {
		if err := printReport(report); err != nil {
			return err
		}
	}

	return runErr
}

// printReport renders the report to stdout in the configured format.
func printReport(report *reconcile.Report) error {
	if getQuiet() && !reportFailed(report) {
		return nil
	}

	format := viper.GetString("output_format")
	if format == "" {
		format = config.DefaultOutputFormat
	}

	formatter, err := output.Get(format)
	if err != nil {
		return fmt.Errorf("%w: available formats are %v", err, output.Available())
	}

	return formatter.Format(os.Stdout, report)
}

// reportFailed reports whether the run outcome is a failure; quiet mode
// never suppresses failure reports.
func reportFailed(report *reconcile.Report) bool {
	return report.Verify != nil && report.Verify.Failed()
}
