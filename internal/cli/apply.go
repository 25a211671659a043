package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/overlay409/internal/config"
	"github.com/roach88/overlay409/internal/fsops"
	"github.com/roach88/overlay409/internal/patcher"
)

// PatchOptions holds flags shared by apply and check.
type PatchOptions struct {
	*RootOptions
	DryRun  bool
	Diff    bool
	Exclude []string

	// check mode: never write, fail when anything would change
	check bool
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply [overlays-dir]",
		Short: "Add missing 409 responses to overlay files in place",
		Long: `Patch every *.yaml overlay in the directory (default from config, "overlays").

Files are processed in sorted order. A file that cannot be read, parsed or
written is reported and skipped; the run continues with the next file.
Only a missing overlays directory fails the command.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatch(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report changes without writing files")
	cmd.Flags().BoolVar(&opts.Diff, "diff", false, "print a unified diff for each modified file")
	cmd.Flags().StringSliceVar(&opts.Exclude, "exclude", nil, "additional file names to skip (repeatable)")

	return cmd
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PatchOptions{RootOptions: rootOpts, DryRun: true, check: true}

	cmd := &cobra.Command{
		Use:   "check [overlays-dir]",
		Short: "Report overlays that are missing 409 responses",
		Long: `Run the same rule as apply without writing anything.

Exits with status 1 when at least one overlay would be modified.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatch(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Diff, "diff", false, "print a unified diff for each file that would change")
	cmd.Flags().StringSliceVar(&opts.Exclude, "exclude", nil, "additional file names to skip (repeatable)")

	return cmd
}

func runPatch(opts *PatchOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := config.Load(opts.Config)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	cfg.Exclude = append(cfg.Exclude, opts.Exclude...)

	dir := cfg.Dir
	if len(args) == 1 {
		dir = args[0]
	}

	text := formatter.Format == "text"
	p := patcher.New(fsops.NewRealFS(), patcher.Options{
		Rule:    cfg.Rule(),
		Exclude: cfg.ExcludeSet(),
		DryRun:  opts.DryRun,
		Diff:    opts.Diff,
		Logger:  newLogger(opts.Verbose, formatter.GetErrWriter()),
		OnFile: func(res patcher.FileResult) {
			if text {
				printFileResult(formatter, res, opts.DryRun)
			}
		},
	})

	files, err := p.Discover(dir)
	if err != nil {
		code := ErrCodeGeneric
		if errors.Is(err, patcher.ErrDirNotFound) {
			code = ErrCodeNotFound
		}
		_ = formatter.Error(code, fmt.Sprintf("%v", err), nil)
		return WrapExitError(ExitCommandError, "cannot read overlays", err)
	}

	if text {
		fmt.Fprintf(formatter.Writer, "Found %d overlay file(s) to process\n", len(files))
	}
	formatter.VerboseLog("Using conflict marker %q, excluding %v", cfg.Conflict.Marker, cfg.Exclude)

	report, err := p.RunFiles(cmd.Context(), dir, files)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("run interrupted: %v", err), nil)
		return WrapExitError(ExitFailure, "run interrupted", err)
	}

	if text {
		printSummary(formatter, report)
	} else if err := formatter.Success(report); err != nil {
		return err
	}

	if opts.check && report.Modified > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d overlay file(s) need a conflict response", ErrCodePending, report.Modified))
	}
	return nil
}

// newLogger returns a debug-level text logger when verbose, otherwise a
// logger that discards everything.
func newLogger(verbose bool, w io.Writer) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
