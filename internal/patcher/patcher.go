// Package patcher runs the conflict rule over a directory of overlays.
//
// Files are processed one at a time in sorted order. Each file goes through
// its own read -> parse -> patch -> write cycle; a failure in one file is
// recorded on its result and never stops the run. The only fatal error is
// a missing overlays directory.
package patcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/roach88/overlay409/internal/fsops"
	"github.com/roach88/overlay409/internal/overlay"
)

// ErrDirNotFound is returned by Run when the overlays directory is missing
// or is not a directory.
var ErrDirNotFound = errors.New("overlays directory not found")

// Options configures a Patcher.
type Options struct {
	Rule    overlay.ConflictRule
	Exclude map[string]bool

	// DryRun computes results without writing any file.
	DryRun bool

	// Diff attaches a unified diff to every modified result.
	Diff bool

	// Logger receives debug logs; nil discards them.
	Logger *slog.Logger

	// IDs generates the run ID; nil uses UUIDv7.
	IDs IDGenerator

	// OnFile, if set, is called after each file is processed.
	OnFile func(FileResult)
}

// Patcher applies a conflict rule to overlay files.
type Patcher struct {
	fs      fsops.FS
	rule    overlay.ConflictRule
	exclude map[string]bool
	dryRun  bool
	diff    bool
	logger  *slog.Logger
	ids     IDGenerator
	onFile  func(FileResult)
}

// New creates a Patcher over fs.
func New(fs fsops.FS, opts Options) *Patcher {
	p := &Patcher{
		fs:      fs,
		rule:    opts.Rule,
		exclude: opts.Exclude,
		dryRun:  opts.DryRun,
		diff:    opts.Diff,
		logger:  opts.Logger,
		ids:     opts.IDs,
		onFile:  opts.OnFile,
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if p.ids == nil {
		p.ids = UUIDv7Generator{}
	}
	return p
}

// Discover returns the overlay files Run would process.
func (p *Patcher) Discover(dir string) ([]string, error) {
	info, err := p.fs.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDirNotFound, dir)
	}
	return p.fs.ListOverlays(dir, p.exclude)
}

// Run patches every overlay in dir.
func (p *Patcher) Run(ctx context.Context, dir string) (*Report, error) {
	files, err := p.Discover(dir)
	if err != nil {
		return nil, err
	}
	return p.RunFiles(ctx, dir, files)
}

// RunFiles patches files in the given order. The context is checked between
// files; on cancellation the partial report is returned with ctx.Err().
func (p *Patcher) RunFiles(ctx context.Context, dir string, files []string) (*Report, error) {
	report := &Report{
		RunID:  p.ids.Generate(),
		Dir:    dir,
		DryRun: p.dryRun,
		Files:  make([]FileResult, 0, len(files)),
	}
	p.logger.Info("run starting", "run_id", report.RunID, "dir", dir, "files", len(files), "dry_run", p.dryRun)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			p.logger.Info("run stopping: context cancelled", "run_id", report.RunID)
			return report, err
		}

		res := p.PatchFile(path)
		report.add(res)
		if p.onFile != nil {
			p.onFile(res)
		}
	}

	p.logger.Info("run finished",
		"run_id", report.RunID,
		"modified", report.Modified,
		"unchanged", report.Unchanged,
		"failed", report.Failed,
	)
	return report, nil
}

// PatchFile applies the rule to one file and writes it back if changed.
// Errors are reported on the result, never returned.
func (p *Patcher) PatchFile(path string) FileResult {
	res := FileResult{Path: path, Name: filepath.Base(path)}

	fail := func(err error) FileResult {
		res.Status = StatusFailed
		res.Err = err
		res.Error = err.Error()
		p.logger.Warn("overlay failed", "file", res.Name, "error", err)
		return res
	}

	info, err := p.fs.Stat(path)
	if err != nil {
		return fail(fmt.Errorf("stat: %w", err))
	}
	data, err := p.fs.ReadFile(path)
	if err != nil {
		return fail(fmt.Errorf("read: %w", err))
	}

	doc, err := overlay.Parse(data)
	if err != nil {
		return fail(err)
	}
	if !doc.HasActions {
		res.Status = StatusNoActions
		p.logger.Debug("no actions", "file", res.Name)
		return res
	}

	added, err := p.rule.ApplyDocument(doc)
	if err != nil {
		return fail(err)
	}
	if len(added) == 0 {
		res.Status = StatusUnchanged
		p.logger.Debug("no changes needed", "file", res.Name)
		return res
	}
	for _, ins := range added {
		p.logger.Debug("added conflict response",
			"file", res.Name,
			"action", ins.Action,
			"path", ins.Path,
			"entity_operation", ins.EntityOperation,
		)
	}

	out, err := doc.Encode()
	if err != nil {
		return fail(err)
	}
	if p.diff {
		diff, err := unifiedDiff(res.Name, data, out)
		if err != nil {
			return fail(fmt.Errorf("diff: %w", err))
		}
		res.Diff = diff
	}
	if !p.dryRun {
		if err := p.fs.AtomicWrite(path, out, info.Mode().Perm()); err != nil {
			return fail(fmt.Errorf("write: %w", err))
		}
	}

	res.Status = StatusModified
	res.Insertions = added
	return res
}
