package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"icsfix/internal/config"
	"icsfix/internal/ics"
	appLog "icsfix/internal/log"
)

// Outcome is what happened to one file.
type Outcome string

const (
	Modified  Outcome = "modified"
	Unchanged Outcome = "unchanged"
	Skipped   Outcome = "skipped"
	Failed    Outcome = "failed"
)

// Result describes the processing of a single file.
type Result struct {
	Path     string
	Outcome  Outcome
	Reason   string        // why a file was skipped
	Report   ics.Report    // fixup changes
	Findings []ics.Finding // lint findings, if linting ran
	Written  []string      // files created or replaced
}

// Summary counts outcomes over a run.
type Summary struct {
	Scanned   int
	Modified  int
	Unchanged int
	Skipped   int
	Failed    int
	Findings  int // lint findings over all files
}

func (s *Summary) add(res Result) {
	s.Scanned++
	s.Findings += len(res.Findings)
	switch res.Outcome {
	case Modified:
		s.Modified++
	case Unchanged:
		s.Unchanged++
	case Skipped:
		s.Skipped++
	case Failed:
		s.Failed++
	}
}

// Runner drives parser, fixer, writer and splitter over files on disk.
type Runner struct {
	parser ics.Parser
	fixer  ics.Fixer

	sideSuffix   string
	replace      bool
	lint         bool
	skipDotfiles bool
	splitDir     string
}

// NewRunner creates a Runner from cfg. A nil cfg means defaults.
func NewRunner(cfg *config.Config) *Runner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.Normalize()
	return &Runner{
		parser: ics.Parser{
			Lenient: cfg.Lenient,
			Debug:   slices.Clone(cfg.DebugPatterns),
		},
		sideSuffix:   cfg.SideSuffix,
		replace:      cfg.Replace,
		lint:         cfg.Lint,
		skipDotfiles: cfg.SkipDotfiles,
		splitDir:     cfg.SplitDir,
	}
}

// Collect expands paths into a sorted, de-duplicated list of files.
// Directories are walked recursively. Side files, and dotfiles when
// configured, are left out of directory walks; files named explicitly
// are always kept.
func (r *Runner) Collect(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("collect %s: %w", root, err)
		}
		if !info.IsDir() {
			add(filepath.Clean(root))
			continue
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if d.IsDir() {
				if p != root && r.skipDotfiles && strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if r.skipDotfiles && strings.HasPrefix(name, ".") {
				return nil
			}
			if strings.HasSuffix(name, r.sideSuffix) {
				return nil
			}
			add(p)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("collect %s: %w", root, err)
		}
	}

	slices.Sort(out)
	return out, nil
}

// FixAll fixes every file under paths with one shared Registry, in sorted
// order. A failing file is logged and does not stop the run.
func (r *Runner) FixAll(ctx context.Context, paths []string) (Summary, []error) {
	return r.each(ctx, paths, "fix", func(path string, reg *ics.Registry) (Result, error) {
		return r.FixFile(path, reg)
	})
}

// SplitAll splits every multi-entry calendar under paths.
func (r *Runner) SplitAll(ctx context.Context, paths []string) (Summary, []error) {
	return r.each(ctx, paths, "split", func(path string, _ *ics.Registry) (Result, error) {
		return r.SplitFile(path)
	})
}

// LintAll runs the linter over every file under paths as they are on
// disk.
func (r *Runner) LintAll(ctx context.Context, paths []string) (Summary, []error) {
	return r.each(ctx, paths, "lint", func(path string, _ *ics.Registry) (Result, error) {
		return r.LintFile(path)
	})
}

func (r *Runner) each(ctx context.Context, paths []string, op string, fn func(string, *ics.Registry) (Result, error)) (Summary, []error) {
	var sum Summary
	errs := make([]error, 0)

	files, err := r.Collect(paths)
	if err != nil {
		return sum, append(errs, err)
	}

	reg := ics.NewRegistry()
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := fn(path, reg)
		sum.add(res)
		if err != nil {
			appLog.Error(op+" failed", err, "file", path)
			errs = append(errs, err)
		}
	}

	appLog.Info(op+" completed",
		"scanned", sum.Scanned,
		"modified", sum.Modified,
		"unchanged", sum.Unchanged,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
		"findings", sum.Findings,
		"identifiers", reg.Len(),
	)
	return sum, errs
}

// FixFile parses, fixes and rewrites one file. The candidate output goes
// to path+SideSuffix; when it differs from the original it is renamed
// over path (or left in place when replace is off). reg carries
// identifiers across files of the same run.
func (r *Runner) FixFile(path string, reg *ics.Registry) (Result, error) {
	res := Result{Path: path}
	appLog.Debug("reading", "file", path)

	body, err := os.ReadFile(path)
	if err != nil {
		res.Outcome = Failed
		return res, fmt.Errorf("read %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		res.Outcome = Failed
		return res, fmt.Errorf("stat %s: %w", path, err)
	}

	doc, err := r.parser.Parse(path, body)
	if err != nil {
		return r.skip(res, "not an ics file"), nil
	}

	res.Report, err = r.fixer.Fixup(doc, reg)
	if err != nil {
		appLog.Error("skipping: fatal flaw", err, "file", path)
		return r.skip(res, "fatal flaw: "+err.Error()), nil
	}

	out, err := ics.Writer{LineEnding: ics.DetectLineEnding(body)}.Write(doc)
	if err != nil {
		res.Outcome = Failed
		return res, fmt.Errorf("write %s: %w", path, err)
	}

	if r.lint {
		res.Findings = ics.Lint(path, out)
		logFindings(path, res.Findings)
	}

	if bytes.Equal(out, body) {
		res.Outcome = Unchanged
		appLog.Debug("unchanged", "file", path)
		return res, nil
	}

	side := path + r.sideSuffix
	if err := writeAtomic(side, out, info.Mode().Perm()); err != nil {
		res.Outcome = Failed
		return res, fmt.Errorf("write %s: %w", side, err)
	}
	res.Outcome = Modified

	if !r.replace {
		res.Written = []string{side}
		appLog.Info("candidate written", "file", path, "candidate", side, "changes", len(res.Report.Changes))
		return res, nil
	}

	if err := os.Rename(side, path); err != nil {
		os.Remove(side)
		res.Outcome = Failed
		return res, fmt.Errorf("replace %s: %w", path, err)
	}
	res.Written = []string{path}
	appLog.Info("modified", "file", path, "changes", len(res.Report.Changes))
	return res, nil
}

// SplitFile writes one file per VEVENT/VTODO of a multi-entry calendar,
// named after the entry's UID. The source file is left untouched unless
// a part happens to share its name.
func (r *Runner) SplitFile(path string) (Result, error) {
	res := Result{Path: path}

	body, err := os.ReadFile(path)
	if err != nil {
		res.Outcome = Failed
		return res, fmt.Errorf("read %s: %w", path, err)
	}

	doc, err := r.parser.Parse(path, body)
	if err != nil {
		return r.skip(res, "not an ics file"), nil
	}

	parts, err := ics.Split(doc, nil)
	switch {
	case errors.Is(err, ics.ErrNothingToSplit):
		return r.skip(res, "single entry"), nil
	case err != nil:
		return r.skip(res, err.Error()), nil
	}

	dir := r.splitDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		res.Outcome = Failed
		return res, fmt.Errorf("split %s: %w", path, err)
	}

	w := ics.Writer{LineEnding: ics.DetectLineEnding(body)}
	var errs []error
	for _, part := range parts {
		target, err := partPath(dir, part.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out, err := w.Write(part.Doc)
		if err != nil {
			errs = append(errs, fmt.Errorf("split %s: part %s: %w", path, part.ID, err))
			continue
		}
		if filepath.Clean(target) == filepath.Clean(path) {
			appLog.Info("overwriting source with part", "file", path)
		}
		if err := writeAtomic(target, out, 0o644); err != nil {
			errs = append(errs, fmt.Errorf("split %s: %w", target, err))
			continue
		}
		res.Written = append(res.Written, target)
		appLog.Debug("part written", "file", path, "part", target)
	}

	switch {
	case len(errs) == 0:
		res.Outcome = Modified
	case len(res.Written) == 0:
		res.Outcome = Failed
	default:
		res.Outcome = Modified
	}
	appLog.Info("split", "file", path, "parts", len(parts), "written", len(res.Written))
	return res, errors.Join(errs...)
}

// LintFile runs the linter over a file as it is on disk.
func (r *Runner) LintFile(path string) (Result, error) {
	res := Result{Path: path}
	body, err := os.ReadFile(path)
	if err != nil {
		res.Outcome = Failed
		return res, fmt.Errorf("read %s: %w", path, err)
	}
	res.Findings = ics.Lint(path, body)
	res.Outcome = Unchanged
	logFindings(path, res.Findings)
	return res, nil
}

func logFindings(path string, findings []ics.Finding) {
	for _, f := range findings {
		appLog.Warn("lint", "file", path, "component", f.Component, "uid", f.UID, "message", f.Message)
	}
}

func (r *Runner) skip(res Result, reason string) Result {
	res.Outcome = Skipped
	res.Reason = reason
	appLog.Info("skipping", "file", res.Path, "reason", reason)
	return res
}

// partPath returns the file for a split part. Identifiers that would
// escape dir are rejected.
func partPath(dir, id string) (string, error) {
	if id == "" || id == "." || id == ".." || filepath.Base(id) != id || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("part identifier %q is not a usable file name", id)
	}
	name := id
	if !strings.HasSuffix(name, ".ics") {
		name += ".ics"
	}
	return filepath.Join(dir, name), nil
}

// writeAtomic writes data to a temp file next to path and renames it into
// place, so readers never see a partial file.
func writeAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".icsfix-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
