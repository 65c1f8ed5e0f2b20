package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/vaultport/internal/apperr"
	"github.com/starford/vaultport/internal/database"
	"github.com/starford/vaultport/internal/identity"
	"github.com/starford/vaultport/internal/linter"
	"github.com/starford/vaultport/internal/storage"
)

// LintMode selects what LintFile does with a file.
type LintMode int

const (
	// LintFix rewrites the file in place.
	LintFix LintMode = iota
	// LintCheck fails when the file would change.
	LintCheck
	// LintValidate prints issues and fails when there are any.
	LintValidate
)

// ErrLintFailed reports a check or validate run that found problems.
var ErrLintFailed = errors.New("file does not follow the house style")

// LintFile applies the configured linter to one Markdown file.
func LintFile(_ context.Context, file string, mode LintMode, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.newLogger(false, os.Stderr)

	dir, name := filepath.Split(filepath.Clean(file))
	if dir == "" {
		dir = "."
	}
	fs, err := storage.NewFS(dir)
	if err != nil {
		return err
	}
	data, err := fs.Read(name)
	if err != nil {
		return err
	}
	content := string(data)
	l := linter.New(app.config.Lint, logger)

	switch mode {
	case LintValidate:
		issues := linter.Validate(content)
		for _, issue := range issues {
			fmt.Fprintf(app.stdout, "%s:%s\n", file, issue)
		}
		if len(issues) > 0 {
			return fmt.Errorf("%w: %d issues", ErrLintFailed, len(issues))
		}
		return nil
	case LintCheck:
		if l.Changed(content) {
			fmt.Fprintf(app.stdout, "would reformat %s\n", file)
			return ErrLintFailed
		}
		return nil
	}

	out := l.Lint(content)
	if out == content {
		logger.Debug("lint: unchanged", slog.String("file", file))
		return nil
	}
	if err := fs.Write(name, []byte(out)); err != nil {
		return err
	}
	logger.Info("lint: rewrote", slog.String("file", file))
	return nil
}

// ConvertTable projects one CSV file (or the first CSV in a directory)
// into outDir/{Name}_Database. With inline set it prints a single Markdown
// table instead and writes nothing.
func ConvertTable(ctx context.Context, input, outDir string, inline bool, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.newLogger(false, os.Stderr)

	info, err := os.Stat(input)
	if err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrMissingInput, input)
	}
	root, rel := input, "."
	name := identity.ResolveName(filepath.Base(filepath.Clean(input)))
	if !info.IsDir() {
		root, rel = filepath.Dir(input), filepath.Base(input)
		name = identity.Stem(rel)
	}
	src, err := storage.NewFS(root)
	if err != nil {
		return err
	}

	if inline {
		t, err := database.NewConverter(src, nil, logger).Load(rel)
		if err != nil {
			return err
		}
		fmt.Fprint(app.stdout, database.InlineTable(t))
		return nil
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w: %w", apperr.ErrFilesystemWrite, err)
	}
	dst, err := storage.NewFS(outDir)
	if err != nil {
		return err
	}
	res, err := database.NewConverter(src, dst, logger).Convert(ctx, rel, database.FolderName(name), name)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "converted %d rows into %s\n", res.Rows, filepath.Join(outDir, filepath.FromSlash(res.Folder)))
	return nil
}
