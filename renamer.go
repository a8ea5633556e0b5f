package renamer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const DefaultFilePermissions = 0644

type TreeRenamer interface {
	RenameFiles(ctx context.Context, req RenameRequest) (*RenameResult, error)
	RenameStrings(ctx context.Context, req RenameRequest) (*RenameResult, error)
}

type DefaultTreeRenamer struct {
	scanner   Scanner
	validator Validator
	config    *Config
	log       *slog.Logger
}

func NewDefaultTreeRenamer(config *Config, log *slog.Logger) (*DefaultTreeRenamer, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &DefaultTreeRenamer{
		scanner:   NewTreeScanner(config),
		validator: NewDefaultValidator(),
		config:    config,
		log:       log,
	}, nil
}

// Run dispatches req to the operation selected by mode.
func (r *DefaultTreeRenamer) Run(ctx context.Context, mode Mode, req RenameRequest) (*RenameResult, error) {
	switch mode {
	case ModeFiles:
		return r.RenameFiles(ctx, req)
	case ModeStrings:
		return r.RenameStrings(ctx, req)
	default:
		return nil, fmt.Errorf("unknown mode: %s", mode)
	}
}

// RenameFiles renames every file whose name contains req.Pattern, replacing
// each occurrence of the pattern with req.Replacement. Files stay in their
// directory.
func (r *DefaultTreeRenamer) RenameFiles(ctx context.Context, req RenameRequest) (*RenameResult, error) {
	if err := r.validator.ValidateRequest(req, ModeFiles); err != nil {
		return nil, err
	}

	log := r.log.With(slog.String("mode", string(ModeFiles)), slog.Bool("dry_run", req.DryRun))
	log.Debug("processing", slog.String("directory", req.Root))

	result := &RenameResult{Mode: ModeFiles, DryRun: req.DryRun, Changes: []FileChange{}}
	pattern := r.normalizeName(req.Pattern)
	plan := newRenamePlan()

	for entry, err := range r.scanner.Scan(ctx, req.Root, req.Recursive, req.IgnoreFolders) {
		if err != nil {
			if err := r.fail(log, result, entry.Path, fmt.Errorf("walk %s: %w", entry.Path, err)); err != nil {
				return nil, err
			}
			continue
		}

		result.FilesVisited++
		if r.isExcluded(entry.Name) {
			log.Debug("excluded", slog.String("path", entry.Path))
			continue
		}

		name := r.normalizeName(entry.Name)
		if !strings.Contains(name, pattern) {
			continue
		}

		newName := strings.ReplaceAll(name, pattern, req.Replacement)
		if !isBaseName(newName) {
			err := fmt.Errorf("rename %s -> %q: %w", entry.Path, newName, ErrInvalidReplacement)
			if err := r.fail(log, result, entry.Path, err); err != nil {
				return nil, err
			}
			continue
		}

		newPath := filepath.Join(entry.Dir, newName)
		if newPath == entry.Path {
			continue
		}

		if err := r.renameFile(plan, entry.Path, newPath, req.DryRun); err != nil {
			if err := r.fail(log, result, entry.Path, err); err != nil {
				return nil, err
			}
			continue
		}

		r.logChange(log, req.DryRun, "renaming file", slog.String("path", entry.Path), slog.String("new_path", newPath))
		result.Changes = append(result.Changes, FileChange{Path: entry.Path, NewPath: newPath})
	}

	log.Info("rename files finished",
		slog.Int("visited", result.FilesVisited),
		slog.Int("renamed", len(result.Changes)),
		slog.Int("failed", len(result.FailedFiles)))
	return result, nil
}

// RenameStrings applies req.Pattern as a regular expression to the content of
// every regular file, rewriting the files whose content changes.
func (r *DefaultTreeRenamer) RenameStrings(ctx context.Context, req RenameRequest) (*RenameResult, error) {
	if err := r.validator.ValidateRequest(req, ModeStrings); err != nil {
		return nil, err
	}

	re, err := r.validator.CompilePattern(req.Pattern)
	if err != nil {
		return nil, err
	}

	log := r.log.With(slog.String("mode", string(ModeStrings)), slog.Bool("dry_run", req.DryRun))
	log.Debug("processing", slog.String("directory", req.Root))

	result := &RenameResult{Mode: ModeStrings, DryRun: req.DryRun, Changes: []FileChange{}}

	for entry, err := range r.scanner.Scan(ctx, req.Root, req.Recursive, req.IgnoreFolders) {
		if err != nil {
			if err := r.fail(log, result, entry.Path, fmt.Errorf("walk %s: %w", entry.Path, err)); err != nil {
				return nil, err
			}
			continue
		}

		result.FilesVisited++
		if !entry.Regular {
			log.Debug("skipping non-regular file", slog.String("path", entry.Path))
			continue
		}
		if r.isExcluded(entry.Name) {
			log.Debug("excluded", slog.String("path", entry.Path))
			continue
		}

		changed, err := r.replaceInFile(entry.Path, re, req.Replacement, req.DryRun)
		if err != nil {
			if err := r.fail(log, result, entry.Path, err); err != nil {
				return nil, err
			}
			continue
		}
		if !changed {
			log.Debug("no match", slog.String("path", entry.Path))
			continue
		}

		r.logChange(log, req.DryRun, "updating file", slog.String("path", entry.Path))
		result.Changes = append(result.Changes, FileChange{Path: entry.Path})
	}

	log.Info("rename strings finished",
		slog.Int("visited", result.FilesVisited),
		slog.Int("updated", len(result.Changes)),
		slog.Int("failed", len(result.FailedFiles)))
	return result, nil
}

// renamePlan tracks the paths claimed and vacated during one invocation so
// collisions are detected the same way with and without dry-run.
type renamePlan struct {
	claimed map[string]bool
	vacated map[string]bool
}

func newRenamePlan() *renamePlan {
	return &renamePlan{
		claimed: make(map[string]bool),
		vacated: make(map[string]bool),
	}
}

func (r *DefaultTreeRenamer) renameFile(plan *renamePlan, oldPath, newPath string, dryRun bool) error {
	if r.config.CollisionPolicy == CollisionFail {
		exists, err := r.targetExists(plan, newPath)
		if err != nil {
			return fmt.Errorf("rename %s -> %s: %w", oldPath, newPath, err)
		}
		if exists {
			return fmt.Errorf("rename %s -> %s: %w", oldPath, newPath, ErrTargetExists)
		}
	}

	if !dryRun {
		if err := os.Rename(oldPath, newPath); err != nil {
			return fmt.Errorf("rename %s -> %s: %w", oldPath, newPath, err)
		}
	}

	plan.claimed[newPath] = true
	plan.vacated[oldPath] = true
	delete(plan.vacated, newPath)
	return nil
}

func (r *DefaultTreeRenamer) targetExists(plan *renamePlan, path string) (bool, error) {
	if plan.claimed[path] {
		return true, nil
	}
	if plan.vacated[path] {
		return false, nil
	}

	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (r *DefaultTreeRenamer) replaceInFile(path string, re *regexp.Regexp, replacement string, dryRun bool) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	if !isText(content) {
		return false, fmt.Errorf("read %s: %w", path, ErrNotText)
	}

	original := string(content)
	modified := re.ReplaceAllString(original, replacement)
	if modified == original {
		return false, nil
	}

	if !dryRun {
		if err := os.WriteFile(path, []byte(modified), DefaultFilePermissions); err != nil {
			return false, fmt.Errorf("write %s: %w", path, err)
		}
	}
	return true, nil
}

// fail records err against path when continue_on_error is set, otherwise it
// returns err so the caller aborts the walk.
func (r *DefaultTreeRenamer) fail(log *slog.Logger, result *RenameResult, path string, err error) error {
	if !r.config.ContinueOnError {
		return err
	}
	log.Error("operation failed", slog.String("path", path), slog.Any("error", err))
	result.addFailure(path, err)
	return nil
}

func (r *DefaultTreeRenamer) logChange(log *slog.Logger, dryRun bool, msg string, attrs ...any) {
	if dryRun {
		log.Info("dry run: "+msg, attrs...)
		return
	}
	log.Debug(msg, attrs...)
}

func (r *DefaultTreeRenamer) isExcluded(name string) bool {
	for _, pattern := range r.config.ExcludePatterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

func (r *DefaultTreeRenamer) normalizeName(name string) string {
	if r.config.NormalizeUnicode {
		return norm.NFC.String(name)
	}
	return name
}

// isBaseName reports whether name can replace a file name in place without
// moving the file to another directory.
func isBaseName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/`+string(filepath.Separator))
}

// isText reports whether content can be rewritten as text. NUL bytes and
// invalid UTF-8 both mark binary data.
func isText(content []byte) bool {
	return bytes.IndexByte(content, 0) == -1 && utf8.Valid(content)
}
