package renamer

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
)

type Scanner interface {
	Scan(ctx context.Context, rootPath string, recursive bool, ignoreFolders []string) iter.Seq2[FileEntry, error]
}

type TreeScanner struct {
	config *Config
}

var errScanStopped = errors.New("scan stopped by consumer")

func NewTreeScanner(config *Config) *TreeScanner {
	return &TreeScanner{config: config}
}

// Scan yields every non-directory entry under rootPath. Directories whose base
// name is in ignoreFolders (or the configured ignore list) are pruned along
// with their subtree. When recursive is false no subdirectory is entered.
//
// Walk errors are yielded to the consumer, which decides whether to keep going.
func (s *TreeScanner) Scan(ctx context.Context, rootPath string, recursive bool, ignoreFolders []string) iter.Seq2[FileEntry, error] {
	return func(yield func(FileEntry, error) bool) {
		ignored := make(map[string]bool, len(ignoreFolders)+len(s.config.IgnoreFolders))
		for _, name := range slices.Concat(s.config.IgnoreFolders, ignoreFolders) {
			ignored[name] = true
		}

		err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			if err != nil {
				if !yield(FileEntry{Path: path}, err) {
					return errScanStopped
				}
				return nil
			}

			if d.IsDir() {
				if path == rootPath {
					return nil
				}
				if !recursive || ignored[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}

			// Directory symlinks are neither followed nor treated as files.
			if d.Type()&fs.ModeSymlink != 0 {
				if info, err := os.Stat(path); err == nil && info.IsDir() {
					return nil
				}
			}

			entry := FileEntry{
				Path:    path,
				Dir:     filepath.Dir(path),
				Name:    d.Name(),
				Regular: d.Type().IsRegular(),
			}
			if !yield(entry, nil) {
				return errScanStopped
			}
			return nil
		})

		if err != nil && !errors.Is(err, errScanStopped) {
			yield(FileEntry{Path: rootPath}, err)
		}
	}
}
