package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/earconlabs/earcon/internal/logger"
)

// walkResult is one file discovered in the pack directory.
type walkResult struct {
	Error   error
	Path    string
	Name    string // base name including extension
	Size    int64
	ModTime time.Time
}

// walkPack streams the regular files sitting directly in root. Sound packs
// are flat by contract (a cue name may not contain a path separator), so
// subdirectories are skipped wholesale. Hidden files are skipped too; packs
// unzipped on macOS tend to carry .DS_Store and ._ droppings.
// The channel closes when the walk is complete or ctx is canceled.
func walkPack(ctx context.Context, log *logger.Logger, root string) <-chan walkResult {
	results := make(chan walkResult, 32)

	go func() {
		defer close(results)

		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err != nil {
				log.Error("walk error", "path", path, "error", err)
				// Continue walking despite errors.
				return nil
			}

			if d.Name() != "." && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if path == root {
					return nil
				}
				return filepath.SkipDir
			}

			info, err := d.Info()
			if err != nil {
				log.Error("failed to get file info", "path", path, "error", err)
				return nil
			}

			result := walkResult{
				Path:    path,
				Name:    d.Name(),
				Size:    info.Size(),
				ModTime: info.ModTime(),
			}

			select {
			case results <- result:
			case <-ctx.Done():
				return ctx.Err()
			}

			return nil
		})

		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("walk failed", "root", root, "error", err)
		}
	}()

	return results
}
