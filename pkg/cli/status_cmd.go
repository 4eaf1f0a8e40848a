package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// StatusCmd prints the output trees of the current version.
type StatusCmd struct {
}

// Execute executes the command.
func (c *StatusCmd) Execute(ctx context.Context, cctx *Context, args ...string) error {
	result, err := cctx.Plan()
	if err != nil {
		return err
	}
	var entries []*StatusEntry
	for _, b := range result.Builds {
		entry := &StatusEntry{Platform: b.Name(), OutDir: b.OutDir}
		if entry.Exists, err = dirExists(b.OutDir); err != nil {
			return err
		}
		if entry.Exists {
			info, err := os.Stat(filepath.Join(b.OutDir, b.Platform.Executable))
			entry.HasExecutable = err == nil && info.Mode().IsRegular()
		}
		entries = append(entries, entry)
	}
	cctx.UI.PrintStatus(entries)
	return nil
}

func dirExists(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %q error: %w", dir, err)
	}
	return info.IsDir(), nil
}
