package shellpack

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// RenameExecutable renames the generic runtime executable directly under
// outDir to the product executable of the platform.
// If the generic executable is absent, ErrExecutableNotFound is returned and
// nothing is changed.
func RenameExecutable(outDir string, p *Platform) error {
	if p.GenericExecutable == p.Executable {
		return nil
	}
	from := filepath.Join(outDir, p.GenericExecutable)
	to := filepath.Join(outDir, p.Executable)
	info, err := os.Lstat(from)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrExecutableNotFound, from)
	}
	if err != nil {
		return fmt.Errorf("stat %q error: %w", from, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrExecutableNotFound, from)
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("rename %q to %q error: %w", from, to, err)
	}
	return nil
}
