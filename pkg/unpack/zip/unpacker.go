// Package zip provides the unpacker for ".zip" archives, the format runtime
// shells are distributed in.
package zip

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"shellpack/pkg/unpack"
)

const (
	// maxLinkSize limits the size of a symlink entry.
	maxLinkSize = 4096
)

// Unpacker implements unpack.Unpacker.
type Unpacker struct {
}

// Unpack implements unpack.Unpacker.
func (u *Unpacker) Unpack(ctx context.Context, archive, destDir string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("open %q error: %w", archive, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := extractFile(f, destDir); err != nil {
			return fmt.Errorf("extract %q error: %w", f.Name, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, destDir string) error {
	target, err := unpack.Resolve(destDir, f.Name)
	if err != nil {
		return err
	}
	mode := f.Mode()
	switch {
	case mode.IsDir() || strings.HasSuffix(f.Name, "/"):
		return os.MkdirAll(target, 0755)
	case mode&fs.ModeSymlink != 0:
		link, err := readEntry(f, maxLinkSize)
		if err != nil {
			return err
		}
		return unpack.SafeSymlink(destDir, target, string(link))
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return unpack.WriteFile(target, rc, mode)
}

func readEntry(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("entry exceeds %d bytes", limit)
	}
	return data, nil
}

func init() {
	unpack.Register(".zip", &Unpacker{})
}
