// Package targz provides the unpacker for gzip-compressed tarballs.
package targz

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"

	"shellpack/pkg/unpack"
)

// Unpacker implements unpack.Unpacker.
type Unpacker struct {
}

// Unpack implements unpack.Unpacker.
func (u *Unpacker) Unpack(ctx context.Context, archive, destDir string) error {
	f, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("open %q error: %w", archive, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("read %q error: %w", archive, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %q error: %w", archive, err)
		}
		if err := extractEntry(tr, hdr, destDir); err != nil {
			return fmt.Errorf("extract %q error: %w", hdr.Name, err)
		}
	}
}

func extractEntry(tr *tar.Reader, hdr *tar.Header, destDir string) error {
	target, err := unpack.Resolve(destDir, hdr.Name)
	if err != nil {
		return err
	}
	switch hdr.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, 0755)
	case tar.TypeReg:
		return unpack.WriteFile(target, tr, hdr.FileInfo().Mode())
	case tar.TypeSymlink:
		return unpack.SafeSymlink(destDir, target, hdr.Linkname)
	case tar.TypeLink:
		return unpack.SafeHardlink(destDir, target, hdr.Linkname)
	}
	return fmt.Errorf("unsupported entry type %q", hdr.Typeflag)
}

func init() {
	unpack.Register(".tar.gz", &Unpacker{})
	unpack.Register(".tgz", &Unpacker{})
}
