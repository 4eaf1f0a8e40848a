package shellpack

import (
	"context"
	"fmt"

	"shellpack/pkg/unpack"
	_ "shellpack/pkg/unpack/builtin"
)

// Extract unpacks the runtime-shell archive into outDir, using the unpacker
// registered for the archive's suffix. Every failure is an ErrArchive.
func Extract(ctx context.Context, archivePath, outDir string) error {
	u, err := unpack.Lookup(archivePath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchive, err)
	}
	if err := u.Unpack(ctx, archivePath, outDir); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrArchive, archivePath, err)
	}
	return nil
}
