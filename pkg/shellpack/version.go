package shellpack

import (
	"fmt"
	"path/filepath"
	"strings"

	"shellpack/pkg/shellpack/meta"
)

// ResolveVersion reads the project metadata from rootDir and returns it.
// The returned metadata always carries a non-empty Version.
func ResolveVersion(rootDir string) (*meta.Metadata, error) {
	md, err := meta.LoadMetadataFromDir(rootDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadata, err)
	}
	if md.Version == "" {
		return nil, fmt.Errorf("%w: missing version in %s", ErrMetadata, filepath.Join(rootDir, meta.MetadataFile))
	}
	// The version becomes part of output directory names.
	if strings.ContainsAny(md.Version, `/\`) {
		return nil, fmt.Errorf("%w: invalid version %q in %s", ErrMetadata, md.Version, filepath.Join(rootDir, meta.MetadataFile))
	}
	return md, nil
}
