package shellpack

import (
	"errors"
	"fmt"
)

var (
	// ErrMetadata indicates the project metadata is missing, unparsable or
	// lacks a version. It aborts the whole run.
	ErrMetadata = errors.New("metadata error")
	// ErrConfig indicates the packaging config file can't be loaded.
	ErrConfig = errors.New("config error")
	// ErrArtifact indicates a required payload folder is missing.
	// It aborts the whole run before any output is created.
	ErrArtifact = errors.New("artifact error")

	// ErrDirectoryExists indicates the output root of a platform is left from
	// a previous run. It fails that platform only.
	ErrDirectoryExists = errors.New("output directory already exists")
	// ErrArchive indicates the runtime-shell archive can't be extracted.
	ErrArchive = errors.New("archive error")
	// ErrArchiveMissing is used as the error of a skipped build.
	// It wraps ErrArchive.
	ErrArchiveMissing = fmt.Errorf("%w: not present", ErrArchive)
	// ErrExecutableNotFound indicates the generic runtime executable is absent
	// after extraction. It's reported as a warning.
	ErrExecutableNotFound = errors.New("runtime executable not found")

	// ErrUnknownPlatform indicates a platform name not in the registry.
	ErrUnknownPlatform = errors.New("unknown platform")
	// ErrSomeBuildsFailed indicates at least one platform failed.
	ErrSomeBuildsFailed = errors.New("some builds failed")
	// ErrIncomplete indicates not all builds are completed.
	ErrIncomplete = errors.New("incomplete")
)
