// Package builtin registers all built-in unpackers.
package builtin

import (
	_ "shellpack/pkg/unpack/targz"
	_ "shellpack/pkg/unpack/zip"
)
