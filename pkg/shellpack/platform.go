package shellpack

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Names of known platforms.
const (
	Windows = "windows"
	Linux   = "linux"
)

// PlatformSpec is a static entry of the platform table.
type PlatformSpec struct {
	// Name identifies the platform in output directory names.
	Name string
	// Archive is the runtime-shell archive filename, relative to the archive directory.
	Archive string
	// GenericExecutable is the runtime executable name inside the archive.
	GenericExecutable string
	// ExecutableSuffix is appended to the product name for the renamed executable.
	ExecutableSuffix string
	// GOOS is the value of runtime.GOOS of a host able to run the output.
	GOOS string
}

// DefaultPlatforms is the table of supported platforms.
var DefaultPlatforms = []PlatformSpec{
	{
		Name:              Windows,
		Archive:           "electron-v9.4.4-win32-x64.zip",
		GenericExecutable: "electron.exe",
		ExecutableSuffix:  ".exe",
		GOOS:              "windows",
	},
	{
		Name:              Linux,
		Archive:           "electron-v9.4.4-linux-x64.zip",
		GenericExecutable: "electron",
		GOOS:              "linux",
	},
}

// Platform is a resolved target platform. It's immutable once created.
type Platform struct {
	Name string
	// ArchivePath is the absolute path of the runtime-shell archive.
	ArchivePath string
	// GenericExecutable is the name of the runtime executable after extraction.
	GenericExecutable string
	// Executable is the product executable name.
	Executable string
	// GOOS is the matching value of runtime.GOOS.
	GOOS string
}

// Registry maps platform names to their runtime-shell archives.
type Registry struct {
	platforms []*Platform
	byName    map[string]*Platform
}

// NewRegistry resolves specs against archiveDir and the product name.
func NewRegistry(archiveDir, product string, specs []PlatformSpec) *Registry {
	r := &Registry{byName: make(map[string]*Platform, len(specs))}
	for _, spec := range specs {
		p := &Platform{
			Name:              spec.Name,
			ArchivePath:       filepath.Join(archiveDir, spec.Archive),
			GenericExecutable: spec.GenericExecutable,
			Executable:        product + spec.ExecutableSuffix,
			GOOS:              spec.GOOS,
		}
		r.platforms = append(r.platforms, p)
		r.byName[p.Name] = p
	}
	return r
}

// Platforms returns the platforms in table order, in a copied slice.
func (r *Registry) Platforms() []*Platform {
	platforms := make([]*Platform, len(r.platforms))
	copy(platforms, r.platforms)
	return platforms
}

// Lookup finds the platform by name.
func (r *Registry) Lookup(name string) *Platform {
	return r.byName[name]
}

// Path returns the archive location of the platform.
// It returns empty string for unknown platforms.
func (r *Registry) Path(name string) string {
	if p := r.byName[name]; p != nil {
		return p.ArchivePath
	}
	return ""
}

// IsAvailable checks if the archive of the platform exists on disk.
func (r *Registry) IsAvailable(name string) bool {
	fn := r.Path(name)
	if fn == "" {
		return false
	}
	info, err := os.Stat(fn)
	return err == nil && info.Mode().IsRegular()
}

// Subset creates a Registry containing only the named platforms, in table order.
func (r *Registry) Subset(names ...string) (*Registry, error) {
	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		if r.byName[name] == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, name)
		}
		wanted[name] = struct{}{}
	}
	sub := &Registry{byName: make(map[string]*Platform, len(wanted))}
	for _, p := range r.platforms {
		if _, ok := wanted[p.Name]; ok {
			sub.platforms = append(sub.platforms, p)
			sub.byName[p.Name] = p
		}
	}
	return sub, nil
}

// Host returns the platform runnable on the current host, or nil.
func (r *Registry) Host() *Platform {
	for _, p := range r.platforms {
		if p.IsHost() {
			return p
		}
	}
	return nil
}

// IsHost indicates the platform matches the current host.
func (p *Platform) IsHost() bool {
	return p.GOOS == runtime.GOOS
}
