package shellpack

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"shellpack/pkg/shellpack/meta"
)

// Project represents the application source tree being packaged.
type Project struct {
	// RootDir is the absolute path to the root of the project, where
	// meta.MetadataFile lives.
	RootDir string
	// WorkDir is the absolute path the root is located from.
	WorkDir string
	// Config is the packaging config, loaded from meta.ConfigFile if present.
	Config meta.Config
}

// NewProject creates a Project from the specified directory as working directory.
// If workDir is empty, the current working directory is used.
func NewProject(workDir string) (*Project, error) {
	var err error
	if workDir == "" {
		workDir, err = os.Getwd()
	} else {
		workDir, err = filepath.Abs(workDir)
	}
	if err != nil {
		return nil, err
	}
	p := &Project{WorkDir: workDir}
	if err := p.LocateRoot(); err != nil {
		return nil, err
	}
	return p, nil
}

// LocateRoot finds the closest directory containing meta.MetadataFile,
// starting from the working directory, and loads the config from it.
func (p *Project) LocateRoot() error {
	wd, err := filepath.Abs(p.WorkDir)
	if err != nil {
		return fmt.Errorf("unknown absolute path of working dir %q: %w", p.WorkDir, err)
	}
	for {
		fn := filepath.Join(wd, meta.MetadataFile)
		info, err := os.Stat(fn)
		if err == nil && !info.IsDir() {
			p.RootDir = wd
			break
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: check %s: %v", ErrMetadata, fn, err)
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			return fmt.Errorf("%w: find %s from %q failed: %v", ErrMetadata, meta.MetadataFile, p.WorkDir, os.ErrNotExist)
		}
		wd = parent
	}
	conf, err := meta.LoadConfigFromDir(p.RootDir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	p.Config = *conf
	return nil
}

// MetadataFile returns the absolute path of the metadata file.
func (p *Project) MetadataFile() string {
	return filepath.Join(p.RootDir, meta.MetadataFile)
}

// DistDir returns the absolute path of the dist root.
func (p *Project) DistDir() string {
	return p.resolve(p.Config.DistDir)
}

// ArchiveDir returns the absolute path of the directory holding runtime archives.
func (p *Project) ArchiveDir() string {
	return p.resolve(p.Config.ArchiveDir)
}

// Registry creates the registry of known platforms for this project,
// restricted to Config.Platforms when set.
func (p *Project) Registry() (*Registry, error) {
	r := NewRegistry(p.ArchiveDir(), p.Config.Product, DefaultPlatforms)
	if len(p.Config.Platforms) == 0 {
		return r, nil
	}
	return r.Subset(p.Config.Platforms...)
}

// OutDir returns the output root of a platform for the given version.
func (p *Project) OutDir(version string, platform *Platform) string {
	return filepath.Join(p.DistDir(), OutDirName(p.Config.Product, version, platform.Name))
}

func (p *Project) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.RootDir, path)
}

// OutDirName returns the directory name of an output root.
func OutDirName(product, version, platform string) string {
	return product + "-" + version + "-" + platform
}
