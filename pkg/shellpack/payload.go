package shellpack

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zabawaba99/go-gitignore"

	"shellpack/pkg/shellpack/meta"
)

var (
	// PayloadExtensions lists the suffixes of individual files copied from
	// the project root.
	PayloadExtensions = []string{".js", ".html", ".css"}

	// PayloadFolders lists the folders holding application code and
	// resources. Every folder must exist at the project root.
	PayloadFolders = []string{"modules", "pieces"}
)

const (
	// ExtraResourcesFolder is an optional folder whose content goes to the
	// resources folder beside the app folder.
	ExtraResourcesFolder = "res"
)

// Manifest lists the payload copied into every output tree.
// It's computed once and shared by all platforms.
type Manifest struct {
	// RootDir is the absolute path of the project root.
	RootDir string
	// Files are names of individual files directly under RootDir.
	Files []string
	// Folders are names of folders under RootDir copied recursively.
	Folders []string
	// ExtraResources is the name of the extra resources folder, or empty if absent.
	ExtraResources string
	// Exclude contains gitignore-style patterns of excluded paths.
	Exclude []string
}

// SelectPayload computes the Manifest for the project at rootDir.
func SelectPayload(rootDir string, exclude []string) (*Manifest, error) {
	m := &Manifest{RootDir: rootDir, Exclude: exclude}
	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrArtifact, rootDir, err)
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if !isPayloadFile(name) || m.Excluded(name) {
			continue
		}
		m.Files = append(m.Files, name)
	}
	sort.Strings(m.Files)

	for _, folder := range PayloadFolders {
		dir := filepath.Join(rootDir, folder)
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: required folder %s: %v", ErrArtifact, dir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: required folder %s is not a directory", ErrArtifact, dir)
		}
		m.Folders = append(m.Folders, folder)
	}

	if info, err := os.Stat(filepath.Join(rootDir, ExtraResourcesFolder)); err == nil && info.IsDir() {
		m.ExtraResources = ExtraResourcesFolder
	}
	return m, nil
}

// Excluded returns true if the slash-separated relative path matches any
// exclude pattern. A pattern without a slash matches the base name at any
// depth, others match the path from the project root.
func (m *Manifest) Excluded(relPath string) bool {
	for _, pattern := range m.Exclude {
		if matchExclude(pattern, relPath) {
			return true
		}
	}
	return false
}

func matchExclude(pattern, relPath string) bool {
	pattern = strings.TrimSuffix(strings.TrimSpace(pattern), "/")
	if pattern == "" || strings.HasPrefix(pattern, "#") {
		return false
	}
	if strings.Contains(pattern, "**") {
		return gitignore.Match(strings.TrimPrefix(pattern, "/"), relPath)
	}
	// gitignore.Match globs slash-less patterns against the working directory,
	// so plain globs are matched here.
	value := path.Base(relPath)
	if strings.Contains(pattern, "/") {
		pattern, value = strings.TrimPrefix(pattern, "/"), relPath
	}
	matched, err := path.Match(pattern, value)
	return err == nil && matched
}

func isPayloadFile(name string) bool {
	if name == meta.MetadataFile {
		return true
	}
	for _, ext := range PayloadExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
