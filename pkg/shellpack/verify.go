package shellpack

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
)

// MismatchKind describes how a payload file differs in an output tree.
type MismatchKind string

// Values of MismatchKind
const (
	MismatchMissing MismatchKind = "missing"
	MismatchContent MismatchKind = "content"
	MismatchMode    MismatchKind = "mode"
)

// Mismatch is a payload file not faithfully copied into an output tree.
type Mismatch struct {
	// Path is slash-separated, relative to the project root.
	Path string       `json:"path" yaml:"path"`
	Kind MismatchKind `json:"kind" yaml:"kind"`
}

func (m Mismatch) String() string {
	return string(m.Kind) + " " + m.Path
}

type fileEntry struct {
	fullPath string
	copied   string
	mode     fs.FileMode
}

// VerifyPayload compares the payload in rootDir with the copy inside the
// output root outDir, including the extra resources copied beside the app
// folder. Regular files are compared by SHA-256 digests and permission bits.
// The returned mismatches are sorted by path.
func VerifyPayload(rootDir, outDir string, m *Manifest) ([]Mismatch, error) {
	appDir := AppDir(outDir)
	entries := make(map[string]*fileEntry)
	for _, name := range m.Files {
		fn := filepath.Join(rootDir, name)
		info, err := os.Stat(fn)
		if err != nil {
			return nil, fmt.Errorf("stat %q error: %w", fn, err)
		}
		entries[name] = &fileEntry{fullPath: fn, copied: filepath.Join(appDir, name), mode: info.Mode().Perm()}
	}
	for _, folder := range m.Folders {
		if err := collectFileEntries(m, rootDir, folder, filepath.Join(appDir, folder), entries); err != nil {
			return nil, err
		}
	}
	if m.ExtraResources != "" {
		if err := collectFileEntries(m, rootDir, m.ExtraResources, ResourcesDir(outDir), entries); err != nil {
			return nil, err
		}
	}

	var mismatches []Mismatch
	for relPath, entry := range entries {
		kind, err := compareFileEntry(entry, entry.copied)
		if err != nil {
			return nil, err
		}
		if kind != "" {
			mismatches = append(mismatches, Mismatch{Path: relPath, Kind: kind})
		}
	}
	sort.Slice(mismatches, func(i, j int) bool {
		return mismatches[i].Path < mismatches[j].Path
	})
	return mismatches, nil
}

// collectFileEntries collects regular files under folder, expected to be
// copied into dstDir.
func collectFileEntries(m *Manifest, rootDir, folder, dstDir string, entries map[string]*fileEntry) error {
	srcDir := filepath.Join(rootDir, folder)
	return godirwalk.Walk(srcDir, &godirwalk.Options{
		Callback: func(osPathname string, entry *godirwalk.Dirent) error {
			relPath, err := filepath.Rel(rootDir, osPathname)
			if err != nil {
				return err
			}
			relPath = filepath.ToSlash(relPath)
			if relPath != folder && m.Excluded(relPath) {
				if entry.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !entry.IsRegular() {
				return nil
			}
			info, err := os.Lstat(osPathname)
			if err != nil {
				return fmt.Errorf("stat %q error: %w", osPathname, err)
			}
			copied := filepath.Join(dstDir, filepath.FromSlash(strings.TrimPrefix(relPath, folder+"/")))
			entries[path.Clean(relPath)] = &fileEntry{fullPath: osPathname, copied: copied, mode: info.Mode().Perm()}
			return nil
		},
	})
}

func compareFileEntry(src *fileEntry, copied string) (MismatchKind, error) {
	info, err := os.Lstat(copied)
	if errors.Is(err, fs.ErrNotExist) {
		return MismatchMissing, nil
	}
	if err != nil {
		return "", fmt.Errorf("stat %q error: %w", copied, err)
	}
	if !info.Mode().IsRegular() {
		return MismatchMissing, nil
	}
	srcDigest, err := fileDigest(src.fullPath)
	if err != nil {
		return "", err
	}
	copiedDigest, err := fileDigest(copied)
	if err != nil {
		return "", err
	}
	if !bytes.Equal(srcDigest, copiedDigest) {
		return MismatchContent, nil
	}
	if info.Mode().Perm() != src.mode {
		return MismatchMode, nil
	}
	return "", nil
}

func fileDigest(fn string) ([]byte, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, fmt.Errorf("open %q error: %w", fn, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("read %q error: %w", fn, err)
	}
	return h.Sum(nil), nil
}
