// Package unpack provides the registry of archive unpackers and the helpers
// shared by them for writing entries safely under a destination directory.
package unpack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrUnsafePath indicates an archive entry resolves outside the destination.
	ErrUnsafePath = errors.New("unsafe path in archive")
	// ErrUnsupported indicates no unpacker is registered for the archive.
	ErrUnsupported = errors.New("unsupported archive format")
)

var (
	registryLock sync.RWMutex
	registered   = make(map[string]Unpacker)
)

// Unpacker is the abstraction of an archive format.
type Unpacker interface {
	// Unpack extracts every entry of the archive into destDir.
	Unpack(ctx context.Context, archive, destDir string) error
}

// UnpackerFunc is func form of Unpacker.
type UnpackerFunc func(ctx context.Context, archive, destDir string) error

// Unpack implements Unpacker.
func (f UnpackerFunc) Unpack(ctx context.Context, archive, destDir string) error {
	return f(ctx, archive, destDir)
}

// Register registers an unpacker for archive filenames ending in suffix.
func Register(suffix string, u Unpacker) {
	registryLock.Lock()
	defer registryLock.Unlock()
	registered[strings.ToLower(suffix)] = u
}

// Lookup finds the unpacker for the archive filename.
// The longest matching suffix wins, so ".tar.gz" is preferred over ".gz".
func Lookup(filename string) (Unpacker, error) {
	registryLock.RLock()
	defer registryLock.RUnlock()
	name := strings.ToLower(filepath.Base(filename))
	var found Unpacker
	var foundLen int
	for suffix, u := range registered {
		if strings.HasSuffix(name, suffix) && len(suffix) > foundLen {
			found, foundLen = u, len(suffix)
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(filename))
	}
	return found, nil
}

// Suffixes returns registered suffixes in sorted order.
func Suffixes() []string {
	registryLock.RLock()
	defer registryLock.RUnlock()
	suffixes := make([]string, 0, len(registered))
	for suffix := range registered {
		suffixes = append(suffixes, suffix)
	}
	sort.Strings(suffixes)
	return suffixes
}

// SafeJoin joins the slash-separated entry name to destDir.
// It fails with ErrUnsafePath if the result is not inside destDir.
func SafeJoin(destDir, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" ||
		clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	base := filepath.Clean(destDir)
	target := filepath.Join(base, clean)
	if target != base && !strings.HasPrefix(target, base+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

// Resolve is SafeJoin that also fails if any existing parent of the result
// inside destDir is a symlink, so extraction never writes through a link
// created by an earlier entry.
func Resolve(destDir, name string) (string, error) {
	target, err := SafeJoin(destDir, name)
	if err != nil {
		return "", err
	}
	base := filepath.Clean(destDir)
	rel, err := filepath.Rel(base, filepath.Dir(target))
	if err != nil || rel == "." {
		return target, err
	}
	dir := base
	for _, elem := range strings.Split(rel, string(filepath.Separator)) {
		dir = filepath.Join(dir, elem)
		info, err := os.Lstat(dir)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			return "", err
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return "", fmt.Errorf("%w: %s traverses symlink %s", ErrUnsafePath, name, dir)
		}
	}
	return target, nil
}

// SafeSymlink validates that a symlink at target pointing to link stays
// inside destDir, and creates it.
// A ".." is only accepted before the first named element of link. Otherwise
// "d/s/.." cleans to "d" while the OS resolves it through the symlink s.
func SafeSymlink(destDir, target, link string) error {
	if filepath.IsAbs(link) || !ascendsFirst(link) {
		return fmt.Errorf("%w: symlink %s -> %s", ErrUnsafePath, target, link)
	}
	rel, err := filepath.Rel(filepath.Clean(destDir), filepath.Join(filepath.Dir(target), link))
	if err != nil {
		return fmt.Errorf("%w: symlink %s -> %s", ErrUnsafePath, target, link)
	}
	if _, err := SafeJoin(destDir, filepath.ToSlash(rel)); err != nil {
		return fmt.Errorf("%w: symlink %s -> %s", ErrUnsafePath, target, link)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	return os.Symlink(link, target)
}

func ascendsFirst(link string) bool {
	named := false
	for _, elem := range strings.Split(filepath.ToSlash(link), "/") {
		switch elem {
		case "", ".":
		case "..":
			if named {
				return false
			}
		default:
			named = true
		}
	}
	return true
}

// SafeHardlink validates that the hard link source linkName is a regular
// file already extracted inside destDir, and links target to it.
func SafeHardlink(destDir, target, linkName string) error {
	source, err := Resolve(destDir, linkName)
	if err != nil {
		return err
	}
	info, err := os.Lstat(source)
	if err != nil {
		return fmt.Errorf("hard link %s -> %s: %w", target, linkName, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: hard link %s -> %s is not a regular file", ErrUnsafePath, target, linkName)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	return os.Link(source, target)
}

// WriteFile writes content from r into target with the permission bits in
// mode, creating parent directories when needed. An existing symlink at
// target is replaced rather than followed.
func WriteFile(target string, r io.Reader, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if info, err := os.Lstat(target); err == nil && info.Mode()&fs.ModeSymlink != 0 {
		if err := os.Remove(target); err != nil {
			return err
		}
	}
	perm := mode.Perm()
	if perm == 0 {
		perm = 0644
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chmod(target, perm)
}
