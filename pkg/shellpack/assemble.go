package shellpack

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/karrick/godirwalk"
)

const (
	resourcesFolderName = "resources"
	appFolderName       = "app"
)

// ResourcesDir returns the resources directory inside an output root.
func ResourcesDir(outDir string) string {
	return filepath.Join(outDir, resourcesFolderName)
}

// AppDir returns the directory inside an output root holding the payload.
func AppDir(outDir string) string {
	return filepath.Join(outDir, resourcesFolderName, appFolderName)
}

// Assemble creates the output root and copies the payload into it.
// The output root must not exist. On failure the partially populated
// output root is left in place.
func Assemble(outDir string, m *Manifest) error {
	if err := os.MkdirAll(filepath.Dir(outDir), 0755); err != nil {
		return fmt.Errorf("create dist dir %q error: %w", filepath.Dir(outDir), err)
	}
	if err := os.Mkdir(outDir, 0755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s, remove it and rerun", ErrDirectoryExists, outDir)
		}
		return fmt.Errorf("create output dir %q error: %w", outDir, err)
	}
	appDir := AppDir(outDir)
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return fmt.Errorf("create app dir %q error: %w", appDir, err)
	}
	for _, name := range m.Files {
		src := filepath.Join(m.RootDir, name)
		info, err := os.Stat(src)
		if err != nil {
			return fmt.Errorf("stat %q error: %w", src, err)
		}
		if err := copyFile(src, filepath.Join(appDir, name), info.Mode().Perm()); err != nil {
			return err
		}
	}
	for _, folder := range m.Folders {
		if err := copyTree(m, filepath.Join(m.RootDir, folder), filepath.Join(appDir, folder), folder); err != nil {
			return err
		}
	}
	if m.ExtraResources != "" {
		if err := copyTree(m, filepath.Join(m.RootDir, m.ExtraResources), ResourcesDir(outDir), m.ExtraResources); err != nil {
			return err
		}
	}
	return nil
}

// copyTree copies srcDir recursively into dstDir, including empty
// directories and symlinks. relPrefix is the slash-separated path of srcDir
// used for matching exclude patterns.
func copyTree(m *Manifest, srcDir, dstDir, relPrefix string) error {
	srcDir = filepath.Clean(srcDir)
	return godirwalk.Walk(srcDir, &godirwalk.Options{
		Callback: func(osPathname string, entry *godirwalk.Dirent) error {
			relPath, err := filepath.Rel(srcDir, osPathname)
			if err != nil {
				return err
			}
			if relPath != "." && m.Excluded(path.Join(relPrefix, filepath.ToSlash(relPath))) {
				if entry.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			target := filepath.Join(dstDir, relPath)
			switch {
			case entry.IsDir():
				if err := os.MkdirAll(target, 0755); err != nil {
					return fmt.Errorf("mkdir %q error: %w", target, err)
				}
			case entry.IsSymlink():
				link, err := os.Readlink(osPathname)
				if err != nil {
					return fmt.Errorf("readlink %q error: %w", osPathname, err)
				}
				if err := os.Symlink(link, target); err != nil {
					return fmt.Errorf("symlink %q error: %w", target, err)
				}
			case entry.IsRegular():
				info, err := os.Lstat(osPathname)
				if err != nil {
					return fmt.Errorf("stat %q error: %w", osPathname, err)
				}
				return copyFile(osPathname, target, info.Mode().Perm())
			}
			return nil
		},
	})
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %q error: %w", src, err)
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("create %q error: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %q to %q error: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %q error: %w", dst, err)
	}
	// Permission bits given to OpenFile are subject to umask.
	return os.Chmod(dst, perm)
}
