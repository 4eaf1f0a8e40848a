package shellpack

import (
	"archive/zip"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, relPath, content string, perm fs.FileMode) string {
	t.Helper()
	fn := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(fn), 0755))
	require.NoError(t, os.WriteFile(fn, []byte(content), perm))
	require.NoError(t, os.Chmod(fn, perm))
	return fn
}

func readFile(t *testing.T, fn string) string {
	t.Helper()
	data, err := os.ReadFile(fn)
	require.NoError(t, err)
	return string(data)
}

// newSourceTree creates a minimal application source tree.
func newSourceTree(t *testing.T, version string) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"name": "nibbler", "version": "`+version+`"}`, 0644)
	writeFile(t, root, "main.js", "require('./modules/engine.js')", 0644)
	writeFile(t, root, "nibbler.html", "<html></html>", 0644)
	writeFile(t, root, "nibbler.css", "body {}", 0600)
	writeFile(t, root, "README.md", "# nibbler", 0644)
	writeFile(t, root, "builder.py", "print('hi')", 0755)
	writeFile(t, root, "modules/engine.js", "module.exports = {}", 0644)
	writeFile(t, root, "modules/ui/board.js", "// board", 0644)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "modules", "empty"), 0755))
	writeFile(t, root, "pieces/wK.svg", "<svg/>", 0644)
	return root
}

func newTestProject(t *testing.T, version string) *Project {
	t.Helper()
	project, err := NewProject(newSourceTree(t, version))
	require.NoError(t, err)
	return project
}

type zipEntry struct {
	Name string
	Body string
	Mode fs.FileMode
}

func writeZip(t *testing.T, fn string, entries ...zipEntry) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(fn), 0755))
	f, err := os.Create(fn)
	require.NoError(t, err)
	defer f.Close()
	w := zip.NewWriter(f)
	for _, entry := range entries {
		hdr := &zip.FileHeader{Name: entry.Name, Method: zip.Deflate}
		hdr.SetMode(entry.Mode)
		out, err := w.CreateHeader(hdr)
		require.NoError(t, err)
		_, err = out.Write([]byte(entry.Body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

// writeRuntimeArchive places a runtime-shell archive for the platform in
// the archive directory of the project.
func writeRuntimeArchive(t *testing.T, project *Project, platform string) {
	t.Helper()
	registry, err := project.Registry()
	require.NoError(t, err)
	p := registry.Lookup(platform)
	require.NotNil(t, p)
	writeZip(t, p.ArchivePath,
		zipEntry{Name: "locales/", Mode: fs.ModeDir | 0755},
		zipEntry{Name: p.GenericExecutable, Body: "runtime " + platform, Mode: 0755},
		zipEntry{Name: "libffmpeg.so", Body: "lib", Mode: 0644},
		zipEntry{Name: "locales/en-US.pak", Body: "pak", Mode: 0644},
		zipEntry{Name: "resources/default_app.asar", Body: "asar", Mode: 0644},
	)
}
