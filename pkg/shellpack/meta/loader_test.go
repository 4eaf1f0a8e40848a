package meta

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	fn := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(fn, []byte(content), 0644))
	return fn
}

func TestLoadMetadataFromDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, MetadataFile, `{"name": "nibbler", "productName": "Nibbler", "version": "1.2.3"}`)

	md, err := LoadMetadataFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "nibbler", md.Name)
	assert.Equal(t, "Nibbler", md.ProductName)
	assert.Equal(t, "1.2.3", md.Version)
}

func TestLoadMetadataFromDir_RealPackage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, MetadataFile, "{\n\t\"name\": \"nibbler\",\n\t\"version\": \"1.2.3\",\n"+
		"\t\"main\": \"main.js\",\n\t\"scripts\": {\"start\": \"electron .\"},\n"+
		"\t\"devDependencies\": {\"electron\": \"^9.4.4\"}\n}\n")

	md, err := LoadMetadataFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "nibbler", md.Name)
	assert.Equal(t, "1.2.3", md.Version)
}

func TestLoadMetadataFile_Missing(t *testing.T) {
	_, err := LoadMetadataFile(filepath.Join(t.TempDir(), MetadataFile))
	require.Error(t, err)
	assert.Contains(t, err.Error(), MetadataFile)
}

func TestLoadMetadataFile_Unparsable(t *testing.T) {
	dir := t.TempDir()
	fn := writeFile(t, dir, MetadataFile, `{"version": `)
	_, err := LoadMetadataFile(fn)
	require.Error(t, err)
}

func TestLoadConfigFromDir_Absent(t *testing.T) {
	conf, err := LoadConfigFromDir(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), conf)
	assert.Equal(t, DefaultProduct, conf.Product)
	assert.Equal(t, DefaultDistDir, conf.DistDir)
	assert.Equal(t, DefaultArchiveDir, conf.ArchiveDir)
}

func TestLoadConfigFromDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFile, `
product: chessview
dist-dir: out/dist
exclude:
  - "*.map"
platforms:
  - linux
`)
	conf, err := LoadConfigFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "chessview", conf.Product)
	assert.Equal(t, "out/dist", conf.DistDir)
	assert.Equal(t, DefaultArchiveDir, conf.ArchiveDir)
	assert.Equal(t, []string{"*.map"}, conf.Exclude)
	assert.Equal(t, []string{"linux"}, conf.Platforms)
}
