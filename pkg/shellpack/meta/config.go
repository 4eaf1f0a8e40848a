package meta

const (
	// ConfigFile defines the optional packaging config file name at the project root.
	ConfigFile = "shellpack.yaml"

	// DefaultProduct is the product name used when none is configured.
	DefaultProduct = "nibbler"

	// DefaultDistDir is the default directory name for output trees.
	DefaultDistDir = "dist"

	// DefaultArchiveDir is the default directory name holding runtime-shell archives.
	DefaultArchiveDir = "electron_zipped"
)

// Config defines the packaging options of a project.
// This is the schema of ConfigFile.
type Config struct {
	// Product is the name used for output directories and the renamed executable.
	Product string `json:"product,omitempty"`
	// DistDir specifies the relative path where output trees are created.
	DistDir string `json:"dist-dir,omitempty"`
	// ArchiveDir specifies the relative path where runtime-shell archives are staged.
	ArchiveDir string `json:"archive-dir,omitempty"`
	// Exclude specifies gitignore-style patterns removed from the payload.
	Exclude []string `json:"exclude,omitempty"`
	// Platforms restricts the build to the listed platforms. Empty means all.
	Platforms []string `json:"platforms,omitempty"`
}

// DefaultConfig returns a Config with all defaults applied.
func DefaultConfig() *Config {
	c := &Config{}
	c.fillDefaults()
	return c
}

func (c *Config) fillDefaults() {
	if c.Product == "" {
		c.Product = DefaultProduct
	}
	if c.DistDir == "" {
		c.DistDir = DefaultDistDir
	}
	if c.ArchiveDir == "" {
		c.ArchiveDir = DefaultArchiveDir
	}
}
