package meta

const (
	// MetadataFile is the project metadata filename at the project root.
	MetadataFile = "package.json"
)

// Metadata is the schema of MetadataFile.
// Only the fields used for packaging are decoded, the rest of the document
// is opaque.
type Metadata struct {
	// Name of the application package.
	Name string `json:"name,omitempty"`
	// ProductName is the human-readable application name.
	ProductName string `json:"productName,omitempty"`
	// Version is the authoritative version identifier of the release.
	Version string `json:"version"`
}
