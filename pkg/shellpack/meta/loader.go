package meta

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/easeway/langx.go/mapper"
)

// LoadMetadataFromDir loads MetadataFile from the specified directory.
func LoadMetadataFromDir(dir string) (*Metadata, error) {
	return LoadMetadataFile(filepath.Join(dir, MetadataFile))
}

// LoadMetadataFile loads Metadata from the specified file.
func LoadMetadataFile(fn string) (*Metadata, error) {
	var md Metadata
	if err := loadAs(fn, &md); err != nil {
		return nil, err
	}
	return &md, nil
}

// LoadConfigFromDir loads ConfigFile from the specified directory.
// A missing file is not an error, the defaults are returned.
func LoadConfigFromDir(dir string) (*Config, error) {
	fn := filepath.Join(dir, ConfigFile)
	if _, err := os.Stat(fn); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return LoadConfigFile(fn)
}

// LoadConfigFile loads Config from the specified file and fills defaults
// for absent fields.
func LoadConfigFile(fn string) (*Config, error) {
	var conf Config
	if err := loadAs(fn, &conf); err != nil {
		return nil, err
	}
	conf.fillDefaults()
	return &conf, nil
}

func loadAs(fn string, out interface{}) error {
	ld := mapper.Loader{Decoder: &decoder{}}
	if err := ld.LoadFile(fn); err != nil {
		return fmt.Errorf("load %s error: %w", fn, err)
	}
	m := mapper.Mapper{FieldTags: []string{"json", "map"}}
	if err := m.Map(out, ld.Map); err != nil {
		return fmt.Errorf("parse %s error: %w", fn, err)
	}
	return nil
}

// decoder decodes JSON or YAML content into a map.
// mapper.JSONDecoder can't be used: it unmarshals into a non-pointer map.
type decoder struct {
}

// Decode implements mapper.Decoder.
func (d *decoder) Decode(content []byte) (interface{}, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(content), []byte{'{'}) {
		return (&mapper.YAMLDecoder{}).Decode(content)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(content, &out); err != nil {
		return nil, err
	}
	return out, nil
}
