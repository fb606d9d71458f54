package routing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// tableFile is the on-disk shape of a route table.
type tableFile struct {
	Routes []Route `yaml:"routes" toml:"routes"`
}

// LoadTable reads a route table from a YAML (.yaml, .yml) or TOML (.toml)
// file. Route order in the file is registration order.
func LoadTable(path string, opts ...TableOption) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read route table: %w", err)
	}
	return ParseTable(data, filepath.Ext(path), opts...)
}

// ParseTable decodes a route table; format is a file extension.
func ParseTable(data []byte, format string, opts ...TableOption) (*Table, error) {
	var file tableFile
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse route table: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse route table: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported route table format %q", format)
	}
	return NewTable(file.Routes, opts...)
}
