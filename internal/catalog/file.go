package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileProvider loads the tool catalog from a local YAML file.
// The file holds a list of entries under a top-level "tools" key.
type FileProvider struct {
	path string
}

// NewFileProvider creates a catalog provider reading from the given path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// ListTools reads and parses the catalog file.
func (p *FileProvider) ListTools(_ context.Context) ([]Entry, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", p.path, err)
	}

	var doc struct {
		Tools []Entry `yaml:"tools"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", p.path, err)
	}
	return doc.Tools, nil
}
