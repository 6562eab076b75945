package platform

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultFile is the production platform table shipped with the binary.
//
//go:embed platform.yaml
var defaultFile []byte

// Loader reads the platform file. An empty path selects the embedded table.
type Loader struct {
	filePath string
}

// NewLoader creates a new platform loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Source names where the data is read from, for logs.
func (l *Loader) Source() string {
	if l.filePath == "" {
		return "embedded"
	}
	return l.filePath
}

// Load reads and parses the platform file
func (l *Loader) Load() (*File, error) {
	data := defaultFile
	if l.filePath != "" {
		raw, err := os.ReadFile(l.filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read platform file: %w", err)
		}
		data = raw
	}

	return Parse(data)
}

// Parse decodes a platform document. Unknown keys are rejected so a typo in
// the table never silently drops a domain or a site.
func Parse(data []byte) (*File, error) {
	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("platform file is empty")
		}
		return nil, fmt.Errorf("failed to parse platform yaml: %w", err)
	}
	return &file, nil
}
