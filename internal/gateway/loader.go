package gateway

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads, parses and validates a configuration document. Any
// failure here must abort startup; on reload the caller keeps the previous
// snapshot instead.
func LoadFile(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return Validate(doc)
}
