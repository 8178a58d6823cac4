package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hamed0406/portwatch/internal/domain"
)

// TargetsFile is the on-disk shape of the target list:
//
//	servers:
//	  - uri: tcp://db.internal:5432
//	  - uri: tcp://cache.internal:6379
type TargetsFile struct {
	Servers []domain.RawTarget `yaml:"servers"`
}

// ParseTargets decodes a target file. Bad YAML is an error; a bad URI inside
// valid YAML is not, it is dropped later when the registry parses it.
func ParseTargets(data []byte) ([]domain.RawTarget, error) {
	var f TargetsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse targets: %w", err)
	}
	if f.Servers == nil {
		return []domain.RawTarget{}, nil
	}
	return f.Servers, nil
}

// LoadTargets reads and decodes the target file at path.
func LoadTargets(path string) ([]domain.RawTarget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	return ParseTargets(data)
}
