package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"linkdedup/internal/hash"
)

// ErrInvalidConfig marks a misconfiguration that must abort the batch:
// continuing with an unrecognized hash function would silently produce
// wrong fingerprints.
var ErrInvalidConfig = errors.New("invalid configuration")

// Settings are the recognized options, normally supplied from a YAML
// file with CLI flags layered on top.
type Settings struct {
	HashFunction       string `yaml:"hashFunction"`
	MaxHammingDistance int    `yaml:"maxHammingDistance"`
	PartitionByDomain  bool   `yaml:"partitionByDomain"`
	DeduplicateThumbs  bool   `yaml:"deduplicateThumbs"`
	ShowHashValues     bool   `yaml:"showHashValues"`
	Workers            int    `yaml:"workers"`
}

// Default returns the settings used when no config file is given.
func Default() *Settings {
	return &Settings{
		HashFunction:       string(hash.DCTHash),
		MaxHammingDistance: 4,
		DeduplicateThumbs:  true,
		Workers:            8,
	}
}

// Load reads settings from a YAML file and validates them.
func Load(filePath string) (*Settings, error) {
	bin, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	s := Default()
	if err = yaml.Unmarshal(bin, s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err = s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks option values. Fail-fast: these are config errors,
// not runtime conditions.
func (s *Settings) Validate() error {
	if _, err := hash.ParseKind(s.HashFunction); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if s.MaxHammingDistance < 0 || s.MaxHammingDistance > 64 {
		return fmt.Errorf("%w: maxHammingDistance %d out of range [0, 64]",
			ErrInvalidConfig, s.MaxHammingDistance)
	}
	if s.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, s.Workers)
	}
	return nil
}

// Kind returns the validated hash algorithm.
func (s *Settings) Kind() hash.Kind {
	kind, err := hash.ParseKind(s.HashFunction)
	if err != nil {
		panic(err) // Validate was skipped
	}
	return kind
}
