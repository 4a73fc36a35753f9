package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrUnknownKeys is returned when the configuration file contains keys
// that do not map to any field.
var ErrUnknownKeys = errors.New("config: unknown keys")

// LoadFile reads the benchmark configuration from a TOML file.
// The fields missing from the file keep their default value.
// The returned configuration is not validated.
func LoadFile(path string) (*Bench, error) {
	cfg := NewBench()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("%w in %s: %s", ErrUnknownKeys, path, strings.Join(keys, ", "))
	}

	return cfg, nil
}
