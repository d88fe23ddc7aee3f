// Package config loads generator settings from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and maps the config file at path. Unknown keys are rejected.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &Error{
			Op:   "config.load",
			Path: path,
			Err:  fmt.Errorf("%w: %w", ErrNotFound, err),
		}
	}

	dto, err := decode(b)
	if err != nil {
		return Config{}, &Error{
			Op:   "config.load",
			Path: path,
			Err:  fmt.Errorf("%w: %w", ErrInvalidConfig, err),
		}
	}

	return Map(path, dto)
}

func decode(b []byte) (YAMLConfig, error) {
	var dto YAMLConfig
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	// An empty file decodes to EOF; it means "all defaults".
	if err := dec.Decode(&dto); err != nil && !errors.Is(err, io.EOF) {
		return YAMLConfig{}, err
	}
	return dto, nil
}
