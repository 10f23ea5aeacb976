package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// upstreamsFile matches the structure of an optional CONFIG_FILE: a
// declarative list of additional upstream adapters, layered on top of
// the two built-in ones. Grounded on the pack's LoadSecretConfig
// fail-fast-on-missing-file shape.
type upstreamsFile struct {
	Upstreams []UpstreamConfig `yaml:"upstreams"`
}

func loadUpstreamsFile(path string) ([]UpstreamConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read upstreams file: %w", err)
	}

	var parsed upstreamsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse upstreams file: %w", err)
	}

	return parsed.Upstreams, nil
}
