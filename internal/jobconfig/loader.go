package jobconfig

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Load reads a job configuration from a YAML or JSON file and validates it.
// JSON files parse through the YAML decoder, so the original job_config.json
// format keeps working.
func Load(path string) (*JobConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job config %q: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes and validates a job configuration document.
func Parse(data []byte) (*JobConfig, error) {
	var cfg JobConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// FromMap decodes a job configuration delivered as a generic JSON-shaped map,
// e.g. inline in an API request body, and validates it.
func FromMap(m map[string]any) (*JobConfig, error) {
	var cfg JobConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &cfg,
		TagName: "json",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, err)
	}
	if err := decoder.Decode(m); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
