package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from the YAML file. Unknown
// keys are rejected so that typos in threshold names do not silently
// disable a check.
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseYAML(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", y.filename, err)
	}

	y.config = config
	return config, nil
}

// ParseYAML decodes a YAML document into ConfigData.
func ParseYAML(data []byte) (*ConfigData, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	config := &ConfigData{}
	if err := dec.Decode(config); err != nil {
		return nil, err
	}
	return config, nil
}

// MarshalYAML encodes ConfigData the way LoadConfig reads it.
func MarshalYAML(c *ConfigData) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (y *YAMLProvider) loaded() (*ConfigData, error) {
	if y.config != nil {
		return y.config, nil
	}
	return y.LoadConfig()
}

// GetSimulation returns the simulation settings
func (y *YAMLProvider) GetSimulation() (*SimulationData, error) {
	config, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return &config.Simulation, nil
}

// GetBeds returns the bed configurations
func (y *YAMLProvider) GetBeds() ([]BedData, error) {
	config, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return config.Beds, nil
}

// GetSpecies returns the species reference data
func (y *YAMLProvider) GetSpecies() ([]SpeciesData, error) {
	config, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return config.Species, nil
}

// GetStorageConfig returns storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	config, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return &config.Storage, nil
}

// IsReadOnly returns true since YAML files are read-only in this implementation
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
