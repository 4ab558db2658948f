package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"agentforge/internal/region"
	"agentforge/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir   = ".config/agentforge"
	configFileName  = "config.yaml"
	regionsFileName = "regions.yaml"
)

// MCPTransport selects how the MCP server is exposed.
type MCPTransport string

const (
	MCPTransportStdio          MCPTransport = "stdio"
	MCPTransportStreamableHTTP MCPTransport = "streamable-http"
)

// OrchestratorConfig holds the extraction orchestrator settings.
type OrchestratorConfig struct {
	// GlobalConcurrency bounds in-flight extractions across all regions.
	GlobalConcurrency int64 `yaml:"globalConcurrency"`

	// MaxRetries is the default per-URL retry allowance.
	MaxRetries int `yaml:"maxRetries"`

	// RequestsPerSecond paces outbound extraction calls; zero disables.
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`

	// ExtractionTimeoutSeconds bounds one extraction call.
	ExtractionTimeoutSeconds int `yaml:"extractionTimeoutSeconds"`

	// SteelAPIKey authenticates the premium automation path.
	SteelAPIKey string `yaml:"steelApiKey"`
}

// MCPConfig holds the MCP server settings.
type MCPConfig struct {
	Transport MCPTransport `yaml:"transport"`
	Host      string       `yaml:"host"`
	Port      int          `yaml:"port"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Config is the top-level agentforge configuration.
type Config struct {
	Orchestrator OrchestratorConfig  `yaml:"orchestrator"`
	MCP          MCPConfig           `yaml:"mcp"`
	Logging      LoggingConfig       `yaml:"logging"`
	Regions      []region.Definition `yaml:"-"`
}

// regionsFile is the shape of regions.yaml.
type regionsFile struct {
	Regions []region.Definition `yaml:"regions"`
}

// GetDefaultConfigPathOrPanic returns ~/.config/agentforge.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}
	return filepath.Join(homeDir, userConfigDir)
}

// Default returns the built-in configuration, including the default region
// fleet.
func Default() Config {
	return Config{
		Orchestrator: OrchestratorConfig{
			GlobalConcurrency:        15,
			MaxRetries:               3,
			RequestsPerSecond:        0,
			ExtractionTimeoutSeconds: 120,
		},
		MCP: MCPConfig{
			Transport: MCPTransportStreamableHTTP,
			Host:      "localhost",
			Port:      8090,
		},
		Logging: LoggingConfig{Level: "info"},
		Regions: region.DefaultDefinitions(),
	}
}

// LoadConfig loads configuration from the specified directory. The
// directory may contain config.yaml and regions.yaml; missing files fall
// back to the built-in defaults, malformed files are errors.
func LoadConfig(configPath string) (Config, error) {
	config := Default()

	configFilePath := filepath.Join(configPath, configFileName)
	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		return Config{}, err
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	regions, err := LoadRegions(configPath)
	if err != nil {
		return Config{}, err
	}
	config.Regions = regions
	return config, nil
}

// LoadRegions loads the region definitions from regions.yaml in the given
// directory, falling back to the built-in fleet when the file is absent.
func LoadRegions(configPath string) ([]region.Definition, error) {
	regionsPath := filepath.Join(configPath, regionsFileName)
	data, err := os.ReadFile(regionsPath)
	if errors.Is(err, os.ErrNotExist) {
		logging.Info("ConfigLoader", "No regions.yaml found at %s, using default region fleet", regionsPath)
		return region.DefaultDefinitions(), nil
	}
	if err != nil {
		return nil, err
	}

	var file regionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error loading regions from %s: %w", regionsPath, err)
	}
	if len(file.Regions) == 0 {
		return nil, fmt.Errorf("regions file %s defines no regions", regionsPath)
	}
	for _, def := range file.Regions {
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("invalid region in %s: %w", regionsPath, err)
		}
	}
	logging.Info("ConfigLoader", "Loaded %d regions from %s", len(file.Regions), regionsPath)
	return file.Regions, nil
}
