package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Survey     Survey     `yaml:"survey"`
	Clustering Clustering `yaml:"clustering"`
	Output     Output     `yaml:"output"`
	Server     Server     `yaml:"server"`
}

// Survey describes the expected columns of the input dataset.
type Survey struct {
	IDColumn       string   `yaml:"id_column"`
	NumericColumns []string `yaml:"numeric_columns"`
	OrdinalColumn  string   `yaml:"ordinal_column"`
	OrdinalLevels  []string `yaml:"ordinal_levels"` // lowest rank first
	NominalColumns []string `yaml:"nominal_columns"`
}

// Clustering holds the k-means parameters.
type Clustering struct {
	K        int   `yaml:"k"`
	KMax     int   `yaml:"k_max"`
	Seed     int64 `yaml:"seed"`
	Restarts int   `yaml:"restarts"`
	MaxIter  int   `yaml:"max_iter"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

// ConfigDir returns the XDG config directory for personacluster.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "personacluster")
}

// DataDir returns the XDG data directory for personacluster.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "personacluster")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/personacluster/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'personacluster init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Survey: Survey{
			IDColumn:       "StudentID",
			NumericColumns: []string{"StudyHoursPerDay", "TechSkill", "Motivation", "Age"},
			OrdinalColumn:  "Internet",
			OrdinalLevels:  []string{"Slow", "Average", "Fast"},
			NominalColumns: []string{"Device", "Location", "OnlineClassPreference", "DataAccess"},
		},
		Clustering: Clustering{
			K:        4,
			KMax:     10,
			Seed:     42,
			Restarts: 10,
			MaxIter:  300,
		},
		Server: Server{Port: 8000},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Survey.IDColumn == "" {
		return fmt.Errorf("survey.id_column must not be empty")
	}
	if len(c.Survey.NumericColumns) == 0 {
		return fmt.Errorf("survey.numeric_columns must not be empty")
	}
	if c.Survey.OrdinalColumn != "" && len(c.Survey.OrdinalLevels) == 0 {
		return fmt.Errorf("survey.ordinal_levels must be set when ordinal_column is set")
	}
	if c.Clustering.K < 1 {
		return fmt.Errorf("clustering.k must be >= 1, got %d", c.Clustering.K)
	}
	if c.Clustering.KMax < c.Clustering.K {
		return fmt.Errorf("clustering.k_max (%d) must be >= clustering.k (%d)", c.Clustering.KMax, c.Clustering.K)
	}
	if c.Clustering.Restarts < 1 {
		return fmt.Errorf("clustering.restarts must be >= 1, got %d", c.Clustering.Restarts)
	}
	if c.Clustering.MaxIter < 1 {
		return fmt.Errorf("clustering.max_iter must be >= 1, got %d", c.Clustering.MaxIter)
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
