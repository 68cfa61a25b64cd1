package config

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port    int      `yaml:"port"`
		APIKeys []string `yaml:"apiKeys"`

		// Rate limiting is active when RateLimitBurst > 0.
		RateLimitBurst  int `yaml:"rateLimitBurst"`
		RateLimitRefill int `yaml:"rateLimitRefill"`
	} `yaml:"server"`

	Engines struct {
		Slither        string `yaml:"slither"`
		Mythril        string `yaml:"mythril"`
		Echidna        string `yaml:"echidna"`
		Maian          string `yaml:"maian"`
		SmartCheck     string `yaml:"smartcheck"`
		Manticore      string `yaml:"manticore"`
		Python         string `yaml:"python"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
	} `yaml:"engines"`

	Store struct {
		Capacity int `yaml:"capacity"`
	} `yaml:"store"`
}

// Load reads the yaml config file. A missing file is not an error — the MCP
// binary is usually launched by an agent without any config — it just means
// every default applies.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg.applyDefaults()
			return &cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.RateLimitBurst > 0 && c.Server.RateLimitRefill == 0 {
		c.Server.RateLimitRefill = 1
	}
	if c.Engines.Slither == "" {
		c.Engines.Slither = "slither"
	}
	if c.Engines.Mythril == "" {
		c.Engines.Mythril = "myth"
	}
	if c.Engines.Echidna == "" {
		c.Engines.Echidna = "echidna"
	}
	if c.Engines.Maian == "" {
		c.Engines.Maian = "maian.py"
	}
	if c.Engines.SmartCheck == "" {
		c.Engines.SmartCheck = "smartcheck"
	}
	if c.Engines.Manticore == "" {
		c.Engines.Manticore = "manticore"
	}
	if c.Engines.Python == "" {
		c.Engines.Python = "python3"
	}
	if c.Engines.TimeoutSeconds == 0 {
		c.Engines.TimeoutSeconds = 120
	}
	if c.Store.Capacity == 0 {
		c.Store.Capacity = 1000
	}
}
