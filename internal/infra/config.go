package infra

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application settings. Sensitive values can be overridden
// through environment variables after loading.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr      string `yaml:"addr"`
		PprofAddr string `yaml:"pprof_addr"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Exchange struct {
		AdminUsername string `yaml:"admin_username"`
		AdminToken    string `yaml:"admin_token"`
		DepthCap      int    `yaml:"depth_cap"`      // max orderbook levels per side
		TradeLimitCap int    `yaml:"trade_limit_cap"` // max rows for trade history queries
	} `yaml:"exchange"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file, then applies
// environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Exchange.DepthCap <= 0 {
		return fmt.Errorf("depth cap must be positive")
	}
	if c.Exchange.TradeLimitCap <= 0 {
		return fmt.Errorf("trade limit cap must be positive")
	}
	if c.Exchange.AdminUsername == "" {
		return fmt.Errorf("admin username is required")
	}
	return nil
}

// overrideWithEnv replaces config values when environment variables are set.
func overrideWithEnv(cfg *Config) {
	if addr := os.Getenv("EXCHANGE_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if path := os.Getenv("EXCHANGE_DB_PATH"); path != "" {
		cfg.Database.Path = path
	}
	if token := os.Getenv("EXCHANGE_ADMIN_TOKEN"); token != "" {
		cfg.Exchange.AdminToken = token
	}
}
