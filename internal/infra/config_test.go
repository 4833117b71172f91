package infra

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
app:
  name: "ExchangeGo"
  version: "test"
server:
  addr: ":0"
database:
  path: "data/test.db"
exchange:
  admin_username: "admin"
  depth_cap: 25
  trade_limit_cap: 100
logging:
  level: "debug"
  dir: "tmp-logs"
  file: "test.log"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Addr != ":0" || cfg.Exchange.DepthCap != 25 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Dir != "tmp-logs" || cfg.Logging.File != "test.log" {
		t.Errorf("unexpected log destination: %s/%s", cfg.Logging.Dir, cfg.Logging.File)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("EXCHANGE_ADMIN_TOKEN", "env-token")
	t.Setenv("EXCHANGE_ADDR", ":9999")

	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Exchange.AdminToken != "env-token" {
		t.Errorf("expected env token override, got %q", cfg.Exchange.AdminToken)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("expected env addr override, got %q", cfg.Server.Addr)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing addr", `
database:
  path: "x.db"
exchange:
  admin_username: "admin"
  depth_cap: 25
  trade_limit_cap: 100
`},
		{"zero depth cap", `
server:
  addr: ":0"
database:
  path: "x.db"
exchange:
  admin_username: "admin"
  depth_cap: 0
  trade_limit_cap: 100
`},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, c.content)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
