package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
		"server": {"port": 8080, "log_level": "debug"},
		"providers": [
			{"id": "openai", "type": "openai", "name": "OpenAI", "api_key": "sk-test"}
		],
		"database": {
			"postgres": {"dsn": "postgres://localhost/storyloom"},
			"neo4j": {"uri": "bolt://localhost:7687", "user": "neo4j", "password": "pw"},
			"redis": {"url": "redis://localhost:6379"}
		},
		"assembly": {"token_ceiling": 500000, "output_reserve": 4000}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Server.LogLevel != "debug" {
		t.Errorf("server config = %+v", cfg.Server)
	}
	if len(cfg.Providers) != 1 || cfg.Providers[0].ID != "openai" {
		t.Errorf("providers = %+v", cfg.Providers)
	}
	if cfg.Database.Postgres.DSN != "postgres://localhost/storyloom" {
		t.Errorf("postgres dsn = %q", cfg.Database.Postgres.DSN)
	}
	if cfg.Assembly.TokenCeiling != 500000 || cfg.Assembly.OutputReserve != 4000 {
		t.Errorf("assembly config = %+v", cfg.Assembly)
	}
}

func TestLoadEnvSubstitution(t *testing.T) {
	t.Setenv("STORYLOOM_API_KEY", "sk-from-env")
	path := writeConfig(t, `{
		"server": {"port": ${STORYLOOM_PORT:9090}},
		"providers": [{"id": "p", "api_key": "${STORYLOOM_API_KEY}"}]
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Providers[0].APIKey != "sk-from-env" {
		t.Errorf("api key = %q, want env value", cfg.Providers[0].APIKey)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want default 9090", cfg.Server.Port)
	}
}

func TestLoadEnvDefaultOverridden(t *testing.T) {
	t.Setenv("STORYLOOM_PORT", "3000")
	path := writeConfig(t, `{"server": {"port": ${STORYLOOM_PORT:9090}}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want env override 3000", cfg.Server.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := writeConfig(t, `{not json`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
