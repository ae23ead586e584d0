package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestInitDirWritesDefaultConfig(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("InitDir returned error: %v", err)
	}
	for _, sub := range []string{"logs", "data"} {
		if info, err := os.Stat(filepath.Join(projectDir, Dir, sub)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s directory, err=%v", sub, err)
		}
	}
	data, err := os.ReadFile(filepath.Join(projectDir, Dir, "config.yaml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), "base_url: http://127.0.0.1:8000") {
		t.Fatalf("default config missing base_url:\n%s", data)
	}

	// A second init must not clobber user edits.
	custom := []byte("api:\n  base_url: http://example.test\n")
	if err := os.WriteFile(filepath.Join(projectDir, Dir, "config.yaml"), custom, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("second InitDir: %v", err)
	}
	data, _ = os.ReadFile(filepath.Join(projectDir, Dir, "config.yaml"))
	if string(data) != string(custom) {
		t.Fatalf("InitDir overwrote existing config")
	}
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	cfg, err := Load(projectDir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.API.BaseURL != DefaultAPIBase {
		t.Fatalf("expected default base url, got %q", cfg.API.BaseURL)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("expected info level, got %q", cfg.Log.Level)
	}
	if cfg.Server.Port != 8000 || cfg.Server.ReadTimeout != 15*time.Second {
		t.Fatalf("unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.Server.Storage.Driver != StorageJSON {
		t.Fatalf("expected json storage, got %q", cfg.Server.Storage.Driver)
	}
	want := filepath.Join(projectDir, Dir, "data", "actions.json")
	if got := cfg.StoragePath(); got != want {
		t.Fatalf("StoragePath = %s, want %s", got, want)
	}
	if got := cfg.LogFile(); got != filepath.Join(projectDir, Dir, "logs", "ecotrack.log") {
		t.Fatalf("LogFile = %s", got)
	}
}

func TestLoadParsesYamlAndEnvWins(t *testing.T) {
	projectDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(projectDir, Dir), 0o755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
api:
  base_url: http://yaml.test:9000/
log:
  level: DEBUG
server:
  port: 9100
  storage:
    driver: sqlite
`)
	if err := os.WriteFile(filepath.Join(projectDir, Dir, "config.yaml"), []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(projectDir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.API.BaseURL != "http://yaml.test:9000" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.API.BaseURL)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected level normalized to debug, got %q", cfg.Log.Level)
	}
	if cfg.Server.Port != 9100 {
		t.Fatalf("expected port 9100, got %d", cfg.Server.Port)
	}
	if !strings.HasSuffix(cfg.StoragePath(), "actions.db") {
		t.Fatalf("expected sqlite default path, got %s", cfg.StoragePath())
	}

	t.Setenv(EnvAPIBase, "https://env.test")
	cfg, err = Load(projectDir)
	if err != nil {
		t.Fatalf("Load with env returned error: %v", err)
	}
	if cfg.API.BaseURL != "https://env.test" {
		t.Fatalf("expected env to override yaml, got %q", cfg.API.BaseURL)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"ECOTRACK_API_BASE":       "not a url",
		"ECOTRACK_LOG_LEVEL":      "loud",
		"ECOTRACK_STORAGE_DRIVER": "postgres",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(t.TempDir()); err == nil {
				t.Fatalf("expected validation error for %s=%s", key, value)
			}
		})
	}
}

func TestLoadExplicitConfigMustExist(t *testing.T) {
	t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestSetAPIBasePersists(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitDir(projectDir); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.SetAPIBase("ftp://nope"); err == nil {
		t.Fatalf("expected non-http base url to be rejected")
	}
	if err := cfg.SetAPIBase("http://10.0.0.5:8000/"); err != nil {
		t.Fatalf("SetAPIBase: %v", err)
	}
	reloaded, err := Load(projectDir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.API.BaseURL != "http://10.0.0.5:8000" {
		t.Fatalf("expected persisted base url, got %q", reloaded.API.BaseURL)
	}
	if reloaded.Server.ReadTimeout != 15*time.Second {
		t.Fatalf("durations must survive a save, got %s", reloaded.Server.ReadTimeout)
	}
}

func TestSetAPIBaseKeepsEnvOverridesOutOfFile(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitDir(projectDir); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ECOTRACK_SERVER_PORT", "9100")
	t.Setenv("ECOTRACK_LOG_LEVEL", "debug")
	cfg, err := Load(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9100 {
		t.Fatalf("env override not applied, port = %d", cfg.Server.Port)
	}
	if err := cfg.SetAPIBase("http://10.0.0.5:8000/"); err != nil {
		t.Fatalf("SetAPIBase: %v", err)
	}
	if cfg.API.BaseURL != "http://10.0.0.5:8000" {
		t.Fatalf("in-memory base url = %q", cfg.API.BaseURL)
	}

	data, err := os.ReadFile(cfg.FilePath())
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, leaked := range []string{"9100", "debug"} {
		if strings.Contains(text, leaked) {
			t.Fatalf("env value %q written to config.yaml:\n%s", leaked, text)
		}
	}
	if !strings.Contains(text, "# ecotrack configuration") {
		t.Fatalf("comments should survive the edit:\n%s", text)
	}

	os.Unsetenv("ECOTRACK_SERVER_PORT")
	os.Unsetenv("ECOTRACK_LOG_LEVEL")
	reloaded, err := Load(projectDir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.API.BaseURL != "http://10.0.0.5:8000" {
		t.Fatalf("expected persisted base url, got %q", reloaded.API.BaseURL)
	}
	if reloaded.Server.Port != 8000 || reloaded.Log.Level != "info" {
		t.Fatalf("file values changed: port=%d level=%s", reloaded.Server.Port, reloaded.Log.Level)
	}
}

func TestSetAPIBaseWithoutConfigFile(t *testing.T) {
	cfg := &Config{ProjectDir: t.TempDir()}
	if err := cfg.SetAPIBase("https://api.example.test"); err != nil {
		t.Fatalf("SetAPIBase: %v", err)
	}
	reloaded, err := Load(cfg.ProjectDir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.API.BaseURL != "https://api.example.test" {
		t.Fatalf("got %q", reloaded.API.BaseURL)
	}
}
