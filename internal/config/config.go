// internal/config/config.go
//
// This package handles configuration and the .ecotrack directory structure.
// Every project that runs ecotrack gets a .ecotrack/ folder in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

const (
	// Dir is the name of the directory we create in each project
	Dir = ".ecotrack"

	// DefaultAPIBase is used when neither the config file nor ECOTRACK_API_BASE sets one.
	DefaultAPIBase = "http://127.0.0.1:8000"

	// EnvAPIBase selects the API base URL.
	EnvAPIBase = "ECOTRACK_API_BASE"
	// EnvConfigPath points at an alternate config file.
	EnvConfigPath = "ECOTRACK_CONFIG"

	StorageJSON   = "json"
	StorageSQLite = "sqlite"
)

const defaultConfigYAML = `# ecotrack configuration
# Environment variables take precedence over values in this file.

api:
  # REST base URL; overridden by ECOTRACK_API_BASE.
  base_url: http://127.0.0.1:8000

log:
  level: info
  file: logs/ecotrack.log

# Settings for "ecotrack serve", the bundled reference server.
server:
  host: 127.0.0.1
  port: 8000
  storage:
    # json keeps every action in one file; sqlite uses an embedded database.
    driver: json
`

// APIConfig selects the REST endpoint the client talks to.
type APIConfig struct {
	BaseURL string `yaml:"base_url" env:"ECOTRACK_API_BASE" env-default:"http://127.0.0.1:8000"`
}

// LogConfig controls the structured log file.
type LogConfig struct {
	Level      string `yaml:"level"        env:"ECOTRACK_LOG_LEVEL"    env-default:"info"`
	File       string `yaml:"file"         env:"ECOTRACK_LOG_FILE"     env-default:"logs/ecotrack.log"`
	MaxSizeMB  int    `yaml:"max_size_mb"  env:"ECOTRACK_LOG_MAX_SIZE" env-default:"10"`
	MaxBackups int    `yaml:"max_backups"  env:"ECOTRACK_LOG_BACKUPS"  env-default:"3"`
	MaxAgeDays int    `yaml:"max_age_days" env:"ECOTRACK_LOG_MAX_AGE"  env-default:"7"`
	Compress   bool   `yaml:"compress"     env:"ECOTRACK_LOG_COMPRESS"`
}

// StorageConfig picks the reference server's persistence backend.
type StorageConfig struct {
	Driver string `yaml:"driver" env:"ECOTRACK_STORAGE_DRIVER" env-default:"json"`
	Path   string `yaml:"path"   env:"ECOTRACK_STORAGE_PATH"`
}

// ServerConfig holds settings for the reference REST server.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"ECOTRACK_SERVER_HOST"             env-default:"127.0.0.1"`
	Port            int           `yaml:"port"             env:"ECOTRACK_SERVER_PORT"             env-default:"8000"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"   env:"ECOTRACK_SERVER_MAX_BODY_BYTES"   env-default:"1048576"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"ECOTRACK_SERVER_READ_TIMEOUT"     env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"ECOTRACK_SERVER_WRITE_TIMEOUT"    env-default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"ECOTRACK_SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"ECOTRACK_SERVER_SHUTDOWN_TIMEOUT" env-default:"5s"`
	Storage         StorageConfig `yaml:"storage"`
}

// Config holds the runtime configuration for ecotrack.
type Config struct {
	// ProjectDir is the directory ecotrack was started from
	ProjectDir string `yaml:"-" env:"-"`

	API    APIConfig    `yaml:"api"`
	Log    LogConfig    `yaml:"log"`
	Server ServerConfig `yaml:"server"`
}

// InitDir creates the .ecotrack directory structure in the given project directory.
//
// Structure created:
// .ecotrack/
// ├── config.yaml
// ├── logs/   <- structured log and activity journal
// └── data/   <- reference server storage
func InitDir(projectDir string) error {
	root := filepath.Join(projectDir, Dir)
	for _, dir := range []string{
		filepath.Join(root, "logs"),
		filepath.Join(root, "data"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureConfigFile(filepath.Join(root, "config.yaml"))
}

// Load reads configuration for projectDir.
// Priority: ENV > YAML > defaults (via env-default tags).
// The YAML file is ECOTRACK_CONFIG when set, otherwise .ecotrack/config.yaml.
// A missing default file is not an error; an explicit one is.
func Load(projectDir string) (*Config, error) {
	cfg := &Config{ProjectDir: projectDir}

	path := os.Getenv(EnvConfigPath)
	explicit := path != ""
	if !explicit {
		path = cfg.FilePath()
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

// Root returns ProjectDir/.ecotrack.
func (c *Config) Root() string {
	return filepath.Join(c.ProjectDir, Dir)
}

// FilePath returns the on-disk location of config.yaml.
func (c *Config) FilePath() string {
	return filepath.Join(c.Root(), "config.yaml")
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.Root(), "logs")
}

// JournalPath returns the activity journal shown in the TUI.
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "journal.log")
}

// LogFile returns the absolute path of the structured log.
func (c *Config) LogFile() string {
	return resolvePath(c.Root(), c.Log.File)
}

// StoragePath returns the absolute path of the server's data file, falling
// back to a per-driver default under .ecotrack/data.
func (c *Config) StoragePath() string {
	if p := resolvePath(c.Root(), c.Server.Storage.Path); p != "" {
		return p
	}
	name := "actions.json"
	if c.Server.Storage.Driver == StorageSQLite {
		name = "actions.db"
	}
	return filepath.Join(c.Root(), "data", name)
}

// SetAPIBase updates the base URL and persists it to config.yaml.
func (c *Config) SetAPIBase(raw string) error {
	raw = strings.TrimSpace(raw)
	if err := validateBaseURL(raw); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	base := strings.TrimRight(raw, "/")
	if err := c.saveKey(base, "api", "base_url"); err != nil {
		return err
	}
	c.API.BaseURL = base
	return nil
}

func (c *Config) normalize() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIBase
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Server.Host = strings.TrimSpace(c.Server.Host)
	c.Server.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Server.Storage.Driver))
}

// Validate performs rule checks on the loaded configuration.
func (c *Config) Validate() error {
	if err := validateBaseURL(c.API.BaseURL); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error (got %q)", c.Log.Level)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range (got %d)", c.Server.Port)
	}
	switch c.Server.Storage.Driver {
	case StorageJSON, StorageSQLite:
	default:
		return fmt.Errorf("server.storage.driver must be %q or %q (got %q)", StorageJSON, StorageSQLite, c.Server.Storage.Driver)
	}
	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute http(s) URL (got %q)", raw)
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// saveKey sets one scalar in config.yaml and leaves every other key and
// comment as written. Values resolved from the environment are not persisted.
func (c *Config) saveKey(value string, path ...string) error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	if err := os.MkdirAll(c.Root(), 0o755); err != nil {
		return fmt.Errorf("config: ensure dir: %w", err)
	}
	var doc yaml.Node
	data, err := os.ReadFile(c.FilePath())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("config: parse config: %w", err)
	}
	if doc.Kind == 0 {
		doc.Kind = yaml.DocumentNode
	}
	if len(doc.Content) == 0 {
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}
	node := doc.Content[0]
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("config: %s is not a mapping", c.FilePath())
	}
	for _, key := range path[:len(path)-1] {
		node = mappingChild(node, key, yaml.MappingNode)
	}
	leaf := mappingChild(node, path[len(path)-1], yaml.ScalarNode)
	leaf.Kind, leaf.Tag, leaf.Value, leaf.Content = yaml.ScalarNode, "!!str", value, nil

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.FilePath(), out, 0o644); err != nil {
		return fmt.Errorf("config: write config: %w", err)
	}
	return nil
}

// mappingChild returns the value node for key, appending an empty one of
// kind when the key is missing or holds something else.
func mappingChild(m *yaml.Node, key string, kind yaml.Kind) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value != key {
			continue
		}
		v := m.Content[i+1]
		if v.Kind != kind {
			*v = yaml.Node{Kind: kind}
			if kind == yaml.MappingNode {
				v.Tag = "!!map"
			}
		}
		return v
	}
	v := &yaml.Node{Kind: kind}
	if kind == yaml.MappingNode {
		v.Tag = "!!map"
	}
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, v)
	return v
}
