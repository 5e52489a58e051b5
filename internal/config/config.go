// internal/config/config.go
//
// This package handles configuration and the .opsdeck directory structure.
// Every project that runs the dashboard gets a .opsdeck/ folder created in
// its root for config, logs, the session journal, and policy plugins.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/opsdeck/internal/entity"
)

const (
	// OpsdeckDir is the name of the directory we create in each project
	OpsdeckDir = ".opsdeck"

	defaultBoardID        = "leads"
	defaultRefreshSeconds = 30
	defaultAPIBaseURL     = "http://localhost:8787"
)

const defaultProjectConfigYAML = `# opsdeck project configuration
version: 1

api:
  # Base URL of the persistence API. OPSDECK_API_URL overrides this value.
  base_url: http://localhost:8787
  # Bearer token sent with every request. Leave empty for the demo server.
  token: ""
  # Request timeout in seconds.
  timeout_seconds: 10

# Team members that boards can assign records to.
team:
  - id: mvasquez
    name: Maria Vasquez
  - id: dcole
    name: Darnell Cole

boards:
  default: leads
  # Seconds between automatic list refreshes. 0 disables the refresh tick.
  refresh_seconds: 30
`

// APIConfig holds the persistence API connection settings.
type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	Token          string `yaml:"token,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
}

// BoardConfig captures board preferences.
type BoardConfig struct {
	Default        string `yaml:"default"`
	RefreshSeconds int    `yaml:"refresh_seconds"`
}

// ProjectConfig models .opsdeck/config.yaml.
type ProjectConfig struct {
	Version int                 `yaml:"version"`
	API     APIConfig           `yaml:"api"`
	Team    []entity.TeamMember `yaml:"team"`
	Boards  BoardConfig         `yaml:"boards"`
}

// Config holds the runtime configuration for the dashboard.
type Config struct {
	// ProjectDir is the directory where the user ran `opsdeck` from
	ProjectDir string

	// OpsdeckProjectDir is ProjectDir/.opsdeck
	OpsdeckProjectDir string

	Project ProjectConfig
}

// InitOpsdeckDir creates the .opsdeck directory structure in the given
// project directory. This is called when the dashboard starts up.
//
// Structure created:
// .opsdeck/
// ├── logs/       <- Diagnostic log + session journal
// └── policies/   <- Transition policy plugins (YAML or Go)
func InitOpsdeckDir(projectDir string) error {
	opsdeckDir := filepath.Join(projectDir, OpsdeckDir)

	dirs := []string{
		filepath.Join(opsdeckDir, "logs"),
		filepath.Join(opsdeckDir, "policies"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return ensureProjectConfig(filepath.Join(opsdeckDir, "config.yaml"))
}

// NewConfig creates a new Config instance populated with project settings.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:        projectDir,
		OpsdeckProjectDir: filepath.Join(projectDir, OpsdeckDir),
		Project:           defaultProjectConfig(),
	}

	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}

	// The environment wins over the file so one shell can point several
	// checkouts at a shared staging API.
	if url := strings.TrimSpace(os.Getenv("OPSDECK_API_URL")); url != "" {
		cfg.Project.API.BaseURL = url
	}
	if token := strings.TrimSpace(os.Getenv("OPSDECK_API_TOKEN")); token != "" {
		cfg.Project.API.Token = token
	}

	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.OpsdeckProjectDir, "logs")
}

// JournalPath returns the on-disk location of the session journal.
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "journal.log")
}

// PoliciesDir returns the directory scanned for transition policy plugins.
func (c *Config) PoliciesDir() string {
	return filepath.Join(c.OpsdeckProjectDir, "policies")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.OpsdeckProjectDir, "config.yaml")
}

// APIBaseURL returns the configured persistence API base URL.
func (c *Config) APIBaseURL() string {
	url := strings.TrimSpace(c.Project.API.BaseURL)
	if url == "" {
		return defaultAPIBaseURL
	}
	return strings.TrimRight(url, "/")
}

// APIToken returns the bearer token for the persistence API.
func (c *Config) APIToken() string {
	return strings.TrimSpace(c.Project.API.Token)
}

// APITimeout returns the per-request timeout for the persistence API.
func (c *Config) APITimeout() time.Duration {
	seconds := c.Project.API.TimeoutSeconds
	if seconds <= 0 {
		seconds = 10
	}
	return time.Duration(seconds) * time.Second
}

// Team returns the assignable team members.
func (c *Config) Team() []entity.TeamMember {
	return c.Project.Team
}

// DefaultBoard returns the board shown when the dashboard opens.
func (c *Config) DefaultBoard() string {
	id := strings.TrimSpace(c.Project.Boards.Default)
	if id == "" {
		return defaultBoardID
	}
	return id
}

// RefreshInterval returns how often boards re-fetch their lists, or zero
// when the automatic refresh is disabled.
func (c *Config) RefreshInterval() time.Duration {
	seconds := c.Project.Boards.RefreshSeconds
	if seconds < 0 {
		seconds = 0
	}
	return time.Duration(seconds) * time.Second
}

// SetDefaultBoard updates the default board and persists the value back
// to .opsdeck/config.yaml so the choice survives restarts.
func (c *Config) SetDefaultBoard(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("config: board id is required")
	}
	c.Project.Boards.Default = id
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var project ProjectConfig
	if err := yaml.Unmarshal(data, &project); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if project.Version == 0 {
		project.Version = 1
	}
	c.Project = mergeProjectConfig(defaultProjectConfig(), project)
	return nil
}

func (c *Config) saveProjectConfig() error {
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode project config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", c.ProjectConfigPath(), err)
	}
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		API: APIConfig{
			BaseURL:        defaultAPIBaseURL,
			TimeoutSeconds: 10,
		},
		Boards: BoardConfig{
			Default:        defaultBoardID,
			RefreshSeconds: defaultRefreshSeconds,
		},
	}
}

func mergeProjectConfig(base, loaded ProjectConfig) ProjectConfig {
	merged := loaded
	if strings.TrimSpace(merged.API.BaseURL) == "" {
		merged.API.BaseURL = base.API.BaseURL
	}
	if merged.API.TimeoutSeconds <= 0 {
		merged.API.TimeoutSeconds = base.API.TimeoutSeconds
	}
	if strings.TrimSpace(merged.Boards.Default) == "" {
		merged.Boards.Default = base.Boards.Default
	}
	if merged.Boards.RefreshSeconds == 0 {
		merged.Boards.RefreshSeconds = base.Boards.RefreshSeconds
	}
	return merged
}

// ensureProjectConfig writes the starter config if none exists yet.
func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644); err != nil {
		return fmt.Errorf("config: write default config: %w", err)
	}
	return nil
}
