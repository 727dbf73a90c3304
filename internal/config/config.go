// Package config loads and saves forma.json, the project configuration
// file: server binding, project storage, data connectors and saved
// queries, export defaults, and dev-mode settings.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/forma-dev/forma/internal/errors"
	"github.com/forma-dev/forma/internal/queryhub"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "forma.json"

	// DefaultPort is the default editor server port.
	DefaultPort = 4600

	// DefaultHost is the default editor server host.
	DefaultHost = "localhost"

	// DefaultProjectsDir is the default directory for saved projects.
	DefaultProjectsDir = "projects"

	// DefaultExportDir is the default directory for exported documents.
	DefaultExportDir = "exports"
)

// Config represents the complete forma.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Version is the project version.
	Version string `json:"version,omitempty"`

	// Server contains editor server configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Paths contains path configuration for project directories.
	Paths PathsConfig `json:"paths,omitempty"`

	// Data contains connectors and saved queries for the query data
	// source.
	Data DataConfig `json:"data,omitempty"`

	// Export contains export and publish defaults.
	Export ExportConfig `json:"export,omitempty"`

	// Dev contains development settings.
	Dev DevConfig `json:"dev,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains editor server settings.
type ServerConfig struct {
	// Port is the port to serve the editor on.
	Port int `json:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty"`
}

// PathsConfig contains path configuration for project directories.
type PathsConfig struct {
	// Projects is the directory holding saved project files.
	Projects string `json:"projects,omitempty"`

	// Exports is the directory exported documents are written to.
	Exports string `json:"exports,omitempty"`
}

// DataConfig contains the query data source configuration.
type DataConfig struct {
	// Connectors are the configured target databases.
	Connectors []queryhub.Connector `json:"connectors,omitempty"`

	// Queries are the saved queries widgets may reference by id.
	Queries []queryhub.Query `json:"queries,omitempty"`
}

// ExportConfig contains export and publish defaults.
type ExportConfig struct {
	// Mode is the default export mode ("snapshot" or "live").
	Mode string `json:"mode,omitempty"`

	// Endpoint is the base URL live exports use for saved-query
	// execution.
	Endpoint string `json:"endpoint,omitempty"`

	// Bucket is the S3 bucket exports publish to.
	Bucket string `json:"bucket,omitempty"`

	// Region is the AWS region of the bucket.
	Region string `json:"region,omitempty"`

	// Prefix is the object key prefix for published documents.
	Prefix string `json:"prefix,omitempty"`
}

// DevConfig contains development settings.
type DevConfig struct {
	// Watch contains paths to watch for config and project changes.
	Watch []string `json:"watch,omitempty"`

	// HotReload re-renders connected sessions when watched files
	// change.
	HotReload bool `json:"hotReload,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Version: "0.1.0",
		Server: ServerConfig{
			Port: DefaultPort,
			Host: DefaultHost,
		},
		Paths: PathsConfig{
			Projects: DefaultProjectsDir,
			Exports:  DefaultExportDir,
		},
		Export: ExportConfig{
			Mode: "snapshot",
		},
		Dev: DevConfig{
			HotReload: true,
			Watch:     []string{"forma.json", "projects"},
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for forma.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No forma.json found in " + filepath.Dir(path)).
				WithSuggestion("Run 'forma init' or create forma.json manually")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse forma.json: " + err.Error()).
			WithSuggestion("Check that forma.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Paths.Projects == "" {
		c.Paths.Projects = DefaultProjectsDir
	}
	if c.Paths.Exports == "" {
		c.Paths.Exports = DefaultExportDir
	}
	if c.Export.Mode == "" {
		c.Export.Mode = "snapshot"
	}
	if c.Dev.Watch == nil {
		c.Dev.Watch = []string{"forma.json", c.Paths.Projects}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E122").
			WithDetail("Port must be between 0 and 65535")
	}
	if c.Export.Mode != "snapshot" && c.Export.Mode != "live" {
		return errors.New("E120").
			WithDetail("export.mode must be \"snapshot\" or \"live\"")
	}
	return nil
}

// Address returns the listen address for the editor server.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// URL returns the full URL for the editor server.
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// ProjectsPath returns the absolute path to the projects directory.
func (c *Config) ProjectsPath() string {
	return c.absPath(c.Paths.Projects)
}

// ExportsPath returns the absolute path to the exports directory.
func (c *Config) ExportsPath() string {
	return c.absPath(c.Paths.Exports)
}

func (c *Config) absPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing forma.json, or an error if not
// found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E141").
				WithDetail("No forma.json found in " + startDir + " or any parent directory").
				WithSuggestion("Run 'forma init' to create a new project")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working
// directory, walking up to the project root.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
