// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultSuperglobals are the variables counted as superglobal accesses.
var DefaultSuperglobals = []string{
	"$_ENV", "$_POST", "$_GET", "$_COOKIE", "$_SERVER", "$_FILES", "$_REQUEST",
	"$HTTP_ENV_VARS", "$HTTP_POST_VARS", "$HTTP_GET_VARS", "$HTTP_COOKIE_VARS",
	"$HTTP_SERVER_VARS", "$HTTP_POST_FILES",
}

// DefaultTestBaseClasses are the ancestors that mark a test class.
var DefaultTestBaseClasses = []string{
	"phpunit_framework_testcase",
	`phpunit\framework\testcase`,
}

// Config represents the configuration for phpmetrics
type Config struct {
	// General settings
	Version     string `yaml:"version" json:"version"`
	ProjectName string `yaml:"project_name,omitempty" json:"project_name,omitempty"`

	// Analysis settings
	Analysis AnalysisConfig `yaml:"analysis" json:"analysis"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// File patterns
	Files FilesConfig `yaml:"files" json:"files"`

	// Watch mode
	Watch WatchConfig `yaml:"watch" json:"watch"`
}

type AnalysisConfig struct {
	// Detect test classes and test methods through class ancestry
	CountTests bool `yaml:"count_tests" json:"count_tests"`

	// Ancestors that make a class a test class
	TestBaseClasses []string `yaml:"test_base_classes" json:"test_base_classes"`

	// Parallel reading and indexing
	MaxWorkers int `yaml:"max_workers" json:"max_workers"`

	// Token source: native or treesitter
	Tokenizer string `yaml:"tokenizer" json:"tokenizer"`

	// Token streams kept between runs in watch mode (0 disables)
	CacheSize int `yaml:"cache_size" json:"cache_size"`

	Superglobals []string `yaml:"superglobals" json:"superglobals"`
}

type OutputConfig struct {
	// Default output format
	Format string `yaml:"format" json:"format"`

	// Colorized output
	Colors bool `yaml:"colors" json:"colors"`

	// Verbosity level
	Verbose bool `yaml:"verbose" json:"verbose"`

	// Include one entry per file in the report
	PerFile bool `yaml:"per_file" json:"per_file"`

	// Output file path (optional)
	OutputFile string `yaml:"output_file,omitempty" json:"output_file,omitempty"`

	// debug, info, warn or error
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Progress bar on stderr
	Progress bool `yaml:"progress" json:"progress"`
}

type FilesConfig struct {
	// Include patterns
	Include []string `yaml:"include" json:"include"`

	// Exclude patterns
	Exclude []string `yaml:"exclude" json:"exclude"`

	// Whether to follow symlinks
	FollowSymlinks bool `yaml:"follow_symlinks" json:"follow_symlinks"`

	// Max file size (in KB), 0 for no limit
	MaxFileSize int `yaml:"max_file_size" json:"max_file_size"`
}

type WatchConfig struct {
	DebounceMs int `yaml:"debounce_ms" json:"debounce_ms"`
}

var (
	validFormats    = []string{"console", "json", "csv"}
	validTokenizers = []string{"native", "treesitter"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
)

func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Analysis: AnalysisConfig{
			CountTests:      false,
			TestBaseClasses: slices.Clone(DefaultTestBaseClasses),
			MaxWorkers:      4,
			Tokenizer:       "native",
			CacheSize:       2048,
			Superglobals:    slices.Clone(DefaultSuperglobals),
		},
		Output: OutputConfig{
			Format:   "console",
			Colors:   true,
			Verbose:  false,
			PerFile:  false,
			LogLevel: "warn",
			Progress: false,
		},
		Files: FilesConfig{
			Include:        []string{"**/*.php"},
			Exclude:        []string{"**/vendor/**", "**/.git/**", "**/node_modules/**"},
			FollowSymlinks: false,
			MaxFileSize:    0,
		},
		Watch: WatchConfig{
			DebounceMs: 500,
		},
	}
}

// LoadConfig loads configuration from file or returns default
func LoadConfig(configPath string) (*Config, error) {
	// If no config path provided, look for default config files
	if configPath == "" {
		configPath = findConfigFile()
	}

	// If still no config found, return default
	if configPath == "" {
		return DefaultConfig(), nil
	}

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".toml":
		parser = toml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = koanfyaml.Parser()
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(configPath), parser); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	config := DefaultConfig() // Start with defaults
	if err := k.UnmarshalWithConf("", config, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("loaded configuration", "path", configPath)
	return config, nil
}

// findConfigFile looks for config files in common locations
func findConfigFile() string {
	possiblePaths := []string{
		".phpmetrics.yml",
		".phpmetrics.yaml",
		"phpmetrics.yml",
		"phpmetrics.yaml",
		"phpmetrics.toml",
		"phpmetrics.json",
		".config/phpmetrics.yml",
		".config/phpmetrics.yaml",
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("%w: output format %q (valid: %v)", ErrInvalidConfig, c.Output.Format, validFormats)
	}

	if !slices.Contains(validTokenizers, c.Analysis.Tokenizer) {
		return fmt.Errorf("%w: tokenizer %q (valid: %v)", ErrInvalidConfig, c.Analysis.Tokenizer, validTokenizers)
	}

	if !slices.Contains(validLogLevels, strings.ToLower(c.Output.LogLevel)) {
		return fmt.Errorf("%w: log level %q (valid: %v)", ErrInvalidConfig, c.Output.LogLevel, validLogLevels)
	}

	if c.Analysis.MaxWorkers < 1 {
		return fmt.Errorf("%w: max_workers must be at least 1", ErrInvalidConfig)
	}

	if c.Analysis.CacheSize < 0 {
		return fmt.Errorf("%w: cache_size must not be negative", ErrInvalidConfig)
	}

	if c.Analysis.CountTests && len(c.Analysis.TestBaseClasses) == 0 {
		return fmt.Errorf("%w: count_tests needs at least one test base class", ErrInvalidConfig)
	}

	if len(c.Files.Include) == 0 {
		return fmt.Errorf("%w: at least one include pattern is required", ErrInvalidConfig)
	}

	if c.Files.MaxFileSize < 0 {
		return fmt.Errorf("%w: max_file_size must not be negative", ErrInvalidConfig)
	}

	if c.Watch.DebounceMs < 0 {
		return fmt.Errorf("%w: debounce_ms must not be negative", ErrInvalidConfig)
	}

	return nil
}

// LogLevel maps the configured level name to a slog level.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Output.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateConfig creates a sample configuration file
func GenerateConfig(configPath string) error {
	config := DefaultConfig()
	return config.SaveConfig(configPath)
}
