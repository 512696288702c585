package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// Limits holds the player compatibility thresholds applied by the
// scan. Zero values are replaced by the shipped defaults.
type Limits struct {
	MaxTotalFiles        int   `mapstructure:"max_total_files"`
	MaxRootFolders       int   `mapstructure:"max_root_folders"`
	MaxFilesPerFolder    int   `mapstructure:"max_files_per_folder"`
	MaxNestingDepth      int   `mapstructure:"max_nesting_depth"`
	MaxPathLength        int   `mapstructure:"max_path_length"`
	MaxFilenameLength    int   `mapstructure:"max_filename_length"`
	MinBitrateKbps       int   `mapstructure:"min_bitrate_kbps"`
	MaxBitrateKbps       int   `mapstructure:"max_bitrate_kbps"`
	ForbiddenBitrateKbps int   `mapstructure:"forbidden_bitrate_kbps"`
	MaxAlbumArtBytes     int64 `mapstructure:"max_album_art_bytes"`
	ClusterSizeBytes     int64 `mapstructure:"cluster_size_bytes"`
}

// DefaultLimits returns the limits for the target head unit.
func DefaultLimits() Limits {
	return Limits{
		MaxTotalFiles:        DefaultMaxTotalFiles,
		MaxRootFolders:       DefaultMaxRootFolders,
		MaxFilesPerFolder:    DefaultMaxFilesPerFolder,
		MaxNestingDepth:      DefaultMaxNestingDepth,
		MaxPathLength:        DefaultMaxPathLength,
		MaxFilenameLength:    DefaultMaxFilenameLength,
		MinBitrateKbps:       DefaultMinBitrateKbps,
		MaxBitrateKbps:       DefaultMaxBitrateKbps,
		ForbiddenBitrateKbps: DefaultForbiddenBitrateKbps,
		MaxAlbumArtBytes:     DefaultMaxAlbumArtBytes,
		ClusterSizeBytes:     DefaultClusterSizeBytes,
	}
}

// Normalize replaces zero thresholds with the shipped defaults.
func (l *Limits) Normalize() {
	def := DefaultLimits()
	if l.MaxTotalFiles <= 0 {
		l.MaxTotalFiles = def.MaxTotalFiles
	}
	if l.MaxRootFolders <= 0 {
		l.MaxRootFolders = def.MaxRootFolders
	}
	if l.MaxFilesPerFolder <= 0 {
		l.MaxFilesPerFolder = def.MaxFilesPerFolder
	}
	if l.MaxNestingDepth <= 0 {
		l.MaxNestingDepth = def.MaxNestingDepth
	}
	if l.MaxPathLength <= 0 {
		l.MaxPathLength = def.MaxPathLength
	}
	if l.MaxFilenameLength <= 0 {
		l.MaxFilenameLength = def.MaxFilenameLength
	}
	if l.MinBitrateKbps <= 0 {
		l.MinBitrateKbps = def.MinBitrateKbps
	}
	if l.MaxBitrateKbps <= 0 {
		l.MaxBitrateKbps = def.MaxBitrateKbps
	}
	if l.ForbiddenBitrateKbps <= 0 {
		l.ForbiddenBitrateKbps = def.ForbiddenBitrateKbps
	}
	if l.MaxAlbumArtBytes <= 0 {
		l.MaxAlbumArtBytes = def.MaxAlbumArtBytes
	}
	if l.ClusterSizeBytes <= 0 {
		l.ClusterSizeBytes = def.ClusterSizeBytes
	}
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Components map[string]string `mapstructure:"components"`
}

// Config represents the application configuration.
type Config struct {
	// Workers overrides the scan worker count; 0 means auto.
	Workers int `mapstructure:"workers"`

	// Format selects the default report format (csv, json, plain, pretty).
	Format string `mapstructure:"format"`

	// Report is the default report file path; empty writes to stdout.
	Report string `mapstructure:"report"`

	Limits  Limits        `mapstructure:"limits"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/mediacheck/config.yaml
//   - $HOME/.config/mediacheck/config.yaml
//
// Environment variables are prefixed with MEDIACHECK_
// (e.g., MEDIACHECK_WORKERS).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "mediacheck"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "mediacheck"))

	v.SetEnvPrefix("MEDIACHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Limits.Normalize()

	return &cfg, nil
}

// SetDefaults registers all default values on a viper instance. The
// CLI calls this on its flag-bound viper so file, environment, and
// flag sources share one default set.
func SetDefaults(v *viper.Viper) {
	setDefaults(v)
}

// setDefaults registers all default values on a viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("format", DefaultFormat)
	v.SetDefault("report", "")

	def := DefaultLimits()
	v.SetDefault("limits.max_total_files", def.MaxTotalFiles)
	v.SetDefault("limits.max_root_folders", def.MaxRootFolders)
	v.SetDefault("limits.max_files_per_folder", def.MaxFilesPerFolder)
	v.SetDefault("limits.max_nesting_depth", def.MaxNestingDepth)
	v.SetDefault("limits.max_path_length", def.MaxPathLength)
	v.SetDefault("limits.max_filename_length", def.MaxFilenameLength)
	v.SetDefault("limits.min_bitrate_kbps", def.MinBitrateKbps)
	v.SetDefault("limits.max_bitrate_kbps", def.MaxBitrateKbps)
	v.SetDefault("limits.forbidden_bitrate_kbps", def.ForbiddenBitrateKbps)
	v.SetDefault("limits.max_album_art_bytes", def.MaxAlbumArtBytes)
	v.SetDefault("limits.cluster_size_bytes", def.ClusterSizeBytes)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.components", map[string]string{
		"scan":   "info",
		"walker": "info",
		"volume": "info",
		"audio":  "warn",
	})
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "mediacheck"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "mediacheck"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// WriteDefault creates a default config file if one doesn't exist.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configDir, err := ConfigDir()
	if err != nil {
		return err
	}
	configPath := filepath.Join(configDir, "config.yaml")

	// Check if config file already exists
	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	def := DefaultLimits()
	defaultConfig := fmt.Sprintf(`# Mediacheck USB Volume Verifier Configuration

# Analysis worker count; 0 selects an automatic value.
workers: %d

# Default report format (pretty, plain, csv, json, jsonl)
format: %s

# Default CSV report file; empty writes nothing.
report: ""

# Player compatibility thresholds. These match the shipped head unit
# firmware; change them only for a different target device.
limits:
  max_total_files: %d
  max_root_folders: %d
  max_files_per_folder: %d
  max_nesting_depth: %d
  max_path_length: %d
  max_filename_length: %d
  min_bitrate_kbps: %d
  max_bitrate_kbps: %d
  forbidden_bitrate_kbps: %d
  max_album_art_bytes: %d
  cluster_size_bytes: %d

# Logging configuration
logging:
  level: info
  # path: defaults to $XDG_STATE_HOME/mediacheck/mediacheck.log
  components:
    scan: info
    walker: info
    volume: info
    audio: warn
`,
		DefaultWorkers,
		DefaultFormat,
		def.MaxTotalFiles,
		def.MaxRootFolders,
		def.MaxFilesPerFolder,
		def.MaxNestingDepth,
		def.MaxPathLength,
		def.MaxFilenameLength,
		def.MinBitrateKbps,
		def.MaxBitrateKbps,
		def.ForbiddenBitrateKbps,
		def.MaxAlbumArtBytes,
		def.ClusterSizeBytes)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// StateDir returns $XDG_STATE_HOME/mediacheck/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "mediacheck")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "mediacheck.log")
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}
