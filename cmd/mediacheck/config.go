package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/mediacheck/pkg/mediacheck/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage mediacheck configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/mediacheck/config.yaml (if set)
  2. ~/.config/mediacheck/config.yaml

Environment variables can override config file settings using the MEDIACHECK_ prefix:
  MEDIACHECK_WORKERS=8
  MEDIACHECK_FORMAT=csv
  MEDIACHECK_LIMITS_MAX_TOTAL_FILES=10000`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		printError("Failed to load configuration: %v", err)
		cfg = &config.Config{
			Workers: config.DefaultWorkers,
			Format:  config.DefaultFormat,
			Limits:  config.DefaultLimits(),
		}
	}

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Printf("Config file: %s\n\n", configFile)
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("workers:                        %d\n", cfg.Workers)
	fmt.Printf("format:                         %s\n", cfg.Format)
	fmt.Printf("report:                         %s\n", cfg.Report)
	fmt.Printf("limits.max_total_files:         %d\n", cfg.Limits.MaxTotalFiles)
	fmt.Printf("limits.max_root_folders:        %d\n", cfg.Limits.MaxRootFolders)
	fmt.Printf("limits.max_files_per_folder:    %d\n", cfg.Limits.MaxFilesPerFolder)
	fmt.Printf("limits.max_nesting_depth:       %d\n", cfg.Limits.MaxNestingDepth)
	fmt.Printf("limits.max_path_length:         %d\n", cfg.Limits.MaxPathLength)
	fmt.Printf("limits.max_filename_length:     %d\n", cfg.Limits.MaxFilenameLength)
	fmt.Printf("limits.min_bitrate_kbps:        %d\n", cfg.Limits.MinBitrateKbps)
	fmt.Printf("limits.max_bitrate_kbps:        %d\n", cfg.Limits.MaxBitrateKbps)
	fmt.Printf("limits.forbidden_bitrate_kbps:  %d\n", cfg.Limits.ForbiddenBitrateKbps)
	fmt.Printf("limits.max_album_art_bytes:     %d\n", cfg.Limits.MaxAlbumArtBytes)
	fmt.Printf("limits.cluster_size_bytes:      %d\n", cfg.Limits.ClusterSizeBytes)
	fmt.Printf("logging.level:                  %s\n", cfg.Logging.Level)

	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	envVars := []string{
		"MEDIACHECK_WORKERS",
		"MEDIACHECK_FORMAT",
		"MEDIACHECK_REPORT",
		"MEDIACHECK_LIMITS_MAX_TOTAL_FILES",
		"MEDIACHECK_LIMITS_MAX_BITRATE_KBPS",
		"MEDIACHECK_LOGGING_LEVEL",
	}

	anyOverrides := false
	for _, name := range envVars {
		if val := os.Getenv(name); val != "" {
			fmt.Printf("%s=%s\n", name, val)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Println("(none)")
	}

	return nil
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(cmd *cobra.Command, args []string) error {
	// Ensure config file exists
	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}

	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'mediacheck config edit' to modify it.")
		return nil
	}

	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	fmt.Println(configPath)

	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}

	return nil
}
