package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/mediacheck/pkg/mediacheck/config"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "mediacheck [path]",
		Short: "Verify a music volume against car head unit limits",
		Long: `Mediacheck scans a USB music volume and reports everything the
car head unit will reject or mishandle: filesystem and partition
layout, folder structure limits, file naming, and per-file audio
encoding parameters.

The exit code is 0 when the volume is playable as-is and 1 when any
error-severity issue was found.

Examples:
  mediacheck /media/usb            # Verify a mounted stick
  mediacheck .                     # Verify the current directory
  mediacheck -o csv /media/usb     # Machine-readable report on stdout
  mediacheck -r report.csv ~/music # Write the CSV report to a file`,
		Args: cobra.MaximumNArgs(1),
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.RunE = runCheck

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/mediacheck/config.yaml)")
	rootCmd.PersistentFlags().StringP("mount", "m", "", "mount point of the volume to profile (default: the scanned path)")
	rootCmd.PersistentFlags().IntP("workers", "w", 0, "override analysis worker count (0=auto)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format (pretty, plain, csv, json, jsonl)")
	rootCmd.PersistentFlags().StringP("report", "r", "", "write a CSV report to this file in addition to stdout output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	_ = viper.BindPFlag("mount", rootCmd.PersistentFlags().Lookup("mount"))
	_ = viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("report", rootCmd.PersistentFlags().Lookup("report"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.SilenceUsage = true
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		// Add config paths in order of precedence
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "mediacheck"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "mediacheck"))
		}
	}

	viper.SetEnvPrefix("MEDIACHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
