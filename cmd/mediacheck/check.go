package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/mediacheck/pkg/mediacheck/config"
	"github.com/jamesainslie/mediacheck/pkg/mediacheck/logging"
	"github.com/jamesainslie/mediacheck/pkg/mediacheck/output"
	"github.com/jamesainslie/mediacheck/pkg/mediacheck/scan"
)

// errIncompatible marks a completed scan that found error-severity
// issues. The process exits 1 without further output.
var errIncompatible = errors.New("volume is not compatible with the player")

// runCheck is the main verification command handler.
func runCheck(cmd *cobra.Command, args []string) error {
	scanPath := "."
	if len(args) > 0 {
		scanPath = args[0]
	}

	expandedPath, err := config.ExpandPath(scanPath)
	if err != nil {
		return fmt.Errorf("failed to expand path: %w", err)
	}
	absPath, err := filepath.Abs(expandedPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("path does not exist: %s", absPath)
		}
		return fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", absPath)
	}

	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.Limits.Normalize()

	if err := setupLogging(cfg); err != nil {
		return err
	}
	defer func() { _ = logging.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printVerbose("Scanning %s (workers=%d)", absPath, cfg.Workers)

	coordinator := scan.New(cfg.Limits, cfg.Workers)
	report, err := coordinator.Run(ctx, absPath, viper.GetString("mount"))
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if !getQuiet() {
		if err := renderReport(cfg.Format, report, os.Stdout); err != nil {
			return err
		}
	}

	if cfg.Report != "" {
		if err := writeReportFile(cfg.Report, report); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		printVerbose("CSV report written to %s", cfg.Report)
	}

	if report.Errors() > 0 {
		rootCmd.SilenceErrors = true
		return errIncompatible
	}
	return nil
}

// renderReport formats the report and writes it to w.
func renderReport(format string, report *scan.Report, w *os.File) error {
	if format == "" {
		format = config.DefaultFormat
	}

	formatter, err := output.Get(format)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, report); err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// writeReportFile writes the CSV report to path, regardless of the
// stdout format.
func writeReportFile(path string, report *scan.Report) error {
	formatter, err := output.Get("csv")
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, report); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// setupLogging initializes file logging per the configuration, with
// the console level driven by the verbosity flags.
func setupLogging(cfg config.Config) error {
	logPath := cfg.Logging.Path
	if logPath == "" {
		logPath = config.DefaultLogPath()
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		// Scanning still works without a log file.
		printVerbose("Cannot create log directory: %v", err)
		logPath = ""
	}

	consoleLevel := ""
	if getVerbose() {
		consoleLevel = "debug"
	}

	level := cfg.Logging.Level
	if level == "" {
		level = "info"
	}

	return logging.Init(logging.Config{
		Level:        level,
		Path:         logPath,
		ConsoleLevel: consoleLevel,
		Components:   cfg.Logging.Components,
	})
}
