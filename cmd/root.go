package cmd

import (
	"fmt"
	"io"
	"os"

	"attendance/config"
	"attendance/services/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Geofenced attendance backend",
	Long: `attendance records morning and afternoon check-ins and check-outs,
keeps one authoritative record per employee and day, and mirrors every
change into a Google spreadsheet.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(geofenceCmd)
}

// newLogger builds the process logger; the closer releases the log file.
func newLogger(cfg *config.AppConfig) (logger.Logger, io.Closer, error) {
	level := logger.ParseLevel(cfg.LogLevel)
	if cfg.LogDir == "" {
		return logger.NewDefaultLogger(level), io.NopCloser(nil), nil
	}
	log, closer, err := logger.NewFileLogger(level, cfg.LogDir)
	if err != nil {
		return nil, nil, err
	}
	return log, closer, nil
}
