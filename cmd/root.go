// Package cmd wires the fusion engine into a CLI: a one-shot decide
// command and an HTTP serving mode.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	configPath   string
	overridePath string
	dbPath       string
)

var rootCmd = &cobra.Command{
	Use:   "fuse",
	Short: "Fuse - decision fusion engine",
	Long:  `Fuse blends independent content signals into a composite score, an operational mode, and a calibrated probability vector.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/thresholds.yaml", "base thresholds file")
	rootCmd.PersistentFlags().StringVar(&overridePath, "config-override", "", "environment override thresholds file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "fuse.db", "decision database path")
}

func Execute() error {
	return rootCmd.Execute()
}
