package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	version    = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "tutorkit",
	Short: "Voice tutor workspace with a drawing board, code editor and lesson notes",
	Long: `tutorkit connects a realtime voice agent to a shared workspace: a drawing
board, a code editor with a sandboxed runner and a structured lesson document.

Quick Start:
  tutorkit serve                     # start a tutoring session
  tutorkit tools                     # list the tools offered to the agent
  tutorkit lesson validate notes.yaml`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "tutorkit.yaml", "path to the YAML config file")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
