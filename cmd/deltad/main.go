// Package main implements the deltad CLI: the hook entry points invoked
// by the host on lifecycle and tool-use events, plus maintenance commands
// for inspecting and resetting the learned-delta store.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath overrides the default config file location.
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "deltad",
	Short: "Learned-pattern playbook hooks for agent sessions",
	Long: `deltad maintains a shared store of learned heuristics ("deltas") with
confidence scores derived from weighted feedback. The hook subcommands are
wired into the host's event configuration and invoked once per event; they
read the event payload from stdin, emit any injection on stdout, and always
exit zero so a deltad failure can never block the host.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/deltad/config.yaml)")
	rootCmd.AddCommand(sessionStartCmd)
	rootCmd.AddCommand(preToolCmd)
	rootCmd.AddCommand(postToolCmd)
	rootCmd.AddCommand(userMessageCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(resetCmd)
}
