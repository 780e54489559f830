// Package cli implements the delegate command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// GlobalOptions holds the persistent flags
type GlobalOptions struct {
	ConfigPath string // Override for $HOME/.delegate/config.yaml
	DataDir    string // Override for store.dir, implies the file driver
	As         string // Login the task commands act as
	Verbose    bool
}

// NewRootCmd builds the command tree. Each call returns a fresh tree with its
// own flag state.
func NewRootCmd() *cobra.Command {
	opts := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "delegate",
		Short: "Assign tasks down the reporting line",
		Long: `Delegate tracks tasks that managers assign to their direct subordinates.

A manager creates a task for one of their direct reports and may edit any
field of it. The responsible subordinate may only move its status. Tasks are
listed flat, grouped by due date (today, this week, later) or grouped by
responsible subordinate.

Getting started:
- Seed users:          delegate user import org.yaml
- Assign a task:       delegate task create --as boss --responsible alice --title "Report" --due 2025-01-10
- See your board:      delegate board --as alice
- Serve the HTTP API:  delegate serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Config file (default $HOME/.delegate/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "File store directory (overrides store.dir and selects the file driver)")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Log at the configured level")
	rootCmd.PersistentFlags().StringVar(&opts.As, "as", os.Getenv(envUser), "Login to act as (default $"+envUser+")")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newUserCmd(opts))
	rootCmd.AddCommand(newTaskCmd(opts))
	rootCmd.AddCommand(newBoardCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
